package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks the validate tags of v. Failures wrap common.ErrValidation
// and list the offending fields.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:]+" is "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(fields, ", "))
}

// Classified is the tagged result of Classify. Exactly one of Flashcard and
// Deck is set unless Kind is KindUnrecognized.
type Classified struct {
	Kind      Kind
	Flashcard *FlashcardContent
	Deck      *DeckContent
}

// Classify decodes fetched content and decides which document it is. It
// never fails: malformed or incomplete content is KindUnrecognized.
func Classify(raw []byte) Classified {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Classified{}
	}

	if _, ok := probe["flashcards"]; ok {
		if d, ok := decodeDeck(raw); ok {
			return Classified{Kind: KindDeck, Deck: d}
		}
		return Classified{}
	}

	var f FlashcardContent
	if json.Unmarshal(raw, &f) == nil && Validate(&f) == nil {
		return Classified{Kind: KindFlashcard, Flashcard: &f}
	}
	return Classified{}
}

// storedDeck is a deck document as found in storage. Only the deck's own
// fields are required; cards are decoded one at a time.
type storedDeck struct {
	Name          string            `json:"name" validate:"required"`
	Description   string            `json:"description" validate:"required"`
	Flashcards    []json.RawMessage `json:"flashcards" validate:"required"`
	FlashcardCids []string          `json:"flashcardCids"`
	Creator       string            `json:"creator"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
	OriginalCid   string            `json:"originalCid"`
}

// decodeDeck accepts card objects that decode, even incomplete ones, and
// bare CID strings, which are added to FlashcardCids.
func decodeDeck(raw []byte) (*DeckContent, bool) {
	var sd storedDeck
	if json.Unmarshal(raw, &sd) != nil || Validate(&sd) != nil {
		return nil, false
	}

	d := &DeckContent{
		Name:          sd.Name,
		Description:   sd.Description,
		Flashcards:    make([]DeckCard, 0, len(sd.Flashcards)),
		FlashcardCids: sd.FlashcardCids,
		Creator:       sd.Creator,
		CreatedAt:     sd.CreatedAt,
		UpdatedAt:     sd.UpdatedAt,
		OriginalCid:   sd.OriginalCid,
	}
	for _, item := range sd.Flashcards {
		var cid string
		if json.Unmarshal(item, &cid) == nil {
			if cid != "" && !slices.Contains(d.FlashcardCids, cid) {
				d.FlashcardCids = append(d.FlashcardCids, cid)
			}
			continue
		}
		var card DeckCard
		if json.Unmarshal(item, &card) != nil || card == (DeckCard{}) {
			continue
		}
		d.Flashcards = append(d.Flashcards, card)
	}
	return d, true
}
