package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/flashvault/internal/common"
)

// FlashcardForm is the user input of the Create Flashcard flow.
type FlashcardForm struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// Normalize trims surrounding whitespace so blank input fails validation.
func (f *FlashcardForm) Normalize() {
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
}

func (f *FlashcardForm) Reset() {
	*f = FlashcardForm{}
}

// DeckForm is the user input of the Create Deck flow. Cards are new
// flashcards to publish and register; SelectedCids reference flashcards that
// already exist and are embedded as they are. Registered holds cards an
// earlier failed attempt already put on the ledger; they are embedded
// without being published or registered again.
type DeckForm struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description" validate:"required"`
	Cards        []FlashcardForm `json:"cards" validate:"dive"`
	SelectedCids []string        `json:"selectedCids"`
	Registered   []DeckCard      `json:"-"`
}

func (f *DeckForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	for i := range f.Cards {
		f.Cards[i].Normalize()
	}
}

// Check validates the tags and requires at least one card, new or selected.
func (f *DeckForm) Check() error {
	if err := Validate(f); err != nil {
		return err
	}
	if len(f.Cards)+len(f.SelectedCids)+len(f.Registered) == 0 {
		return fmt.Errorf("%w: deck needs at least one flashcard", common.ErrValidation)
	}
	return nil
}

func (f *DeckForm) Reset() {
	*f = DeckForm{}
}
