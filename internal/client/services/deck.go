package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/client/ledger"
	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/client/pinning"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/publications"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/logging"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// CardLookup resolves flashcards already in the library by CID.
// *LibraryService implements it.
type CardLookup interface {
	Flashcard(cid string) (models.Flashcard, bool)
}

// DeckService runs the Create Deck flow.
type DeckService struct {
	store   pinning.Store
	session SessionSource
	cards   CardLookup
	journal journal
	log     logging.Logger
	now     func() time.Time
}

func NewDeckService(store pinning.Store, session SessionSource, cards CardLookup, repo publications.Repository, log logging.Logger) *DeckService {
	return &DeckService{
		store:   store,
		session: session,
		cards:   cards,
		journal: journal{repo: repo, log: log},
		log:     log,
		now:     time.Now,
	}
}

// Create publishes and registers every new card of form in order, then
// publishes the deck document and registers it. A failure before the deck
// document is published stops the flow as Failed and leaves the cards
// registered so far in form.Registered. A failed deck registration
// ends as Degraded: the deck stays published and its CID is returned together
// with the error. The form is reset when the deck document was published.
func (s *DeckService) Create(ctx context.Context, form *models.DeckForm, observe Observer) (models.Deck, models.Notice, error) {
	log := s.log.With("flow", "deck", "run", uuid.NewString())
	t := newTracker(observe)

	// done collects the new cards registered by this attempt. On failure they
	// move from form.Cards to form.Registered so a retry does not pay for
	// them twice.
	var done []models.DeckCard
	fail := func(err error) (models.Deck, models.Notice, error) {
		if len(done) > 0 {
			form.Registered = append(form.Registered, done...)
			form.Cards = form.Cards[len(done):]
		}
		t.fail(err)
		return models.Deck{}, NoticeFor(err), err
	}

	t.set(models.StageValidating, 0, "")
	in := *form
	in.Cards = slices.Clone(form.Cards)
	in.Registered = slices.Clone(form.Registered)
	in.Normalize()
	if err := in.Check(); err != nil {
		return fail(err)
	}
	sess, err := connected(s.session)
	if err != nil {
		return fail(err)
	}
	selected, err := s.resolveSelected(in.SelectedCids)
	if err != nil {
		return fail(err)
	}
	owner := sess.Owner()

	// Two ledger-bound steps per new card plus two for the deck itself.
	steps := 2*len(in.Cards) + 2
	step := 0
	percent := func() int {
		step++
		return step * 95 / steps
	}

	total := len(in.Registered) + len(in.Cards) + len(selected)
	embedded := make([]models.DeckCard, 0, total)
	cids := make([]string, 0, total)
	for _, c := range in.Registered {
		embedded = append(embedded, c)
		cids = append(cids, c.IpfsCid)
	}

	for i, card := range in.Cards {
		label := fmt.Sprintf("card %d/%d", i+1, len(in.Cards))

		t.set(models.StageUploading, percent(), "uploading "+label)
		now := s.now()
		meta := models.NewPinMetadata(models.KindFlashcard, owner, false, now)
		cid, err := s.store.Publish(ctx, models.FlashcardContent{
			Question:  card.Question,
			Answer:    card.Answer,
			Owner:     owner,
			CreatedAt: models.Timestamp(now),
		}, meta)
		if err != nil {
			log.Error(ctx, "card publish failed", "card", i+1, "error", err)
			return fail(fmt.Errorf("%s: %w", label, err))
		}
		s.journal.published(ctx, cid, meta, owner, now)

		t.set(models.StageAwaitingSignature, percent(), "confirm "+label)
		cardCtx := ledger.WithSubmitted(ctx, func(tx ethcommon.Hash) {
			t.set(models.StageConfirming, t.last.Percent, label+" "+tx.Hex())
		})
		if _, err := sess.Ledger.RegisterFlashcard(cardCtx, card.Question, card.Answer, cid); err != nil {
			log.Error(ctx, "card registration failed", "card", i+1, "cid", cid, "error", err)
			return fail(fmt.Errorf("%s: %w", label, err))
		}
		s.journal.registered(ctx, cid)
		log.Info(ctx, "card registered", "card", i+1, "cid", cid)

		registered := models.DeckCard{Question: card.Question, Answer: card.Answer, IpfsCid: cid}
		done = append(done, registered)
		embedded = append(embedded, registered)
		cids = append(cids, cid)
	}
	for _, c := range selected {
		embedded = append(embedded, c)
		cids = append(cids, c.IpfsCid)
	}

	t.set(models.StageUploading, percent(), "uploading deck")
	now := s.now()
	meta := models.NewPinMetadata(models.KindDeck, owner, false, now)
	content := models.DeckContent{
		Name:          in.Name,
		Description:   in.Description,
		Flashcards:    embedded,
		FlashcardCids: cids,
		Creator:       owner,
		CreatedAt:     models.Timestamp(now),
	}
	deckCid, err := s.store.Publish(ctx, content, meta)
	if err != nil {
		log.Error(ctx, "deck publish failed", "error", err)
		return fail(fmt.Errorf("deck: %w", err))
	}
	s.journal.published(ctx, deckCid, meta, owner, now)
	deck := models.DeckFromContent(deckCid, &content)
	form.Reset()

	t.set(models.StageAwaitingSignature, percent(), "confirm deck")
	deckCtx := ledger.WithSubmitted(ctx, func(tx ethcommon.Hash) {
		t.set(models.StageConfirming, t.last.Percent, "deck "+tx.Hex())
	})
	if _, err := sess.Ledger.RegisterDeck(deckCtx, in.Name, in.Description, cids, deckCid); err != nil {
		log.Warn(ctx, "deck registration failed", "cid", deckCid, "error", err)
		t.set(models.StageDegraded, t.last.Percent, err.Error())
		msg := fmt.Sprintf("Deck uploaded to IPFS (CID: %s) but on-chain registration failed: %s",
			deckCid, NoticeFor(err).Message)
		return deck, models.Notice{Severity: models.SeverityWarning, Message: msg}, err
	}
	s.journal.registered(ctx, deckCid)
	deck.Source = models.SourceLedger

	t.set(models.StageDone, 100, deckCid)
	return deck, models.Notice{
		Severity: models.SeveritySuccess,
		Message:  fmt.Sprintf("Deck created successfully with %d flashcards! CID: %s", len(cids), deckCid),
	}, nil
}

// resolveSelected snapshots library flashcards chosen for the deck.
func (s *DeckService) resolveSelected(cids []string) ([]models.DeckCard, error) {
	out := make([]models.DeckCard, 0, len(cids))
	seen := make(map[string]bool, len(cids))
	for _, cid := range cids {
		if seen[cid] {
			continue
		}
		seen[cid] = true
		if s.cards == nil {
			return nil, fmt.Errorf("%w: flashcard %s is not in the library", common.ErrValidation, cid)
		}
		c, ok := s.cards.Flashcard(cid)
		if !ok {
			return nil, fmt.Errorf("%w: flashcard %s is not in the library", common.ErrValidation, cid)
		}
		out = append(out, models.DeckCard{Question: c.Question, Answer: c.Answer, IpfsCid: cid})
	}
	return out, nil
}
