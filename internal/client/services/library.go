package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/client/pinning"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/publications"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/logging"
	"golang.org/x/sync/errgroup"
)

const defaultFetchParallel = 8

// LibraryService is the user's view of flashcards and decks: ledger entries
// merged with documents found in the pin list, keyed by CID.
type LibraryService struct {
	store    pinning.Store
	session  SessionSource
	journal  journal
	repo     publications.Repository
	log      logging.Logger
	parallel int
	now      func() time.Time

	mu    sync.RWMutex
	cards map[string]models.Flashcard
	decks map[string]models.Deck
}

func NewLibraryService(store pinning.Store, session SessionSource, repo publications.Repository, log logging.Logger) *LibraryService {
	return &LibraryService{
		store:    store,
		session:  session,
		journal:  journal{repo: repo, log: log},
		repo:     repo,
		log:      log,
		parallel: defaultFetchParallel,
		now:      time.Now,
		cards:    map[string]models.Flashcard{},
		decks:    map[string]models.Deck{},
	}
}

// WithParallelism bounds the number of concurrent gateway fetches.
func (s *LibraryService) WithParallelism(n int) *LibraryService {
	if n > 0 {
		s.parallel = n
	}
	return s
}

// scanPins fetches every pin that looks like kind and is not in found yet,
// decodes it with decode and adds accepted entries. Fetch and decode
// failures drop the pin for this pass.
func scanPins[T any](ctx context.Context, s *LibraryService, kind models.Kind, found map[string]T, decode func(models.Pin, models.Classified) (T, bool)) error {
	pins, err := s.store.ListPins(ctx)
	if err != nil {
		return fmt.Errorf("list pins: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	for _, pin := range pins {
		if !pin.LooksLike(kind) {
			continue
		}
		mu.Lock()
		_, seen := found[pin.CID]
		mu.Unlock()
		if seen {
			continue
		}
		g.Go(func() error {
			raw, err := s.store.Fetch(gctx, pin.CID)
			if err != nil {
				s.log.Debug(gctx, "skip pin: fetch failed", "cid", pin.CID, "error", err)
				return nil
			}
			entry, ok := decode(pin, models.Classify(raw))
			if !ok {
				s.log.Debug(gctx, "skip pin: unrecognized content", "cid", pin.CID, "kind", kind)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if _, taken := found[pin.CID]; !taken {
				found[pin.CID] = entry
			}
			return nil
		})
	}
	return g.Wait()
}

// LoadFlashcards rebuilds the flashcard view, newest first. Ledger entries
// are seeded first and win over pin-list entries with the same CID.
func (s *LibraryService) LoadFlashcards(ctx context.Context) ([]models.Flashcard, error) {
	found := map[string]models.Flashcard{}

	if sess := s.session.Session(); sess.Connected && sess.Ledger != nil {
		onChain, err := sess.Ledger.FlashcardsByOwner(ctx, sess.Account)
		if err != nil {
			s.log.Warn(ctx, "ledger flashcards unavailable", "error", err)
		}
		for _, c := range onChain {
			if c.IpfsCid != "" {
				found[c.IpfsCid] = c
			}
		}
	}

	err := scanPins(ctx, s, models.KindFlashcard, found, func(pin models.Pin, c models.Classified) (models.Flashcard, bool) {
		if c.Kind != models.KindFlashcard {
			return models.Flashcard{}, false
		}
		card := models.FlashcardFromContent(pin.CID, c.Flashcard)
		if card.Timestamp.IsZero() {
			card.Timestamp = pin.PinnedAt
		}
		return card, true
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cards = found
	s.mu.Unlock()
	return s.Flashcards(), nil
}

// LoadDecks rebuilds the deck view the same way as LoadFlashcards.
func (s *LibraryService) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	found := map[string]models.Deck{}

	if sess := s.session.Session(); sess.Connected && sess.Ledger != nil {
		onChain, err := sess.Ledger.DecksByOwner(ctx, sess.Account)
		if err != nil {
			s.log.Warn(ctx, "ledger decks unavailable", "error", err)
		}
		for _, d := range onChain {
			if d.DeckCid != "" {
				found[d.DeckCid] = d
			}
		}
	}

	err := scanPins(ctx, s, models.KindDeck, found, func(pin models.Pin, c models.Classified) (models.Deck, bool) {
		if c.Kind != models.KindDeck {
			return models.Deck{}, false
		}
		deck := models.DeckFromContent(pin.CID, c.Deck)
		if deck.Timestamp.IsZero() {
			deck.Timestamp = pin.PinnedAt
		}
		return deck, true
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.decks = found
	s.mu.Unlock()
	return s.Decks(), nil
}

// Flashcards returns the loaded flashcards, newest first.
func (s *LibraryService) Flashcards() []models.Flashcard {
	s.mu.RLock()
	out := make([]models.Flashcard, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].IpfsCid < out[j].IpfsCid
	})
	return out
}

// Decks returns the loaded decks, newest first.
func (s *LibraryService) Decks() []models.Deck {
	s.mu.RLock()
	out := make([]models.Deck, 0, len(s.decks))
	for _, d := range s.decks {
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].DeckCid < out[j].DeckCid
	})
	return out
}

func (s *LibraryService) Flashcard(cid string) (models.Flashcard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[cid]
	return c, ok
}

func (s *LibraryService) Deck(cid string) (models.Deck, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decks[cid]
	return d, ok
}

// Study opens a study session for the deck. Decks known only from the
// ledger carry CIDs without card snapshots; those cards are resolved from
// the library or fetched.
func (s *LibraryService) Study(ctx context.Context, cid string) (*models.StudySession, error) {
	d, ok := s.Deck(cid)
	if !ok {
		return nil, fmt.Errorf("deck %s: %w", cid, common.ErrNotFound)
	}
	if len(d.Flashcards) == 0 {
		for _, fc := range d.FlashcardCids {
			card, err := s.resolveCard(ctx, fc)
			if err != nil {
				s.log.Warn(ctx, "deck card unavailable", "deck", cid, "cid", fc, "error", err)
				continue
			}
			d.Flashcards = append(d.Flashcards, card)
		}
	}
	return models.NewStudySession(d), nil
}

func (s *LibraryService) resolveCard(ctx context.Context, cid string) (models.DeckCard, error) {
	if c, ok := s.Flashcard(cid); ok {
		return models.DeckCard{Question: c.Question, Answer: c.Answer, IpfsCid: cid}, nil
	}
	raw, err := s.store.Fetch(ctx, cid)
	if err != nil {
		return models.DeckCard{}, err
	}
	c := models.Classify(raw)
	if c.Kind != models.KindFlashcard {
		return models.DeckCard{}, fmt.Errorf("%w: %s is not a flashcard", common.ErrValidation, cid)
	}
	return models.DeckCard{Question: c.Flashcard.Question, Answer: c.Flashcard.Answer, IpfsCid: cid}, nil
}

// DeleteFlashcard removes the card from the view, then unpins it. The unpin
// is best-effort; its failure is only logged.
func (s *LibraryService) DeleteFlashcard(ctx context.Context, cid string) error {
	s.mu.Lock()
	_, ok := s.cards[cid]
	delete(s.cards, cid)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("flashcard %s: %w", cid, common.ErrNotFound)
	}
	s.unpin(ctx, cid)
	return nil
}

func (s *LibraryService) DeleteDeck(ctx context.Context, cid string) error {
	s.mu.Lock()
	_, ok := s.decks[cid]
	delete(s.decks, cid)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("deck %s: %w", cid, common.ErrNotFound)
	}
	s.unpin(ctx, cid)
	return nil
}

func (s *LibraryService) unpin(ctx context.Context, cid string) {
	if err := s.store.Unpin(ctx, cid); err != nil {
		s.log.Warn(ctx, "unpin failed", "cid", cid, "error", err)
	}
	s.journal.removed(ctx, cid)
}

func (s *LibraryService) editOwner(stored string) string {
	if stored != "" {
		return stored
	}
	return s.session.Session().Owner()
}

// EditFlashcard publishes an updated document under a new CID and moves the
// library entry to it. The old CID is neither unpinned nor touched on the
// ledger.
func (s *LibraryService) EditFlashcard(ctx context.Context, cid, question, answer string) (models.Flashcard, error) {
	old, ok := s.Flashcard(cid)
	if !ok {
		return models.Flashcard{}, fmt.Errorf("flashcard %s: %w", cid, common.ErrNotFound)
	}
	form := models.FlashcardForm{Question: question, Answer: answer}
	form.Normalize()
	if err := models.Validate(&form); err != nil {
		return models.Flashcard{}, err
	}

	now := s.now()
	owner := s.editOwner(old.Owner)
	meta := models.NewPinMetadata(models.KindFlashcard, owner, true, now)
	content := models.FlashcardContent{
		Question:    form.Question,
		Answer:      form.Answer,
		Owner:       owner,
		UpdatedAt:   models.Timestamp(now),
		OriginalCid: cid,
	}
	if !old.Timestamp.IsZero() {
		content.CreatedAt = models.Timestamp(old.Timestamp)
	}
	newCid, err := s.store.Publish(ctx, content, meta)
	if err != nil {
		return models.Flashcard{}, fmt.Errorf("publish edit: %w", err)
	}
	s.journal.superseded(ctx, cid, newCid, meta, owner, now)

	updated := models.FlashcardFromContent(newCid, &content)
	s.mu.Lock()
	delete(s.cards, cid)
	s.cards[newCid] = updated
	s.mu.Unlock()

	s.log.Info(ctx, "flashcard edited", "from", cid, "cid", newCid)
	return updated, nil
}

// EditDeck republishes the deck with a new name and description, keeping
// its cards.
func (s *LibraryService) EditDeck(ctx context.Context, cid, name, description string) (models.Deck, error) {
	old, ok := s.Deck(cid)
	if !ok {
		return models.Deck{}, fmt.Errorf("deck %s: %w", cid, common.ErrNotFound)
	}

	form := models.DeckForm{Name: name, Description: description}
	form.Normalize()
	if err := models.Validate(&form); err != nil {
		return models.Deck{}, err
	}

	content := old.Content()
	content.Name, content.Description = form.Name, form.Description
	if len(content.Flashcards) == 0 {
		for _, fc := range content.FlashcardCids {
			card, err := s.resolveCard(ctx, fc)
			if err != nil {
				return models.Deck{}, fmt.Errorf("deck card %s: %w", fc, err)
			}
			content.Flashcards = append(content.Flashcards, card)
		}
	}

	now := s.now()
	owner := s.editOwner(old.Owner)
	content.Creator = owner
	content.UpdatedAt = models.Timestamp(now)
	content.OriginalCid = cid
	if old.Timestamp.IsZero() {
		content.CreatedAt = ""
	}
	if err := models.Validate(&content); err != nil {
		return models.Deck{}, err
	}

	meta := models.NewPinMetadata(models.KindDeck, owner, true, now)
	newCid, err := s.store.Publish(ctx, content, meta)
	if err != nil {
		return models.Deck{}, fmt.Errorf("publish edit: %w", err)
	}
	s.journal.superseded(ctx, cid, newCid, meta, owner, now)

	updated := models.DeckFromContent(newCid, &content)
	s.mu.Lock()
	delete(s.decks, cid)
	s.decks[newCid] = updated
	s.mu.Unlock()

	s.log.Info(ctx, "deck edited", "from", cid, "cid", newCid)
	return updated, nil
}

type Stats struct {
	Flashcards uint64
	Decks      uint64
}

// Stats reads the global counters from the ledger.
func (s *LibraryService) Stats(ctx context.Context) (Stats, error) {
	sess := s.session.Session()
	if !sess.Connected || sess.Ledger == nil {
		return Stats{}, common.ErrNotConnected
	}
	var st Stats
	var errs []error
	n, err := sess.Ledger.FlashcardCount(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("flashcard count: %w", err))
	}
	st.Flashcards = n
	n, err = sess.Ledger.DeckCount(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("deck count: %w", err))
	}
	st.Decks = n
	return st, errors.Join(errs...)
}

// Pending lists published originals whose ledger registration was never
// confirmed.
func (s *LibraryService) Pending(ctx context.Context) ([]*models.Publication, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.GetAllPending(ctx)
}

// Resume registers a pending publication on the ledger from its pinned
// content.
func (s *LibraryService) Resume(ctx context.Context, cid string) error {
	sess, err := connected(s.session)
	if err != nil {
		return err
	}
	raw, err := s.store.Fetch(ctx, cid)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", cid, err)
	}

	c := models.Classify(raw)
	switch c.Kind {
	case models.KindFlashcard:
		_, err = sess.Ledger.RegisterFlashcard(ctx, c.Flashcard.Question, c.Flashcard.Answer, cid)
	case models.KindDeck:
		cids := c.Deck.FlashcardCids
		if len(cids) == 0 {
			for _, fc := range c.Deck.Flashcards {
				if fc.IpfsCid != "" {
					cids = append(cids, fc.IpfsCid)
				}
			}
		}
		_, err = sess.Ledger.RegisterDeck(ctx, c.Deck.Name, c.Deck.Description, cids, cid)
	default:
		return fmt.Errorf("%w: %s is not a flashcard or deck document", common.ErrValidation, cid)
	}
	if err != nil {
		return fmt.Errorf("register %s: %w", cid, err)
	}
	s.journal.registered(ctx, cid)
	s.log.Info(ctx, "pending publication registered", "cid", cid, "kind", c.Kind)
	return nil
}
