package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibrary(t *testing.T, store *fakeStore, src SessionSource) (*LibraryService, journalProbe) {
	t.Helper()
	repos := newRepos(t)
	s := NewLibraryService(store, src, repos.Publications, logging.Nop{}).WithParallelism(2)
	s.now = func() time.Time { return fixedNow }
	return s, journalProbe{repos.Publications}
}

func cardDoc(t *testing.T, q, a string, created time.Time) []byte {
	return mustJSON(t, models.FlashcardContent{Question: q, Answer: a, Owner: owner.Hex(), CreatedAt: models.Timestamp(created)})
}

func TestLibraryService_LoadFlashcards_DedupByCID(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := &fakeRegistry{cards: []models.Flashcard{
		{Question: "from ledger", Answer: "a", Owner: owner.Hex(), Timestamp: t0, IpfsCid: "Qm1", Source: models.SourceLedger},
	}}
	store := &fakeStore{
		pins: []models.Pin{
			{CID: "Qm1", Name: "flashcard-1"},
			{CID: "Qm2", Name: "flashcard-2"},
			{CID: "Qm2", Name: "flashcard-2"},
			{CID: "Qm3", Name: "whatever", KeyValues: map[string]string{"type": "flashcard"}},
			{CID: "QmDeck", Name: "deck-1"},
			{CID: "QmJunk", Name: "flashcard-3"},
			{CID: "QmGone", Name: "flashcard-4"},
			{CID: "QmOther", Name: "avatar.png"},
		},
		docs: map[string][]byte{
			"Qm1":    cardDoc(t, "from pin", "a", t0),
			"Qm2":    cardDoc(t, "second", "b", t0.Add(2*time.Hour)),
			"Qm3":    cardDoc(t, "third", "c", t0.Add(time.Hour)),
			"QmDeck": mustJSON(t, models.DeckContent{Name: "n", Description: "d", Flashcards: []models.DeckCard{{Question: "q", Answer: "a"}}}),
			"QmJunk": []byte(`{"title":"not a card"}`),
		},
		fetchErr: map[string]error{"QmGone": fmt.Errorf("%w: timeout", common.ErrNetwork)},
	}
	s, _ := newLibrary(t, store, connectedSession(reg))

	cards, err := s.LoadFlashcards(context.Background())
	require.NoError(t, err)

	cids := make([]string, 0, len(cards))
	for _, c := range cards {
		cids = append(cids, c.IpfsCid)
	}
	assert.Equal(t, []string{"Qm2", "Qm3", "Qm1"}, cids)

	first, ok := s.Flashcard("Qm1")
	require.True(t, ok)
	assert.Equal(t, "from ledger", first.Question)
	assert.Equal(t, models.SourceLedger, first.Source)

	assert.NotContains(t, store.fetched, "Qm1", "ledger entries are not refetched")
	assert.NotContains(t, store.fetched, "QmDeck")
	assert.NotContains(t, store.fetched, "QmOther")
}

func TestLibraryService_LoadFlashcards_WithoutLedger(t *testing.T) {
	store := &fakeStore{
		pins: []models.Pin{{CID: "Qm1", Name: "flashcard-1", PinnedAt: fixedNow}},
		docs: map[string][]byte{"Qm1": []byte(`{"question":"q","answer":"a"}`)},
	}

	t.Run("disconnected", func(t *testing.T) {
		s, _ := newLibrary(t, store, fakeSession{})
		cards, err := s.LoadFlashcards(context.Background())
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, models.SourcePinList, cards[0].Source)
		assert.Equal(t, fixedNow, cards[0].Timestamp, "pin date used when the document has none")
	})

	t.Run("ledger error tolerated", func(t *testing.T) {
		s, _ := newLibrary(t, store, connectedSession(&fakeRegistry{readErr: errors.New("execution reverted")}))
		cards, err := s.LoadFlashcards(context.Background())
		require.NoError(t, err)
		require.Len(t, cards, 1)
	})
}

func TestLibraryService_LoadFlashcards_ListError(t *testing.T) {
	store := &fakeStore{listErr: fmt.Errorf("%w: 401", common.ErrUpload)}
	s, _ := newLibrary(t, store, fakeSession{})
	_, err := s.LoadFlashcards(context.Background())
	require.ErrorIs(t, err, common.ErrUpload)
}

func TestLibraryService_LoadDecks(t *testing.T) {
	reg := &fakeRegistry{decks: []models.Deck{
		{Name: "on chain", FlashcardCids: []string{"QmA"}, DeckCid: "QmD1", Timestamp: fixedNow, Source: models.SourceLedger},
	}}
	store := &fakeStore{
		pins: []models.Pin{
			{CID: "QmD1", Name: "deck-1"},
			{CID: "QmD2", Name: "deck-2"},
			{CID: "QmA", Name: "flashcard-1"},
		},
		docs: map[string][]byte{
			"QmD2": mustJSON(t, models.DeckContent{
				Name: "pinned", Description: "d",
				Flashcards: []models.DeckCard{{Question: "q", Answer: "a", IpfsCid: "QmA"}},
				CreatedAt:  models.Timestamp(fixedNow.Add(-time.Hour)),
			}),
			"QmA": []byte(`{"question":"card q","answer":"card a"}`),
		},
	}
	s, _ := newLibrary(t, store, connectedSession(reg))

	decks, err := s.LoadDecks(context.Background())
	require.NoError(t, err)
	require.Len(t, decks, 2)
	assert.Equal(t, "QmD1", decks[0].DeckCid)
	assert.Equal(t, "on chain", decks[0].Name)
	assert.Equal(t, "QmD2", decks[1].DeckCid)

	// The ledger deck has no snapshot; its card is fetched for study.
	study, err := s.Study(context.Background(), "QmD1")
	require.NoError(t, err)
	require.Equal(t, 1, study.Len())
	card, ok := study.Current()
	require.True(t, ok)
	assert.Equal(t, "card q", card.Question)

	_, err = s.Study(context.Background(), "QmMissing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func loadedLibrary(t *testing.T, store *fakeStore, src SessionSource) (*LibraryService, journalProbe) {
	t.Helper()
	s, j := newLibrary(t, store, src)
	_, err := s.LoadFlashcards(context.Background())
	require.NoError(t, err)
	_, err = s.LoadDecks(context.Background())
	require.NoError(t, err)
	return s, j
}

func TestLibraryService_EditFlashcard(t *testing.T) {
	created := fixedNow.Add(-24 * time.Hour)
	store := &fakeStore{
		cids: []string{"QmNew"},
		pins: []models.Pin{{CID: "QmOld", Name: "flashcard-1"}},
		docs: map[string][]byte{"QmOld": cardDoc(t, "q", "a", created)},
	}
	reg := &fakeRegistry{}
	s, journal := loadedLibrary(t, store, connectedSession(reg))

	updated, err := s.EditFlashcard(context.Background(), "QmOld", " new q ", "new a")
	require.NoError(t, err)

	assert.Equal(t, "QmNew", updated.IpfsCid)
	assert.Equal(t, "new q", updated.Question)
	assert.Equal(t, fixedNow, updated.Timestamp)

	_, ok := s.Flashcard("QmOld")
	assert.False(t, ok)
	_, ok = s.Flashcard("QmNew")
	assert.True(t, ok)

	assert.Empty(t, store.unpinned, "old CID stays pinned")
	assert.Empty(t, reg.calls, "edits are not registered")

	require.Len(t, store.published, 1)
	doc := store.published[0].content.(models.FlashcardContent)
	assert.Equal(t, "QmOld", doc.OriginalCid)
	assert.Equal(t, models.Timestamp(created), doc.CreatedAt)
	assert.Equal(t, models.Timestamp(fixedNow), doc.UpdatedAt)
	assert.Equal(t, fmt.Sprintf("flashcard-updated-%d", fixedNow.UnixMilli()), store.published[0].meta.Name)

	assert.Equal(t, "QmOld", journal.get(t, "QmNew").EditedFrom)
}

func TestLibraryService_EditFlashcard_Errors(t *testing.T) {
	store := &fakeStore{
		pins: []models.Pin{{CID: "QmOld", Name: "flashcard-1"}},
		docs: map[string][]byte{"QmOld": cardDoc(t, "q", "a", fixedNow)},
	}
	s, _ := loadedLibrary(t, store, fakeSession{})

	_, err := s.EditFlashcard(context.Background(), "QmOld", "", "a")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = s.EditFlashcard(context.Background(), "QmMissing", "q", "a")
	require.ErrorIs(t, err, common.ErrNotFound)

	store.failAt = map[int]error{0: fmt.Errorf("%w: 500", common.ErrUpload)}
	_, err = s.EditFlashcard(context.Background(), "QmOld", "q2", "a2")
	require.ErrorIs(t, err, common.ErrUpload)
	_, ok := s.Flashcard("QmOld")
	assert.True(t, ok, "entry kept when the edit was not published")
}

func TestLibraryService_EditDeck(t *testing.T) {
	store := &fakeStore{
		cids: []string{"QmDeck2"},
		pins: []models.Pin{{CID: "QmDeck1", Name: "deck-1"}},
		docs: map[string][]byte{"QmDeck1": mustJSON(t, models.DeckContent{
			Name: "old", Description: "old d",
			Flashcards:    []models.DeckCard{{Question: "q", Answer: "a", IpfsCid: "QmA"}},
			FlashcardCids: []string{"QmA"},
			CreatedAt:     models.Timestamp(fixedNow.Add(-time.Hour)),
		})},
	}
	s, _ := loadedLibrary(t, store, connectedSession(&fakeRegistry{}))

	deck, err := s.EditDeck(context.Background(), "QmDeck1", "new", "new d")
	require.NoError(t, err)
	assert.Equal(t, "QmDeck2", deck.DeckCid)
	assert.Equal(t, "new", deck.Name)
	assert.Equal(t, []string{"QmA"}, deck.FlashcardCids)

	doc := store.published[0].content.(models.DeckContent)
	assert.Equal(t, "QmDeck1", doc.OriginalCid)
	assert.Len(t, doc.Flashcards, 1)
	assert.Equal(t, fmt.Sprintf("deck-updated-%d", fixedNow.UnixMilli()), store.published[0].meta.Name)
	assert.Empty(t, store.unpinned)

	_, ok := s.Deck("QmDeck1")
	assert.False(t, ok)

	_, err = s.EditDeck(context.Background(), "QmDeck2", "", "d")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestLibraryService_Delete(t *testing.T) {
	store := &fakeStore{
		pins: []models.Pin{{CID: "Qm1", Name: "flashcard-1"}, {CID: "QmD", Name: "deck-1"}},
		docs: map[string][]byte{
			"Qm1": cardDoc(t, "q", "a", fixedNow),
			"QmD": mustJSON(t, models.DeckContent{Name: "n", Description: "d", Flashcards: []models.DeckCard{{Question: "q", Answer: "a"}}}),
		},
		unpinErr: fmt.Errorf("%w: 404", common.ErrUpload),
	}
	s, _ := loadedLibrary(t, store, fakeSession{})

	require.NoError(t, s.DeleteFlashcard(context.Background(), "Qm1"), "unpin failure is not surfaced")
	assert.Empty(t, s.Flashcards())
	require.NoError(t, s.DeleteDeck(context.Background(), "QmD"))
	assert.Empty(t, s.Decks())
	assert.Equal(t, []string{"Qm1", "QmD"}, store.unpinned)

	require.ErrorIs(t, s.DeleteFlashcard(context.Background(), "Qm1"), common.ErrNotFound)
	require.ErrorIs(t, s.DeleteDeck(context.Background(), "QmD"), common.ErrNotFound)
}

func TestLibraryService_Stats(t *testing.T) {
	s, _ := newLibrary(t, &fakeStore{}, fakeSession{})
	_, err := s.Stats(context.Background())
	require.ErrorIs(t, err, common.ErrNotConnected)

	s, _ = newLibrary(t, &fakeStore{}, connectedSession(&fakeRegistry{flashcardCount: 4, deckCount: 2}))
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Flashcards: 4, Decks: 2}, st)
}

func TestLibraryService_PendingAndResume(t *testing.T) {
	store := &fakeStore{
		cids: []string{"QmOrphan"},
		docs: map[string][]byte{"QmOrphan": []byte(`{"question":"q","answer":"a"}`)},
	}
	reg := &fakeRegistry{cardErrAt: map[int]error{0: fmt.Errorf("%w", common.ErrUserRejected)}}
	src := connectedSession(reg)

	repos := newRepos(t)
	fs := NewFlashcardService(store, src, repos.Publications, logging.Nop{})
	_, _, err := fs.Create(context.Background(), &models.FlashcardForm{Question: "q", Answer: "a"}, nil)
	require.Error(t, err)

	lib := NewLibraryService(store, src, repos.Publications, logging.Nop{})
	pending, err := lib.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "QmOrphan", pending[0].CID)

	require.NoError(t, lib.Resume(context.Background(), "QmOrphan"))
	assert.Equal(t, regCall{"addFlashcard", []any{"q", "a", "QmOrphan"}}, reg.calls[1])

	pending, err = lib.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	store.docs["QmJunk"] = []byte(`[]`)
	require.ErrorIs(t, lib.Resume(context.Background(), "QmJunk"), common.ErrValidation)
}
