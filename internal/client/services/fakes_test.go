package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/flashvault/internal/client/ledger"
	"github.com/dmitrijs2005/flashvault/internal/client/localdb"
	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/publications"
	"github.com/dmitrijs2005/flashvault/internal/client/wallet"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var owner = ethcommon.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

type publishCall struct {
	content any
	meta    models.PinMetadata
}

type fakeStore struct {
	mu        sync.Mutex
	cids      []string
	published []publishCall
	failAt    map[int]error

	unpinned []string
	unpinErr error

	pins     []models.Pin
	listErr  error
	docs     map[string][]byte
	fetchErr map[string]error
	fetched  []string
}

func (f *fakeStore) Publish(_ context.Context, content any, meta models.PinMetadata) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.published)
	f.published = append(f.published, publishCall{content: content, meta: meta})
	if err := f.failAt[i]; err != nil {
		return "", err
	}
	if i < len(f.cids) {
		return f.cids[i], nil
	}
	return fmt.Sprintf("QmGenerated%d", i), nil
}

func (f *fakeStore) Unpin(_ context.Context, cid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unpinned = append(f.unpinned, cid)
	return f.unpinErr
}

func (f *fakeStore) Fetch(_ context.Context, cid string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, cid)
	if err := f.fetchErr[cid]; err != nil {
		return nil, err
	}
	doc, ok := f.docs[cid]
	if !ok {
		return nil, fmt.Errorf("no document %s", cid)
	}
	return doc, nil
}

func (f *fakeStore) ListPins(context.Context) ([]models.Pin, error) {
	return f.pins, f.listErr
}

func (f *fakeStore) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type regCall struct {
	method string
	args   []any
}

type fakeRegistry struct {
	ledger.Registry

	mu        sync.Mutex
	calls     []regCall
	cardErrAt map[int]error
	deckErr   error

	cards   []models.Flashcard
	decks   []models.Deck
	readErr error

	flashcardCount, deckCount uint64
}

func (r *fakeRegistry) RegisterFlashcard(ctx context.Context, question, answer, cid string) (*types.Receipt, error) {
	r.mu.Lock()
	n := 0
	for _, c := range r.calls {
		if c.method == "addFlashcard" {
			n++
		}
	}
	r.calls = append(r.calls, regCall{"addFlashcard", []any{question, answer, cid}})
	err := r.cardErrAt[n]
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	ledger.NotifySubmitted(ctx, ethcommon.HexToHash("0xabc"))
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (r *fakeRegistry) RegisterDeck(ctx context.Context, name, description string, flashcardCids []string, deckCid string) (*types.Receipt, error) {
	r.mu.Lock()
	r.calls = append(r.calls, regCall{"createDeck", []any{name, description, flashcardCids, deckCid}})
	r.mu.Unlock()
	if r.deckErr != nil {
		return nil, r.deckErr
	}
	ledger.NotifySubmitted(ctx, ethcommon.HexToHash("0xdef"))
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (r *fakeRegistry) FlashcardsByOwner(context.Context, ethcommon.Address) ([]models.Flashcard, error) {
	return r.cards, r.readErr
}

func (r *fakeRegistry) DecksByOwner(context.Context, ethcommon.Address) ([]models.Deck, error) {
	return r.decks, r.readErr
}

func (r *fakeRegistry) FlashcardCount(context.Context) (uint64, error) {
	return r.flashcardCount, r.readErr
}

func (r *fakeRegistry) DeckCount(context.Context) (uint64, error) {
	return r.deckCount, r.readErr
}

func (r *fakeRegistry) methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.method)
	}
	return out
}

type fakeSession struct {
	s wallet.Session
}

func (f fakeSession) Session() wallet.Session { return f.s }

func connectedSession(reg *fakeRegistry) fakeSession {
	return fakeSession{s: wallet.Session{Account: owner, Connected: true, Ledger: reg}}
}

func newRepos(t *testing.T) *localdb.Repositories {
	t.Helper()
	repos, err := localdb.OpenDSN(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

type recorder struct {
	mu    sync.Mutex
	steps []models.Progress
}

func (r *recorder) observe(p models.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, p)
}

func (r *recorder) stages() []models.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Stage, 0, len(r.steps))
	for _, p := range r.steps {
		out = append(out, p.Stage)
	}
	return out
}

func (r *recorder) last() models.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps[len(r.steps)-1]
}

// journalProbe reads back the publication journal.
type journalProbe struct {
	repo publications.Repository
}

func (j journalProbe) get(t *testing.T, cid string) *models.Publication {
	t.Helper()
	p, err := j.repo.GetByCID(context.Background(), cid)
	require.NoError(t, err)
	return p
}
