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

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newFlashcardService(t *testing.T, store *fakeStore, src SessionSource) (*FlashcardService, journalProbe) {
	t.Helper()
	repos := newRepos(t)
	s := NewFlashcardService(store, src, repos.Publications, logging.Nop{})
	s.now = func() time.Time { return fixedNow }
	return s, journalProbe{repos.Publications}
}

func TestFlashcardService_Create_Web3Scenario(t *testing.T) {
	store := &fakeStore{cids: []string{"Qm123"}}
	reg := &fakeRegistry{}
	s, journal := newFlashcardService(t, store, connectedSession(reg))

	form := &models.FlashcardForm{Question: "What is Web3?", Answer: "A decentralized internet"}
	rec := &recorder{}
	card, notice, err := s.Create(context.Background(), form, rec.observe)
	require.NoError(t, err)

	// The CID returned by the publisher reaches the ledger unchanged.
	require.Len(t, reg.calls, 1)
	assert.Equal(t, regCall{"addFlashcard", []any{"What is Web3?", "A decentralized internet", "Qm123"}}, reg.calls[0])

	assert.Equal(t, models.FlashcardForm{}, *form)
	assert.Equal(t, models.SeveritySuccess, notice.Severity)
	assert.Contains(t, notice.Message, "Qm123")
	assert.Equal(t, "Qm123", card.IpfsCid)
	assert.Equal(t, owner.Hex(), card.Owner)

	require.Len(t, store.published, 1)
	content := store.published[0].content.(models.FlashcardContent)
	assert.Equal(t, owner.Hex(), content.Owner)
	assert.Equal(t, models.Timestamp(fixedNow), content.CreatedAt)
	assert.Equal(t, fmt.Sprintf("flashcard-%d", fixedNow.UnixMilli()), store.published[0].meta.Name)
	assert.Equal(t, map[string]string{models.KeyType: "flashcard", models.KeyOwner: owner.Hex()}, store.published[0].meta.KeyValues)

	assert.Equal(t, []models.Stage{
		models.StageValidating,
		models.StageUploading,
		models.StageUploading,
		models.StageAwaitingSignature,
		models.StageConfirming,
		models.StageDone,
	}, rec.stages())
	for _, p := range rec.steps[:len(rec.steps)-1] {
		assert.Less(t, p.Percent, 100)
	}
	assert.Equal(t, 100, rec.last().Percent)

	p := journal.get(t, "Qm123")
	assert.True(t, p.Registered)
	assert.Equal(t, models.KindFlashcard, p.Kind)
}

func TestFlashcardService_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		form models.FlashcardForm
		src  SessionSource
		want error
	}{
		{"blank question", models.FlashcardForm{Question: "   ", Answer: "a"}, connectedSession(&fakeRegistry{}), common.ErrValidation},
		{"blank answer", models.FlashcardForm{Question: "q", Answer: "\t"}, connectedSession(&fakeRegistry{}), common.ErrValidation},
		{"not connected", models.FlashcardForm{Question: "q", Answer: "a"}, fakeSession{}, common.ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			s, _ := newFlashcardService(t, store, tt.src)
			form := tt.form
			rec := &recorder{}

			_, notice, err := s.Create(context.Background(), &form, rec.observe)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, models.SeverityError, notice.Severity)
			assert.Equal(t, models.StageFailed, rec.last().Stage)
			assert.Zero(t, store.publishedCount())
			assert.Equal(t, tt.form, form, "form must be kept on failure")
		})
	}
}

func TestFlashcardService_Create_Failures(t *testing.T) {
	t.Run("upload fails", func(t *testing.T) {
		store := &fakeStore{failAt: map[int]error{0: fmt.Errorf("publish: %w: 401", common.ErrUpload)}}
		reg := &fakeRegistry{}
		s, _ := newFlashcardService(t, store, connectedSession(reg))
		rec := &recorder{}

		_, notice, err := s.Create(context.Background(), &models.FlashcardForm{Question: "q", Answer: "a"}, rec.observe)
		require.ErrorIs(t, err, common.ErrUpload)
		assert.Empty(t, reg.calls)
		assert.Equal(t, models.StageFailed, rec.last().Stage)
		assert.Contains(t, notice.Message, "Upload")
	})

	t.Run("signature rejected", func(t *testing.T) {
		store := &fakeStore{cids: []string{"QmOrphan"}}
		reg := &fakeRegistry{cardErrAt: map[int]error{0: fmt.Errorf("addFlashcard: %w", common.ErrUserRejected)}}
		s, journal := newFlashcardService(t, store, connectedSession(reg))
		form := &models.FlashcardForm{Question: "q", Answer: "a"}
		rec := &recorder{}

		_, notice, err := s.Create(context.Background(), form, rec.observe)
		require.ErrorIs(t, err, common.ErrUserRejected)
		assert.Equal(t, "The request was rejected in the wallet.", notice.Message)
		assert.Equal(t, []models.Stage{
			models.StageValidating, models.StageUploading, models.StageUploading,
			models.StageAwaitingSignature, models.StageFailed,
		}, rec.stages())
		assert.Equal(t, "q", form.Question)

		// The upload happened; the journal keeps it as pending.
		assert.False(t, journal.get(t, "QmOrphan").Registered)
	})
}

func TestFlashcardService_Create_NilObserver(t *testing.T) {
	s, _ := newFlashcardService(t, &fakeStore{}, connectedSession(&fakeRegistry{}))
	_, _, err := s.Create(context.Background(), &models.FlashcardForm{Question: "q", Answer: "a"}, nil)
	require.NoError(t, err)
}

func TestNoticeFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %w", common.ErrValidation, common.ErrNotConnected), "Please connect your wallet first."},
		{common.ErrUserRejected, "The request was rejected in the wallet."},
		{common.ErrInsufficientFunds, "Insufficient funds to pay for gas."},
		{common.ErrNetwork, "Network error, please try again."},
		{errors.New("boom"), "Something went wrong: boom"},
	}
	for _, tt := range tests {
		n := NoticeFor(tt.err)
		assert.Equal(t, models.SeverityError, n.Severity)
		assert.Equal(t, tt.want, n.Message)
	}
	assert.Contains(t, NoticeFor(common.ErrContractUnavailable).Message, "contract")
	assert.Contains(t, NoticeFor(common.ErrConfiguration).Message, "Configuration")
}
