package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/client/ledger"
	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/client/pinning"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/publications"
	"github.com/dmitrijs2005/flashvault/internal/logging"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// FlashcardService runs the Create Flashcard flow.
type FlashcardService struct {
	store   pinning.Store
	session SessionSource
	journal journal
	log     logging.Logger
	now     func() time.Time
}

func NewFlashcardService(store pinning.Store, session SessionSource, repo publications.Repository, log logging.Logger) *FlashcardService {
	return &FlashcardService{
		store:   store,
		session: session,
		journal: journal{repo: repo, log: log},
		log:     log,
		now:     time.Now,
	}
}

// Create validates form, publishes the flashcard document and registers its
// CID on the ledger. On success the form is reset. The returned notice is
// always set; err is nil only when the flow reached Done.
func (s *FlashcardService) Create(ctx context.Context, form *models.FlashcardForm, observe Observer) (models.Flashcard, models.Notice, error) {
	log := s.log.With("flow", "flashcard", "run", uuid.NewString())
	t := newTracker(observe)

	t.set(models.StageValidating, 0, "")
	in := *form
	in.Normalize()
	if err := models.Validate(&in); err != nil {
		t.fail(err)
		return models.Flashcard{}, NoticeFor(err), err
	}
	sess, err := connected(s.session)
	if err != nil {
		t.fail(err)
		return models.Flashcard{}, NoticeFor(err), err
	}
	owner := sess.Owner()

	t.set(models.StageUploading, 10, "uploading to IPFS")
	now := s.now()
	meta := models.NewPinMetadata(models.KindFlashcard, owner, false, now)
	content := models.FlashcardContent{
		Question:  in.Question,
		Answer:    in.Answer,
		Owner:     owner,
		CreatedAt: models.Timestamp(now),
	}
	cid, err := s.store.Publish(ctx, content, meta)
	if err != nil {
		log.Error(ctx, "publish failed", "error", err)
		t.fail(err)
		return models.Flashcard{}, NoticeFor(err), err
	}
	log.Info(ctx, "flashcard published", "cid", cid)
	s.journal.published(ctx, cid, meta, owner, now)
	t.set(models.StageUploading, 60, cid)

	t.set(models.StageAwaitingSignature, 70, "confirm the transaction")
	ctx = ledger.WithSubmitted(ctx, func(tx ethcommon.Hash) {
		t.set(models.StageConfirming, 85, tx.Hex())
	})
	if _, err := sess.Ledger.RegisterFlashcard(ctx, in.Question, in.Answer, cid); err != nil {
		log.Error(ctx, "ledger registration failed", "cid", cid, "error", err)
		t.fail(err)
		return models.Flashcard{}, NoticeFor(err), err
	}
	s.journal.registered(ctx, cid)

	card := models.Flashcard{
		Question:  in.Question,
		Answer:    in.Answer,
		Owner:     owner,
		Timestamp: now,
		IpfsCid:   cid,
		Source:    models.SourceLedger,
	}
	t.set(models.StageDone, 100, cid)
	form.Reset()
	return card, models.Notice{
		Severity: models.SeveritySuccess,
		Message:  fmt.Sprintf("Flashcard created successfully! CID: %s", cid),
	}, nil
}
