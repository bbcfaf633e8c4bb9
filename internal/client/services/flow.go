// Package services holds the FlashVault application flows: creating
// flashcards and decks (publish, then register on the ledger) and the
// library view that reconciles the ledger with the pin list.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/publications"
	"github.com/dmitrijs2005/flashvault/internal/client/wallet"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/logging"
)

// SessionSource yields the current wallet session. *wallet.Manager
// implements it.
type SessionSource interface {
	Session() wallet.Session
}

// Observer receives every progress transition of a create flow.
type Observer func(models.Progress)

// maxPendingPercent caps the estimate until the flow is done.
const maxPendingPercent = 99

type tracker struct {
	observe Observer
	last    models.Progress
}

func newTracker(observe Observer) *tracker {
	if observe == nil {
		observe = func(models.Progress) {}
	}
	return &tracker{observe: observe, last: models.Progress{Stage: models.StageIdle}}
}

func (t *tracker) set(stage models.Stage, percent int, detail string) {
	switch {
	case stage == models.StageDone:
		percent = 100
	case percent > maxPendingPercent:
		percent = maxPendingPercent
	case percent < t.last.Percent && !stage.Terminal():
		percent = t.last.Percent
	}
	t.last = models.Progress{Stage: stage, Percent: percent, Detail: detail}
	t.observe(t.last)
}

func (t *tracker) fail(err error) {
	t.set(models.StageFailed, t.last.Percent, err.Error())
}

// connected returns the session of a connected wallet or a validation error
// that also matches common.ErrNotConnected.
func connected(src SessionSource) (wallet.Session, error) {
	s := src.Session()
	if !s.Connected || s.Ledger == nil {
		return s, fmt.Errorf("%w: %w", common.ErrValidation, common.ErrNotConnected)
	}
	return s, nil
}

// NoticeFor turns a flow error into the message shown to the user.
func NoticeFor(err error) models.Notice {
	msg := "Something went wrong: " + err.Error()
	switch {
	case errors.Is(err, common.ErrNotConnected):
		msg = "Please connect your wallet first."
	case errors.Is(err, common.ErrValidation):
		msg = "Please fill in all required fields (" + err.Error() + ")."
	case errors.Is(err, common.ErrConfiguration):
		msg = "Configuration problem: " + err.Error()
	case errors.Is(err, common.ErrUserRejected):
		msg = "The request was rejected in the wallet."
	case errors.Is(err, common.ErrInsufficientFunds):
		msg = "Insufficient funds to pay for gas."
	case errors.Is(err, common.ErrContractUnavailable):
		msg = "The contract is not available at the configured address or the call reverted."
	case errors.Is(err, common.ErrUpload):
		msg = "Upload to the pinning service failed: " + err.Error()
	case errors.Is(err, common.ErrNetwork):
		msg = "Network error, please try again."
	case errors.Is(err, common.ErrNotFound):
		msg = "Not found."
	}
	return models.Notice{Severity: models.SeverityError, Message: msg}
}

// journal writes the local publication log. Its failures never fail a flow.
type journal struct {
	repo publications.Repository
	log  logging.Logger
}

func (j journal) published(ctx context.Context, cid string, meta models.PinMetadata, owner string, at time.Time) {
	if j.repo == nil {
		return
	}
	err := j.repo.Record(ctx, &models.Publication{
		CID:       cid,
		Kind:      models.Kind(meta.KeyValues[models.KeyType]),
		Name:      meta.Name,
		Owner:     owner,
		CreatedAt: at,
	})
	if err != nil {
		j.log.Warn(ctx, "journal record failed", "cid", cid, "error", err)
	}
}

func (j journal) registered(ctx context.Context, cid string) {
	if j.repo == nil {
		return
	}
	if err := j.repo.MarkRegistered(ctx, cid); err != nil {
		j.log.Warn(ctx, "journal mark registered failed", "cid", cid, "error", err)
	}
}

func (j journal) superseded(ctx context.Context, oldCID, cid string, meta models.PinMetadata, owner string, at time.Time) {
	if j.repo == nil {
		return
	}
	err := j.repo.Supersede(ctx, oldCID, &models.Publication{
		CID:       cid,
		Kind:      models.Kind(meta.KeyValues[models.KeyType]),
		Name:      meta.Name,
		Owner:     owner,
		CreatedAt: at,
	})
	if err != nil {
		j.log.Warn(ctx, "journal supersede failed", "cid", cid, "from", oldCID, "error", err)
	}
}

func (j journal) removed(ctx context.Context, cid string) {
	if j.repo == nil {
		return
	}
	if err := j.repo.Delete(ctx, cid); err != nil {
		j.log.Warn(ctx, "journal delete failed", "cid", cid, "error", err)
	}
}
