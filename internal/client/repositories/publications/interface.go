// Package publications keeps a local journal of every document this client
// published, so content that never reached the ledger can be found again.
package publications

import (
	"context"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
)

type Repository interface {
	// Record inserts a publication or replaces the row with the same CID.
	Record(ctx context.Context, p *models.Publication) error

	// MarkRegistered flags the CID as confirmed on the ledger.
	MarkRegistered(ctx context.Context, cid string) error

	// Supersede records an edit: next is stored with EditedFrom = oldCID and
	// the old row points forward to it. Both changes commit together.
	Supersede(ctx context.Context, oldCID string, next *models.Publication) error

	// GetByCID returns common.ErrNotFound for unknown CIDs.
	GetByCID(ctx context.Context, cid string) (*models.Publication, error)

	// GetAllPending returns original publications (not edits) whose ledger
	// registration was never confirmed, oldest first.
	GetAllPending(ctx context.Context) ([]*models.Publication, error)

	// Delete removes the row; missing rows are not an error.
	Delete(ctx context.Context, cid string) error
}
