// Package pinning publishes JSON documents to content-addressed storage and
// reads them back through an IPFS gateway.
//
// Two stores are available: PinataClient talks to the Pinata pinning API and
// S3Store writes to an IPFS-backed S3 bucket (Filebase and similar), reading
// the CID from the object's "cid" metadata.
package pinning

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/netx"
)

// Store is the content publisher used by the create, edit and library flows.
type Store interface {
	// Publish serializes content, pins it under meta and returns its CID.
	Publish(ctx context.Context, content any, meta models.PinMetadata) (string, error)

	// Unpin removes the pin. Callers treat failures as best-effort.
	Unpin(ctx context.Context, cid string) error

	// Fetch reads the document through the gateway.
	Fetch(ctx context.Context, cid string) ([]byte, error)

	// ListPins returns every pinned document.
	ListPins(ctx context.Context) ([]models.Pin, error)
}

// mapError sorts a pinning failure into the shared taxonomy. Non-2xx answers
// become statusKind; transport failures become common.ErrNetwork.
func mapError(op string, err error, statusKind error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrConfiguration) || errors.Is(err, common.ErrNetwork) ||
		errors.Is(err, common.ErrUpload) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var se *netx.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("%s: %w: %w", op, statusKind, se)
	}

	var ue *url.Error
	var ne net.Error
	if errors.As(err, &ue) || errors.As(err, &ne) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrNetwork, err)
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrUnknown, err)
}
