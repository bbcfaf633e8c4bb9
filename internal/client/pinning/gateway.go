package pinning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/netx"
	"github.com/sony/gobreaker"
)

// maxDocumentSize bounds a fetched document.
const maxDocumentSize = 1 << 20

// Gateway fetches documents by CID from a public IPFS gateway. Every fetch
// is bounded by the configured timeout. A circuit breaker stops a library
// scan from waiting out the timeout for every pin once the gateway is down.
type Gateway struct {
	base    string
	client  *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

func NewGateway(base string, timeout time.Duration, client *http.Client) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{
		base:    strings.TrimRight(base, "/"),
		client:  client,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ipfs-gateway",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			IsSuccessful: gatewayReachable,
		}),
	}
}

// gatewayReachable treats client-side statuses (unknown CID and the like) as
// a healthy gateway, as are oversized documents; only transport errors and
// 5xx count against it.
func gatewayReachable(err error) bool {
	if err == nil || errors.Is(err, common.ErrValidation) {
		return true
	}
	var se *netx.StatusError
	return errors.As(err, &se) && se.StatusCode < 500
}

func (g *Gateway) URL(cid string) string {
	return g.base + "/" + cid
}

func (g *Gateway) Fetch(ctx context.Context, cid string) ([]byte, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.fetch(ctx, cid)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("fetch %s: %w: gateway unavailable", cid, common.ErrNetwork)
	}
	if err != nil {
		return nil, mapError("fetch "+cid, err, common.ErrNetwork)
	}
	return out.([]byte), nil
}

func (g *Gateway) fetch(ctx context.Context, cid string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL(cid), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &netx.StatusError{Method: req.Method, URL: req.URL.Redacted(), StatusCode: resp.StatusCode, Body: string(b)}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxDocumentSize {
		return nil, fmt.Errorf("%w: document larger than %d bytes", common.ErrValidation, maxDocumentSize)
	}
	return b, nil
}
