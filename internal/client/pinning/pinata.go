package pinning

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/netx"
	"github.com/golang-jwt/jwt/v5"
)

type PinataConfig struct {
	APIURL    string
	JWT       string
	PageLimit int
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// PinataClient implements Store against the Pinata REST API.
type PinataClient struct {
	apiURL    string
	jwt       string
	pageLimit int
	http      *http.Client
	gateway   *Gateway
	now       func() time.Time
}

func NewPinataClient(cfg PinataConfig, gateway *Gateway) *PinataClient {
	c := cfg.HTTPClient
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = 1000
	}
	return &PinataClient{
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		jwt:       strings.TrimSpace(cfg.JWT),
		pageLimit: limit,
		http:      c,
		gateway:   gateway,
		now:       time.Now,
	}
}

// checkCredential rejects a missing, malformed or expired JWT before any
// request leaves the machine. The signature cannot be checked client-side.
func checkCredential(token string, now time.Time) error {
	if token == "" {
		return fmt.Errorf("%w: pinata JWT is not set", common.ErrConfiguration)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("%w: pinata JWT is malformed: %v", common.ErrConfiguration, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: pinata JWT expiry: %v", common.ErrConfiguration, err)
	}
	if exp != nil && !exp.After(now) {
		return fmt.Errorf("%w: pinata JWT expired at %s", common.ErrConfiguration, exp.Format(time.RFC3339))
	}
	return nil
}

func (p *PinataClient) authorized(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if err := checkCredential(p.jwt, p.now()); err != nil {
		return nil, err
	}
	req, err := netx.NewJSONRequest(ctx, method, p.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.jwt)
	return req, nil
}

type pinJSONRequest struct {
	PinataContent  any                `json:"pinataContent"`
	PinataMetadata models.PinMetadata `json:"pinataMetadata"`
}

type pinJSONResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func (p *PinataClient) Publish(ctx context.Context, content any, meta models.PinMetadata) (string, error) {
	req, err := p.authorized(ctx, http.MethodPost, "/pinning/pinJSONToIPFS",
		pinJSONRequest{PinataContent: content, PinataMetadata: meta})
	if err != nil {
		return "", mapError("publish "+meta.Name, err, common.ErrUpload)
	}

	var out pinJSONResponse
	if err := netx.DoJSON(p.http, req, &out); err != nil {
		return "", mapError("publish "+meta.Name, err, common.ErrUpload)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("publish %s: %w: response carries no IpfsHash", meta.Name, common.ErrUpload)
	}
	return out.IpfsHash, nil
}

func (p *PinataClient) Unpin(ctx context.Context, cid string) error {
	req, err := p.authorized(ctx, http.MethodDelete, "/pinning/unpin/"+url.PathEscape(cid), nil)
	if err != nil {
		return mapError("unpin "+cid, err, common.ErrUpload)
	}
	return mapError("unpin "+cid, netx.DoJSON(p.http, req, nil), common.ErrUpload)
}

func (p *PinataClient) Fetch(ctx context.Context, cid string) ([]byte, error) {
	return p.gateway.Fetch(ctx, cid)
}

type pinListResponse struct {
	Count int `json:"count"`
	Rows  []struct {
		IpfsPinHash string `json:"ipfs_pin_hash"`
		DatePinned  string `json:"date_pinned"`
		Metadata    struct {
			Name      string         `json:"name"`
			KeyValues map[string]any `json:"keyvalues"`
		} `json:"metadata"`
	} `json:"rows"`
}

// ListPins pages through /data/pinList until a short page or the reported
// count is reached.
func (p *PinataClient) ListPins(ctx context.Context) ([]models.Pin, error) {
	var pins []models.Pin
	for offset := 0; ; {
		q := url.Values{}
		q.Set("status", "pinned")
		q.Set("pageLimit", strconv.Itoa(p.pageLimit))
		q.Set("pageOffset", strconv.Itoa(offset))

		req, err := p.authorized(ctx, http.MethodGet, "/data/pinList?"+q.Encode(), nil)
		if err != nil {
			return nil, mapError("list pins", err, common.ErrUpload)
		}
		var page pinListResponse
		if err := netx.DoJSON(p.http, req, &page); err != nil {
			return nil, mapError("list pins", err, common.ErrUpload)
		}

		for _, row := range page.Rows {
			pinnedAt, _ := time.Parse(time.RFC3339, row.DatePinned)
			pins = append(pins, models.Pin{
				CID:       row.IpfsPinHash,
				Name:      row.Metadata.Name,
				KeyValues: stringValues(row.Metadata.KeyValues),
				PinnedAt:  pinnedAt,
			})
		}

		offset += len(page.Rows)
		if len(page.Rows) < p.pageLimit || (page.Count > 0 && offset >= page.Count) {
			return pins, nil
		}
	}
}

// stringValues flattens Pinata keyvalues, which may hold numbers, to strings.
func stringValues(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = t
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}
