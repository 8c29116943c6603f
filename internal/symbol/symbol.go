// Package symbol obtains verification symbol images (QR codes) for letter
// verification URLs from an external generator, with caching.
package symbol

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/letterdesk/internal/netx"
)

// Generator renders payload into a square image of sizePx pixels.
type Generator interface {
	Symbol(ctx context.Context, payload string, sizePx int) ([]byte, error)
}

// HTTPGenerator calls a QR image endpoint with "data" and "size" query
// parameters (size as "<n>x<n>").
type HTTPGenerator struct {
	endpoint string
	client   *http.Client
}

func NewHTTPGenerator(endpoint string, client *http.Client) (*HTTPGenerator, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid symbol endpoint %q", endpoint)
	}
	return &HTTPGenerator{endpoint: endpoint, client: client}, nil
}

func (g *HTTPGenerator) Symbol(ctx context.Context, payload string, sizePx int) ([]byte, error) {
	u, _ := url.Parse(g.endpoint)
	q := u.Query()
	n := strconv.Itoa(sizePx)
	q.Set("size", n+"x"+n)
	q.Set("data", payload)
	u.RawQuery = q.Encode()

	b, err := netx.Fetch(ctx, g.client, u.String())
	if err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}
	return b, nil
}
