// Package sources provides the snapshot providers that feed the globe engine.
package sources

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

// HTTPProvider pulls a JSON snapshot with a GET request. It remembers the
// last ETag and serves the previous snapshot on 304 Not Modified.
type HTTPProvider struct {
	URL    string
	Client *http.Client

	mu   sync.Mutex
	etag string
	last *globeengine.GraphSnapshot
}

func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProvider) Fetch(ctx context.Context) (*globeengine.GraphSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	p.mu.Lock()
	if p.etag != "" && p.last != nil {
		req.Header.Set("If-None-Match", p.etag)
	}
	p.mu.Unlock()

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.last == nil {
			return nil, fmt.Errorf("not modified without a previous snapshot")
		}
		return p.last, nil
	default:
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	snap, err := globeengine.DecodeSnapshot(resp.Body)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.etag = resp.Header.Get("ETag")
	p.last = snap
	p.mu.Unlock()
	return snap, nil
}
