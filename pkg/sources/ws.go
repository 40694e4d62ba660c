package sources

import (
	"bytes"
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

// WSProvider subscribes to a websocket stream where every text frame is a
// full snapshot. It reconnects with exponential backoff.
type WSProvider struct {
	URL string
	// Subscribe, when set, is sent as a text frame after each connect.
	Subscribe string

	Dialer     *websocket.Dialer
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func NewWSProvider(url string) *WSProvider {
	return &WSProvider{
		URL:        url,
		Dialer:     websocket.DefaultDialer,
		MinBackoff: 1 * time.Second,
		MaxBackoff: 60 * time.Second,
	}
}

// Run delivers snapshots to fn until ctx is cancelled.
func (p *WSProvider) Run(ctx context.Context, fn func(*globeengine.GraphSnapshot)) error {
	backoff := p.MinBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Printf("[WS] Connecting to %s", p.URL)
		c, _, err := p.Dialer.DialContext(ctx, p.URL, nil)
		if err != nil {
			log.Printf("[WS] Dial error: %v. Retrying in %v...", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff *= 2
			if backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
			continue
		}
		backoff = p.MinBackoff

		if p.Subscribe != "" {
			if err := c.WriteMessage(websocket.TextMessage, []byte(p.Subscribe)); err != nil {
				log.Printf("[WS] Subscribe error: %v", err)
				_ = c.Close()
				if !sleep(ctx, backoff) {
					return ctx.Err()
				}
				continue
			}
		}
		p.read(ctx, c, fn)
	}
}

func (p *WSProvider) read(ctx context.Context, c *websocket.Conn, fn func(*globeengine.GraphSnapshot)) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()
	defer c.Close()

	for {
		typ, message, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[WS] Read error: %v. Reconnecting...", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		snap, err := globeengine.DecodeSnapshot(bytes.NewReader(message))
		if err != nil {
			log.Printf("[WS] Skipping frame: %v", err)
			continue
		}
		fn(snap)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
