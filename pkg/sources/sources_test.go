package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

const snapshotJSON = `{"nodes":[{"id":"a","countryCode":"FR"},{"id":"b","countryCode":"DE"}],"links":[{"source":"a","target":"b"}]}`

func TestHTTPProvider(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(snapshotJSON))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	first, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(first.Nodes) != 2 || len(first.Links) != 1 {
		t.Errorf("Fetch = %d nodes %d links", len(first.Nodes), len(first.Links))
	}
	second, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if second != first {
		t.Error("Expected the cached snapshot on 304")
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
}

func TestHTTPProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "nope", http.StatusBadGateway) }},
		{"body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("{")) }},
		{"not modified first", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotModified) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			if _, err := NewHTTPProvider(srv.URL, time.Second).Fetch(context.Background()); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(snapshotJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := FileProvider{Path: path}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snap.Nodes) != 2 {
		t.Errorf("len(Nodes) = %d, want 2", len(snap.Nodes))
	}
	if _, err := (FileProvider{Path: path + ".missing"}).Fetch(context.Background()); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestWSProviderReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var conns atomic.Int32
	var subscribed atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		conns.Add(1)
		if _, msg, err := c.ReadMessage(); err == nil && string(msg) == "subscribe" {
			subscribed.Add(1)
		}
		_ = c.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = c.WriteMessage(websocket.TextMessage, []byte(snapshotJSON))
		// Closing after one snapshot forces the client to reconnect.
	}))
	defer srv.Close()

	p := NewWSProvider("ws" + strings.TrimPrefix(srv.URL, "http"))
	p.Subscribe = "subscribe"
	p.MinBackoff = 10 * time.Millisecond
	p.MaxBackoff = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan *globeengine.GraphSnapshot, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- p.Run(ctx, func(s *globeengine.GraphSnapshot) {
			select {
			case got <- s:
			default:
			}
		})
	}()

	for i := 0; i < 2; i++ {
		select {
		case s := <-got:
			if len(s.Nodes) != 2 {
				t.Errorf("snapshot %d has %d nodes", i, len(s.Nodes))
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for snapshots")
		}
	}
	cancel()
	if err := <-errc; err == nil {
		t.Error("Expected Run to return the context error")
	}
	if conns.Load() < 2 || subscribed.Load() < 2 {
		t.Errorf("connections=%d subscribed=%d, want at least 2", conns.Load(), subscribed.Load())
	}
}

func TestWSProviderStopsWhileDialing(t *testing.T) {
	p := NewWSProvider("ws://127.0.0.1:1/unreachable")
	p.MinBackoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx, func(*globeengine.GraphSnapshot) {}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-errc:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
