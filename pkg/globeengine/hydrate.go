package globeengine

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"
)

var ErrHydrationInFlight = errors.New("hydration already in flight")

// Provider fetches the current graph snapshot from wherever it lives.
type Provider interface {
	Fetch(ctx context.Context) (*GraphSnapshot, error)
}

// SeenStore remembers node ids across hydrations. MarkSeen records ids and
// returns the ones it had not seen before. On error the returned ids are the
// ones recorded before the failure.
type SeenStore interface {
	MarkSeen(ids []string) ([]string, error)
}

// Hydrator pulls snapshots from a Provider and hands them to the engine.
// At most one fetch runs at a time; results that finish out of order are
// dropped by sequence number.
type Hydrator struct {
	engine   *Engine
	provider Provider
	seen     SeenStore

	inFlight atomic.Bool
	seq      atomic.Uint64
	primed   atomic.Bool
}

func NewHydrator(engine *Engine, provider Provider, seen SeenStore) *Hydrator {
	return &Hydrator{engine: engine, provider: provider, seen: seen}
}

// Refresh runs one fetch. Overlapping calls return ErrHydrationInFlight.
func (h *Hydrator) Refresh(ctx context.Context) error {
	if !h.inFlight.CompareAndSwap(false, true) {
		return ErrHydrationInFlight
	}
	defer h.inFlight.Store(false)

	seq := h.seq.Add(1)
	snap, err := h.provider.Fetch(ctx)
	if err != nil {
		h.engine.Post(HydrationFailed{Seq: seq, Err: err})
		return err
	}
	h.accept(snap, seq)
	return nil
}

// Accept installs a snapshot that arrived by push instead of a fetch.
func (h *Hydrator) Accept(snap *GraphSnapshot) {
	h.accept(snap, h.seq.Add(1))
}

func (h *Hydrator) accept(snap *GraphSnapshot, seq uint64) {
	h.engine.Hydrate(snap, seq, h.newcomers(snap))
}

// newcomers returns node ids not seen earlier in the session. The first
// snapshot only primes the store.
func (h *Hydrator) newcomers(snap *GraphSnapshot) []NodeID {
	if h.seen == nil || snap == nil {
		return nil
	}
	ids := make([]string, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if n.ID != "" {
			ids = append(ids, n.ID)
		}
	}
	fresh, err := h.seen.MarkSeen(ids)
	if err != nil {
		log.Printf("[HYDRATE] seen store, welcoming %d of the new ids: %v", len(fresh), err)
	}
	if !h.primed.Swap(true) {
		return nil
	}
	out := make([]NodeID, len(fresh))
	for i, id := range fresh {
		out[i] = NodeID(id)
	}
	return out
}

// Run refreshes immediately and then every interval until ctx is done.
func (h *Hydrator) Run(ctx context.Context, interval time.Duration) {
	if err := h.Refresh(ctx); err != nil && !errors.Is(err, ErrHydrationInFlight) {
		log.Printf("[HYDRATE] initial fetch: %v", err)
	}
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.Refresh(ctx); err != nil && !errors.Is(err, ErrHydrationInFlight) {
				log.Printf("[HYDRATE] refresh: %v", err)
			}
		}
	}
}
