package globeengine

import (
	"errors"
	"log"
	"time"
)

// Event is anything posted into the engine queue. Events are applied in
// order at the start of the next Step.
type Event interface {
	apply(e *Engine, now time.Time)
}

// Hydrated carries a scene built by Engine.Hydrate.
type Hydrated struct {
	Seq       uint64
	Newcomers []NodeID
	Report    ValidationReport
	scene     *sceneIndex
}

type HydrationFailed struct {
	Seq uint64
	Err error
}

type IdentityReady struct {
	Identity Identity
}

type IdentityLoggedOut struct{}

type Resize struct {
	Width, Height float64
}

type CameraChanged struct{}

// Interaction is a user drag or zoom. DLat/DLng are degrees, Zoom is a
// multiplicative factor where 0 or 1 means no zoom.
type Interaction struct {
	DLat, DLng float64
	Zoom       float64
}

type Visibility struct {
	Visible bool
}

type AssetLoaded struct{}

type AssetFailed struct {
	Err error
}

// Click is a pointer selection in screen pixels.
type Click struct {
	X, Y float64
}

func (ev Hydrated) apply(e *Engine, now time.Time) {
	if ev.scene == nil {
		return
	}
	if cur := e.scene.Load(); cur != nil && ev.Seq <= cur.seq {
		log.Printf("[HYDRATE] dropping stale snapshot seq=%d (current %d)", ev.Seq, cur.seq)
		return
	}
	e.scene.Store(ev.scene)
	e.pool.Clear()
	e.projector.reset()
	e.projector.MarkDirty()
	e.lastReport = ev.Report

	if err := e.identity.Reapply(ev.scene); err != nil {
		log.Printf("[HYDRATE] identity not applied: %v", err)
		e.dropUserView()
	}
	if id, ok := e.identity.Active(); ok {
		// Periodic refreshes keep the user's orbit unless the identity just
		// became available or its node moved.
		if n, ok := ev.scene.node(id.ID); ok && e.focus != (focusPoint{id.ID, n.Lat, n.Lng}) {
			e.focusIdentity(ev.scene, id.ID)
		}
		e.seedUserAgents(ev.scene, id, now)
	}
	for _, n := range ev.Newcomers {
		e.welcome(ev.scene, n, now)
	}
	e.summaryDirty = true
	e.fsm.Ready(now)
}

func (ev HydrationFailed) apply(e *Engine, _ time.Time) {
	log.Printf("[HYDRATE] snapshot seq=%d failed, keeping last scene: %v", ev.Seq, ev.Err)
}

func (ev IdentityReady) apply(e *Engine, now time.Time) {
	s := e.scene.Load()
	err := e.identity.Enable(s, ev.Identity)
	switch {
	case errors.Is(err, ErrNotHydrated):
		return
	case err != nil:
		log.Printf("[IDENTITY] %v", err)
		e.dropUserView()
		e.summaryDirty = true
		return
	}
	e.focusIdentity(s, ev.Identity.ID)
	e.seedUserAgents(s, ev.Identity, now)
	e.summaryDirty = true
}

func (IdentityLoggedOut) apply(e *Engine, _ time.Time) {
	e.identity.Disable(e.scene.Load())
	e.dropUserView()
	e.summaryDirty = true
}

func (ev Resize) apply(e *Engine, _ time.Time) {
	e.cam.SetViewport(ev.Width, ev.Height)
	e.projector.MarkDirty()
}

func (CameraChanged) apply(e *Engine, _ time.Time) {
	e.projector.MarkDirty()
}

// Interaction is also posted with no motion for presses, taps and keys, so
// any input stops autorotation.
func (ev Interaction) apply(e *Engine, now time.Time) {
	e.fsm.Interaction(now)
	if ev.DLat != 0 || ev.DLng != 0 {
		e.cam.Orbit(ev.DLat, ev.DLng)
	}
	if ev.Zoom != 0 && ev.Zoom != 1 {
		e.cam.Zoom(ev.Zoom)
	}
	e.projector.MarkDirty()
}

func (ev Visibility) apply(e *Engine, _ time.Time) {
	e.visible = ev.Visible
	e.fsm.SetVisible(ev.Visible)
}

func (AssetLoaded) apply(e *Engine, now time.Time) {
	e.pool.TemplateLoaded(true, now)
}

func (ev AssetFailed) apply(e *Engine, now time.Time) {
	log.Printf("[AGENTS] loading template asset: %v", ev.Err)
	e.pool.TemplateLoaded(false, now)
}

// Click picks against the anchors of the last drawn frame. A miss that lands
// on the globe reports the country under the pointer instead.
func (ev Click) apply(e *Engine, now time.Time) {
	e.fsm.Interaction(now)
	s := e.scene.Load()
	if s == nil {
		return
	}
	if id, ok := e.projector.Pick(ev.X, ev.Y, e.opts.PickRadius); ok {
		if n, ok := s.node(id); ok {
			for _, fn := range e.onSelect {
				fn(*n)
			}
		}
		return
	}
	if len(e.onCountry) == 0 {
		return
	}
	p, ok := e.cam.Unproject(ev.X, ev.Y)
	if !ok {
		return
	}
	lat, lng := WorldToSphere(p)
	code := e.opts.Dataset.CountryAt(lat, lng)
	if code == "" {
		return
	}
	sel := CountrySelection{Code: code, Name: CountryName(code), Lat: lat, Lng: lng}
	for _, fn := range e.onCountry {
		fn(sel)
	}
}
