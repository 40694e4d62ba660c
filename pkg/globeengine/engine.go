package globeengine

import (
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

type Options struct {
	Width, Height float64

	Perf   PerfConfig
	Agents AgentConfig
	Camera CameraConfig

	// Dataset backs centroid fallback and reverse geocoding. Defaults to the
	// embedded country dataset.
	Dataset *CountryDataset
	Meshes  MeshFactory

	// GuestSpawnEvery is the ambient traffic period. Zero disables it.
	GuestSpawnEvery time.Duration
	PickRadius      float64
	Seed            int64
}

func DefaultOptions() Options {
	return Options{
		Width:           1280,
		Height:          720,
		Perf:            DefaultPerfConfig(),
		Agents:          DefaultAgentConfig(),
		Camera:          DefaultCameraConfig(),
		GuestSpawnEvery: 4 * time.Second,
		PickRadius:      12,
		Seed:            1,
	}
}

// Engine owns the scene and every component that reads or writes it.
// Callbacks from other goroutines only Post events; all state changes happen
// inside Step on the caller's update loop.
type Engine struct {
	opts Options

	mu     sync.Mutex
	queue  []Event
	closed bool

	scene atomic.Pointer[sceneIndex]

	layout    *LayoutEngine
	cam       *Camera
	projector *Projector
	perf      *PerfController
	pool      *AgentPool
	fsm       *CameraFSM
	identity  *IdentityController

	summary      Summary
	summaryDirty bool
	lastReport   ValidationReport

	visible    bool
	safe       bool
	lastStep   time.Time
	lastAgents time.Time
	nextGuest  time.Time
	rng        *rand.Rand

	onSelect  []func(Node)
	onCountry []func(CountrySelection)

	// focus is where the camera was last recentred on the identity.
	focus focusPoint
}

type focusPoint struct {
	id       NodeID
	lat, lng float64
}

// CountrySelection is a click on the globe surface away from any node.
type CountrySelection struct {
	Code, Name string
	Lat, Lng   float64
}

func New(opts Options) *Engine {
	if opts.Dataset == nil {
		ds, err := DefaultCountryDataset()
		if err != nil {
			log.Printf("[LAYOUT] embedded country dataset unavailable: %v", err)
		}
		opts.Dataset = ds
	}
	e := &Engine{
		opts:      opts,
		layout:    NewLayoutEngine(opts.Dataset),
		cam:       NewCamera(opts.Width, opts.Height),
		projector: NewProjector(),
		perf:      NewPerfController(opts.Perf),
		fsm:       NewCameraFSM(opts.Camera),
		identity:  NewIdentityController(),
		visible:   true,
		rng:       rand.New(rand.NewSource(opts.Seed)),
	}
	e.pool = NewAgentPool(opts.Agents, opts.Meshes, e.resolve)
	e.perf.OnChange(func(q Quality) {
		log.Printf("[PERF] quality scale=%.2f safe=%v fps=%.1f", q.ResolutionScale, q.SafeProfile, q.FPS)
	})
	return e
}

func (e *Engine) resolve(id NodeID) (*Node, bool) {
	return e.scene.Load().node(id)
}

// Post queues an event for the next Step. It is safe to call from any
// goroutine and is a no-op after Close.
func (e *Engine) Post(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.queue = append(e.queue, ev)
}

// Hydrate builds a scene from snap on the calling goroutine and posts it.
// Snapshots with a seq not above the installed scene are dropped when applied.
func (e *Engine) Hydrate(snap *GraphSnapshot, seq uint64, newcomers []NodeID) ValidationReport {
	s, rep := buildSceneIndex(snap, e.layout, seq)
	if rep.Dropped() > 0 {
		log.Printf("[HYDRATE] seq=%d dropped invalid records: %s", seq, rep)
	}
	e.Post(Hydrated{Seq: seq, Newcomers: newcomers, Report: rep, scene: s})
	return rep
}

// OnSelect registers a listener for node clicks. Listeners run inside Step.
func (e *Engine) OnSelect(fn func(Node)) {
	e.onSelect = append(e.onSelect, fn)
}

// OnSelectCountry registers a listener for clicks on the globe that miss
// every node but land on a country.
func (e *Engine) OnSelectCountry(fn func(CountrySelection)) {
	e.onCountry = append(e.onCountry, fn)
}

// OnQualityChange registers a listener for resolution scale and safe profile
// changes. Listeners run inside Step.
func (e *Engine) OnQualityChange(fn func(Quality)) {
	e.perf.OnChange(fn)
}

// SetDeviceScaleCap limits the resolution scale to what the display supports.
func (e *Engine) SetDeviceScaleCap(limit float64) {
	e.perf.SetDeviceCap(limit)
}

func (e *Engine) drain() ([]Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q := e.queue
	e.queue = nil
	return q, e.closed
}

// Step runs one bounded update: queued events, the perf sample, the camera,
// the agent scheduler and then one flush of coalesced work.
func (e *Engine) Step(now time.Time, frame time.Duration) {
	events, closed := e.drain()
	if closed {
		return
	}
	for _, ev := range events {
		ev.apply(e, now)
	}

	if e.visible {
		q := e.perf.Sample(frame)
		if q.SafeProfile && !e.safe {
			e.safe = true
			e.pool.SetSafeProfile(now)
			e.fsm.SetSafeProfile()
		}
	}

	dt := frame
	if !e.lastStep.IsZero() {
		dt = now.Sub(e.lastStep)
	}
	e.lastStep = now
	if e.fsm.Tick(now, dt, e.cam) {
		e.projector.MarkDirty()
	}

	e.tickAgents(now)
	e.flush()
}

func (e *Engine) tickAgents(now time.Time) {
	s := e.scene.Load()
	if s == nil {
		return
	}
	if e.opts.GuestSpawnEvery > 0 && len(s.links) > 0 && !now.Before(e.nextGuest) {
		if !e.nextGuest.IsZero() {
			l := s.links[e.rng.Intn(len(s.links))]
			e.pool.Spawn(SpawnRequest{
				Start: l.Source,
				End:   l.Target,
				Type:  AgentGuest,
				Key:   "guest:" + l.Key(),
				Color: ColorGuestBoat,
			}, now)
		}
		e.nextGuest = now.Add(e.opts.GuestSpawnEvery)
	}
	if now.Sub(e.lastAgents) < TickInterval(e.visible, e.safe) {
		return
	}
	e.lastAgents = now
	e.pool.Tick(now, e.cam)
}

func (e *Engine) flush() {
	s := e.scene.Load()
	if s != nil {
		e.projector.Flush(e.cam, s.nodes)
	}
	if e.summaryDirty {
		e.summary = buildSummary(s, e.identity)
		e.summaryDirty = false
	}
}

func (e *Engine) focusIdentity(s *sceneIndex, id NodeID) {
	n, ok := s.node(id)
	if !ok {
		return
	}
	e.fsm.Focus(e.cam, n.Lat, n.Lng)
	e.focus = focusPoint{id, n.Lat, n.Lng}
	e.projector.MarkDirty()
}

// dropUserView removes what an identity put on screen: its agents and the
// camera focus.
func (e *Engine) dropUserView() {
	e.pool.ClearType(AgentUser)
	e.fsm.ClearFocus()
	e.focus = focusPoint{}
}

// seedUserAgents replaces user agents with one per direct edge of the
// identity, painted in the identity's boat color when it has one.
func (e *Engine) seedUserAgents(s *sceneIndex, id Identity, now time.Time) {
	e.pool.ClearType(AgentUser)
	c := ColorIdentity
	if id.BoatColor != nil {
		c = *id.BoatColor
	}
	for _, l := range s.links {
		if l.Source != id.ID && l.Target != id.ID {
			continue
		}
		e.pool.Spawn(SpawnRequest{Start: l.Source, End: l.Target, Type: AgentUser, Key: l.Key(), Color: c}, now)
	}
}

// welcome sends a guest agent from a newcomer's parent to the newcomer.
func (e *Engine) welcome(s *sceneIndex, id NodeID, now time.Time) {
	parent, ok := s.graph.Parent(id)
	if !ok {
		return
	}
	e.pool.Spawn(SpawnRequest{
		Start: parent,
		End:   id,
		Type:  AgentGuest,
		Key:   "welcome:" + string(id),
		Color: ColorGuestBoat,
	}, now)
}

// Close stops timers, disposes every agent mesh and drops queued events.
// Further Posts and Steps do nothing.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.closed = true
	e.queue = nil
	e.mu.Unlock()

	e.fsm.Stop()
	e.pool.Clear()
	return nil
}

func (e *Engine) IsHydrated() bool { return e.scene.Load() != nil }

// Nodes returns the nodes of the installed scene. Callers must not mutate
// them outside the update loop.
func (e *Engine) Nodes() []*Node {
	s := e.scene.Load()
	if s == nil {
		return nil
	}
	return s.nodes
}

func (e *Engine) Node(id NodeID) (*Node, bool) { return e.scene.Load().node(id) }

// Edges returns the styled edge list, primary edges last.
func (e *Engine) Edges() []Edge { return e.identity.Edges() }

// Labels returns the overlay label anchors that currently face the camera.
func (e *Engine) Labels() []Anchor {
	var out []Anchor
	for _, id := range e.identity.Labels() {
		a, ok := e.projector.Anchor(id)
		if ok && a.Front && a.OnView {
			out = append(out, a)
		}
	}
	return out
}

func (e *Engine) LabelIDs() []NodeID { return e.identity.Labels() }

func (e *Engine) Anchor(id NodeID) (Anchor, bool) { return e.projector.Anchor(id) }

func (e *Engine) Agents() []*Agent { return e.pool.Agents() }

func (e *Engine) Pool() *AgentPool { return e.pool }

func (e *Engine) Summary() Summary { return e.summary }

func (e *Engine) Quality() Quality { return e.perf.Quality() }

func (e *Engine) Camera() *Camera { return e.cam }

func (e *Engine) Projector() *Projector { return e.projector }

func (e *Engine) RotationState() RotationState { return e.fsm.State() }

func (e *Engine) Focused() bool { return e.fsm.Focused() }

func (e *Engine) Identity() (Identity, bool) { return e.identity.Active() }

// PendingIdentity is a requested identity still waiting for its node.
func (e *Engine) PendingIdentity() (Identity, bool) { return e.identity.Pending() }

func (e *Engine) Neighbors() map[NodeID]struct{} { return e.identity.Neighbors() }

func (e *Engine) Chain() map[NodeID]struct{} { return e.identity.Chain() }

func (e *Engine) LastReport() ValidationReport { return e.lastReport }

func (e *Engine) Dataset() *CountryDataset { return e.opts.Dataset }
