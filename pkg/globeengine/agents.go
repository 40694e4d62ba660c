package globeengine

import (
	"image/color"
	"log"
	"math"
	"time"
)

type AgentType int

const (
	AgentGuest AgentType = iota
	AgentUser
)

func (t AgentType) String() string {
	if t == AgentUser {
		return "user"
	}
	return "guest"
}

type ShapeKind int

const (
	ShapeTemplate ShapeKind = iota
	ShapeProcedural
)

// Mesh is a renderer-owned resource attached to one agent.
type Mesh interface {
	Dispose()
}

// MeshFactory builds agent meshes. The template kind is only requested once
// the asset template has loaded.
type MeshFactory interface {
	NewMesh(kind ShapeKind, c color.RGBA) Mesh
}

type TemplateState int

const (
	TemplatePending TemplateState = iota
	TemplateReady
	TemplateFailed
)

// Hard caps on concurrent agents. Configuration may lower them, never raise
// them.
const (
	MaxAgentsLimit = 3
	MaxGuestsLimit = 2
)

type AgentConfig struct {
	MaxAgents   int
	MaxGuests   int
	MinDuration time.Duration
	MaxDuration time.Duration
	Altitude    float64
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		MaxAgents:   MaxAgentsLimit,
		MaxGuests:   MaxGuestsLimit,
		MinDuration: 6 * time.Second,
		MaxDuration: 14 * time.Second,
		Altitude:    GlobeRadius * 0.25,
	}
}

// Curve is a quadratic Bézier through an elevated midpoint.
type Curve struct {
	P0, P1, P2 Vec3
}

func (c Curve) Point(t float64) Vec3 {
	u := 1 - t
	return c.P0.Scale(u * u).Add(c.P1.Scale(2 * u * t)).Add(c.P2.Scale(t * t))
}

func (c Curve) Tangent(t float64) Vec3 {
	return c.P1.Sub(c.P0).Scale(2 * (1 - t)).Add(c.P2.Sub(c.P1).Scale(2 * t)).Normalize()
}

// NewArc builds the curve between two surface points with the midpoint
// raised altitude units above the sphere.
func NewArc(from, to Vec3, altitude float64) Curve {
	mid := from.Add(to)
	if mid.Len() < 1e-6 {
		// Antipodal: lift over any perpendicular.
		mid = from.Cross(Vec3{0, 1, 0})
		if mid.Len() < 1e-6 {
			mid = from.Cross(Vec3{1, 0, 0})
		}
	}
	return Curve{P0: from, P1: mid.Normalize().Scale(GlobeRadius + altitude), P2: to}
}

type Pose struct {
	Position Vec3
	Tangent  Vec3
	T        float64
	Visible  bool
}

type Agent struct {
	ID       int
	Key      string
	Type     AgentType
	Curve    Curve
	Start    time.Time
	Duration time.Duration
	Color    color.RGBA
	Shape    ShapeKind
	Mesh     Mesh
	Pose     Pose
}

type SpawnRequest struct {
	Start, End NodeID
	Type       AgentType
	Key        string
	Color      color.RGBA
}

type regKey struct {
	key string
	typ AgentType
}

// NodeResolver looks up a node in the current hydration.
type NodeResolver func(NodeID) (*Node, bool)

// AgentPool owns every traveling agent. At most MaxAgents exist at once, at
// most MaxGuests of them guests, and a (key, type) pair is registered once.
type AgentPool struct {
	cfg     AgentConfig
	factory MeshFactory
	resolve NodeResolver

	agents   []*Agent
	keys     map[regKey]struct{}
	queue    []SpawnRequest
	template TemplateState
	safe     bool
	nextID   int
}

func NewAgentPool(cfg AgentConfig, factory MeshFactory, resolve NodeResolver) *AgentPool {
	cfg.MaxAgents = min(cfg.MaxAgents, MaxAgentsLimit)
	cfg.MaxGuests = min(cfg.MaxGuests, MaxGuestsLimit, cfg.MaxAgents)
	return &AgentPool{
		cfg:     cfg,
		factory: factory,
		resolve: resolve,
		keys:    make(map[regKey]struct{}),
	}
}

// Spawn registers a request. It returns false when the key is already
// registered for the type or when an endpoint cannot be resolved.
func (p *AgentPool) Spawn(req SpawnRequest, now time.Time) bool {
	rk := regKey{req.Key, req.Type}
	if _, ok := p.keys[rk]; ok {
		return false
	}
	if _, ok := p.resolve(req.Start); !ok {
		return false
	}
	if _, ok := p.resolve(req.End); !ok {
		return false
	}
	p.keys[rk] = struct{}{}
	if p.template == TemplatePending && !p.safe {
		p.queue = append(p.queue, req)
		return true
	}
	p.materialize(req, now)
	return true
}

func (p *AgentPool) materialize(req SpawnRequest, now time.Time) {
	from, ok1 := p.resolve(req.Start)
	to, ok2 := p.resolve(req.End)
	if !ok1 || !ok2 {
		// The node went away between queueing and draining.
		delete(p.keys, regKey{req.Key, req.Type})
		return
	}
	for p.overCapacity(req.Type) && len(p.agents) > 0 {
		p.evict()
	}

	a := SphereToWorld(from.Lat, from.Lng, GlobeRadius*1.01)
	b := SphereToWorld(to.Lat, to.Lng, GlobeRadius*1.01)
	angle := math.Acos(math.Max(-1, math.Min(1, a.Normalize().Dot(b.Normalize()))))
	dur := p.cfg.MinDuration + time.Duration(angle/math.Pi*float64(p.cfg.MaxDuration-p.cfg.MinDuration))

	shape := ShapeProcedural
	if p.template == TemplateReady && !p.safe {
		shape = ShapeTemplate
	}
	p.nextID++
	ag := &Agent{
		ID:       p.nextID,
		Key:      req.Key,
		Type:     req.Type,
		Curve:    NewArc(a, b, p.cfg.Altitude),
		Start:    now,
		Duration: dur,
		Color:    req.Color,
		Shape:    shape,
	}
	if p.factory != nil {
		ag.Mesh = p.factory.NewMesh(shape, req.Color)
	}
	p.agents = append(p.agents, ag)
}

func (p *AgentPool) overCapacity(incoming AgentType) bool {
	if len(p.agents) >= p.cfg.MaxAgents {
		return true
	}
	return incoming == AgentGuest && p.count(AgentGuest) >= p.cfg.MaxGuests
}

// evict removes the oldest guest, or the oldest agent when no guest exists.
func (p *AgentPool) evict() {
	victim := -1
	for i, a := range p.agents {
		if a.Type == AgentGuest {
			victim = i
			break
		}
	}
	if victim == -1 {
		if len(p.agents) == 0 {
			return
		}
		victim = 0
	}
	p.removeAt(victim)
}

func (p *AgentPool) removeAt(i int) {
	a := p.agents[i]
	if a.Mesh != nil {
		a.Mesh.Dispose()
	}
	delete(p.keys, regKey{a.Key, a.Type})
	p.agents = append(p.agents[:i], p.agents[i+1:]...)
}

// TemplateLoaded records the result of the single asset load attempt and
// drains queued requests in order.
func (p *AgentPool) TemplateLoaded(ok bool, now time.Time) {
	if p.template != TemplatePending {
		return
	}
	if ok {
		p.template = TemplateReady
	} else {
		p.template = TemplateFailed
		log.Printf("[AGENTS] asset template unavailable, using procedural shapes for the session")
	}
	p.drain(now)
}

func (p *AgentPool) drain(now time.Time) {
	q := p.queue
	p.queue = nil
	for _, req := range q {
		p.materialize(req, now)
	}
}

// SetSafeProfile disables the template path for good and swaps existing
// template meshes for procedural ones.
func (p *AgentPool) SetSafeProfile(now time.Time) {
	if p.safe {
		return
	}
	p.safe = true
	for _, a := range p.agents {
		if a.Shape != ShapeTemplate {
			continue
		}
		if a.Mesh != nil {
			a.Mesh.Dispose()
		}
		a.Shape = ShapeProcedural
		if p.factory != nil {
			a.Mesh = p.factory.NewMesh(ShapeProcedural, a.Color)
		}
	}
	p.drain(now)
}

// Tick advances every agent along its curve. Agents whose position faces away
// from the camera are marked invisible and keep their previous pose.
func (p *AgentPool) Tick(now time.Time, cam *Camera) {
	for _, a := range p.agents {
		if a.Duration <= 0 {
			continue
		}
		elapsed := now.Sub(a.Start)
		t := math.Mod(float64(elapsed)/float64(a.Duration), 1)
		if t < 0 {
			t += 1
		}
		pos := a.Curve.Point(t)
		if !cam.FrontFacing(pos) {
			a.Pose.Visible = false
			continue
		}
		a.Pose = Pose{Position: pos, Tangent: a.Curve.Tangent(t), T: t, Visible: true}
	}
}

// TickInterval is the scheduler period for the current view state.
func TickInterval(visible, safe bool) time.Duration {
	if visible && !safe {
		return 33 * time.Millisecond
	}
	return 250 * time.Millisecond
}

// ClearType removes every agent and queued request of one type.
func (p *AgentPool) ClearType(t AgentType) {
	for i := len(p.agents) - 1; i >= 0; i-- {
		if p.agents[i].Type == t {
			p.removeAt(i)
		}
	}
	kept := p.queue[:0]
	for _, req := range p.queue {
		if req.Type == t {
			delete(p.keys, regKey{req.Key, req.Type})
			continue
		}
		kept = append(kept, req)
	}
	p.queue = kept
}

// Clear disposes every agent and forgets all registrations.
func (p *AgentPool) Clear() {
	for _, a := range p.agents {
		if a.Mesh != nil {
			a.Mesh.Dispose()
		}
	}
	p.agents = nil
	p.queue = nil
	p.keys = make(map[regKey]struct{})
}

func (p *AgentPool) Registered(key string, t AgentType) bool {
	_, ok := p.keys[regKey{key, t}]
	return ok
}

func (p *AgentPool) Agents() []*Agent {
	out := make([]*Agent, len(p.agents))
	copy(out, p.agents)
	return out
}

func (p *AgentPool) Len() int { return len(p.agents) }

func (p *AgentPool) Queued() int { return len(p.queue) }

func (p *AgentPool) Guests() int { return p.count(AgentGuest) }

func (p *AgentPool) Template() TemplateState { return p.template }

func (p *AgentPool) count(t AgentType) int {
	n := 0
	for _, a := range p.agents {
		if a.Type == t {
			n++
		}
	}
	return n
}
