package globeengine

import "math"

// aspectRefreshRatio is the relative aspect change that invalidates the
// anchor cache even without an explicit dirty request.
const aspectRefreshRatio = 0.10

type Anchor struct {
	ID     NodeID
	World  Vec3
	X, Y   float64
	Front  bool
	OnView bool
}

// Projector caches the screen position of every node. Requests to reproject
// are coalesced and served by a single Flush per frame.
type Projector struct {
	dirty   bool
	pending int
	aspect  float64
	anchors map[NodeID]Anchor
	order   []NodeID

	Flushes int
}

func NewProjector() *Projector {
	return &Projector{anchors: make(map[NodeID]Anchor)}
}

// MarkDirty requests a reprojection on the next Flush.
func (p *Projector) MarkDirty() {
	p.dirty = true
	p.pending++
}

func (p *Projector) Dirty() bool { return p.dirty }

// Pending is the number of dirty requests folded into the next Flush.
func (p *Projector) Pending() int { return p.pending }

// Flush reprojects all nodes if dirty or if the viewport aspect ratio drifted
// more than 10% from the one the anchors were computed with. It reports
// whether work was done.
func (p *Projector) Flush(cam *Camera, nodes []*Node) bool {
	if !p.dirty && !p.aspectDrifted(cam.Aspect()) {
		return false
	}
	p.anchors = make(map[NodeID]Anchor, len(nodes))
	p.order = p.order[:0]
	for _, n := range nodes {
		p.anchors[n.ID] = ProjectLatLng(cam, n.ID, n.Lat, n.Lng)
		p.order = append(p.order, n.ID)
	}
	p.aspect = cam.Aspect()
	p.dirty = false
	p.pending = 0
	p.Flushes++
	return true
}

func (p *Projector) aspectDrifted(aspect float64) bool {
	if p.aspect == 0 {
		return len(p.anchors) > 0
	}
	return math.Abs(aspect-p.aspect)/p.aspect > aspectRefreshRatio
}

func (p *Projector) Anchor(id NodeID) (Anchor, bool) {
	a, ok := p.anchors[id]
	return a, ok
}

// Anchors returns the cached anchors in node order.
func (p *Projector) Anchors() []Anchor {
	out := make([]Anchor, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.anchors[id])
	}
	return out
}

// AnchorAspect is the aspect ratio of the cached anchors.
func (p *Projector) AnchorAspect() float64 { return p.aspect }

// Pick returns the nearest front-facing anchor within radius pixels.
func (p *Projector) Pick(x, y, radius float64) (NodeID, bool) {
	best, bestD := NodeID(""), radius*radius
	found := false
	for _, id := range p.order {
		a := p.anchors[id]
		if !a.Front || !a.OnView {
			continue
		}
		d := (a.X-x)*(a.X-x) + (a.Y-y)*(a.Y-y)
		if d <= bestD {
			best, bestD, found = id, d, true
		}
	}
	return best, found
}

func (p *Projector) reset() {
	p.anchors = make(map[NodeID]Anchor)
	p.order = nil
	p.aspect = 0
	p.MarkDirty()
}

// ProjectLatLng computes world and screen position plus facing for one point.
func ProjectLatLng(cam *Camera, id NodeID, lat, lng float64) Anchor {
	w := SphereToWorld(lat, lng, GlobeRadius)
	a := Anchor{ID: id, World: w, Front: cam.FrontFacing(w)}
	x, y, ok := cam.Project(w)
	a.X, a.Y = x, y
	a.OnView = ok && x >= 0 && y >= 0 && x <= cam.Width && y <= cam.Height
	return a
}
