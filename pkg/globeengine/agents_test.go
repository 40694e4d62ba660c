package globeengine

import (
	"fmt"
	"image/color"
	"math/rand"
	"testing"
	"time"
)

type fakeMesh struct {
	kind     ShapeKind
	disposed bool
	f        *fakeFactory
}

func (m *fakeMesh) Dispose() {
	if !m.disposed {
		m.disposed = true
		m.f.live--
	}
}

type fakeFactory struct {
	created map[ShapeKind]int
	live    int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{created: make(map[ShapeKind]int)}
}

func (f *fakeFactory) NewMesh(kind ShapeKind, _ color.RGBA) Mesh {
	f.created[kind]++
	f.live++
	return &fakeMesh{kind: kind, f: f}
}

func testNodes(ids ...NodeID) map[NodeID]*Node {
	m := make(map[NodeID]*Node)
	for i, id := range ids {
		m[id] = &Node{ID: id, Lat: float64(i*7) - 20, Lng: float64(i*11) - 30}
	}
	return m
}

func newTestPool(t *testing.T, nodes map[NodeID]*Node) (*AgentPool, *fakeFactory) {
	t.Helper()
	f := newFakeFactory()
	p := NewAgentPool(DefaultAgentConfig(), f, func(id NodeID) (*Node, bool) {
		n, ok := nodes[id]
		return n, ok
	})
	p.TemplateLoaded(true, time.Unix(0, 0))
	return p, f
}

func TestSpawnIsIdempotent(t *testing.T) {
	nodes := testNodes("A", "B")
	p, f := newTestPool(t, nodes)
	now := time.Unix(100, 0)

	req := SpawnRequest{Start: "A", End: "B", Type: AgentUser, Key: "A->B"}
	if !p.Spawn(req, now) {
		t.Fatal("Expected first spawn to register")
	}
	if p.Spawn(req, now) {
		t.Error("Expected duplicate spawn to be a no-op")
	}
	if p.Len() != 1 || f.created[ShapeTemplate] != 1 {
		t.Errorf("Len() = %d, template meshes = %d; want 1 and 1", p.Len(), f.created[ShapeTemplate])
	}

	// Same edge, other type is a different registration.
	req.Type = AgentGuest
	if !p.Spawn(req, now) {
		t.Error("Expected guest spawn on same edge to register")
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestCapacityInvariantUnderBurst(t *testing.T) {
	ids := make([]NodeID, 20)
	for i := range ids {
		ids[i] = NodeID(fmt.Sprintf("n%02d", i))
	}
	nodes := testNodes(ids...)
	p, f := newTestPool(t, nodes)
	rng := rand.New(rand.NewSource(3))
	now := time.Unix(0, 0)

	for i := 0; i < 500; i++ {
		a, b := ids[rng.Intn(len(ids))], ids[rng.Intn(len(ids))]
		typ := AgentGuest
		if rng.Intn(3) == 0 {
			typ = AgentUser
		}
		p.Spawn(SpawnRequest{Start: a, End: b, Type: typ, Key: string(a) + "->" + string(b)}, now)
		if p.Len() > 3 || p.Guests() > 2 {
			t.Fatalf("step %d: agents=%d guests=%d", i, p.Len(), p.Guests())
		}
		if f.live != p.Len() {
			t.Fatalf("step %d: %d live meshes for %d agents", i, f.live, p.Len())
		}
		now = now.Add(10 * time.Millisecond)
	}
}

func TestEvictionPrefersOldestGuest(t *testing.T) {
	nodes := testNodes("A", "B", "C", "D", "E")
	p, _ := newTestPool(t, nodes)
	now := time.Unix(0, 0)

	p.Spawn(SpawnRequest{Start: "A", End: "B", Type: AgentUser, Key: "u1"}, now)
	p.Spawn(SpawnRequest{Start: "B", End: "C", Type: AgentGuest, Key: "g1"}, now)
	p.Spawn(SpawnRequest{Start: "C", End: "D", Type: AgentUser, Key: "u2"}, now)
	p.Spawn(SpawnRequest{Start: "D", End: "E", Type: AgentUser, Key: "u3"}, now)

	if p.Registered("g1", AgentGuest) {
		t.Error("Expected the guest to be evicted first")
	}
	if !p.Registered("u1", AgentUser) {
		t.Error("Expected the oldest user to survive while a guest could be evicted")
	}

	p.Spawn(SpawnRequest{Start: "E", End: "A", Type: AgentUser, Key: "u4"}, now)
	if p.Registered("u1", AgentUser) {
		t.Error("Expected the oldest agent to go when no guest is left")
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestGuestCapEvictsGuest(t *testing.T) {
	nodes := testNodes("A", "B", "C", "D")
	p, _ := newTestPool(t, nodes)
	now := time.Unix(0, 0)
	p.Spawn(SpawnRequest{Start: "A", End: "B", Type: AgentGuest, Key: "g1"}, now)
	p.Spawn(SpawnRequest{Start: "B", End: "C", Type: AgentGuest, Key: "g2"}, now)
	p.Spawn(SpawnRequest{Start: "C", End: "D", Type: AgentGuest, Key: "g3"}, now)

	if p.Len() != 2 || p.Guests() != 2 {
		t.Errorf("Len()=%d Guests()=%d, want 2 and 2", p.Len(), p.Guests())
	}
	if p.Registered("g1", AgentGuest) {
		t.Error("Expected oldest guest evicted on guest cap")
	}
}

func TestQueuedUntilTemplateLoads(t *testing.T) {
	nodes := testNodes("A", "B", "C")
	f := newFakeFactory()
	p := NewAgentPool(DefaultAgentConfig(), f, func(id NodeID) (*Node, bool) {
		n, ok := nodes[id]
		return n, ok
	})
	now := time.Unix(0, 0)

	p.Spawn(SpawnRequest{Start: "A", End: "B", Type: AgentUser, Key: "1"}, now)
	p.Spawn(SpawnRequest{Start: "B", End: "C", Type: AgentUser, Key: "2"}, now)
	if p.Len() != 0 || p.Queued() != 2 {
		t.Fatalf("Len()=%d Queued()=%d, want 0 and 2", p.Len(), p.Queued())
	}
	if p.Spawn(SpawnRequest{Start: "A", End: "B", Type: AgentUser, Key: "1"}, now) {
		t.Error("Expected queued key to dedupe")
	}

	p.TemplateLoaded(true, now)
	if p.Len() != 2 || p.Queued() != 0 {
		t.Fatalf("Len()=%d Queued()=%d after load, want 2 and 0", p.Len(), p.Queued())
	}
	agents := p.Agents()
	if agents[0].Key != "1" || agents[1].Key != "2" {
		t.Errorf("Drain order = %s,%s; want 1,2", agents[0].Key, agents[1].Key)
	}
	if f.created[ShapeTemplate] != 2 {
		t.Errorf("template meshes = %d, want 2", f.created[ShapeTemplate])
	}
}

func TestTemplateFailureFallsBackToProcedural(t *testing.T) {
	nodes := testNodes("A", "B", "C")
	f := newFakeFactory()
	p := NewAgentPool(DefaultAgentConfig(), f, func(id NodeID) (*Node, bool) {
		n, ok := nodes[id]
		return n, ok
	})
	now := time.Unix(0, 0)
	p.Spawn(SpawnRequest{Start: "A", End: "B", Type: AgentUser, Key: "1"}, now)

	// The node disappears before the template resolves.
	p.Spawn(SpawnRequest{Start: "B", End: "C", Type: AgentUser, Key: "2"}, now)
	delete(nodes, "C")

	p.TemplateLoaded(false, now)
	p.TemplateLoaded(true, now)
	if p.Template() != TemplateFailed {
		t.Errorf("Template() = %v, want failed after single attempt", p.Template())
	}
	if p.Len() != 1 || f.created[ShapeProcedural] != 1 || f.created[ShapeTemplate] != 0 {
		t.Errorf("Len()=%d procedural=%d template=%d", p.Len(), f.created[ShapeProcedural], f.created[ShapeTemplate])
	}
	if p.Registered("2", AgentUser) {
		t.Error("Expected stale queued request to be unregistered")
	}
}

func TestSafeProfileSwapsToProcedural(t *testing.T) {
	nodes := testNodes("A", "B")
	p, f := newTestPool(t, nodes)
	now := time.Unix(0, 0)
	p.Spawn(SpawnRequest{Start: "A", End: "B", Type: AgentUser, Key: "1"}, now)
	p.SetSafeProfile(now)

	if a := p.Agents()[0]; a.Shape != ShapeProcedural {
		t.Errorf("Shape = %v, want procedural", a.Shape)
	}
	if f.live != 1 {
		t.Errorf("live meshes = %d, want 1", f.live)
	}
	p.Spawn(SpawnRequest{Start: "B", End: "A", Type: AgentUser, Key: "2"}, now)
	if f.created[ShapeTemplate] != 1 {
		t.Errorf("template meshes = %d, want no new templates in safe profile", f.created[ShapeTemplate])
	}
}

func TestTickAdvancesAndCulls(t *testing.T) {
	nodes := map[NodeID]*Node{
		"A": {ID: "A", Lat: 0, Lng: -20},
		"B": {ID: "B", Lat: 0, Lng: 20},
		"C": {ID: "C", Lat: 0, Lng: 160},
		"D": {ID: "D", Lat: 0, Lng: -160},
	}
	p, _ := newTestPool(t, nodes)
	start := time.Unix(0, 0)
	p.Spawn(SpawnRequest{Start: "A", End: "B", Type: AgentUser, Key: "front"}, start)
	p.Spawn(SpawnRequest{Start: "C", End: "D", Type: AgentUser, Key: "back"}, start)
	cam := NewCamera(1000, 1000)

	front, back := p.Agents()[0], p.Agents()[1]
	p.Tick(start.Add(front.Duration/2), cam)
	if !front.Pose.Visible {
		t.Error("Expected front agent visible")
	}
	if front.Pose.T < 0.49 || front.Pose.T > 0.51 {
		t.Errorf("T = %f, want 0.5", front.Pose.T)
	}
	if front.Pose.Position.Len() <= GlobeRadius {
		t.Error("Expected midpoint above the surface")
	}
	if back.Pose.Visible {
		t.Error("Expected back-facing agent culled")
	}

	// t wraps modulo 1.
	p.Tick(start.Add(front.Duration+front.Duration/4), cam)
	if front.Pose.T < 0.24 || front.Pose.T > 0.26 {
		t.Errorf("T = %f after wrap, want 0.25", front.Pose.T)
	}
}

func TestClearDisposesEverything(t *testing.T) {
	nodes := testNodes("A", "B", "C")
	p, f := newTestPool(t, nodes)
	now := time.Unix(0, 0)
	p.Spawn(SpawnRequest{Start: "A", End: "B", Type: AgentUser, Key: "1"}, now)
	p.Spawn(SpawnRequest{Start: "B", End: "C", Type: AgentGuest, Key: "2"}, now)

	p.ClearType(AgentUser)
	if p.Len() != 1 || p.Registered("1", AgentUser) {
		t.Errorf("ClearType(user) left Len()=%d", p.Len())
	}
	p.Clear()
	if p.Len() != 0 || f.live != 0 {
		t.Errorf("Clear() left Len()=%d live=%d", p.Len(), f.live)
	}
	if !p.Spawn(SpawnRequest{Start: "B", End: "C", Type: AgentGuest, Key: "2"}, now) {
		t.Error("Expected key to be free after Clear")
	}
}

func TestTickInterval(t *testing.T) {
	if TickInterval(true, false) >= TickInterval(false, false) {
		t.Error("Expected visible interval to be faster than hidden")
	}
	if TickInterval(true, true) != TickInterval(false, false) {
		t.Error("Expected safe profile to use the slow interval")
	}
}

func TestPoolClampsConfiguredCaps(t *testing.T) {
	ids := make([]NodeID, 10)
	for i := range ids {
		ids[i] = NodeID(fmt.Sprintf("n%d", i))
	}
	nodes := testNodes(ids...)
	cfg := DefaultAgentConfig()
	cfg.MaxAgents, cfg.MaxGuests = 8, 6
	p := NewAgentPool(cfg, newFakeFactory(), func(id NodeID) (*Node, bool) {
		n, ok := nodes[id]
		return n, ok
	})
	p.TemplateLoaded(true, time.Unix(0, 0))

	now := time.Unix(1, 0)
	for i := 1; i < len(ids); i++ {
		p.Spawn(SpawnRequest{Start: ids[0], End: ids[i], Type: AgentGuest, Key: string(ids[i])}, now)
	}
	if p.Len() > MaxAgentsLimit || p.Guests() > MaxGuestsLimit {
		t.Errorf("agents=%d guests=%d, want at most %d and %d", p.Len(), p.Guests(), MaxAgentsLimit, MaxGuestsLimit)
	}
}
