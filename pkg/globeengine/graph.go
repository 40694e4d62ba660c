package globeengine

import "sort"

// GraphIndex holds the adjacency and parent/child indices derived from one
// link set. It is immutable once built.
type GraphIndex struct {
	adj      map[NodeID]map[NodeID]struct{}
	parents  map[NodeID]NodeID
	children map[NodeID][]NodeID
}

type Relation int

const (
	RelationAncestor Relation = iota
	RelationSelf
	RelationDescendant
)

// Connection is one entry of an ordered narration. Depth is the distance to
// the narrated node in either direction.
type Connection struct {
	Depth    int
	ID       NodeID
	Relation Relation
}

func NewGraphIndex(links []Link) *GraphIndex {
	g := &GraphIndex{
		adj:      make(map[NodeID]map[NodeID]struct{}),
		parents:  make(map[NodeID]NodeID),
		children: make(map[NodeID][]NodeID),
	}
	for _, l := range links {
		g.addAdj(l.Source, l.Target)
		g.addAdj(l.Target, l.Source)
		// Forest precondition: keep the first parent seen.
		if _, ok := g.parents[l.Target]; !ok {
			g.parents[l.Target] = l.Source
		}
		g.children[l.Source] = append(g.children[l.Source], l.Target)
	}
	for id := range g.children {
		sortIDs(g.children[id])
	}
	return g
}

func (g *GraphIndex) addAdj(a, b NodeID) {
	set, ok := g.adj[a]
	if !ok {
		set = make(map[NodeID]struct{})
		g.adj[a] = set
	}
	set[b] = struct{}{}
}

// Neighbors returns the direct adjacency of id, empty if absent.
func (g *GraphIndex) Neighbors(id NodeID) map[NodeID]struct{} {
	out := make(map[NodeID]struct{}, len(g.adj[id]))
	for n := range g.adj[id] {
		out[n] = struct{}{}
	}
	return out
}

// SortedNeighbors returns Neighbors ordered by id.
func (g *GraphIndex) SortedNeighbors(id NodeID) []NodeID {
	out := make([]NodeID, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		out = append(out, n)
	}
	sortIDs(out)
	return out
}

// Chain returns the connected component containing id, id included.
func (g *GraphIndex) Chain(id NodeID) map[NodeID]struct{} {
	visited := map[NodeID]struct{}{id: {}}
	queue := []NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for n := range g.adj[cur] {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			queue = append(queue, n)
		}
	}
	return visited
}

// Parent returns the recorded parent of id.
func (g *GraphIndex) Parent(id NodeID) (NodeID, bool) {
	p, ok := g.parents[id]
	return p, ok
}

// OrderedConnections lists ancestors root first, then id, then descendants
// breadth first with ties broken by id. The ancestor walk stops at the first
// revisited node so cyclic data cannot loop.
func (g *GraphIndex) OrderedConnections(id NodeID) []Connection {
	visited := map[NodeID]struct{}{id: {}}
	var ancestors []NodeID
	for cur := id; ; {
		p, ok := g.parents[cur]
		if !ok {
			break
		}
		if _, seen := visited[p]; seen {
			break
		}
		visited[p] = struct{}{}
		ancestors = append(ancestors, p)
		cur = p
	}

	out := make([]Connection, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		out = append(out, Connection{Depth: i + 1, ID: ancestors[i], Relation: RelationAncestor})
	}
	out = append(out, Connection{Depth: 0, ID: id, Relation: RelationSelf})

	level := []NodeID{id}
	for depth := 1; len(level) > 0; depth++ {
		var next []NodeID
		for _, cur := range level {
			for _, c := range g.children[cur] {
				if _, seen := visited[c]; seen {
					continue
				}
				visited[c] = struct{}{}
				next = append(next, c)
			}
		}
		sortIDs(next)
		for _, c := range next {
			out = append(out, Connection{Depth: depth, ID: c, Relation: RelationDescendant})
		}
		level = next
	}
	return out
}

func sortIDs(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
