package globeengine

import (
	"fmt"
	"image/color"
	"sort"
)

const maxOverlayLabels = 6

type Edge struct {
	Source, Target NodeID
	Primary        bool
	Color          color.RGBA
	Width          float64
	Opacity        float64
}

type CountryCount struct {
	Code  string
	Name  string
	Count int
}

// IdentityController owns highlight state for the active viewer.
type IdentityController struct {
	active  *Identity
	pending *Identity

	neighbors map[NodeID]struct{}
	chain     map[NodeID]struct{}
	edges     []Edge
	labels    []NodeID
	narration []Connection
	tally     []CountryCount
}

func NewIdentityController() *IdentityController {
	return &IdentityController{}
}

func (c *IdentityController) Active() (Identity, bool) {
	if c.active == nil {
		return Identity{}, false
	}
	return *c.active, true
}

func (c *IdentityController) Pending() (Identity, bool) {
	if c.pending == nil {
		return Identity{}, false
	}
	return *c.pending, true
}

// Enable highlights id in s. With no scene, or when id is not part of it,
// the request is stashed and ErrNotHydrated / ErrUnknownNode is returned; the
// engine retries it on the next hydration.
func (c *IdentityController) Enable(s *sceneIndex, id Identity) error {
	if s == nil {
		c.stash(id)
		return ErrNotHydrated
	}
	self, ok := s.byID[id.ID]
	if !ok {
		c.stash(id)
		c.guestView(s)
		return fmt.Errorf("identity %q: %w", id.ID, ErrUnknownNode)
	}
	c.pending = nil
	ident := id
	c.active = &ident

	c.neighbors = s.graph.Neighbors(id.ID)
	c.chain = s.graph.Chain(id.ID)

	resetStyles(s)
	self.Color = ColorIdentity
	if id.BoatColor != nil {
		self.Color = *id.BoatColor
		bc := *id.BoatColor
		self.BoatColor = &bc
	}
	self.Size = SizeIdentity
	if id.DisplayName != "" {
		self.DisplayName = id.DisplayName
	}
	for n := range c.neighbors {
		if node, ok := s.byID[n]; ok {
			node.Color = ColorConnected
			node.Size = SizeConnected
		}
	}

	c.edges = buildEdges(s.links, c.chain)

	c.labels = append(c.labels[:0], id.ID)
	for _, n := range s.graph.SortedNeighbors(id.ID) {
		if len(c.labels) >= maxOverlayLabels {
			break
		}
		c.labels = append(c.labels, n)
	}

	c.narration = s.graph.OrderedConnections(id.ID)
	c.tally = tallyCountries(s, c.chain)
	return nil
}

func (c *IdentityController) stash(id Identity) {
	ident := id
	c.pending = &ident
	c.active = nil
}

// Disable clears identity state and re-applies the guest view.
func (c *IdentityController) Disable(s *sceneIndex) {
	c.active = nil
	c.pending = nil
	c.guestView(s)
}

func (c *IdentityController) guestView(s *sceneIndex) {
	c.neighbors = nil
	c.chain = nil
	c.labels = nil
	c.narration = nil
	if s == nil {
		c.edges = nil
		c.tally = nil
		return
	}
	resetStyles(s)
	c.edges = buildEdges(s.links, nil)
	c.tally = tallyCountries(s, nil)
}

// Reapply runs the active or stashed identity against a new scene, or the
// guest view when there is none.
func (c *IdentityController) Reapply(s *sceneIndex) error {
	id := c.active
	if id == nil {
		id = c.pending
	}
	if id == nil {
		c.guestView(s)
		return nil
	}
	return c.Enable(s, *id)
}

func (c *IdentityController) Neighbors() map[NodeID]struct{} { return c.neighbors }

func (c *IdentityController) Chain() map[NodeID]struct{} { return c.chain }

// Edges returns edges with primary ones last so they paint on top.
func (c *IdentityController) Edges() []Edge { return c.edges }

func (c *IdentityController) Labels() []NodeID { return c.labels }

func (c *IdentityController) Narration() []Connection { return c.narration }

func (c *IdentityController) Tally() []CountryCount { return c.tally }

func resetStyles(s *sceneIndex) {
	for _, n := range s.nodes {
		n.Color = ColorBaseline
		n.Size = SizeBaseline
		n.BoatColor = nil
		n.DisplayName = s.names[n.ID]
	}
}

func buildEdges(links []Link, chain map[NodeID]struct{}) []Edge {
	edges := make([]Edge, 0, len(links))
	for _, l := range links {
		_, a := chain[l.Source]
		_, b := chain[l.Target]
		e := Edge{Source: l.Source, Target: l.Target, Color: ColorEdge, Width: 1, Opacity: 0.35}
		if a && b {
			e.Primary = true
			e.Color = ColorEdgeChain
			e.Width = 2.5
			e.Opacity = 0.9
		}
		edges = append(edges, e)
	}
	sort.SliceStable(edges, func(i, j int) bool { return !edges[i].Primary && edges[j].Primary })
	return edges
}

// tallyCountries counts nodes per country over members, or over the whole
// scene when members is nil. Ordered by count descending, then name.
func tallyCountries(s *sceneIndex, members map[NodeID]struct{}) []CountryCount {
	counts := make(map[string]int)
	for _, n := range s.nodes {
		if members != nil {
			if _, ok := members[n.ID]; !ok {
				continue
			}
		}
		counts[n.CountryCode]++
	}
	out := make([]CountryCount, 0, len(counts))
	for code, cnt := range counts {
		out = append(out, CountryCount{Code: code, Name: CountryName(code), Count: cnt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Code < out[j].Code
	})
	return out
}
