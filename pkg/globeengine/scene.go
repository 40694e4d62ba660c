package globeengine

// sceneIndex is one hydration: nodes, links and the graph derived from them.
// It is built off the update loop and installed by pointer swap, so the loop
// never sees a half-built index. Only style fields of nodes change after that.
type sceneIndex struct {
	seq       uint64
	nodes     []*Node
	byID      map[NodeID]*Node
	names     map[NodeID]string
	links     []Link
	graph     *GraphIndex
	countries int
}

func buildSceneIndex(snap *GraphSnapshot, layout *LayoutEngine, seq uint64) (*sceneIndex, ValidationReport) {
	clean, rep := snap.Validate()
	s := &sceneIndex{
		seq:   seq,
		nodes: make([]*Node, 0, len(clean.Nodes)),
		byID:  make(map[NodeID]*Node, len(clean.Nodes)),
		names: make(map[NodeID]string, len(clean.Nodes)),
		links: make([]Link, 0, len(clean.Links)),
	}
	countries := make(map[string]struct{})
	for _, sn := range clean.Nodes {
		id := NodeID(sn.ID)
		lat, lng := layout.Place(sn.CountryCode, id)
		n := &Node{
			ID:          id,
			Lat:         lat,
			Lng:         lng,
			Size:        SizeBaseline,
			Color:       ColorBaseline,
			CountryCode: sn.CountryCode,
			DisplayName: sn.Name,
		}
		s.nodes = append(s.nodes, n)
		s.byID[id] = n
		s.names[id] = sn.Name
		countries[sn.CountryCode] = struct{}{}
	}
	for _, sl := range clean.Links {
		s.links = append(s.links, Link{Source: NodeID(sl.Source), Target: NodeID(sl.Target)})
	}
	s.graph = NewGraphIndex(s.links)
	s.countries = len(countries)
	return s, rep
}

func (s *sceneIndex) node(id NodeID) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	n, ok := s.byID[id]
	return n, ok
}
