package globeengine

import "fmt"

// Summary is the textual view of the scene for non-visual consumers.
type Summary struct {
	PeopleCount     int
	CountryCount    int
	ConnectionCount int
	Narration       []string
	Tally           []CountryCount
	Identity        NodeID
}

func buildSummary(s *sceneIndex, ic *IdentityController) Summary {
	if s == nil {
		return Summary{}
	}
	sum := Summary{
		PeopleCount:     len(s.nodes),
		CountryCount:    s.countries,
		ConnectionCount: len(s.links),
		Tally:           ic.Tally(),
	}
	if id, ok := ic.Active(); ok {
		sum.Identity = id.ID
	}
	for _, c := range ic.Narration() {
		sum.Narration = append(sum.Narration, narrate(s, c))
	}
	return sum
}

// narrate renders "depth: name (country)"; ancestors carry a negative depth.
func narrate(s *sceneIndex, c Connection) string {
	depth := c.Depth
	if c.Relation == RelationAncestor {
		depth = -depth
	}
	name := string(c.ID)
	country := CountryName("")
	if n, ok := s.node(c.ID); ok {
		if n.DisplayName != "" {
			name = n.DisplayName
		}
		country = CountryName(n.CountryCode)
	}
	if depth > 0 {
		return fmt.Sprintf("+%d: %s (%s)", depth, name, country)
	}
	return fmt.Sprintf("%d: %s (%s)", depth, name, country)
}
