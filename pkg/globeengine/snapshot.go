package globeengine

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/biter777/countries"
)

// GraphSnapshot is the wire contract delivered by a data provider.
type GraphSnapshot struct {
	Nodes []SnapshotNode `json:"nodes"`
	Links []SnapshotLink `json:"links"`
}

type SnapshotNode struct {
	ID          string    `json:"id"`
	CountryCode string    `json:"countryCode"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SnapshotLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ValidationReport counts the entries dropped at the ingestion boundary.
type ValidationReport struct {
	EmptyIDs       int
	DuplicateIDs   int
	DanglingLinks  int
	SelfLinks      int
	DuplicateLinks int
}

func (r ValidationReport) Dropped() int {
	return r.EmptyIDs + r.DuplicateIDs + r.DanglingLinks + r.SelfLinks + r.DuplicateLinks
}

func (r ValidationReport) String() string {
	return fmt.Sprintf("empty_ids=%d duplicate_ids=%d dangling_links=%d self_links=%d duplicate_links=%d",
		r.EmptyIDs, r.DuplicateIDs, r.DanglingLinks, r.SelfLinks, r.DuplicateLinks)
}

// DecodeSnapshot reads a JSON snapshot. Unknown fields are ignored.
func DecodeSnapshot(r io.Reader) (*GraphSnapshot, error) {
	var s GraphSnapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// Validate returns a cleaned copy of the snapshot: first occurrence of an id
// wins, links must reference kept nodes, and country codes are normalised to
// ISO alpha-2.
func (s *GraphSnapshot) Validate() (*GraphSnapshot, ValidationReport) {
	var rep ValidationReport
	out := &GraphSnapshot{
		Nodes: make([]SnapshotNode, 0, len(s.Nodes)),
		Links: make([]SnapshotLink, 0, len(s.Links)),
	}
	seen := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			rep.EmptyIDs++
			continue
		}
		if seen[n.ID] {
			rep.DuplicateIDs++
			continue
		}
		seen[n.ID] = true
		n.CountryCode = NormalizeCountryCode(n.CountryCode)
		out.Nodes = append(out.Nodes, n)
	}

	seenLinks := make(map[SnapshotLink]bool, len(s.Links))
	for _, l := range s.Links {
		l.Source, l.Target = strings.TrimSpace(l.Source), strings.TrimSpace(l.Target)
		if !seen[l.Source] || !seen[l.Target] {
			rep.DanglingLinks++
			continue
		}
		if l.Source == l.Target {
			rep.SelfLinks++
			continue
		}
		if seenLinks[l] {
			rep.DuplicateLinks++
			continue
		}
		seenLinks[l] = true
		out.Links = append(out.Links, l)
	}
	return out, rep
}

// NormalizeCountryCode maps alpha-2, alpha-3 or English names to an upper case
// alpha-2 code. Unknown inputs are returned upper-cased so the layout engine
// can still try its own tables.
func NormalizeCountryCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if c := countries.ByName(code); c != countries.Unknown {
		return c.Alpha2()
	}
	return strings.ToUpper(code)
}

// CountryName returns a short English name for an alpha-2 code.
func CountryName(code string) string {
	c := countries.ByName(code)
	if c == countries.Unknown {
		if code == "" {
			return "Unknown"
		}
		return code
	}
	name := c.String()
	if idx := strings.Index(name, " ("); idx != -1 {
		name = name[:idx]
	}
	return name
}
