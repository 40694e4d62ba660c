package globeengine

import (
	"errors"
	"fmt"
	"testing"
)

func testScene(t *testing.T, snap *GraphSnapshot) *sceneIndex {
	t.Helper()
	ds, err := DefaultCountryDataset()
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	s, _ := buildSceneIndex(snap, NewLayoutEngine(ds), 1)
	return s
}

func TestEnableUnknownNodeFallsBackToGuestView(t *testing.T) {
	s := testScene(t, abcSnapshot())
	c := NewIdentityController()
	err := c.Enable(s, Identity{ID: "nobody"})
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("Enable() = %v, want ErrUnknownNode", err)
	}
	if _, ok := c.Active(); ok {
		t.Error("Expected no active identity")
	}
	if p, ok := c.Pending(); !ok || p.ID != "nobody" {
		t.Error("Expected the request to stay pending")
	}
	if len(c.Edges()) != 2 || len(c.Labels()) != 0 {
		t.Errorf("Edges()=%d Labels()=%d, want guest view", len(c.Edges()), len(c.Labels()))
	}
}

func TestLabelsCapped(t *testing.T) {
	snap := &GraphSnapshot{Nodes: []SnapshotNode{{ID: "hub", CountryCode: "US"}}}
	for i := 9; i >= 0; i-- {
		id := fmt.Sprintf("n%d", i)
		snap.Nodes = append(snap.Nodes, SnapshotNode{ID: id, CountryCode: "CA"})
		snap.Links = append(snap.Links, SnapshotLink{Source: "hub", Target: id})
	}
	c := NewIdentityController()
	if err := c.Enable(testScene(t, snap), Identity{ID: "hub"}); err != nil {
		t.Fatal(err)
	}
	got := c.Labels()
	want := []NodeID{"hub", "n0", "n1", "n2", "n3", "n4"}
	if len(got) != len(want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Labels()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTallyOrdering(t *testing.T) {
	snap := &GraphSnapshot{Nodes: []SnapshotNode{
		{ID: "1", CountryCode: "JP"},
		{ID: "2", CountryCode: "DE"},
		{ID: "3", CountryCode: "BR"},
		{ID: "4", CountryCode: "BR"},
	}}
	tally := tallyCountries(testScene(t, snap), nil)
	codes := make([]string, len(tally))
	for i, c := range tally {
		codes[i] = c.Code
	}
	want := []string{"BR", "DE", "JP"}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("tally order = %v, want %v", codes, want)
			break
		}
	}
	if tally[0].Count != 2 {
		t.Errorf("BR count = %d, want 2", tally[0].Count)
	}
}
