package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

func snapshot() *globeengine.GraphSnapshot {
	return &globeengine.GraphSnapshot{
		Nodes: []globeengine.SnapshotNode{
			{ID: "A", CountryCode: "FR", Name: "Ada"},
			{ID: "B", CountryCode: "FR", Name: "Bea"},
			{ID: "C", CountryCode: "DE", Name: "Cy"},
		},
		Links: []globeengine.SnapshotLink{
			{Source: "A", Target: "B"},
			{Source: "B", Target: "C"},
			{Source: "C", Target: "C"},
		},
	}
}

func newEngine() *globeengine.Engine {
	opts := globeengine.DefaultOptions()
	opts.GuestSpawnEvery = 0
	return globeengine.New(opts)
}

func TestReportWithIdentity(t *testing.T) {
	color.NoColor = true
	e := newEngine()
	defer e.Close()

	rep := inspect(e, snapshot(), globeengine.Identity{ID: "B"}, true)
	var buf bytes.Buffer
	writeReport(&buf, e, rep, true)
	out := buf.String()

	for _, want := range []string{
		"people       3",
		"connections  2",
		"dropped 1 records",
		"Chain of B",
		"-1: Ada (France)",
		"+1: Cy (Germany)",
		"FR    France",
		"LAT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestReportUnknownIdentity(t *testing.T) {
	color.NoColor = true
	e := newEngine()
	defer e.Close()

	rep := inspect(e, snapshot(), globeengine.Identity{ID: "Z"}, true)
	var buf bytes.Buffer
	writeReport(&buf, e, rep, false)
	out := buf.String()

	if !strings.Contains(out, "Identity Z is not in the snapshot") {
		t.Errorf("expected a guest view warning:\n%s", out)
	}
	if strings.Contains(out, "Nodes") {
		t.Error("Expected no node listing without --nodes")
	}
}

func TestTableAlignsColumns(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	table(&buf, []string{"ID", "NAME"}, [][]string{{"long-id", "x"}, {"a", "yy"}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("table printed %d lines, want 4", len(lines))
	}
	if lines[2] != "  long-id  x" || lines[3] != "  a        yy" {
		t.Errorf("rows = %q, %q", lines[2], lines[3])
	}
}
