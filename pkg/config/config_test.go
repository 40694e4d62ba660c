package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "globe.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Agents.MaxAgents != 3 || cfg.Agents.MaxGuests != 2 {
		t.Errorf("agents = %+v, want defaults", cfg.Agents)
	}
	if time.Duration(cfg.Camera.IdleTimeout) != 120*time.Second {
		t.Errorf("idle_timeout = %v, want 2m0s", time.Duration(cfg.Camera.IdleTimeout))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[perf]
scale_ceiling = 1.5

[agents]
max_guests = 1
guest_every = "2s"

[camera]
idle_timeout = "30s"

[source]
url = "https://example.com/graph.json"
interval = "5m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Perf.ScaleCeiling != 1.5 || cfg.Perf.ScaleFloor != 0.5 {
		t.Errorf("perf = %+v", cfg.Perf)
	}
	if cfg.Source.URL != "https://example.com/graph.json" || time.Duration(cfg.Source.Interval) != 5*time.Minute {
		t.Errorf("source = %+v", cfg.Source)
	}

	opts := cfg.EngineOptions()
	if opts.Agents.MaxGuests != 1 || opts.Agents.MaxAgents != 3 {
		t.Errorf("agents options = %+v", opts.Agents)
	}
	if opts.GuestSpawnEvery != 2*time.Second || opts.Camera.IdleTimeout != 30*time.Second {
		t.Errorf("GuestSpawnEvery=%v IdleTimeout=%v", opts.GuestSpawnEvery, opts.Camera.IdleTimeout)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"syntax", "[perf\n", "failed to parse"},
		{"unknown key", "[perf]\nwarp = 9\n", "unknown keys"},
		{"bad duration", "[camera]\nidle_timeout = \"soon\"\n", "failed to parse"},
		{"guest cap", "[agents]\nmax_guests = 5\n", "max_guests"},
		{"agent cap", "[agents]\nmax_agents = 4\n", "max_agents"},
		{"guest cap below agents", "[agents]\nmax_agents = 3\nmax_guests = 3\n", "max_guests"},
		{"guests above agents", "[agents]\nmax_agents = 1\nmax_guests = 2\n", "max_guests"},
		{"thresholds", "[perf]\nkill_fps = 50\n", "kill_fps"},
		{"boat color", "[viewer]\nboat_color = \"teal\"\n", "boat_color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestViewerIdentity(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.Identity(); ok {
		t.Error("Expected guest view by default")
	}

	cfg.Viewer = ViewerConfig{ID: "b", Name: "Bea", BoatColor: "#ff8800"}
	id, ok := cfg.Identity()
	if !ok || id.ID != "b" || id.DisplayName != "Bea" {
		t.Fatalf("Identity() = %+v, %v", id, ok)
	}
	if id.BoatColor == nil || *id.BoatColor != (color.RGBA{255, 136, 0, 255}) {
		t.Errorf("BoatColor = %v, want #ff8800", id.BoatColor)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#00e6b4", color.RGBA{0, 230, 180, 255}, false},
		{"FFFFFF", color.RGBA{255, 255, 255, 255}, false},
		{"#fff", color.RGBA{}, true},
		{"#gggggg", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
