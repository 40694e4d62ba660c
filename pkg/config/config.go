// Package config loads tuning knobs for the globe from a TOML file.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds every tunable of the viewer.
type Config struct {
	Perf   PerfConfig   `toml:"perf"`
	Agents AgentsConfig `toml:"agents"`
	Camera CameraConfig `toml:"camera"`
	Source SourceConfig `toml:"source"`
	Assets AssetsConfig `toml:"assets"`
	Viewer ViewerConfig `toml:"viewer"`
}

// PerfConfig controls adaptive resolution and the safe profile.
type PerfConfig struct {
	LowFPS       float64  `toml:"low_fps"`
	HighFPS      float64  `toml:"high_fps"`
	KillFPS      float64  `toml:"kill_fps"`
	LowHold      Duration `toml:"low_hold"`
	HighHold     Duration `toml:"high_hold"`
	KillHold     Duration `toml:"kill_hold"`
	ScaleFloor   float64  `toml:"scale_floor"`
	ScaleCeiling float64  `toml:"scale_ceiling"`
	ScaleStep    float64  `toml:"scale_step"`
}

// AgentsConfig controls the traveling agent pool.
type AgentsConfig struct {
	MaxAgents   int      `toml:"max_agents"`
	MaxGuests   int      `toml:"max_guests"`
	MinDuration Duration `toml:"min_duration"`
	MaxDuration Duration `toml:"max_duration"`
	Altitude    float64  `toml:"altitude"`
	GuestEvery  Duration `toml:"guest_every"`
}

// CameraConfig controls autorotation.
type CameraConfig struct {
	BurstDuration Duration `toml:"burst_duration"`
	IdleTimeout   Duration `toml:"idle_timeout"`
	BurstRate     float64  `toml:"burst_rate"`
	IdleRate      float64  `toml:"idle_rate"`
}

// SourceConfig selects where snapshots come from.
type SourceConfig struct {
	URL      string   `toml:"url"`
	Stream   string   `toml:"stream"`
	File     string   `toml:"file"`
	Interval Duration `toml:"interval"`
	Timeout  Duration `toml:"timeout"`
}

// AssetsConfig points at the boat sprite.
type AssetsConfig struct {
	Boat     string `toml:"boat"`
	CacheDir string `toml:"cache_dir"`
}

// ViewerConfig names the participant the viewer opens as. Empty ID is the
// guest view.
type ViewerConfig struct {
	ID        string `toml:"id"`
	Name      string `toml:"name"`
	BoatColor string `toml:"boat_color"`
}

// Default returns the default configuration.
func Default() *Config {
	perf := globeengine.DefaultPerfConfig()
	agents := globeengine.DefaultAgentConfig()
	cam := globeengine.DefaultCameraConfig()
	return &Config{
		Perf: PerfConfig{
			LowFPS:       perf.LowFPS,
			HighFPS:      perf.HighFPS,
			KillFPS:      perf.KillFPS,
			LowHold:      Duration(perf.LowHold),
			HighHold:     Duration(perf.HighHold),
			KillHold:     Duration(perf.KillHold),
			ScaleFloor:   perf.ScaleFloor,
			ScaleCeiling: perf.ScaleCeiling,
			ScaleStep:    perf.ScaleStep,
		},
		Agents: AgentsConfig{
			MaxAgents:   agents.MaxAgents,
			MaxGuests:   agents.MaxGuests,
			MinDuration: Duration(agents.MinDuration),
			MaxDuration: Duration(agents.MaxDuration),
			Altitude:    agents.Altitude,
			GuestEvery:  Duration(4 * time.Second),
		},
		Camera: CameraConfig{
			BurstDuration: Duration(cam.BurstDuration),
			IdleTimeout:   Duration(cam.IdleTimeout),
			BurstRate:     cam.BurstRate,
			IdleRate:      cam.IdleRate,
		},
		Source: SourceConfig{
			Interval: Duration(time.Minute),
			Timeout:  Duration(15 * time.Second),
		},
		Assets: AssetsConfig{CacheDir: "data/cache"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Agents.MaxAgents < 1 || c.Agents.MaxAgents > globeengine.MaxAgentsLimit:
		return fmt.Errorf("agents.max_agents must be between 1 and %d", globeengine.MaxAgentsLimit)
	case c.Agents.MaxGuests < 0 || c.Agents.MaxGuests > min(c.Agents.MaxAgents, globeengine.MaxGuestsLimit):
		return fmt.Errorf("agents.max_guests must be between 0 and %d and at most agents.max_agents", globeengine.MaxGuestsLimit)
	case c.Agents.MinDuration <= 0 || c.Agents.MaxDuration < c.Agents.MinDuration:
		return errors.New("agents durations must satisfy 0 < min_duration <= max_duration")
	case c.Perf.ScaleFloor <= 0 || c.Perf.ScaleCeiling < c.Perf.ScaleFloor:
		return errors.New("perf scale must satisfy 0 < scale_floor <= scale_ceiling")
	case c.Perf.KillFPS >= c.Perf.LowFPS || c.Perf.LowFPS >= c.Perf.HighFPS:
		return errors.New("perf thresholds must satisfy kill_fps < low_fps < high_fps")
	}
	if c.Viewer.BoatColor != "" {
		if _, err := ParseColor(c.Viewer.BoatColor); err != nil {
			return fmt.Errorf("viewer.boat_color: %w", err)
		}
	}
	return nil
}

// Identity returns the configured viewer identity, if any.
func (c *Config) Identity() (globeengine.Identity, bool) {
	if c.Viewer.ID == "" {
		return globeengine.Identity{}, false
	}
	id := globeengine.Identity{ID: globeengine.NodeID(c.Viewer.ID), DisplayName: c.Viewer.Name}
	if col, err := ParseColor(c.Viewer.BoatColor); err == nil {
		id.BoatColor = &col
	}
	return id, true
}

// ParseColor reads "#rrggbb" or "rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// EngineOptions maps the configuration onto engine options.
func (c *Config) EngineOptions() globeengine.Options {
	opts := globeengine.DefaultOptions()
	opts.Perf.LowFPS = c.Perf.LowFPS
	opts.Perf.HighFPS = c.Perf.HighFPS
	opts.Perf.KillFPS = c.Perf.KillFPS
	opts.Perf.LowHold = time.Duration(c.Perf.LowHold)
	opts.Perf.HighHold = time.Duration(c.Perf.HighHold)
	opts.Perf.KillHold = time.Duration(c.Perf.KillHold)
	opts.Perf.ScaleFloor = c.Perf.ScaleFloor
	opts.Perf.ScaleCeiling = c.Perf.ScaleCeiling
	opts.Perf.ScaleStep = c.Perf.ScaleStep

	opts.Agents.MaxAgents = c.Agents.MaxAgents
	opts.Agents.MaxGuests = c.Agents.MaxGuests
	opts.Agents.MinDuration = time.Duration(c.Agents.MinDuration)
	opts.Agents.MaxDuration = time.Duration(c.Agents.MaxDuration)
	opts.Agents.Altitude = c.Agents.Altitude
	opts.GuestSpawnEvery = time.Duration(c.Agents.GuestEvery)

	opts.Camera.BurstDuration = time.Duration(c.Camera.BurstDuration)
	opts.Camera.IdleTimeout = time.Duration(c.Camera.IdleTimeout)
	opts.Camera.BurstRate = c.Camera.BurstRate
	opts.Camera.IdleRate = c.Camera.IdleRate
	return opts
}
