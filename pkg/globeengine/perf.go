package globeengine

import (
	"log"
	"math"
	"time"
)

type PerfConfig struct {
	LowFPS, HighFPS, KillFPS float64
	LowHold, HighHold        time.Duration
	KillHold                 time.Duration
	ScaleFloor, ScaleCeiling float64
	ScaleStep                float64
	Samples                  int
}

func DefaultPerfConfig() PerfConfig {
	return PerfConfig{
		LowFPS:       40,
		HighFPS:      59,
		KillFPS:      24,
		LowHold:      3 * time.Second,
		HighHold:     10 * time.Second,
		KillHold:     5 * time.Second,
		ScaleFloor:   0.5,
		ScaleCeiling: 2,
		ScaleStep:    0.25,
		Samples:      60,
	}
}

// Quality is the observable degradation state.
type Quality struct {
	ResolutionScale float64
	SafeProfile     bool
	FPS             float64
}

// PerfController is the only writer of quality state. Everything else reads
// it through Quality().
type PerfController struct {
	cfg PerfConfig

	samples []float64
	next    int
	filled  int

	lowMs, highMs, killMs float64

	scale     float64
	deviceCap float64
	safe      bool
	fps       float64

	listeners []func(Quality)
}

func NewPerfController(cfg PerfConfig) *PerfController {
	if cfg.Samples <= 0 {
		cfg.Samples = 60
	}
	p := &PerfController{
		cfg:       cfg,
		samples:   make([]float64, cfg.Samples),
		deviceCap: cfg.ScaleCeiling,
	}
	p.scale = p.clampScale(1)
	return p
}

// OnChange registers a listener invoked whenever scale or safe profile
// changes.
func (p *PerfController) OnChange(fn func(Quality)) {
	p.listeners = append(p.listeners, fn)
}

// SetDeviceCap limits the ceiling to what the display supports.
func (p *PerfController) SetDeviceCap(limit float64) {
	if limit <= 0 {
		return
	}
	p.deviceCap = limit
	if !p.safe {
		p.setScale(p.clampScale(p.scale))
	}
}

func (p *PerfController) Quality() Quality {
	return Quality{ResolutionScale: p.scale, SafeProfile: p.safe, FPS: p.fps}
}

func (p *PerfController) SafeProfile() bool { return p.safe }

func (p *PerfController) ceiling() float64 {
	return math.Max(p.cfg.ScaleFloor, math.Min(p.cfg.ScaleCeiling, p.deviceCap))
}

func (p *PerfController) clampScale(s float64) float64 {
	return math.Max(p.cfg.ScaleFloor, math.Min(p.ceiling(), s))
}

// Sample records one frame duration and applies the degradation rules.
func (p *PerfController) Sample(frame time.Duration) Quality {
	dt := float64(frame) / float64(time.Millisecond)
	if dt <= 0 {
		return p.Quality()
	}
	p.samples[p.next] = dt
	p.next = (p.next + 1) % len(p.samples)
	if p.filled < len(p.samples) {
		p.filled++
	}
	var sum float64
	for i := 0; i < p.filled; i++ {
		sum += p.samples[i]
	}
	p.fps = 1000 / (sum / float64(p.filled))

	p.lowMs = accumulate(p.lowMs, dt, p.fps < p.cfg.LowFPS)
	p.highMs = accumulate(p.highMs, dt, p.fps >= p.cfg.HighFPS)
	p.killMs = accumulate(p.killMs, dt, p.fps < p.cfg.KillFPS)

	if p.safe {
		return p.Quality()
	}

	switch {
	case p.killMs >= ms(p.cfg.KillHold):
		p.enterSafeProfile()
	case p.lowMs >= ms(p.cfg.LowHold):
		p.lowMs = 0
		if p.scale != p.cfg.ScaleFloor {
			log.Printf("[PERF] sustained fps %.1f below %.0f, dropping resolution scale to %.2f", p.fps, p.cfg.LowFPS, p.cfg.ScaleFloor)
		}
		p.setScale(p.cfg.ScaleFloor)
	case p.highMs >= ms(p.cfg.HighHold):
		p.highMs = 0
		p.setScale(p.clampScale(p.scale + p.cfg.ScaleStep))
	}
	return p.Quality()
}

func (p *PerfController) enterSafeProfile() {
	p.safe = true
	p.scale = p.cfg.ScaleFloor
	log.Printf("[PERF] entering safe profile after %.0fms below %.0f fps; resolution pinned to %.2f", p.killMs, p.cfg.KillFPS, p.scale)
	p.notify()
}

func (p *PerfController) setScale(s float64) {
	if s == p.scale {
		return
	}
	p.scale = s
	p.notify()
}

func (p *PerfController) notify() {
	q := p.Quality()
	for _, fn := range p.listeners {
		fn(q)
	}
}

// accumulate grows acc by dt while in its zone and decays it otherwise.
func accumulate(acc, dt float64, inZone bool) float64 {
	if inZone {
		return acc + dt
	}
	return math.Max(0, acc-dt)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
