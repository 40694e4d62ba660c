package globeengine

import "time"

type RotationState int

const (
	StateAutorotateBurst RotationState = iota
	StateIdle
	StateAutorotateIdle
)

func (s RotationState) String() string {
	switch s {
	case StateAutorotateBurst:
		return "autorotate-burst"
	case StateAutorotateIdle:
		return "autorotate-idle"
	default:
		return "idle"
	}
}

type CameraConfig struct {
	BurstDuration time.Duration
	IdleTimeout   time.Duration
	// Rates are in degrees of longitude per second.
	BurstRate float64
	IdleRate  float64
}

func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		BurstDuration: 10 * time.Second,
		IdleTimeout:   120 * time.Second,
		BurstRate:     18,
		IdleRate:      4,
	}
}

// CameraFSM drives autorotation. Deadlines are checked against the engine
// clock on Tick instead of wall-clock timers, so Stop cancels everything.
type CameraFSM struct {
	cfg   CameraConfig
	state RotationState
	ready bool

	burstUntil   time.Time
	idleDeadline time.Time

	hidden  bool
	safe    bool
	focused bool
	stopped bool
}

func NewCameraFSM(cfg CameraConfig) *CameraFSM {
	return &CameraFSM{cfg: cfg, state: StateIdle}
}

func (f *CameraFSM) State() RotationState { return f.state }

// Focused reports the orthogonal FocusedOnUser flag.
func (f *CameraFSM) Focused() bool { return f.focused }

// Ready starts the opening burst. Only the first call has an effect.
func (f *CameraFSM) Ready(now time.Time) {
	if f.ready || f.stopped {
		return
	}
	f.ready = true
	f.state = StateAutorotateBurst
	f.burstUntil = now.Add(f.cfg.BurstDuration)
}

// Interaction stops rotation and restarts the idle timer.
func (f *CameraFSM) Interaction(now time.Time) {
	if f.stopped {
		return
	}
	f.state = StateIdle
	f.idleDeadline = now.Add(f.cfg.IdleTimeout)
}

func (f *CameraFSM) SetVisible(visible bool) { f.hidden = !visible }

// SetSafeProfile stops autorotation for the rest of the session.
func (f *CameraFSM) SetSafeProfile() { f.safe = true }

// Focus recentres the camera on a point. Zoom ratio and rotation state are
// left as they are.
func (f *CameraFSM) Focus(cam *Camera, lat, lng float64) {
	cam.LookAt(lat, lng)
	f.focused = true
}

func (f *CameraFSM) ClearFocus() { f.focused = false }

// Rotating reports whether the camera is currently turning.
func (f *CameraFSM) Rotating() bool {
	if f.hidden || f.safe || f.stopped {
		return false
	}
	return f.state == StateAutorotateBurst || f.state == StateAutorotateIdle
}

// Tick fires due deadlines and rotates the camera by dt. It reports whether
// the camera moved.
func (f *CameraFSM) Tick(now time.Time, dt time.Duration, cam *Camera) bool {
	if f.stopped {
		return false
	}
	if f.state == StateAutorotateBurst && !now.Before(f.burstUntil) {
		f.state = StateIdle
		f.idleDeadline = now.Add(f.cfg.IdleTimeout)
	}
	if f.state == StateIdle && !f.idleDeadline.IsZero() && !now.Before(f.idleDeadline) {
		f.state = StateAutorotateIdle
		f.idleDeadline = time.Time{}
	}
	if !f.Rotating() || dt <= 0 {
		return false
	}
	rate := f.cfg.IdleRate
	if f.state == StateAutorotateBurst {
		rate = f.cfg.BurstRate
	}
	cam.Orbit(0, rate*dt.Seconds())
	return true
}

// Stop cancels all pending deadlines.
func (f *CameraFSM) Stop() {
	f.stopped = true
	f.burstUntil = time.Time{}
	f.idleDeadline = time.Time{}
}
