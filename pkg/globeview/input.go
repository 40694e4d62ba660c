package globeview

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

// clickSlop is how far the pointer may travel between press and release and
// still count as a click.
const clickSlop = 4

// gesture tracks one pointer from press to release.
type gesture struct {
	down           bool
	moved          bool
	startX, startY int
	lastX, lastY   int
}

func (g *gesture) press(x, y int) {
	*g = gesture{down: true, startX: x, startY: y, lastX: x, lastY: y}
}

// move returns the pointer delta since the previous call.
func (g *gesture) move(x, y int) (dx, dy int) {
	if !g.down {
		return 0, 0
	}
	dx, dy = x-g.lastX, y-g.lastY
	g.lastX, g.lastY = x, y
	if abs(x-g.startX) > clickSlop || abs(y-g.startY) > clickSlop {
		g.moved = true
	}
	return dx, dy
}

// release ends the gesture and reports whether it was a click.
func (g *gesture) release(x, y int) bool {
	if !g.down {
		return false
	}
	g.move(x, y)
	click := !g.moved
	g.down = false
	return click
}

// dragToOrbit converts a pointer drag into camera orbit degrees. Dragging
// across the full globe diameter turns it half way round.
func dragToOrbit(cam *globeengine.Camera, dx, dy int) (dLat, dLng float64) {
	r := cam.ScreenRadius()
	if r <= 0 {
		return 0, 0
	}
	k := 90 / r
	return float64(dy) * k, -float64(dx) * k
}

// wheelToZoom maps a wheel delta to a multiplicative zoom factor. Scrolling up
// moves the camera closer.
func wheelToZoom(dy float64) float64 {
	if dy == 0 {
		return 1
	}
	return math.Pow(0.9, dy)
}

// anyInput reports whether this tick saw a fresh key, touch or button press.
// Any of them stops autorotation even when nothing moves.
func anyInput(keys []ebiten.Key, touches []ebiten.TouchID, pressed bool) bool {
	return pressed || len(keys) > 0 || len(touches) > 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
