package globeview

import (
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

func TestGestureClickVersusDrag(t *testing.T) {
	tests := []struct {
		name  string
		moves [][2]int
		end   [2]int
		click bool
	}{
		{"still", nil, [2]int{100, 100}, true},
		{"jitter", [][2]int{{102, 101}, {99, 103}}, [2]int{101, 100}, true},
		{"drag", [][2]int{{110, 100}, {130, 100}}, [2]int{130, 100}, false},
		{"drag back", [][2]int{{120, 100}}, [2]int{100, 100}, false},
	}
	for _, tt := range tests {
		var g gesture
		g.press(100, 100)
		for _, m := range tt.moves {
			g.move(m[0], m[1])
		}
		if got := g.release(tt.end[0], tt.end[1]); got != tt.click {
			t.Errorf("%s: release() = %v, want %v", tt.name, got, tt.click)
		}
	}
}

func TestGestureMoveDelta(t *testing.T) {
	var g gesture
	if dx, dy := g.move(5, 5); dx != 0 || dy != 0 {
		t.Errorf("move() before press = (%d, %d), want (0, 0)", dx, dy)
	}
	g.press(10, 10)
	if dx, dy := g.move(15, 7); dx != 5 || dy != -3 {
		t.Errorf("move() = (%d, %d), want (5, -3)", dx, dy)
	}
	if dx, dy := g.move(15, 7); dx != 0 || dy != 0 {
		t.Errorf("repeat move() = (%d, %d), want (0, 0)", dx, dy)
	}
	if g.release(15, 7); g.down {
		t.Error("Expected gesture to end on release")
	}
	if g.release(15, 7) {
		t.Error("Expected release without press to not click")
	}
}

func TestDragToOrbit(t *testing.T) {
	cam := globeengine.NewCamera(800, 800)
	r := cam.ScreenRadius()

	dLat, dLng := dragToOrbit(cam, int(2*r), 0)
	if math.Abs(dLng+180) > 1 || dLat != 0 {
		t.Errorf("drag across diameter = (%f, %f), want (0, -180)", dLat, dLng)
	}
	dLat, _ = dragToOrbit(cam, 0, 10)
	if dLat <= 0 {
		t.Errorf("drag down dLat = %f, want positive", dLat)
	}

	empty := globeengine.NewCamera(0, 0)
	if dLat, dLng := dragToOrbit(empty, 10, 10); dLat != 0 || dLng != 0 {
		t.Errorf("zero viewport = (%f, %f), want (0, 0)", dLat, dLng)
	}
}

func TestWheelToZoom(t *testing.T) {
	tests := []struct {
		dy   float64
		want float64
	}{
		{0, 1},
		{1, 0.9},
		{-1, 1 / 0.9},
		{2, 0.81},
	}
	for _, tt := range tests {
		if got := wheelToZoom(tt.dy); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("wheelToZoom(%f) = %f, want %f", tt.dy, got, tt.want)
		}
	}
}

func TestAnyInput(t *testing.T) {
	tests := []struct {
		name    string
		keys    []ebiten.Key
		touches []ebiten.TouchID
		pressed bool
		want    bool
	}{
		{"idle", nil, nil, false, false},
		{"hud toggle", []ebiten.Key{ebiten.KeyH}, nil, false, true},
		{"escape", []ebiten.Key{ebiten.KeyEscape}, nil, false, true},
		{"tap", nil, []ebiten.TouchID{1}, false, true},
		{"mouse press", nil, nil, true, true},
	}
	for _, tt := range tests {
		if got := anyInput(tt.keys, tt.touches, tt.pressed); got != tt.want {
			t.Errorf("%s: anyInput() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
