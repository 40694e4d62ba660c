// Package globeview renders a globeengine.Engine with ebiten and turns window
// input into engine events.
package globeview

import (
	"bytes"
	"image"
	"image/color"
	"log"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

var (
	ColorBackground = color.RGBA{6, 10, 22, 255}
	ColorOcean      = color.RGBA{14, 28, 54, 255}
	ColorOutline    = color.RGBA{70, 110, 160, 255}
	ColorGraticule  = color.RGBA{40, 60, 95, 255}
	ColorLabel      = color.RGBA{235, 240, 255, 255}
)

// keyOrbitStep is the orbit per update while an arrow key is held.
const keyOrbitStep = 1.5

type Game struct {
	engine *globeengine.Engine
	meshes *meshFactory

	fontSource *text.GoTextFaceSource
	monoSource *text.GoTextFaceSource

	spriteSrc atomic.Pointer[image.Image]
	sprite    *ebiten.Image

	outlines  [][]globeengine.Vec3
	graticule [][]globeengine.Vec3

	width, height int
	lastDraw      time.Time
	pendingFrame  time.Duration
	focused       bool
	capSet        bool
	gesture       gesture
	touch         gesture
	touchID       ebiten.TouchID
	keys          []ebiten.Key
	touches       []ebiten.TouchID
	selection     selection
	ShowHUD       bool

	// SeenLookup reports when a node id first appeared. Nil leaves the
	// first sighting out of the selection panel.
	SeenLookup func(id string) (time.Time, bool)

	// CaptureDir receives PNG frames when P is pressed. Empty disables it.
	CaptureDir  string
	captureNext bool

	now func() time.Time
}

// NewGame builds the engine with ebiten-backed meshes and wraps it.
func NewGame(opts globeengine.Options) *Game {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		log.Printf("Error loading regular font: %v", err)
	}
	m, err := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	if err != nil {
		log.Printf("Error loading mono font: %v", err)
	}

	meshes := &meshFactory{}
	opts.Meshes = meshes
	g := &Game{
		engine:     globeengine.New(opts),
		meshes:     meshes,
		fontSource: s,
		monoSource: m,
		width:      int(opts.Width),
		height:     int(opts.Height),
		focused:    true,
		ShowHUD:    true,
		now:        time.Now,
	}
	g.outlines = sphereRings(g.engine.Dataset().Rings())
	g.graticule = graticule(30, 5)
	g.engine.OnSelect(func(n globeengine.Node) {
		g.selection = selection{node: &n}
		if g.SeenLookup != nil {
			if at, ok := g.SeenLookup(string(n.ID)); ok {
				g.selection.seen = at
			}
		}
		log.Printf("Selected node %s (%s)", n.ID, n.CountryCode)
	})
	g.engine.OnSelectCountry(func(c globeengine.CountrySelection) {
		g.selection = selection{country: &c}
		log.Printf("Selected country %s at (%.2f, %.2f)", c.Code, c.Lat, c.Lng)
	})
	return g
}

func (g *Game) Engine() *globeengine.Engine { return g.engine }

func (g *Game) Update() error {
	now := g.now()
	if !g.capSet {
		if mon := ebiten.Monitor(); mon != nil {
			g.engine.SetDeviceScaleCap(mon.DeviceScaleFactor())
		}
		g.capSet = true
	}
	if f := ebiten.IsFocused(); f != g.focused {
		g.focused = f
		g.engine.Post(globeengine.Visibility{Visible: f})
	}
	g.handleInput()

	frame := g.pendingFrame
	g.pendingFrame = 0
	g.engine.Step(now, frame)
	return nil
}

func (g *Game) handleInput() {
	cam := g.engine.Camera()
	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	g.touches = inpututil.AppendJustPressedTouchIDs(g.touches[:0])
	if anyInput(g.keys, g.touches, inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)) {
		g.engine.Post(globeengine.Interaction{})
	}
	g.handleTouch(cam)

	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.gesture.press(x, y)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if g.gesture.release(x, y) {
			g.engine.Post(globeengine.Click{X: float64(x), Y: float64(y)})
		}
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if dx, dy := g.gesture.move(x, y); dx != 0 || dy != 0 {
			dLat, dLng := dragToOrbit(cam, dx, dy)
			g.engine.Post(globeengine.Interaction{DLat: dLat, DLng: dLng})
		}
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		g.engine.Post(globeengine.Interaction{Zoom: wheelToZoom(wy)})
	}

	var dLat, dLng float64
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dLng -= keyOrbitStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dLng += keyOrbitStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dLat += keyOrbitStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dLat -= keyOrbitStep
	}
	if dLat != 0 || dLng != 0 {
		g.engine.Post(globeengine.Interaction{DLat: dLat, DLng: dLng})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		g.engine.Post(globeengine.Interaction{Zoom: 0.9})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		g.engine.Post(globeengine.Interaction{Zoom: 1 / 0.9})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.engine.Post(globeengine.IdentityLoggedOut{})
		g.selection = selection{}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.ShowHUD = !g.ShowHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.captureNext = true
	}
}

// handleTouch follows the first finger down until it lifts: a drag orbits and
// a tap clicks.
func (g *Game) handleTouch(cam *globeengine.Camera) {
	if !g.touch.down && len(g.touches) > 0 {
		g.touchID = g.touches[0]
		x, y := ebiten.TouchPosition(g.touchID)
		g.touch.press(x, y)
		return
	}
	if !g.touch.down {
		return
	}
	if inpututil.IsTouchJustReleased(g.touchID) {
		x, y := inpututil.TouchPositionInPreviousTick(g.touchID)
		if g.touch.release(x, y) {
			g.engine.Post(globeengine.Click{X: float64(x), Y: float64(y)})
		}
		return
	}
	x, y := ebiten.TouchPosition(g.touchID)
	if dx, dy := g.touch.move(x, y); dx != 0 || dy != 0 {
		dLat, dLng := dragToOrbit(cam, dx, dy)
		g.engine.Post(globeengine.Interaction{DLat: dLat, DLng: dLng})
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	now := g.now()
	if !g.lastDraw.IsZero() {
		g.pendingFrame = now.Sub(g.lastDraw)
	}
	g.lastDraw = now

	screen.Fill(ColorBackground)
	cam := g.engine.Camera()
	g.drawGlobe(screen, cam)
	g.drawEdges(screen, cam)
	g.drawNodes(screen, cam)
	g.drawAgents(screen, cam)
	g.drawLabels(screen, cam)
	if g.ShowHUD {
		g.drawSummary(screen)
	}
	if g.captureNext {
		g.captureNext = false
		g.captureFrame(screen, "frame", now)
	}
}

// Layout sizes the backbuffer by the current resolution scale and tells the
// engine when the logical viewport changes.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := g.engine.Quality().ResolutionScale
	w := max(1, int(float64(outsideWidth)*scale))
	h := max(1, int(float64(outsideHeight)*scale))
	if w != g.width || h != g.height {
		g.width, g.height = w, h
		g.engine.Post(globeengine.Resize{Width: float64(w), Height: float64(h)})
	}
	return w, h
}

// Close releases engine resources and the sprite texture.
func (g *Game) Close() error {
	err := g.engine.Close()
	if g.sprite != nil {
		g.sprite.Deallocate()
		g.sprite = nil
	}
	return err
}

func (g *Game) spriteImage() *ebiten.Image {
	if g.sprite == nil {
		if p := g.spriteSrc.Load(); p != nil {
			g.sprite = ebiten.NewImageFromImage(*p)
		}
	}
	return g.sprite
}
