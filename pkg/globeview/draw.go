package globeview

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

const (
	// outlineLift keeps outlines just above the ocean disc.
	outlineLift = 1.002
	// arcSegments is the number of straight pieces used to draw one edge.
	arcSegments = 12
	// nodeScale converts node size to a fraction of the globe's screen radius.
	nodeScale = 0.02
	// boatScale is the boat length as a fraction of the globe's screen radius.
	boatScale = 0.06
	labelSize = 13.0
)

// sphereRings lifts [lng, lat] rings onto the sphere.
func sphereRings(rings [][][]float64) [][]globeengine.Vec3 {
	out := make([][]globeengine.Vec3, 0, len(rings))
	for _, ring := range rings {
		pts := make([]globeengine.Vec3, 0, len(ring))
		for _, p := range ring {
			if len(p) < 2 {
				continue
			}
			pts = append(pts, globeengine.SphereToWorld(p[1], p[0], globeengine.GlobeRadius*outlineLift))
		}
		if len(pts) > 1 {
			out = append(out, pts)
		}
	}
	return out
}

// graticule builds parallels and meridians every step degrees, sampled every
// res degrees.
func graticule(step, res float64) [][]globeengine.Vec3 {
	var lines [][]globeengine.Vec3
	for lat := -90 + step; lat < 90; lat += step {
		var line []globeengine.Vec3
		for lng := -180.0; lng <= 180; lng += res {
			line = append(line, globeengine.SphereToWorld(lat, lng, globeengine.GlobeRadius*outlineLift))
		}
		lines = append(lines, line)
	}
	for lng := -180.0; lng < 180; lng += step {
		var line []globeengine.Vec3
		for lat := -90.0; lat <= 90; lat += res {
			line = append(line, globeengine.SphereToWorld(lat, lng, globeengine.GlobeRadius*outlineLift))
		}
		lines = append(lines, line)
	}
	return lines
}

// fade scales a straight-alpha color into ebiten's premultiplied form.
func fade(c color.RGBA, a float64) color.RGBA {
	a = math.Max(0, math.Min(1, a))
	k := a * float64(c.A) / 255
	return color.RGBA{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
		A: uint8(float64(c.A) * a),
	}
}

// strokePath draws the front-facing pieces of a polyline.
func strokePath(dst *ebiten.Image, cam *globeengine.Camera, pts []globeengine.Vec3, width float32, c color.Color) {
	var px, py float64
	prev := false
	for _, p := range pts {
		x, y, ok := cam.Project(p)
		ok = ok && cam.FrontFacing(p)
		if ok && prev {
			vector.StrokeLine(dst, float32(px), float32(py), float32(x), float32(y), width, c, true)
		}
		px, py, prev = x, y, ok
	}
}

func (g *Game) drawGlobe(screen *ebiten.Image, cam *globeengine.Camera) {
	cx, cy := cam.Width/2, cam.Height/2
	r := cam.ScreenRadius()
	vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(r), ColorOcean, true)
	for _, line := range g.graticule {
		strokePath(screen, cam, line, 1, fade(ColorGraticule, 0.5))
	}
	for _, ring := range g.outlines {
		strokePath(screen, cam, ring, 1, ColorOutline)
	}
}

func (g *Game) drawEdges(screen *ebiten.Image, cam *globeengine.Camera) {
	for _, e := range g.engine.Edges() {
		src, ok := g.engine.Node(e.Source)
		if !ok {
			continue
		}
		dst, ok := g.engine.Node(e.Target)
		if !ok {
			continue
		}
		from := globeengine.SphereToWorld(src.Lat, src.Lng, globeengine.GlobeRadius)
		to := globeengine.SphereToWorld(dst.Lat, dst.Lng, globeengine.GlobeRadius)
		curve := globeengine.NewArc(from, to, from.Sub(to).Len()*0.15)
		pts := make([]globeengine.Vec3, arcSegments+1)
		for i := range pts {
			pts[i] = curve.Point(float64(i) / arcSegments)
		}
		strokePath(screen, cam, pts, float32(e.Width), fade(e.Color, e.Opacity))
	}
}

func (g *Game) drawNodes(screen *ebiten.Image, cam *globeengine.Camera) {
	scale := cam.ScreenRadius() * nodeScale
	id, hasIdentity := g.engine.Identity()
	for _, n := range g.engine.Nodes() {
		a, ok := g.engine.Anchor(n.ID)
		if !ok || !a.Front || !a.OnView {
			continue
		}
		r := float32(math.Max(1, n.Size*scale))
		if hasIdentity && n.ID == id.ID {
			vector.DrawFilledCircle(screen, float32(a.X), float32(a.Y), r*2.2, fade(n.Color, 0.25), true)
		}
		vector.DrawFilledCircle(screen, float32(a.X), float32(a.Y), r, n.Color, true)
	}
}

func (g *Game) drawAgents(screen *ebiten.Image, cam *globeengine.Camera) {
	length := cam.ScreenRadius() * boatScale
	sprite := g.spriteImage()
	for _, a := range g.engine.Agents() {
		if !a.Pose.Visible {
			continue
		}
		x, y, ok := cam.Project(a.Pose.Position)
		if !ok {
			continue
		}
		hx, hy, ok := cam.Project(a.Pose.Position.Add(a.Pose.Tangent.Scale(2)))
		if !ok {
			continue
		}
		heading := math.Atan2(hy-y, hx-x)

		m, _ := a.Mesh.(*countedMesh)
		if m != nil && m.kind == globeengine.ShapeTemplate {
			if img := m.image(sprite); img != nil {
				b := img.Bounds()
				op := &ebiten.DrawImageOptions{}
				op.GeoM.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
				s := length / float64(max(b.Dx(), b.Dy()))
				op.GeoM.Scale(s, s)
				op.GeoM.Rotate(heading)
				op.GeoM.Translate(x, y)
				op.Filter = ebiten.FilterLinear
				screen.DrawImage(img, op)
				continue
			}
		}
		drawHull(screen, x, y, heading, length, a.Color)
	}
}

// drawHull draws the procedural boat: a hull triangle and a mast.
func drawHull(dst *ebiten.Image, x, y, heading, length float64, c color.RGBA) {
	cos, sin := math.Cos(heading), math.Sin(heading)
	pt := func(fx, fy float64) (float32, float32) {
		return float32(x + fx*cos - fy*sin), float32(y + fx*sin + fy*cos)
	}
	half := length / 2
	bx, by := pt(half, 0)
	lx, ly := pt(-half, -half*0.45)
	rx, ry := pt(-half, half*0.45)
	vector.StrokeLine(dst, bx, by, lx, ly, 1.5, c, true)
	vector.StrokeLine(dst, lx, ly, rx, ry, 1.5, c, true)
	vector.StrokeLine(dst, rx, ry, bx, by, 1.5, c, true)
	mx, my := pt(0, 0)
	tx, ty := pt(-half*0.2, -half*0.9)
	vector.StrokeLine(dst, mx, my, tx, ty, 1, c, true)
}

func (g *Game) drawLabels(screen *ebiten.Image, cam *globeengine.Camera) {
	if g.fontSource == nil {
		return
	}
	face := &text.GoTextFace{Source: g.fontSource, Size: labelSize}
	offset := cam.ScreenRadius()*nodeScale*globeengine.SizeIdentity + 6
	for _, a := range g.engine.Labels() {
		n, ok := g.engine.Node(a.ID)
		if !ok {
			continue
		}
		name := n.DisplayName
		if name == "" {
			name = string(n.ID)
		}
		tw, _ := text.Measure(name, face, 0)
		op := &text.DrawOptions{}
		op.GeoM.Translate(a.X-tw/2, a.Y-offset-labelSize)
		op.ColorScale.ScaleWithColor(ColorLabel)
		op.ColorScale.ScaleAlpha(0.85)
		text.Draw(screen, name, face, op)
	}
}
