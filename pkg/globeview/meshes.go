package globeview

import (
	"image/color"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

// boatMesh is the drawable behind one agent. Template meshes bake a tinted
// copy of the sprite on first draw; procedural meshes are drawn with vector
// strokes and hold no image.
type boatMesh struct {
	kind     globeengine.ShapeKind
	color    color.RGBA
	tinted   *ebiten.Image
	disposed bool
}

func (m *boatMesh) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	if m.tinted != nil {
		m.tinted.Deallocate()
		m.tinted = nil
	}
}

// image returns the tinted sprite, creating it from src when needed.
func (m *boatMesh) image(src *ebiten.Image) *ebiten.Image {
	if m.disposed || src == nil {
		return nil
	}
	if m.tinted == nil {
		b := src.Bounds()
		m.tinted = ebiten.NewImage(b.Dx(), b.Dy())
		op := &ebiten.DrawImageOptions{}
		op.ColorScale.ScaleWithColor(m.color)
		m.tinted.DrawImage(src, op)
	}
	return m.tinted
}

// meshFactory hands out boat meshes and counts the live ones.
type meshFactory struct {
	live atomic.Int64
}

func (f *meshFactory) NewMesh(kind globeengine.ShapeKind, c color.RGBA) globeengine.Mesh {
	f.live.Add(1)
	return &countedMesh{boatMesh: &boatMesh{kind: kind, color: c}, f: f}
}

func (f *meshFactory) Live() int64 { return f.live.Load() }

type countedMesh struct {
	*boatMesh
	f *meshFactory
}

func (m *countedMesh) Dispose() {
	if !m.disposed {
		m.f.live.Add(-1)
	}
	m.boatMesh.Dispose()
}
