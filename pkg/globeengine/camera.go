package globeengine

import "math"

const (
	GlobeRadius    = 100.0
	defaultFovYDeg = 50.0
	fitMargin      = 1.15
	maxOrbitLatDeg = 85.0
	minZoomRatio   = 0.55
	maxZoomRatio   = 3.0
)

// Camera is a perspective camera orbiting the globe centre.
type Camera struct {
	Lat, Lng      float64
	ZoomRatio     float64
	FovYDeg       float64
	Width, Height float64
}

func NewCamera(width, height float64) *Camera {
	return &Camera{ZoomRatio: 1, FovYDeg: defaultFovYDeg, Width: width, Height: height}
}

func (c *Camera) Aspect() float64 {
	if c.Height <= 0 {
		return 1
	}
	return c.Width / c.Height
}

// BaselineDistance is the distance at which the whole globe fits the viewport.
func (c *Camera) BaselineDistance() float64 {
	halfY := c.FovYDeg * math.Pi / 360
	halfX := math.Atan(math.Tan(halfY) * c.Aspect())
	half := math.Min(halfX, halfY)
	return GlobeRadius / math.Sin(half) * fitMargin
}

func (c *Camera) Distance() float64 {
	return c.BaselineDistance() * c.ZoomRatio
}

func (c *Camera) Position() Vec3 {
	return SphereToWorld(c.Lat, c.Lng, c.Distance())
}

// Direction is the unit vector from the globe centre towards the camera.
func (c *Camera) Direction() Vec3 {
	return SphereToWorld(c.Lat, c.Lng, 1)
}

func (c *Camera) SetViewport(w, h float64) {
	c.Width, c.Height = w, h
}

// Orbit moves the camera by the given angles, clamping latitude short of the
// poles.
func (c *Camera) Orbit(dLat, dLng float64) {
	c.Lat = math.Max(-maxOrbitLatDeg, math.Min(maxOrbitLatDeg, c.Lat+dLat))
	c.Lng = wrapLng(c.Lng + dLng)
}

// LookAt points the camera at (lat, lng) keeping the zoom ratio.
func (c *Camera) LookAt(lat, lng float64) {
	c.Lat = math.Max(-maxOrbitLatDeg, math.Min(maxOrbitLatDeg, lat))
	c.Lng = wrapLng(lng)
}

func (c *Camera) Zoom(factor float64) {
	c.ZoomRatio = math.Max(minZoomRatio, math.Min(maxZoomRatio, c.ZoomRatio*factor))
}

// FrontFacing reports whether a world point faces the camera.
func (c *Camera) FrontFacing(p Vec3) bool {
	return p.Normalize().Dot(c.Direction()) > 0
}

// Project maps a world point to screen pixels. ok is false for points behind
// the camera.
func (c *Camera) Project(p Vec3) (x, y float64, ok bool) {
	pos := c.Position()
	f := pos.Scale(-1).Normalize()
	up := Vec3{0, 1, 0}
	r := f.Cross(up).Normalize()
	u := r.Cross(f)

	d := p.Sub(pos)
	zc := d.Dot(f)
	if zc <= 1e-9 {
		return 0, 0, false
	}
	t := math.Tan(c.FovYDeg * math.Pi / 360)
	ndcX := d.Dot(r) / (zc * t * c.Aspect())
	ndcY := d.Dot(u) / (zc * t)
	x = (ndcX + 1) / 2 * c.Width
	y = (1 - ndcY) / 2 * c.Height
	return x, y, true
}

// Unproject casts a ray through the screen pixel (x, y) and returns where it
// first meets the globe surface. ok is false when the ray misses.
func (c *Camera) Unproject(x, y float64) (Vec3, bool) {
	if c.Width <= 0 || c.Height <= 0 {
		return Vec3{}, false
	}
	pos := c.Position()
	f := pos.Scale(-1).Normalize()
	r := f.Cross(Vec3{0, 1, 0}).Normalize()
	u := r.Cross(f)

	t := math.Tan(c.FovYDeg * math.Pi / 360)
	ndcX := x/c.Width*2 - 1
	ndcY := 1 - y/c.Height*2
	dir := f.Add(r.Scale(ndcX * t * c.Aspect())).Add(u.Scale(ndcY * t)).Normalize()

	b := pos.Dot(dir)
	disc := b*b - (pos.Dot(pos) - GlobeRadius*GlobeRadius)
	if disc < 0 {
		return Vec3{}, false
	}
	s := -b - math.Sqrt(disc)
	if s <= 0 {
		return Vec3{}, false
	}
	return pos.Add(dir.Scale(s)), true
}

// ScreenRadius is the on-screen radius of the globe silhouette, used for
// drawing the disc behind the scene.
func (c *Camera) ScreenRadius() float64 {
	d := c.Distance()
	if d <= GlobeRadius {
		return math.Max(c.Width, c.Height)
	}
	ang := math.Asin(GlobeRadius / d)
	return math.Tan(ang) / math.Tan(c.FovYDeg*math.Pi/360) * c.Height / 2
}
