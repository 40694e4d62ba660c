package globeengine

import "math"

type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Len() float64 { return math.Sqrt(a.Dot(a)) }
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
}

func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// SphereToWorld maps (lat, lng) in degrees to a point at radius r. +Y is north
// and (0, 0) faces +Z.
func SphereToWorld(lat, lng, r float64) Vec3 {
	la, lo := lat*math.Pi/180, lng*math.Pi/180
	return Vec3{
		X: r * math.Cos(la) * math.Sin(lo),
		Y: r * math.Sin(la),
		Z: r * math.Cos(la) * math.Cos(lo),
	}
}

// WorldToSphere is the inverse of SphereToWorld.
func WorldToSphere(p Vec3) (lat, lng float64) {
	l := p.Len()
	if l == 0 {
		return 0, 0
	}
	lat = math.Asin(p.Y/l) * 180 / math.Pi
	lng = math.Atan2(p.X, p.Z) * 180 / math.Pi
	return lat, lng
}
