package globeengine

import (
	"hash/fnv"
	"log"
	"math"
	"sync"
)

const (
	minSpreadDeg     = 0.12
	maxSpreadDeg     = 4.0
	defaultDiagonal  = 10.0
	maxLayoutLatDeg  = 89.5
	minLngCosineTerm = 0.2
)

type centroid struct {
	lat, lng float64
	spread   float64
	resolved bool
}

type layoutKey struct {
	cc string
	id NodeID
}

// LayoutEngine places nodes deterministically around their country centroid.
// The same (country, id) pair always yields the same coordinates.
type LayoutEngine struct {
	dataset *CountryDataset

	mu        sync.Mutex
	centroids map[string]centroid
	memo      map[layoutKey][2]float64
}

func NewLayoutEngine(dataset *CountryDataset) *LayoutEngine {
	return &LayoutEngine{
		dataset:   dataset,
		centroids: make(map[string]centroid),
		memo:      make(map[layoutKey][2]float64),
	}
}

// Place returns the (lat, lng) of a node.
func (l *LayoutEngine) Place(countryCode string, id NodeID) (lat, lng float64) {
	key := layoutKey{countryCode, id}
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.memo[key]; ok {
		return p[0], p[1]
	}
	c := l.resolveLocked(countryCode)

	next := mulberry32(hashID(id))
	angle := next() * 2 * math.Pi
	radius := c.spread * math.Sqrt(next())

	cosLat := math.Cos(c.lat * math.Pi / 180)
	if cosLat < minLngCosineTerm {
		cosLat = minLngCosineTerm
	}
	lat = clampLat(c.lat + radius*math.Cos(angle))
	lng = wrapLng(c.lng + radius*math.Sin(angle)/cosLat)

	l.memo[key] = [2]float64{lat, lng}
	return lat, lng
}

// Centroid reports the resolved centroid of a country and whether it was found
// in the table or the polygon dataset.
func (l *LayoutEngine) Centroid(countryCode string) (lat, lng float64, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.resolveLocked(countryCode)
	return c.lat, c.lng, c.resolved
}

// Spread returns the angular spread in degrees used for a country.
func (l *LayoutEngine) Spread(countryCode string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolveLocked(countryCode).spread
}

func (l *LayoutEngine) resolveLocked(cc string) centroid {
	if c, ok := l.centroids[cc]; ok {
		return c
	}
	var c centroid
	if p, ok := countryCentroids[cc]; ok {
		c.lat, c.lng, c.resolved = p[0], p[1], true
	} else if lat, lng, ok := l.dataset.Centroid(cc); ok {
		c.lat, c.lng, c.resolved = lat, lng, true
	} else {
		log.Printf("[LAYOUT] data-quality: unresolvable country code %q, placing at (0,0)", cc)
	}

	diag := defaultDiagonal
	if b, ok := l.dataset.BBox(cc); ok {
		diag = b.Diagonal()
	}
	c.spread = spreadForDiagonal(diag)
	l.centroids[cc] = c
	return c
}

// spreadForDiagonal scales large countries down harder so a continent-sized
// country does not smear points across its neighbours.
func spreadForDiagonal(diag float64) float64 {
	var mult float64
	switch {
	case diag >= 60:
		mult = 0.04
	case diag >= 20:
		mult = 0.08
	case diag >= 5:
		mult = 0.15
	default:
		mult = 0.3
	}
	s := diag * mult
	return math.Max(minSpreadDeg, math.Min(maxSpreadDeg, s))
}

func hashID(id NodeID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()
}

// mulberry32 is a small 32-bit PRNG. Arithmetic wraps at 32 bits.
func mulberry32(seed uint32) func() float64 {
	a := seed
	return func() float64 {
		a += 0x6D2B79F5
		t := a
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		return float64(t^(t>>14)) / 4294967296.0
	}
}

func clampLat(lat float64) float64 {
	return math.Max(-maxLayoutLatDeg, math.Min(maxLayoutLatDeg, lat))
}

func wrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
