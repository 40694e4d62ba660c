package globeengine

import (
	_ "embed"
	"fmt"
	"math"
	"strings"
	"sync"

	geojson "github.com/paulmach/go.geojson"
)

//go:embed data/countries.geo.json
var countriesGeoJSON []byte

type BBox struct {
	MinLat, MinLng, MaxLat, MaxLng float64
}

// Diagonal returns the bounding-box diagonal in degrees.
func (b BBox) Diagonal() float64 {
	return math.Hypot(b.MaxLat-b.MinLat, b.MaxLng-b.MinLng)
}

type countryShape struct {
	code     string
	name     string
	bbox     BBox
	lat, lng float64
	polygons [][][][]float64
}

// CountryDataset is the polygon dataset used to reverse geocode centroids and
// bounding boxes for countries that are missing from the static table.
type CountryDataset struct {
	shapes map[string]*countryShape
	order  []*countryShape
}

// LoadCountryDataset parses a GeoJSON FeatureCollection whose features carry
// an "iso_a2" property.
func LoadCountryDataset(data []byte) (*CountryDataset, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse country dataset: %w", err)
	}
	ds := &CountryDataset{shapes: make(map[string]*countryShape, len(fc.Features))}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		code := strings.ToUpper(f.PropertyMustString("iso_a2", ""))
		if code == "" || code == "-99" {
			continue
		}
		var polys [][][][]float64
		if f.Geometry.IsPolygon() {
			polys = append(polys, f.Geometry.Polygon)
		} else if f.Geometry.IsMultiPolygon() {
			polys = append(polys, f.Geometry.MultiPolygon...)
		}
		if len(polys) == 0 {
			continue
		}
		s := &countryShape{code: code, name: f.PropertyMustString("name", code), polygons: polys}
		s.bbox = polygonsBBox(polys)
		s.lat, s.lng = largestRingCentroid(polys)
		if _, dup := ds.shapes[code]; !dup {
			ds.order = append(ds.order, s)
		}
		ds.shapes[code] = s
	}
	return ds, nil
}

var defaultDataset = sync.OnceValues(func() (*CountryDataset, error) {
	return LoadCountryDataset(countriesGeoJSON)
})

// DefaultCountryDataset returns the embedded simplified country outlines. The
// dataset is parsed once and shared; it is read-only after loading.
func DefaultCountryDataset() (*CountryDataset, error) {
	return defaultDataset()
}

func (d *CountryDataset) Centroid(code string) (lat, lng float64, ok bool) {
	if d == nil {
		return 0, 0, false
	}
	s, ok := d.shapes[code]
	if !ok {
		return 0, 0, false
	}
	return s.lat, s.lng, true
}

func (d *CountryDataset) BBox(code string) (BBox, bool) {
	if d == nil {
		return BBox{}, false
	}
	s, ok := d.shapes[code]
	if !ok {
		return BBox{}, false
	}
	return s.bbox, true
}

// CountryAt returns the code of the first country whose outline contains the
// point, or "" when the point is over water or outside the dataset.
func (d *CountryDataset) CountryAt(lat, lng float64) string {
	if d == nil {
		return ""
	}
	for _, s := range d.order {
		b := s.bbox
		if lat < b.MinLat || lat > b.MaxLat || lng < b.MinLng || lng > b.MaxLng {
			continue
		}
		for _, poly := range s.polygons {
			if pointInPolygon(poly, lng, lat) {
				return s.code
			}
		}
	}
	return ""
}

// Rings returns every polygon ring in the dataset, for outline drawing.
func (d *CountryDataset) Rings() [][][]float64 {
	if d == nil {
		return nil
	}
	var rings [][][]float64
	for _, s := range d.order {
		for _, poly := range s.polygons {
			rings = append(rings, poly...)
		}
	}
	return rings
}

func polygonsBBox(polys [][][][]float64) BBox {
	b := BBox{MinLat: 90, MinLng: 180, MaxLat: -90, MaxLng: -180}
	for _, poly := range polys {
		for _, ring := range poly {
			for _, p := range ring {
				if len(p) < 2 {
					continue
				}
				lng, lat := p[0], p[1]
				b.MinLat, b.MaxLat = math.Min(b.MinLat, lat), math.Max(b.MaxLat, lat)
				b.MinLng, b.MaxLng = math.Min(b.MinLng, lng), math.Max(b.MaxLng, lng)
			}
		}
	}
	return b
}

// largestRingCentroid returns the area centroid of the largest outer ring.
func largestRingCentroid(polys [][][][]float64) (lat, lng float64) {
	bestArea := -1.0
	for _, poly := range polys {
		if len(poly) == 0 {
			continue
		}
		ring := poly[0]
		var a, cx, cy float64
		for i := 0; i < len(ring)-1; i++ {
			x0, y0 := ring[i][0], ring[i][1]
			x1, y1 := ring[i+1][0], ring[i+1][1]
			cross := x0*y1 - x1*y0
			a += cross
			cx += (x0 + x1) * cross
			cy += (y0 + y1) * cross
		}
		a /= 2
		if math.Abs(a) < 1e-12 {
			continue
		}
		if math.Abs(a) > bestArea {
			bestArea = math.Abs(a)
			lng, lat = cx/(6*a), cy/(6*a)
		}
	}
	return lat, lng
}

// pointInPolygon uses even-odd ray casting over all rings, so holes are
// handled by their own crossings.
func pointInPolygon(poly [][][]float64, x, y float64) bool {
	in := false
	for _, ring := range poly {
		for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
			xi, yi := ring[i][0], ring[i][1]
			xj, yj := ring[j][0], ring[j][1]
			if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
				in = !in
			}
		}
	}
	return in
}
