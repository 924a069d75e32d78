package catalog

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/golang/geo/s2"

	"github.com/pspoerri/nzhike/internal/coord"
)

// Mean earth radius used to turn s2 angles into kilometres.
const earthRadiusKm = 6371.0088

// indexEntry is a located place stored in the rtree at (lon, lat).
type indexEntry struct {
	geom.Point
	place Place
	ll    s2.LatLng
}

// Index is a spatial index over the located places of a catalog.
type Index struct {
	tree    *rtree.Rtree
	entries []*indexEntry
	skipped int
}

// Hit is a place returned by an Index query with its WGS84 position.
type Hit struct {
	Place      Place
	Lat, Lon   float64
	DistanceKm float64
}

// NewIndex indexes every place that has a location. Places without one are
// counted in Skipped.
func NewIndex(places []Place) *Index {
	idx := &Index{tree: rtree.NewTree(25, 50)}
	for _, p := range places {
		lat, lon, ok := p.Location()
		if !ok {
			idx.skipped++
			continue
		}
		e := &indexEntry{
			Point: geom.Point{X: lon, Y: lat},
			place: p,
			ll:    s2.LatLngFromDegrees(lat, lon),
		}
		idx.entries = append(idx.entries, e)
		idx.tree.Insert(e)
	}
	return idx
}

// Len returns the number of indexed places.
func (idx *Index) Len() int { return len(idx.entries) }

// Skipped returns the number of places left out for lack of a location.
func (idx *Index) Skipped() int { return idx.skipped }

// Within returns the places inside b, ordered by kind then name.
func (idx *Index) Within(b coord.Bounds) []Hit {
	if b.IsEmpty() {
		return nil
	}
	var hits []Hit
	for _, g := range idx.tree.SearchIntersect(toGeomBounds(b)) {
		e := g.(*indexEntry)
		hits = append(hits, Hit{Place: e.place, Lat: e.Y, Lon: e.X})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Place.Kind != hits[j].Place.Kind {
			return hits[i].Place.Kind < hits[j].Place.Kind
		}
		return hits[i].Place.Name < hits[j].Place.Name
	})
	return hits
}

// Nearest returns up to k places closest to (lat, lon) by great-circle
// distance, nearest first. maxKm > 0 limits the search radius. k <= 0
// returns every place within the radius.
func (idx *Index) Nearest(lat, lon float64, k int, maxKm float64) []Hit {
	origin := s2.LatLngFromDegrees(lat, lon)

	candidates := idx.entries
	if maxKm > 0 {
		candidates = candidates[:0:0]
		for _, g := range idx.tree.SearchIntersect(toGeomBounds(radiusBounds(lat, lon, maxKm))) {
			candidates = append(candidates, g.(*indexEntry))
		}
	}

	hits := make([]Hit, 0, len(candidates))
	for _, e := range candidates {
		d := origin.Distance(e.ll).Radians() * earthRadiusKm
		if maxKm > 0 && d > maxKm {
			continue
		}
		hits = append(hits, Hit{Place: e.place, Lat: e.Y, Lon: e.X, DistanceKm: d})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].DistanceKm < hits[j].DistanceKm })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// radiusBounds returns a lon/lat box enclosing the circle of radius km.
func radiusBounds(lat, lon, km float64) coord.Bounds {
	dLat := km / earthRadiusKm * 180 / math.Pi
	cos := math.Cos(lat * math.Pi / 180)
	dLon := 180.0
	if cos > 1e-6 {
		dLon = min(dLat/cos, 180)
	}
	return coord.Bounds{
		MinLon: lon - dLon,
		MaxLon: lon + dLon,
		MinLat: max(lat-dLat, -90),
		MaxLat: min(lat+dLat, 90),
	}
}

func toGeomBounds(b coord.Bounds) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: b.MinLon, Y: b.MinLat},
		Max: geom.Point{X: b.MaxLon, Y: b.MaxLat},
	}
}
