package coord

// Bounds is a WGS84 bounding box in degrees.
type Bounds struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// NewZealand covers the main islands and Stewart Island.
var NewZealand = Bounds{MinLon: 166.0, MaxLon: 179.0, MinLat: -47.6, MaxLat: -34.0}

// EmptyBounds returns inverted bounds that any Extend call replaces.
func EmptyBounds() Bounds {
	return Bounds{MinLon: 180, MaxLon: -180, MinLat: 90, MaxLat: -90}
}

// IsEmpty reports whether no point has been added to b.
func (b Bounds) IsEmpty() bool {
	return b.MinLon > b.MaxLon || b.MinLat > b.MaxLat
}

// Extend grows b to include the given point.
func (b *Bounds) Extend(lon, lat float64) {
	b.MinLon = min(b.MinLon, lon)
	b.MaxLon = max(b.MaxLon, lon)
	b.MinLat = min(b.MinLat, lat)
	b.MaxLat = max(b.MaxLat, lat)
}

// Union grows b to include o. Empty bounds are ignored.
func (b *Bounds) Union(o Bounds) {
	if o.IsEmpty() {
		return
	}
	b.Extend(o.MinLon, o.MinLat)
	b.Extend(o.MaxLon, o.MaxLat)
}

// Contains reports whether the point lies inside b, edges included.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Pad returns b grown by d degrees on every side.
func (b Bounds) Pad(d float64) Bounds {
	return Bounds{MinLon: b.MinLon - d, MaxLon: b.MaxLon + d, MinLat: b.MinLat - d, MaxLat: b.MaxLat + d}
}

// CenterLat returns the center latitude.
func (b Bounds) CenterLat() float64 {
	return (b.MinLat + b.MaxLat) / 2
}

// CenterLon returns the center longitude.
func (b Bounds) CenterLon() float64 {
	return (b.MinLon + b.MaxLon) / 2
}
