package coord

import "math"

const (
	// EarthCircumference is the equatorial circumference in meters at zoom 0.
	EarthCircumference = 40075016.685578488
	// OriginShift is half the earth's circumference.
	OriginShift = EarthCircumference / 2.0
	// DefaultTileSize is the standard web map tile dimension.
	DefaultTileSize = 256
)

// WebMercatorProj implements the Projection interface for EPSG:3857.
type WebMercatorProj struct{}

func (w *WebMercatorProj) EPSG() int { return EPSGWebMercator }

func (w *WebMercatorProj) ToWGS84(x, y float64) (lon, lat float64) {
	lon = x / OriginShift * 180.0
	lat = 180.0 / math.Pi * (2.0*math.Atan(math.Exp(y/OriginShift*math.Pi)) - math.Pi/2.0)
	return
}

func (w *WebMercatorProj) FromWGS84(lon, lat float64) (x, y float64) {
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / math.Pi * OriginShift
	return
}

// globalPixel returns the pixel position of lon/lat in the 2^z * tileSize square world image.
func globalPixel(lon, lat float64, z, tileSize int) (gx, gy float64) {
	world := math.Exp2(float64(z)) * float64(tileSize)
	latRad := lat * math.Pi / 180.0
	gx = (lon + 180.0) / 360.0 * world
	gy = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * world
	return
}

// LonLatToTile converts WGS84 lon/lat to tile coordinates at the given zoom level.
// Results are clamped to the valid tile range.
func LonLatToTile(lon, lat float64, zoom int) (x, y int) {
	gx, gy := globalPixel(lon, lat, zoom, 1)
	maxTile := 1<<zoom - 1
	x = min(max(int(math.Floor(gx)), 0), maxTile)
	y = min(max(int(math.Floor(gy)), 0), maxTile)
	return
}

// TileBounds returns the WGS84 bounding box of a tile.
func TileBounds(z, x, y int) Bounds {
	n := math.Exp2(float64(z))
	return Bounds{
		MinLon: float64(x)/n*360.0 - 180.0,
		MaxLon: float64(x+1)/n*360.0 - 180.0,
		MinLat: math.Atan(math.Sinh(math.Pi*(1.0-2.0*float64(y+1)/n))) * 180.0 / math.Pi,
		MaxLat: math.Atan(math.Sinh(math.Pi*(1.0-2.0*float64(y)/n))) * 180.0 / math.Pi,
	}
}

// TilePixelCoords returns the fractional pixel position of lon/lat inside tile
// (z, tileX, tileY). Positions outside the tile fall outside [0, tileSize).
func TilePixelCoords(lon, lat float64, z, tileX, tileY, tileSize int) (px, py float64) {
	gx, gy := globalPixel(lon, lat, z, tileSize)
	px = gx - float64(tileX*tileSize)
	py = gy - float64(tileY*tileSize)
	return
}

// ResolutionAtLat returns the ground resolution in meters/pixel at the given latitude and zoom level.
func ResolutionAtLat(lat float64, zoom, tileSize int) float64 {
	return EarthCircumference * math.Cos(lat*math.Pi/180.0) / math.Exp2(float64(zoom)) / float64(tileSize)
}

// TilesInBounds returns all tile coordinates at the given zoom level that intersect b.
func TilesInBounds(zoom int, b Bounds) [][3]int {
	if b.IsEmpty() {
		return nil
	}
	minTX, minTY := LonLatToTile(b.MinLon, b.MaxLat, zoom) // maxLat -> smallest row
	maxTX, maxTY := LonLatToTile(b.MaxLon, b.MinLat, zoom)

	tiles := make([][3]int, 0, (maxTX-minTX+1)*(maxTY-minTY+1))
	for ty := minTY; ty <= maxTY; ty++ {
		for tx := minTX; tx <= maxTX; tx++ {
			tiles = append(tiles, [3]int{zoom, tx, ty})
		}
	}
	return tiles
}
