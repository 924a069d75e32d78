package render

import (
	"image"
	"image/color"
	"math"

	"github.com/ctessum/geom"
)

// canvas draws features of one tile. Coordinates are WGS84 and are mapped
// to pixels through the tile's Web Mercator transform.
type canvas struct {
	img     *image.RGBA
	toPixel func(lon, lat float64) (px, py float64)
	painted bool
}

// set writes c at (x, y) when it lies on the canvas.
func (cv *canvas) set(x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(cv.img.Rect)) {
		return
	}
	cv.img.SetRGBA(x, y, c)
	cv.painted = true
}

// fillDisc paints every pixel whose centre is within r of (cx, cy).
func (cv *canvas) fillDisc(cx, cy, r float64, c color.RGBA) {
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	r2 := r * r
	for y := y0; y <= y1; y++ {
		dy := float64(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy <= r2 {
				cv.set(x, y, c)
			}
		}
	}
}

// marker draws a filled disc with an optional one pixel outline.
func (cv *canvas) marker(p geom.Point, radius float64, fill, outline color.RGBA) {
	px, py := cv.toPixel(p.X, p.Y)
	if outline.A != 0 && radius > 1 {
		cv.fillDisc(px, py, radius, outline)
		radius--
	}
	cv.fillDisc(px, py, radius, fill)
}

// polyline strokes every segment of ml by stamping discs along it at half
// pixel steps.
func (cv *canvas) polyline(ml geom.MultiLineString, width float64, c color.RGBA) {
	r := math.Max(width/2, 0.5)
	for _, ls := range ml {
		if len(ls) == 0 {
			continue
		}
		prevX, prevY := cv.toPixel(ls[0].X, ls[0].Y)
		if len(ls) == 1 {
			cv.fillDisc(prevX, prevY, r, c)
			continue
		}
		for _, p := range ls[1:] {
			x, y := cv.toPixel(p.X, p.Y)
			cv.segment(prevX, prevY, x, y, r, c)
			prevX, prevY = x, y
		}
	}
}

func (cv *canvas) segment(x0, y0, x1, y1, r float64, c color.RGBA) {
	if !cv.segmentNearCanvas(x0, y0, x1, y1, r) {
		return
	}
	steps := int(math.Ceil(math.Hypot(x1-x0, y1-y0) * 2))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		cv.fillDisc(x0+(x1-x0)*t, y0+(y1-y0)*t, r, c)
	}
}

// segmentNearCanvas rejects segments whose bounding box misses the canvas.
func (cv *canvas) segmentNearCanvas(x0, y0, x1, y1, r float64) bool {
	w, h := float64(cv.img.Rect.Dx()), float64(cv.img.Rect.Dy())
	return math.Max(x0, x1)+r >= 0 && math.Min(x0, x1)-r <= w &&
		math.Max(y0, y1)+r >= 0 && math.Min(y0, y1)-r <= h
}
