package render

import (
	"image"
	"sync"
)

type canvasSize struct {
	w, h int
}

// canvasPools maps canvasSize to a *sync.Pool of *image.RGBA. A run uses a
// single tile size, so the map holds one entry.
var canvasPools sync.Map

// getCanvas returns a fully transparent w x h canvas.
func getCanvas(w, h int) *image.RGBA {
	if p, ok := canvasPools.Load(canvasSize{w, h}); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			img := v.(*image.RGBA)
			clear(img.Pix)
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// putCanvas hands img back for reuse. img must not be used afterwards.
func putCanvas(img *image.RGBA) {
	if img == nil {
		return
	}
	p, _ := canvasPools.LoadOrStore(canvasSize{img.Rect.Dx(), img.Rect.Dy()}, &sync.Pool{})
	p.(*sync.Pool).Put(img)
}
