package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
)

// JPEGEncoder encodes tiles as JPEG. JPEG has no alpha channel, so the
// tile is composited over Background (white when nil) first.
type JPEGEncoder struct {
	Quality    int // 1-100, default 85
	Background color.Color
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	quality := e.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	err := jpeg.Encode(&buf, e.flatten(img), &jpeg.Options{Quality: quality})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *JPEGEncoder) flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	bg := e.Background
	if bg == nil {
		bg = color.White
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}

func (e *JPEGEncoder) Format() string        { return "jpeg" }
func (e *JPEGEncoder) PMTileType() uint8     { return TileTypeJPEG }
func (e *JPEGEncoder) FileExtension() string { return ".jpg" }
