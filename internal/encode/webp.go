package encode

import (
	"bytes"
	"image"

	"github.com/gen2brain/webp"
)

// WebPEncoder encodes tiles as WebP using a pure-Go (WASM-based) encoder.
// No CGo or system libraries required; automatically uses a system libwebp
// via purego if available for better performance, otherwise falls back to WASM.
//
// Output is lossy in both backends, so colours come back within a few levels
// of the input. Alpha is kept, which overlay tiles depend on.
type WebPEncoder struct {
	Quality int
	// Method trades speed for size, 0 (fast) to 6 (small). Zero uses the
	// library default.
	Method int
}

func newWebPEncoder(quality int) (Encoder, error) {
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &WebPEncoder{Quality: quality}, nil
}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	opts := webp.Options{
		Quality: e.Quality,
		Method:  e.Method,
	}
	if opts.Method == 0 {
		opts.Method = webp.DefaultMethod
	}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) Format() string        { return "webp" }
func (e *WebPEncoder) PMTileType() uint8     { return TileTypeWebP }
func (e *WebPEncoder) FileExtension() string { return ".webp" }
