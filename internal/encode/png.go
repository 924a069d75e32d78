package encode

import (
	"bytes"
	"image"
	"image/png"
	"sync"
)

// PNGEncoder encodes tiles as PNG, keeping the alpha channel so overlay
// tiles stay transparent between markers.
type PNGEncoder struct {
	// Level defaults to png.BestSpeed; mostly empty overlay tiles compress
	// well at any level.
	Level png.CompressionLevel

	once sync.Once
	enc  *png.Encoder
}

func (e *PNGEncoder) Encode(img image.Image) ([]byte, error) {
	e.once.Do(func() {
		level := e.Level
		if level == png.DefaultCompression {
			level = png.BestSpeed
		}
		e.enc = &png.Encoder{CompressionLevel: level, BufferPool: &pngBufferPool{}}
	})
	var buf bytes.Buffer
	if err := e.enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *PNGEncoder) Format() string        { return "png" }
func (e *PNGEncoder) PMTileType() uint8     { return TileTypePNG }
func (e *PNGEncoder) FileExtension() string { return ".png" }

// pngBufferPool shares zlib and row buffers between concurrent workers.
type pngBufferPool struct {
	pool sync.Pool
}

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *pngBufferPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}
