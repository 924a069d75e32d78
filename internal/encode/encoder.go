package encode

import (
	"fmt"
	"image"
	"strings"
)

// TileType values as stored in the PMTiles v3 header.
const (
	TileTypeUnknown = 0
	TileTypeMVT     = 1
	TileTypePNG     = 2
	TileTypeJPEG    = 3
	TileTypeWebP    = 4
	TileTypeAVIF    = 5
)

// DefaultQuality is used by lossy encoders when no quality is given.
const DefaultQuality = 85

// Encoder encodes an image into tile bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the tile format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// PMTileType returns the PMTiles tile type constant.
	PMTileType() uint8

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality.
// Quality is ignored by PNG.
func NewEncoder(format string, quality int) (Encoder, error) {
	if quality < 0 || quality > 100 {
		return nil, fmt.Errorf("quality %d out of range [0, 100]", quality)
	}
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png":
		return &PNGEncoder{}, nil
	case "webp":
		return newWebPEncoder(quality)
	default:
		return nil, fmt.Errorf("unsupported tile format: %q (supported: png, jpeg, webp)", format)
	}
}

// FormatForTileType maps a PMTiles tile type back to a format name usable
// with DecodeImage. It returns "" for types this package cannot decode.
func FormatForTileType(t uint8) string {
	switch t {
	case TileTypePNG:
		return "png"
	case TileTypeJPEG:
		return "jpeg"
	case TileTypeWebP:
		return "webp"
	default:
		return ""
	}
}
