// Package pmtiles writes and reads PMTiles v3 single-file tile archives.
package pmtiles

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pspoerri/nzhike/internal/coord"
	"github.com/pspoerri/nzhike/internal/encode"
)

// PMTiles v3 constants.
const (
	HeaderSize = 127
	magic      = "PMTiles"
	version    = 3

	// Internal compression for directories.
	CompressionUnknown = 0
	CompressionNone    = 1
	CompressionGzip    = 2
	CompressionBrotli  = 3
	CompressionZstd    = 4

	// Tile types, shared with the encoders.
	TileTypeUnknown = encode.TileTypeUnknown
	TileTypeMVT     = encode.TileTypeMVT
	TileTypePNG     = encode.TileTypePNG
	TileTypeJPEG    = encode.TileTypeJPEG
	TileTypeWebP    = encode.TileTypeWebP
)

// ErrNotPMTiles is returned when a header lacks the PMTiles v3 magic.
var ErrNotPMTiles = errors.New("not a PMTiles v3 archive")

// Header represents the PMTiles v3 header (127 bytes).
type Header struct {
	RootDirOffset       uint64
	RootDirLength       uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirOffset       uint64
	LeafDirLength       uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	NumAddressedTiles   uint64
	NumTileEntries      uint64
	NumTileContents     uint64
	Clustered           bool
	InternalCompression uint8
	TileCompression     uint8
	TileType            uint8
	MinZoom             uint8
	MaxZoom             uint8
	MinLon              float32
	MinLat              float32
	MaxLon              float32
	MaxLat              float32
	CenterZoom          uint8
	CenterLon           float32
	CenterLat           float32
}

// WriterOptions holds configuration for the PMTiles writer.
type WriterOptions struct {
	MinZoom    int
	MaxZoom    int
	Bounds     coord.Bounds
	TileFormat uint8
	TileSize   int

	// Metadata. Empty values get nzhike defaults.
	Name        string
	Description string
	Attribution string
	Type        string            // "overlay" or "baselayer"
	Extra       map[string]string // additional metadata keys

	// TempDir holds the tile spool file. Defaults to the output directory.
	TempDir string
}

// NewHeader creates a header with basic metadata.
func NewHeader(opts WriterOptions) Header {
	return Header{
		Clustered:           true,
		InternalCompression: CompressionGzip,
		TileCompression:     CompressionNone, // tiles are already compressed (JPEG/PNG/WebP)
		TileType:            opts.TileFormat,
		MinZoom:             uint8(opts.MinZoom),
		MaxZoom:             uint8(opts.MaxZoom),
		MinLon:              float32(opts.Bounds.MinLon),
		MinLat:              float32(opts.Bounds.MinLat),
		MaxLon:              float32(opts.Bounds.MaxLon),
		MaxLat:              float32(opts.Bounds.MaxLat),
		CenterZoom:          uint8((opts.MinZoom + opts.MaxZoom) / 2),
		CenterLon:           float32(opts.Bounds.CenterLon()),
		CenterLat:           float32(opts.Bounds.CenterLat()),
	}
}

// Bounds returns the header's bounding box.
func (h *Header) Bounds() coord.Bounds {
	return coord.Bounds{
		MinLon: float64(h.MinLon),
		MaxLon: float64(h.MaxLon),
		MinLat: float64(h.MinLat),
		MaxLat: float64(h.MaxLat),
	}
}

// Serialize writes the 127-byte header.
func (h *Header) Serialize() []byte {
	buf := make([]byte, HeaderSize)

	copy(buf[0:7], magic)
	buf[7] = version

	le := binary.LittleEndian
	le.PutUint64(buf[8:16], h.RootDirOffset)
	le.PutUint64(buf[16:24], h.RootDirLength)
	le.PutUint64(buf[24:32], h.MetadataOffset)
	le.PutUint64(buf[32:40], h.MetadataLength)
	le.PutUint64(buf[40:48], h.LeafDirOffset)
	le.PutUint64(buf[48:56], h.LeafDirLength)
	le.PutUint64(buf[56:64], h.TileDataOffset)
	le.PutUint64(buf[64:72], h.TileDataLength)
	le.PutUint64(buf[72:80], h.NumAddressedTiles)
	le.PutUint64(buf[80:88], h.NumTileEntries)
	le.PutUint64(buf[88:96], h.NumTileContents)

	if h.Clustered {
		buf[96] = 1
	}
	buf[97] = h.InternalCompression
	buf[98] = h.TileCompression
	buf[99] = h.TileType
	buf[100] = h.MinZoom
	buf[101] = h.MaxZoom

	// Positions are signed E7 integers.
	le.PutUint32(buf[102:106], lonLatToE7(h.MinLon))
	le.PutUint32(buf[106:110], lonLatToE7(h.MinLat))
	le.PutUint32(buf[110:114], lonLatToE7(h.MaxLon))
	le.PutUint32(buf[114:118], lonLatToE7(h.MaxLat))

	buf[118] = h.CenterZoom
	le.PutUint32(buf[119:123], lonLatToE7(h.CenterLon))
	le.PutUint32(buf[123:127], lonLatToE7(h.CenterLat))

	return buf
}

// DeserializeHeader parses a 127-byte PMTiles v3 header.
func DeserializeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, fmt.Errorf("header too short: %d bytes: %w", len(buf), ErrNotPMTiles)
	}
	if string(buf[0:7]) != magic {
		return h, ErrNotPMTiles
	}
	if buf[7] != version {
		return h, fmt.Errorf("unsupported PMTiles version %d: %w", buf[7], ErrNotPMTiles)
	}

	le := binary.LittleEndian
	h.RootDirOffset = le.Uint64(buf[8:16])
	h.RootDirLength = le.Uint64(buf[16:24])
	h.MetadataOffset = le.Uint64(buf[24:32])
	h.MetadataLength = le.Uint64(buf[32:40])
	h.LeafDirOffset = le.Uint64(buf[40:48])
	h.LeafDirLength = le.Uint64(buf[48:56])
	h.TileDataOffset = le.Uint64(buf[56:64])
	h.TileDataLength = le.Uint64(buf[64:72])
	h.NumAddressedTiles = le.Uint64(buf[72:80])
	h.NumTileEntries = le.Uint64(buf[80:88])
	h.NumTileContents = le.Uint64(buf[88:96])

	h.Clustered = buf[96] == 1
	h.InternalCompression = buf[97]
	h.TileCompression = buf[98]
	h.TileType = buf[99]
	h.MinZoom = buf[100]
	h.MaxZoom = buf[101]

	h.MinLon = e7ToLonLat(le.Uint32(buf[102:106]))
	h.MinLat = e7ToLonLat(le.Uint32(buf[106:110]))
	h.MaxLon = e7ToLonLat(le.Uint32(buf[110:114]))
	h.MaxLat = e7ToLonLat(le.Uint32(buf[114:118]))

	h.CenterZoom = buf[118]
	h.CenterLon = e7ToLonLat(le.Uint32(buf[119:123]))
	h.CenterLat = e7ToLonLat(le.Uint32(buf[123:127]))
	return h, nil
}

func lonLatToE7(v float32) uint32 {
	return uint32(int32(math.Round(float64(v) * 1e7)))
}

func e7ToLonLat(v uint32) float32 {
	return float32(float64(int32(v)) / 1e7)
}
