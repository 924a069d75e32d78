package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Reader provides read access to an existing PMTiles v3 archive.
type Reader struct {
	file    *os.File
	header  Header
	entries []Entry            // one entry per addressed tile, sorted by tile ID
	tileIdx map[uint64]tileRef // tile ID → location in file
}

// tileRef records the absolute file offset and length of a tile's data.
type tileRef struct {
	offset uint64
	length uint32
}

// OpenReader opens a PMTiles v3 archive for reading.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r, err := newReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return r, nil
}

func newReader(f *os.File) (*Reader, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header, err := DeserializeHeader(headerBuf)
	if err != nil {
		return nil, err
	}
	if header.InternalCompression != CompressionGzip {
		return nil, fmt.Errorf("unsupported directory compression %d", header.InternalCompression)
	}

	rootEntries, err := readDirectory(f, header.RootDirOffset, header.RootDirLength)
	if err != nil {
		return nil, fmt.Errorf("root directory: %w", err)
	}

	var tileEntries []Entry
	for _, e := range rootEntries {
		if e.RunLength > 0 {
			tileEntries = append(tileEntries, e)
			continue
		}
		leaf, err := readDirectory(f, header.LeafDirOffset+e.Offset, uint64(e.Length))
		if err != nil {
			return nil, fmt.Errorf("leaf directory at %d: %w", e.Offset, err)
		}
		tileEntries = append(tileEntries, leaf...)
	}

	// A run repeats the same tile data for consecutive tile IDs.
	tileIdx := make(map[uint64]tileRef, len(tileEntries))
	var expanded []Entry
	for _, e := range tileEntries {
		ref := tileRef{offset: header.TileDataOffset + e.Offset, length: e.Length}
		for i := range uint64(e.RunLength) {
			tileIdx[e.TileID+i] = ref
			expanded = append(expanded, Entry{TileID: e.TileID + i, Offset: ref.offset, Length: ref.length, RunLength: 1})
		}
	}
	sort.Slice(expanded, func(i, j int) bool {
		return expanded[i].TileID < expanded[j].TileID
	})

	return &Reader{file: f, header: header, entries: expanded, tileIdx: tileIdx}, nil
}

func readDirectory(f *os.File, offset, length uint64) ([]Entry, error) {
	data := make([]byte, length)
	if _, err := f.ReadAt(data, int64(offset)); err != nil {
		return nil, err
	}
	return DeserializeDirectory(data)
}

// Header returns the parsed PMTiles header.
func (r *Reader) Header() Header {
	return r.header
}

// ReadTile returns the raw encoded bytes for a tile at z/x/y.
// Returns nil, nil if the tile does not exist.
func (r *Reader) ReadTile(z, x, y int) ([]byte, error) {
	ref, ok := r.tileIdx[ZXYToTileID(z, x, y)]
	if !ok {
		return nil, nil
	}
	data := make([]byte, ref.length)
	if _, err := r.file.ReadAt(data, int64(ref.offset)); err != nil {
		return nil, fmt.Errorf("reading tile z%d/%d/%d: %w", z, x, y, err)
	}
	return data, nil
}

// TilesAtZoom returns all [z, x, y] coordinates that have tiles at the given
// zoom level, in tile-ID (Hilbert) order.
func (r *Reader) TilesAtZoom(z int) [][3]int {
	minID, maxID := zoomBase(z), zoomBase(z+1)
	start := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].TileID >= minID
	})

	var tiles [][3]int
	for _, e := range r.entries[start:] {
		if e.TileID >= maxID {
			break
		}
		_, x, y := TileIDToZXY(e.TileID)
		tiles = append(tiles, [3]int{z, x, y})
	}
	return tiles
}

// NumTiles returns the total number of addressed tiles in the archive.
func (r *Reader) NumTiles() int {
	return len(r.entries)
}

// ReadMetadata reads and decompresses the JSON metadata from the archive.
// Returns nil if the archive has no metadata.
func (r *Reader) ReadMetadata() (map[string]any, error) {
	if r.header.MetadataLength == 0 {
		return nil, nil
	}

	raw := make([]byte, r.header.MetadataLength)
	if _, err := r.file.ReadAt(raw, int64(r.header.MetadataOffset)); err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decompressing metadata: %w", err)
	}
	defer gz.Close()

	var meta map[string]any
	if err := json.NewDecoder(gz).Decode(&meta); err != nil {
		return nil, fmt.Errorf("parsing metadata JSON: %w", err)
	}
	return meta, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
