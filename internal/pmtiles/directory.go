package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/pspoerri/nzhike/internal/coord"
)

// Directory layout limits.
const (
	maxRootEntries = 16384
	leafSize       = 4096
)

// Entry represents a single entry in the PMTiles directory. RunLength 0
// marks a pointer to a leaf directory.
type Entry struct {
	TileID    uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

// zoomBase returns the first tile ID of zoom level z: the number of tiles on
// all lower levels, 4^0 + 4^1 + ... + 4^(z-1).
func zoomBase(z int) uint64 {
	return ((uint64(1) << (2 * uint(z))) - 1) / 3
}

// ZXYToTileID converts z/x/y coordinates to a PMTiles v3 tile ID using Hilbert curve ordering.
func ZXYToTileID(z, x, y int) uint64 {
	if z == 0 {
		return 0
	}
	n := uint64(1) << uint(z)
	return zoomBase(z) + coord.HilbertIndex(uint64(x), uint64(y), n)
}

// TileIDToZXY converts a PMTiles v3 tile ID back to z/x/y coordinates.
func TileIDToZXY(tileID uint64) (z, x, y int) {
	for zoomBase(z+1) <= tileID {
		z++
	}
	n := uint64(1) << uint(z)
	hx, hy := coord.HilbertPoint(tileID-zoomBase(z), n)
	return z, int(hx), int(hy)
}

// buildDirectory sorts entries and produces the serialized, gzip-compressed
// root directory plus, for large archives, the concatenated leaf directories.
func buildDirectory(entries []Entry) (rootDir []byte, leafDirs []byte, err error) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TileID < entries[j].TileID
	})

	optimized := optimizeRunLengths(entries)
	if len(optimized) <= maxRootEntries {
		rootDir, err = serializeDirectory(optimized)
		return rootDir, nil, err
	}

	var leafBuf bytes.Buffer
	rootEntries := make([]Entry, 0, (len(optimized)+leafSize-1)/leafSize)
	for i := 0; i < len(optimized); i += leafSize {
		chunk := optimized[i:min(i+leafSize, len(optimized))]
		leafData, err := serializeDirectory(chunk)
		if err != nil {
			return nil, nil, err
		}
		// Leaf offsets are relative to the leaf directory section.
		rootEntries = append(rootEntries, Entry{
			TileID: chunk[0].TileID,
			Offset: uint64(leafBuf.Len()),
			Length: uint32(len(leafData)),
		})
		leafBuf.Write(leafData)
	}

	rootDir, err = serializeDirectory(rootEntries)
	return rootDir, leafBuf.Bytes(), err
}

// serializeDirectory encodes entries column by column as varints and gzips the result.
func serializeDirectory(entries []Entry) ([]byte, error) {
	var raw bytes.Buffer
	buf := make([]byte, binary.MaxVarintLen64)
	put := func(v uint64) {
		n := binary.PutUvarint(buf, v)
		raw.Write(buf[:n])
	}

	put(uint64(len(entries)))

	var lastID uint64
	for _, e := range entries {
		put(e.TileID - lastID)
		lastID = e.TileID
	}
	for _, e := range entries {
		put(uint64(e.RunLength))
	}
	for _, e := range entries {
		put(uint64(e.Length))
	}
	// Offsets: 0 means contiguous with the previous entry, otherwise offset+1.
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			put(0)
		} else {
			put(e.Offset + 1)
		}
	}

	return compressGzip(raw.Bytes())
}

// DeserializeDirectory decompresses and parses a gzip-compressed PMTiles v3 directory.
func DeserializeDirectory(data []byte) ([]Entry, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer gr.Close()

	raw, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("decompressing directory: %w", err)
	}
	r := bytes.NewReader(raw)

	numEntries, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("reading entry count: %w", err)
	}
	// Every entry takes at least four bytes.
	if numEntries > uint64(r.Len())/4 {
		return nil, fmt.Errorf("entry count %d exceeds directory size %d", numEntries, len(raw))
	}
	entries := make([]Entry, numEntries)

	read := func(field string, i uint64) (uint64, error) {
		v, err := binary.ReadUvarint(r)
		if err != nil {
			return 0, fmt.Errorf("reading %s %d: %w", field, i, err)
		}
		return v, nil
	}

	var lastID uint64
	for i := range numEntries {
		delta, err := read("tile ID delta", i)
		if err != nil {
			return nil, err
		}
		lastID += delta
		entries[i].TileID = lastID
	}
	for i := range numEntries {
		v, err := read("run length", i)
		if err != nil {
			return nil, err
		}
		entries[i].RunLength = uint32(v)
	}
	for i := range numEntries {
		v, err := read("length", i)
		if err != nil {
			return nil, err
		}
		entries[i].Length = uint32(v)
	}
	for i := range numEntries {
		v, err := read("offset", i)
		if err != nil {
			return nil, err
		}
		if v == 0 && i > 0 {
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		} else {
			entries[i].Offset = v - 1
		}
	}
	return entries, nil
}

// optimizeRunLengths merges consecutive tile IDs that point at the same
// data into one run. After dedup this collapses runs of identical tiles.
func optimizeRunLengths(entries []Entry) []Entry {
	if len(entries) == 0 {
		return entries
	}

	result := make([]Entry, 0, len(entries))
	current := entries[0]
	current.RunLength = 1

	for _, e := range entries[1:] {
		if e.TileID == current.TileID+uint64(current.RunLength) &&
			e.Offset == current.Offset &&
			e.Length == current.Length {
			current.RunLength++
			continue
		}
		result = append(result, current)
		current = e
		current.RunLength = 1
	}
	return append(result, current)
}
