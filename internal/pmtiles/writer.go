package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/pspoerri/nzhike/internal/encode"
)

// ErrFinalized is returned when writing to a finalized or aborted Writer.
var ErrFinalized = errors.New("pmtiles writer already finalized")

// dedupEntry records the location of a previously written tile in the spool file.
type dedupEntry struct {
	offset uint64
	length uint32
}

// Writer writes tiles to a PMTiles v3 archive in two passes. Tiles are
// appended to a spool file while entries collect in memory; Finalize sorts
// the entries, rewrites the tile data in tile-ID order and assembles the
// archive next to the output path before renaming it into place.
//
// Identical tile data is stored once. Overlay archives repeat the same
// few tiles (a lone hut marker, a straight track segment) many times.
type Writer struct {
	outputPath string
	opts       WriterOptions
	header     Header

	spool     *os.File
	tmpDir    string
	spoolSize uint64
	entries   []Entry
	dedup     map[uint64]dedupEntry // FNV-64a hash → first occurrence
	mu        sync.Mutex
	done      bool

	dedupHits int64
}

// NewWriter creates a new PMTiles writer.
func NewWriter(outputPath string, opts WriterOptions) (*Writer, error) {
	tmpDir := opts.TempDir
	if tmpDir == "" {
		tmpDir = filepath.Dir(outputPath)
	}

	spool, err := os.CreateTemp(tmpDir, "nzhike-tiles-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating spool file: %w", err)
	}

	return &Writer{
		outputPath: outputPath,
		opts:       opts,
		header:     NewHeader(opts),
		spool:      spool,
		tmpDir:     tmpDir,
		entries:    make([]Entry, 0, 4096),
		dedup:      make(map[uint64]dedupEntry),
	}, nil
}

func tileHash(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

// WriteTile writes a single tile. Safe for concurrent use. Empty data is ignored.
func (w *Writer) WriteTile(z, x, y int, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if z < int(w.header.MinZoom) || z > int(w.header.MaxZoom) {
		return fmt.Errorf("tile z%d/%d/%d outside zoom range %d-%d", z, x, y, w.header.MinZoom, w.header.MaxZoom)
	}

	tileID := ZXYToTileID(z, x, y)
	hash := tileHash(data)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return ErrFinalized
	}

	if de, ok := w.dedup[hash]; ok && de.length == uint32(len(data)) {
		w.entries = append(w.entries, Entry{TileID: tileID, Offset: de.offset, Length: de.length, RunLength: 1})
		w.dedupHits++
		return nil
	}

	offset := w.spoolSize
	n, err := w.spool.Write(data)
	if err != nil {
		return fmt.Errorf("writing tile data: %w", err)
	}
	w.spoolSize += uint64(n)
	w.dedup[hash] = dedupEntry{offset: offset, length: uint32(n)}
	w.entries = append(w.entries, Entry{TileID: tileID, Offset: offset, Length: uint32(n), RunLength: 1})
	return nil
}

// DedupHits returns how many tiles reused previously written data.
func (w *Writer) DedupHits() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dedupHits
}

// Finalize builds the directory and metadata and writes the archive.
func (w *Writer) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return ErrFinalized
	}
	w.done = true
	defer w.removeSpool()

	sort.Slice(w.entries, func(i, j int) bool {
		return w.entries[i].TileID < w.entries[j].TileID
	})
	if err := w.clusterTileData(); err != nil {
		return fmt.Errorf("clustering tile data: %w", err)
	}

	rootDir, leafDirs, err := buildDirectory(w.entries)
	if err != nil {
		return fmt.Errorf("building directory: %w", err)
	}

	metadata, err := w.buildMetadata()
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	metadataBytes, err := compressGzip(metadata)
	if err != nil {
		return fmt.Errorf("compressing metadata: %w", err)
	}

	// Layout: [Header (127)] [Root Dir] [Metadata] [Leaf Dirs] [Tile Data]
	h := &w.header
	h.RootDirOffset = HeaderSize
	h.RootDirLength = uint64(len(rootDir))
	h.MetadataOffset = h.RootDirOffset + h.RootDirLength
	h.MetadataLength = uint64(len(metadataBytes))
	h.LeafDirOffset = h.MetadataOffset + h.MetadataLength
	h.LeafDirLength = uint64(len(leafDirs))
	h.TileDataOffset = h.LeafDirOffset + h.LeafDirLength
	h.TileDataLength = w.spoolSize
	h.NumAddressedTiles = uint64(len(w.entries))
	h.NumTileEntries = uint64(len(optimizeRunLengths(w.entries)))
	h.NumTileContents = uint64(len(w.dedup))

	partial := w.outputPath + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := w.writeArchive(out, rootDir, metadataBytes, leafDirs); err != nil {
		out.Close()
		os.Remove(partial)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(partial, w.outputPath); err != nil {
		os.Remove(partial)
		return fmt.Errorf("renaming output file: %w", err)
	}
	return nil
}

func (w *Writer) writeArchive(out io.Writer, rootDir, metadata, leafDirs []byte) error {
	for _, part := range []struct {
		name string
		data []byte
	}{
		{"header", w.header.Serialize()},
		{"root directory", rootDir},
		{"metadata", metadata},
		{"leaf directories", leafDirs},
	} {
		if _, err := out.Write(part.data); err != nil {
			return fmt.Errorf("writing %s: %w", part.name, err)
		}
	}
	if _, err := w.spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking spool file: %w", err)
	}
	if _, err := io.Copy(out, w.spool); err != nil {
		return fmt.Errorf("copying tile data: %w", err)
	}
	return nil
}

// clusterTileData rewrites the spool so tile data follows the sorted
// entries. Entries that share data keep sharing it at the new offset.
func (w *Writer) clusterTileData() error {
	clustered, err := os.CreateTemp(w.tmpDir, "nzhike-clustered-*.tmp")
	if err != nil {
		return fmt.Errorf("creating clustered spool file: %w", err)
	}

	buf := make([]byte, 256*1024)
	var newOffset uint64
	moved := make(map[uint64]uint64, len(w.dedup)) // old offset → new offset

	for i := range w.entries {
		e := &w.entries[i]
		if off, ok := moved[e.Offset]; ok {
			e.Offset = off
			continue
		}
		n := int(e.Length)
		if n > len(buf) {
			buf = make([]byte, n)
		}
		if _, err := w.spool.ReadAt(buf[:n], int64(e.Offset)); err != nil {
			clustered.Close()
			os.Remove(clustered.Name())
			return fmt.Errorf("reading tile at offset %d: %w", e.Offset, err)
		}
		if _, err := clustered.Write(buf[:n]); err != nil {
			clustered.Close()
			os.Remove(clustered.Name())
			return fmt.Errorf("writing tile at offset %d: %w", newOffset, err)
		}
		moved[e.Offset] = newOffset
		e.Offset = newOffset
		newOffset += uint64(n)
	}

	w.removeSpool()
	w.spool = clustered
	w.spoolSize = newOffset
	return nil
}

func (w *Writer) removeSpool() {
	if w.spool == nil {
		return
	}
	name := w.spool.Name()
	w.spool.Close()
	os.Remove(name)
	w.spool = nil
}

// Abort discards the spooled tiles without writing the archive.
func (w *Writer) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
	w.removeSpool()
}

// buildMetadata creates the JSON metadata for the archive.
func (w *Writer) buildMetadata() ([]byte, error) {
	o := w.opts
	format := encode.FormatForTileType(o.TileFormat)
	if format == "" {
		format = "unknown"
	}

	meta := map[string]string{
		"name":        orDefault(o.Name, "nzhike"),
		"description": orDefault(o.Description, "DOC tracks, huts and campsites"),
		"attribution": orDefault(o.Attribution, "Department of Conservation (CC BY 4.0)"),
		"type":        orDefault(o.Type, "overlay"),
		"format":      format,
		"minzoom":     strconv.Itoa(o.MinZoom),
		"maxzoom":     strconv.Itoa(o.MaxZoom),
		"bounds": fmt.Sprintf("%.6f,%.6f,%.6f,%.6f",
			o.Bounds.MinLon, o.Bounds.MinLat, o.Bounds.MaxLon, o.Bounds.MaxLat),
		"center": fmt.Sprintf("%.6f,%.6f,%d",
			o.Bounds.CenterLon(), o.Bounds.CenterLat(), (o.MinZoom+o.MaxZoom)/2),
	}
	if o.TileSize > 0 {
		meta["tilesize"] = strconv.Itoa(o.TileSize)
	}
	for k, v := range o.Extra {
		if _, reserved := meta[k]; !reserved {
			meta[k] = v
		}
	}
	return json.Marshal(meta)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
