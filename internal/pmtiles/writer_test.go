package pmtiles

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pspoerri/nzhike/internal/coord"
)

var canterbury = coord.Bounds{MinLon: 171.0, MaxLon: 173.0, MinLat: -44.0, MaxLat: -42.5}

func newTestWriter(t *testing.T, opts WriterOptions) (*Writer, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "overlay.pmtiles")
	if opts.MaxZoom == 0 {
		opts.MaxZoom = 8
	}
	if opts.Bounds == (coord.Bounds{}) {
		opts.Bounds = canterbury
	}
	if opts.TileFormat == 0 {
		opts.TileFormat = TileTypePNG
	}
	w, err := NewWriter(out, opts)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w, out
}

func TestWriter_WriteAndRead(t *testing.T) {
	w, out := newTestWriter(t, WriterOptions{MinZoom: 0, MaxZoom: 2, TileSize: 256})

	tiles := map[[3]int][]byte{
		{0, 0, 0}: []byte("z0"),
		{1, 1, 1}: []byte("z1-se"),
		{1, 0, 1}: []byte("z1-sw"),
		{2, 3, 2}: []byte("z2-nz"),
		{2, 0, 0}: []byte("z2-nw"),
	}
	for tile, data := range tiles {
		if err := w.WriteTile(tile[0], tile[1], tile[2], data); err != nil {
			t.Fatalf("WriteTile(%v): %v", tile, err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenReader(out)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	h := r.Header()
	if h.NumAddressedTiles != 5 || h.NumTileContents != 5 {
		t.Errorf("addressed=%d contents=%d, want 5/5", h.NumAddressedTiles, h.NumTileContents)
	}
	if !h.Clustered || h.TileType != TileTypePNG || h.MinZoom != 0 || h.MaxZoom != 2 {
		t.Errorf("header = %+v", h)
	}
	if r.NumTiles() != 5 {
		t.Errorf("NumTiles = %d, want 5", r.NumTiles())
	}

	for tile, want := range tiles {
		got, err := r.ReadTile(tile[0], tile[1], tile[2])
		if err != nil {
			t.Fatalf("ReadTile(%v): %v", tile, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadTile(%v) = %q, want %q", tile, got, want)
		}
	}
	if got, err := r.ReadTile(2, 1, 1); got != nil || err != nil {
		t.Errorf("missing tile = %q, %v; want nil, nil", got, err)
	}

	if z1 := r.TilesAtZoom(1); len(z1) != 2 || z1[0] != [3]int{1, 0, 1} || z1[1] != [3]int{1, 1, 1} {
		t.Errorf("TilesAtZoom(1) = %v, want Hilbert order [[1 0 1] [1 1 1]]", z1)
	}
	if z2 := r.TilesAtZoom(2); len(z2) != 2 {
		t.Errorf("TilesAtZoom(2) = %v, want 2 tiles", z2)
	}
	if z3 := r.TilesAtZoom(3); len(z3) != 0 {
		t.Errorf("TilesAtZoom(3) = %v, want none", z3)
	}

	if _, err := os.Stat(out + ".partial"); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: %v", err)
	}
	assertNoSpoolFiles(t, filepath.Dir(out))
}

func TestWriter_Metadata(t *testing.T) {
	w, out := newTestWriter(t, WriterOptions{
		MinZoom:    5,
		MaxZoom:    12,
		TileFormat: TileTypeWebP,
		TileSize:   512,
		Extra:      map[string]string{"generator": "nzhike test", "name": "ignored"},
	})
	if err := w.WriteTile(5, 31, 19, []byte{1}); err != nil {
		t.Fatal(err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	r, err := OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	meta, err := r.ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}

	want := map[string]string{
		"name":        "nzhike",
		"type":        "overlay",
		"format":      "webp",
		"minzoom":     "5",
		"maxzoom":     "12",
		"tilesize":    "512",
		"bounds":      "171.000000,-44.000000,173.000000,-42.500000",
		"center":      "172.000000,-43.250000,8",
		"generator":   "nzhike test",
		"attribution": "Department of Conservation (CC BY 4.0)",
	}
	for k, v := range want {
		if meta[k] != v {
			t.Errorf("metadata[%q] = %v, want %q", k, meta[k], v)
		}
	}
}

func TestWriter_EmptyTileIgnored(t *testing.T) {
	w, out := newTestWriter(t, WriterOptions{})
	if err := w.WriteTile(3, 7, 4, nil); err != nil {
		t.Fatalf("WriteTile(nil): %v", err)
	}
	if err := w.WriteTile(3, 7, 5, []byte("hut")); err != nil {
		t.Fatal(err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	r, err := OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.NumTiles() != 1 {
		t.Errorf("NumTiles = %d, want 1", r.NumTiles())
	}
}

func TestWriter_NoTiles(t *testing.T) {
	w, out := newTestWriter(t, WriterOptions{})
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	r, err := OpenReader(out)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	if r.NumTiles() != 0 {
		t.Errorf("NumTiles = %d, want 0", r.NumTiles())
	}
}

func TestWriter_ZoomOutOfRange(t *testing.T) {
	w, _ := newTestWriter(t, WriterOptions{MinZoom: 4, MaxZoom: 6})
	defer w.Abort()
	if err := w.WriteTile(7, 0, 0, []byte("x")); err == nil {
		t.Error("expected error for zoom above range")
	}
	if err := w.WriteTile(3, 0, 0, []byte("x")); err == nil {
		t.Error("expected error for zoom below range")
	}
}

func TestWriter_DoubleFinalize(t *testing.T) {
	w, _ := newTestWriter(t, WriterOptions{})
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := w.Finalize(); !errors.Is(err, ErrFinalized) {
		t.Errorf("second Finalize = %v, want ErrFinalized", err)
	}
	if err := w.WriteTile(1, 0, 0, []byte("late")); !errors.Is(err, ErrFinalized) {
		t.Errorf("WriteTile after Finalize = %v, want ErrFinalized", err)
	}
}

func TestWriter_Abort(t *testing.T) {
	w, out := newTestWriter(t, WriterOptions{})
	if err := w.WriteTile(1, 1, 1, []byte("tile")); err != nil {
		t.Fatal(err)
	}
	w.Abort()

	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output exists after Abort: %v", err)
	}
	assertNoSpoolFiles(t, filepath.Dir(out))
	if err := w.Finalize(); !errors.Is(err, ErrFinalized) {
		t.Errorf("Finalize after Abort = %v, want ErrFinalized", err)
	}
}

func TestWriter_Deduplication(t *testing.T) {
	w, out := newTestWriter(t, WriterOptions{MinZoom: 4, MaxZoom: 4})

	// A 4x4 block of identical tiles plus two unique ones.
	marker := bytes.Repeat([]byte("hut-marker"), 20)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if err := w.WriteTile(4, x, y, marker); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := w.WriteTile(4, 15, 10, []byte("wellington")); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteTile(4, 14, 10, []byte("nelson")); err != nil {
		t.Fatal(err)
	}
	if hits := w.DedupHits(); hits != 15 {
		t.Errorf("DedupHits = %d, want 15", hits)
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	r, err := OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	h := r.Header()
	if h.NumAddressedTiles != 18 {
		t.Errorf("NumAddressedTiles = %d, want 18", h.NumAddressedTiles)
	}
	if h.NumTileContents != 3 {
		t.Errorf("NumTileContents = %d, want 3", h.NumTileContents)
	}
	// The 4x4 block is one Hilbert quadrant, so it collapses to a single run.
	if h.NumTileEntries != 3 {
		t.Errorf("NumTileEntries = %d, want 3", h.NumTileEntries)
	}
	wantData := uint64(len(marker) + len("wellington") + len("nelson"))
	if h.TileDataLength != wantData {
		t.Errorf("TileDataLength = %d, want %d", h.TileDataLength, wantData)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got, err := r.ReadTile(4, x, y)
			if err != nil || !bytes.Equal(got, marker) {
				t.Fatalf("ReadTile(4,%d,%d) = %q, %v", x, y, got, err)
			}
		}
	}
	if got, _ := r.ReadTile(4, 14, 10); string(got) != "nelson" {
		t.Errorf("ReadTile(4,14,10) = %q, want nelson", got)
	}
}

func TestWriter_ConcurrentWrites(t *testing.T) {
	w, out := newTestWriter(t, WriterOptions{MinZoom: 6, MaxZoom: 6})

	const workers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for g := 0; g < workers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for x := g; x < 64; x += workers {
				for y := 0; y < 64; y++ {
					if err := w.WriteTile(6, x, y, []byte(fmt.Sprintf("%d/%d", x, y))); err != nil {
						errCh <- err
						return
					}
				}
			}
		}(g)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("WriteTile: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	r, err := OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.NumTiles() != 64*64 {
		t.Fatalf("NumTiles = %d, want %d", r.NumTiles(), 64*64)
	}
	for _, xy := range [][2]int{{0, 0}, {63, 63}, {31, 40}} {
		got, err := r.ReadTile(6, xy[0], xy[1])
		if want := fmt.Sprintf("%d/%d", xy[0], xy[1]); err != nil || string(got) != want {
			t.Errorf("ReadTile(6,%d,%d) = %q, %v; want %q", xy[0], xy[1], got, err, want)
		}
	}
}

func assertNoSpoolFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "nzhike-*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) > 0 {
		t.Errorf("spool files left behind: %v", matches)
	}
}
