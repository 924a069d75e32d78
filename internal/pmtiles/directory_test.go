package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"testing"
)

func TestZoomBase(t *testing.T) {
	want := []uint64{0, 1, 5, 21, 85, 341}
	for z, w := range want {
		if got := zoomBase(z); got != w {
			t.Errorf("zoomBase(%d) = %d, want %d", z, got, w)
		}
	}
}

func TestZXYToTileID_Known(t *testing.T) {
	tests := []struct {
		z, x, y int
		want    uint64
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{1, 0, 1, 2},
		{1, 1, 1, 3},
		{1, 1, 0, 4},
		{2, 0, 0, 5},
	}
	for _, tt := range tests {
		if got := ZXYToTileID(tt.z, tt.x, tt.y); got != tt.want {
			t.Errorf("ZXYToTileID(%d,%d,%d) = %d, want %d", tt.z, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestTileID_RoundTrip(t *testing.T) {
	for z := 0; z <= 6; z++ {
		n := 1 << z
		seen := make(map[uint64]bool, n*n)
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				id := ZXYToTileID(z, x, y)
				if id < zoomBase(z) || id >= zoomBase(z+1) {
					t.Fatalf("ZXYToTileID(%d,%d,%d) = %d outside zoom range", z, x, y, id)
				}
				if seen[id] {
					t.Fatalf("ZXYToTileID(%d,%d,%d) = %d is duplicate", z, x, y, id)
				}
				seen[id] = true
				if gz, gx, gy := TileIDToZXY(id); gz != z || gx != x || gy != y {
					t.Errorf("TileIDToZXY(%d) = %d/%d/%d, want %d/%d/%d", id, gz, gx, gy, z, x, y)
				}
			}
		}
	}

	// A Wellington tile at a realistic overlay zoom.
	id := ZXYToTileID(14, 16146, 10258)
	if z, x, y := TileIDToZXY(id); z != 14 || x != 16146 || y != 10258 {
		t.Errorf("z14 round trip = %d/%d/%d", z, x, y)
	}
}

func TestOptimizeRunLengths(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    []Entry
	}{
		{"empty", nil, nil},
		{"single", []Entry{{TileID: 5, Offset: 0, Length: 100, RunLength: 1}},
			[]Entry{{TileID: 5, Offset: 0, Length: 100, RunLength: 1}}},
		{"repeated data merges", []Entry{
			{TileID: 10, Offset: 40, Length: 100, RunLength: 1},
			{TileID: 11, Offset: 40, Length: 100, RunLength: 1},
			{TileID: 12, Offset: 40, Length: 100, RunLength: 1},
		}, []Entry{{TileID: 10, Offset: 40, Length: 100, RunLength: 3}}},
		{"contiguous distinct data stays separate", []Entry{
			{TileID: 10, Offset: 0, Length: 100, RunLength: 1},
			{TileID: 11, Offset: 100, Length: 100, RunLength: 1},
		}, []Entry{
			{TileID: 10, Offset: 0, Length: 100, RunLength: 1},
			{TileID: 11, Offset: 100, Length: 100, RunLength: 1},
		}},
		{"gap in tile IDs", []Entry{
			{TileID: 10, Offset: 0, Length: 100, RunLength: 1},
			{TileID: 15, Offset: 0, Length: 100, RunLength: 1},
		}, []Entry{
			{TileID: 10, Offset: 0, Length: 100, RunLength: 1},
			{TileID: 15, Offset: 0, Length: 100, RunLength: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := optimizeRunLengths(tt.entries)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSerializeDirectory_Layout(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 100, RunLength: 1},
		{TileID: 1, Offset: 100, Length: 200, RunLength: 1},
		{TileID: 5, Offset: 0, Length: 100, RunLength: 3},
	}
	data, err := serializeDirectory(entries)
	if err != nil {
		t.Fatalf("serializeDirectory: %v", err)
	}

	r := bytes.NewReader(decompressGzipT(t, data))
	if n := readUvarint(t, r); n != 3 {
		t.Fatalf("numEntries = %d, want 3", n)
	}
	want := []uint64{
		0, 1, 4, // tile ID deltas
		1, 1, 3, // run lengths
		100, 200, 100, // lengths
		1, 0, 1, // offsets: explicit+1, contiguous, explicit+1
	}
	for i, w := range want {
		if got := readUvarint(t, r); got != w {
			t.Errorf("varint %d = %d, want %d", i, got, w)
		}
	}
	if r.Len() != 0 {
		t.Errorf("%d trailing bytes", r.Len())
	}
}

func TestDirectory_RoundTrip(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 100, RunLength: 1},
		{TileID: 1, Offset: 100, Length: 200, RunLength: 1},
		{TileID: 5, Offset: 0, Length: 100, RunLength: 3},
		{TileID: 300, Offset: 300, Length: 7, RunLength: 1},
	}
	data, err := serializeDirectory(entries)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DeserializeDirectory(data)
	if err != nil {
		t.Fatalf("DeserializeDirectory: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestDeserializeDirectory_Corrupt(t *testing.T) {
	if _, err := DeserializeDirectory([]byte("not gzip")); err == nil {
		t.Error("expected error for non-gzip data")
	}

	// Claims 1000 entries but carries none.
	var raw bytes.Buffer
	buf := make([]byte, binary.MaxVarintLen64)
	raw.Write(buf[:binary.PutUvarint(buf, 1000)])
	data, err := compressGzip(raw.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DeserializeDirectory(data); err == nil {
		t.Error("expected error for truncated directory")
	}
}

func TestBuildDirectory_SmallSet(t *testing.T) {
	entries := make([]Entry, 10)
	for i := range entries {
		entries[i] = Entry{TileID: ZXYToTileID(2, i%4, i/4), Offset: uint64(i) * 100, Length: 100, RunLength: 1}
	}
	rootDir, leafDirs, err := buildDirectory(entries)
	if err != nil {
		t.Fatalf("buildDirectory: %v", err)
	}
	if len(leafDirs) != 0 {
		t.Errorf("expected no leaf dirs for small set, got %d bytes", len(leafDirs))
	}
	got, err := DeserializeDirectory(rootDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Errorf("root entries = %d, want 10", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].TileID <= got[i-1].TileID {
			t.Fatalf("entries not sorted at %d", i)
		}
	}
}

func TestBuildDirectory_LeafSplit(t *testing.T) {
	const count = maxRootEntries + 1000
	entries := make([]Entry, count)
	for i := range entries {
		entries[i] = Entry{TileID: uint64(i), Offset: uint64(i) * 10, Length: 10, RunLength: 1}
	}
	rootDir, leafDirs, err := buildDirectory(entries)
	if err != nil {
		t.Fatalf("buildDirectory: %v", err)
	}
	if len(leafDirs) == 0 {
		t.Fatal("expected leaf directories")
	}

	root, err := DeserializeDirectory(rootDir)
	if err != nil {
		t.Fatal(err)
	}
	wantLeaves := (count + leafSize - 1) / leafSize
	if len(root) != wantLeaves {
		t.Fatalf("root entries = %d, want %d", len(root), wantLeaves)
	}

	total := 0
	for i, e := range root {
		if e.RunLength != 0 {
			t.Errorf("root entry %d RunLength = %d, want 0 (leaf pointer)", i, e.RunLength)
		}
		leaf, err := DeserializeDirectory(leafDirs[e.Offset : e.Offset+uint64(e.Length)])
		if err != nil {
			t.Fatalf("leaf %d: %v", i, err)
		}
		if leaf[0].TileID != e.TileID {
			t.Errorf("leaf %d starts at %d, root says %d", i, leaf[0].TileID, e.TileID)
		}
		total += len(leaf)
	}
	if total != count {
		t.Errorf("leaf entries = %d, want %d", total, count)
	}
}

func decompressGzipT(t *testing.T, data []byte) []byte {
	t.Helper()
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer r.Close()
	result, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading gzip: %v", err)
	}
	return result
}

func readUvarint(t *testing.T, r io.ByteReader) uint64 {
	t.Helper()
	v, err := binary.ReadUvarint(r)
	if err != nil {
		t.Fatalf("ReadUvarint: %v", err)
	}
	return v
}
