package coord

import "sort"

// HilbertIndex converts (x, y) to a Hilbert curve index for an n x n grid.
// n must be a power of two.
func HilbertIndex(x, y, n uint64) uint64 {
	var d uint64
	for s := n / 2; s > 0; s /= 2 {
		var rx, ry uint64
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		if ry == 0 {
			if rx == 1 {
				x = s*2 - 1 - x
				y = s*2 - 1 - y
			}
			x, y = y, x
		}
	}
	return d
}

// HilbertPoint is the inverse of HilbertIndex.
func HilbertPoint(d, n uint64) (x, y uint64) {
	for s := uint64(1); s < n; s *= 2 {
		rx := 1 & (d / 2)
		ry := 1 & (d ^ rx)
		if ry == 0 {
			if rx == 1 {
				x = s - 1 - x
				y = s - 1 - y
			}
			x, y = y, x
		}
		x += s * rx
		y += s * ry
		d /= 4
	}
	return x, y
}

// SortTilesByHilbert sorts tiles [z, x, y] of a single zoom level along the
// Hilbert curve, so that workers pulling from a shared queue render
// neighbouring tiles close together in time.
func SortTilesByHilbert(tiles [][3]int) {
	if len(tiles) <= 1 {
		return
	}
	n := uint64(1) << uint(tiles[0][0])

	keys := make([]uint64, len(tiles))
	for i, t := range tiles {
		keys[i] = HilbertIndex(uint64(t[1]), uint64(t[2]), n)
	}
	sort.Sort(byHilbert{tiles: tiles, keys: keys})
}

type byHilbert struct {
	tiles [][3]int
	keys  []uint64
}

func (s byHilbert) Len() int           { return len(s.tiles) }
func (s byHilbert) Less(i, j int) bool { return s.keys[i] < s.keys[j] }
func (s byHilbert) Swap(i, j int) {
	s.tiles[i], s.tiles[j] = s.tiles[j], s.tiles[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
