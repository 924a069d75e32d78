package catalog

import (
	"runtime"
	"sync"

	"github.com/pspoerri/nzhike/internal/coord"
)

// Location returns the WGS84 position of the place. Records with an unset
// coordinate (x or y equal to zero) have no location.
func (p *Place) Location() (lat, lon float64, ok bool) {
	if p.X == 0 || p.Y == 0 {
		return 0, 0, false
	}
	lat, lon = coord.ToLatLon(p.X, p.Y)
	return lat, lon, true
}

// Location returns the WGS84 position of the track's reference point.
func (t *Track) Location() (lat, lon float64, ok bool) {
	p := t.Place()
	return p.Location()
}

// Path converts every line part of the track to [lat, lon] vertices.
// Parts left with no vertices are dropped.
func (t *Track) Path() [][][2]float64 {
	if len(t.Line) == 0 {
		return nil
	}
	out := make([][][2]float64, 0, len(t.Line))
	for _, part := range t.Line {
		if pts := coord.ProjectPath(part); len(pts) > 0 {
			out = append(out, pts)
		}
	}
	return out
}

// ConvertPaths converts the paths of many tracks on a pool of workers.
// The result is index-aligned with tracks. workers <= 0 uses GOMAXPROCS.
func ConvertPaths(tracks []Track, workers int) [][][][2]float64 {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([][][][2]float64, len(tracks))
	if len(tracks) == 0 {
		return out
	}
	workers = min(workers, len(tracks))

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = tracks[i].Path()
			}
		}()
	}
	for i := range tracks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
