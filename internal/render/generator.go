// Package render rasterises overlay features into map tiles.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/sirupsen/logrus"

	"github.com/pspoerri/nzhike/internal/coord"
	"github.com/pspoerri/nzhike/internal/encode"
	"github.com/pspoerri/nzhike/internal/overlay"
)

// Config holds tile generation configuration.
type Config struct {
	MinZoom     int
	MaxZoom     int
	TileSize    int
	Concurrency int
	Verbose     bool
	Encoder     encode.Encoder
	// Bounds limits the tiles generated, grown by the marker radius so edge
	// markers are drawn whole. The zero value means the extent of the features.
	Bounds coord.Bounds
	Style  Style
	// MarkerRadius and LineWidth are in pixels.
	MarkerRadius float64
	LineWidth    float64
	Log          logrus.FieldLogger
	// Progress receives the progress bar when Verbose. Defaults to os.Stderr.
	Progress io.Writer
}

// Stats holds generation statistics.
type Stats struct {
	TileCount  int64
	EmptyTiles int64
	TotalBytes int64
}

// TileWriter is implemented by pmtiles.Writer.
type TileWriter interface {
	WriteTile(z, x, y int, data []byte) error
}

type tileJob struct {
	Z, X, Y int
}

// featureEntry is a feature stored in the rtree under its own geometry.
type featureEntry struct {
	geom.Geom
	order int
	f     *overlay.Feature
}

func (cfg *Config) validate() error {
	switch {
	case cfg.Encoder == nil:
		return errors.New("no tile encoder configured")
	case cfg.MinZoom < 0 || cfg.MaxZoom > 24 || cfg.MinZoom > cfg.MaxZoom:
		return fmt.Errorf("invalid zoom range %d-%d", cfg.MinZoom, cfg.MaxZoom)
	case cfg.TileSize <= 0:
		return fmt.Errorf("invalid tile size %d", cfg.TileSize)
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MarkerRadius <= 0 {
		cfg.MarkerRadius = 5
	}
	if cfg.LineWidth <= 0 {
		cfg.LineWidth = 2
	}
	if cfg.Style == (Style{}) {
		cfg.Style = DefaultStyle()
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.Progress == nil {
		cfg.Progress = os.Stderr
	}
}

// Generate renders features for every zoom level in [cfg.MinZoom, cfg.MaxZoom]
// and writes the non-empty tiles via writer. Tiles are processed in Hilbert
// order. The first error, or cancellation of ctx, stops the run.
func Generate(ctx context.Context, cfg Config, features []overlay.Feature, writer TileWriter) (Stats, error) {
	if err := cfg.validate(); err != nil {
		return Stats{}, err
	}
	cfg.applyDefaults()

	bounds := cfg.Bounds
	if bounds == (coord.Bounds{}) || bounds.IsEmpty() {
		bounds = overlay.Bounds(features)
	}
	if bounds.IsEmpty() {
		return Stats{}, errors.New("no features to render")
	}

	tree := rtree.NewTree(25, 50)
	for i := range features {
		if features[i].Geom == nil {
			continue
		}
		tree.Insert(&featureEntry{Geom: features[i].Geom, order: i, f: &features[i]})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tileCount, emptyCount, totalBytes atomic.Int64

	for z := cfg.MinZoom; z <= cfg.MaxZoom; z++ {
		tiles := coord.TilesInBounds(z, bounds.Pad(cfg.drawPad(z)))
		coord.SortTilesByHilbert(tiles)
		log := cfg.Log.WithField("zoom", z)
		log.WithField("count", len(tiles)).Debug("rendering zoom level")
		if len(tiles) == 0 {
			continue
		}

		var pb *progressBar
		if cfg.Verbose {
			pb = newProgressBar(cfg.Progress, fmt.Sprintf("z%-2d", z), int64(len(tiles)))
		}

		jobs := make(chan tileJob, cfg.Concurrency*2)
		var wg sync.WaitGroup
		errCh := make(chan error, 1)
		fail := func(err error) {
			select {
			case errCh <- err:
			default:
			}
			cancel()
		}

		for w := 0; w < cfg.Concurrency; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for job := range jobs {
					data, err := renderTile(&cfg, tree, job)
					if err != nil {
						fail(fmt.Errorf("encoding tile z%d/%d/%d: %w", job.Z, job.X, job.Y, err))
						return
					}
					if data == nil {
						emptyCount.Add(1)
						if pb != nil {
							pb.Increment(true)
						}
						continue
					}
					if err := writer.WriteTile(job.Z, job.X, job.Y, data); err != nil {
						fail(fmt.Errorf("writing tile z%d/%d/%d: %w", job.Z, job.X, job.Y, err))
						return
					}
					tileCount.Add(1)
					totalBytes.Add(int64(len(data)))
					if pb != nil {
						pb.Increment(false)
					}
				}
			}()
		}

	feed:
		for _, t := range tiles {
			select {
			case jobs <- tileJob{Z: t[0], X: t[1], Y: t[2]}:
			case <-ctx.Done():
				break feed
			}
		}
		close(jobs)
		wg.Wait()
		if pb != nil {
			pb.Finish()
		}

		select {
		case err := <-errCh:
			return Stats{}, err
		default:
		}
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}

		log.WithField("count", tileCount.Load()).Info("zoom level complete")
	}

	return Stats{
		TileCount:  tileCount.Load(),
		EmptyTiles: emptyCount.Load(),
		TotalBytes: totalBytes.Load(),
	}, nil
}

// drawPad is how far, in degrees of longitude, a marker or line drawn at a
// point can reach at zoom z. A degree of latitude spans more pixels than a
// degree of longitude in Web Mercator, so it also covers latitude.
func (cfg *Config) drawPad(z int) float64 {
	degPerPixel := 360 / (math.Exp2(float64(z)) * float64(cfg.TileSize))
	return (max(cfg.MarkerRadius, cfg.LineWidth/2) + 1) * degPerPixel
}

// renderTile draws the features touching one tile and encodes the result.
// It returns nil data when nothing was drawn.
func renderTile(cfg *Config, tree *rtree.Rtree, job tileJob) ([]byte, error) {
	tb := coord.TileBounds(job.Z, job.X, job.Y).Pad(cfg.drawPad(job.Z))

	hits := tree.SearchIntersect(&geom.Bounds{
		Min: geom.Point{X: tb.MinLon, Y: tb.MinLat},
		Max: geom.Point{X: tb.MaxLon, Y: tb.MaxLat},
	})
	if len(hits) == 0 {
		return nil, nil
	}
	entries := make([]*featureEntry, len(hits))
	for i, h := range hits {
		entries[i] = h.(*featureEntry)
	}
	// Paths below markers, each group in feature order.
	sort.Slice(entries, func(i, j int) bool {
		pi, pj := entries[i].f.IsPath(), entries[j].f.IsPath()
		if pi != pj {
			return pi
		}
		return entries[i].order < entries[j].order
	})

	img := getCanvas(cfg.TileSize, cfg.TileSize)
	defer putCanvas(img)
	cv := &canvas{
		img: img,
		toPixel: func(lon, lat float64) (float64, float64) {
			return coord.TilePixelCoords(lon, lat, job.Z, job.X, job.Y, cfg.TileSize)
		},
	}
	for _, e := range entries {
		fill := cfg.Style.ColorFor(e.f.Kind)
		switch g := e.f.Geom.(type) {
		case geom.MultiLineString:
			cv.polyline(g, cfg.LineWidth, fill)
		case geom.Point:
			cv.marker(g, cfg.MarkerRadius, fill, cfg.Style.Outline)
		}
	}
	if !cv.painted {
		return nil, nil
	}
	return cfg.Encoder.Encode(img)
}
