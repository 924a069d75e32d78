package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pspoerri/nzhike/internal/config"
	"github.com/pspoerri/nzhike/internal/encode"
	"github.com/pspoerri/nzhike/internal/overlay"
	"github.com/pspoerri/nzhike/internal/pmtiles"
	"github.com/pspoerri/nzhike/internal/render"
)

func newTilesCmd(a *app) *cobra.Command {
	var (
		minZoom, maxZoom int
		format           string
		quality          int
		tileSize         int
		concurrency      int
		noPaths          bool
		cpuProfile       string
	)
	cmd := &cobra.Command{
		Use:   "tiles OUT.pmtiles",
		Short: "Render the catalog into a PMTiles raster overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := a.cfg.Tiles
			flags := cmd.Flags()
			if flags.Changed("min-zoom") {
				t.MinZoom = minZoom
			}
			if flags.Changed("max-zoom") {
				t.MaxZoom = maxZoom
			}
			if flags.Changed("format") {
				t.Format = format
			}
			if flags.Changed("quality") {
				t.Quality = quality
			}
			if flags.Changed("tile-size") {
				t.TileSize = tileSize
			}
			if flags.Changed("concurrency") {
				t.Concurrency = concurrency
			}
			if noPaths {
				t.Paths = false
			}
			if cpuProfile != "" {
				f, err := os.Create(cpuProfile)
				if err != nil {
					return fmt.Errorf("creating CPU profile: %w", err)
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("starting CPU profile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}
			return a.runTiles(cmd, args[0], t)
		},
	}
	f := cmd.Flags()
	f.IntVar(&minZoom, "min-zoom", 0, "minimum zoom level (config tiles.min_zoom)")
	f.IntVar(&maxZoom, "max-zoom", 0, "maximum zoom level (config tiles.max_zoom)")
	f.StringVar(&format, "format", "", "tile encoding: png, jpeg, webp (config tiles.format)")
	f.IntVar(&quality, "quality", 0, "JPEG/WebP quality 0-100 (config tiles.quality)")
	f.IntVar(&tileSize, "tile-size", 0, "tile size in pixels (config tiles.tile_size)")
	f.IntVar(&concurrency, "concurrency", 0, "number of render workers (config tiles.concurrency)")
	f.BoolVar(&noPaths, "no-paths", false, "draw markers only")
	f.StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to file")
	return cmd
}

func (a *app) runTiles(cmd *cobra.Command, outputPath string, t config.TileConfig) error {
	if t.MinZoom < 0 || t.MinZoom > t.MaxZoom {
		return fmt.Errorf("invalid zoom range %d-%d", t.MinZoom, t.MaxZoom)
	}
	enc, err := encode.NewEncoder(t.Format, t.Quality)
	if err != nil {
		return fmt.Errorf("encoder: %w", err)
	}
	style, err := a.cfg.Style()
	if err != nil {
		return err
	}

	start := time.Now()
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}
	features, fstats := overlay.Build(cat, overlay.Options{Paths: t.Paths, Workers: t.Concurrency})
	bounds := overlay.Bounds(features)
	if bounds.IsEmpty() {
		return fmt.Errorf("catalog in %s has no located places", a.cfg.DataDir)
	}
	a.log.WithFields(logrus.Fields{
		"points":  fstats.Points,
		"paths":   fstats.Paths,
		"skipped": fstats.Skipped,
	}).Info("features built")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "nzhike %s (commit %s, built %s)\n", version, commit, buildDate)
	switch enc.Format() {
	case "jpeg", "webp":
		fmt.Fprintf(out, "  %-14s %s (quality: %d)\n", "Format:", enc.Format(), t.Quality)
	default:
		fmt.Fprintf(out, "  %-14s %s\n", "Format:", enc.Format())
	}
	fmt.Fprintf(out, "  %-14s %dpx\n", "Tile size:", t.TileSize)
	fmt.Fprintf(out, "  %-14s %d - %d\n", "Zoom:", t.MinZoom, t.MaxZoom)
	fmt.Fprintf(out, "  %-14s %d\n", "Concurrency:", t.Concurrency)
	fmt.Fprintf(out, "  %-14s %d points, %d paths\n", "Features:", fstats.Points, fstats.Paths)
	fmt.Fprintf(out, "  %-14s %s\n", "Output:", outputPath)

	writer, err := pmtiles.NewWriter(outputPath, pmtiles.WriterOptions{
		MinZoom:     t.MinZoom,
		MaxZoom:     t.MaxZoom,
		Bounds:      bounds,
		TileFormat:  enc.PMTileType(),
		TileSize:    t.TileSize,
		Name:        a.cfg.Metadata.Name,
		Description: a.cfg.Metadata.Description,
		Attribution: a.cfg.Metadata.Attribution,
		Extra:       map[string]string{"generator": "nzhike " + version},
		TempDir:     filepath.Dir(outputPath),
	})
	if err != nil {
		return fmt.Errorf("creating PMTiles writer: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	genStart := time.Now()
	stats, err := render.Generate(ctx, render.Config{
		MinZoom:      t.MinZoom,
		MaxZoom:      t.MaxZoom,
		TileSize:     t.TileSize,
		Concurrency:  t.Concurrency,
		Verbose:      a.verbose,
		Encoder:      enc,
		Bounds:       bounds,
		Style:        style,
		MarkerRadius: t.MarkerRadius,
		LineWidth:    t.LineWidth,
		Log:          a.log,
		Progress:     cmd.ErrOrStderr(),
	}, features, writer)
	if err != nil {
		writer.Abort()
		return fmt.Errorf("tile generation: %w", err)
	}
	a.log.WithFields(logrus.Fields{
		"tiles":   stats.TileCount,
		"empty":   stats.EmptyTiles,
		"deduped": writer.DedupHits(),
		"elapsed": time.Since(genStart).Round(time.Millisecond).String(),
	}).Info("tiles rendered")

	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("finalizing PMTiles: %w", err)
	}

	fi, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Done: %d tiles, %s, %v -> %s\n",
		stats.TileCount, humanSize(fi.Size()), time.Since(start).Round(time.Millisecond), outputPath)
	return nil
}

func humanSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
