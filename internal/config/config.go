// Package config loads nzhike settings from a TOML file.
package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pspoerri/nzhike/internal/encode"
	"github.com/pspoerri/nzhike/internal/render"
)

// Config is the full set of settings. Command-line flags override it.
type Config struct {
	// DataDir holds the catalog JSON bundle. Environment variables are expanded.
	DataDir string `toml:"data_dir"`

	Log      LogConfig      `toml:"log"`
	Tiles    TileConfig     `toml:"tiles"`
	Colors   ColorConfig    `toml:"colors"`
	Metadata MetadataConfig `toml:"metadata"`
	Near     NearConfig     `toml:"near"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

type TileConfig struct {
	MinZoom     int    `toml:"min_zoom"`
	MaxZoom     int    `toml:"max_zoom"`
	Format      string `toml:"format"`
	Quality     int    `toml:"quality"`
	TileSize    int    `toml:"tile_size"`
	Concurrency int    `toml:"concurrency"`
	// Paths draws track lines in addition to markers.
	Paths        bool    `toml:"paths"`
	MarkerRadius float64 `toml:"marker_radius"`
	LineWidth    float64 `toml:"line_width"`
}

// ColorConfig holds "#rrggbb" or "#rrggbbaa" colours per record kind.
type ColorConfig struct {
	Track    string `toml:"track"`
	Hut      string `toml:"hut"`
	Campsite string `toml:"campsite"`
	Outline  string `toml:"outline"`
}

// MetadataConfig fills the PMTiles archive metadata.
type MetadataConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Attribution string `toml:"attribution"`
}

type NearConfig struct {
	K        int     `toml:"k"`
	RadiusKm float64 `toml:"radius_km"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DataDir: "data",
		Log:     LogConfig{Level: "info", Format: "text"},
		Tiles: TileConfig{
			MinZoom:      5,
			MaxZoom:      12,
			Format:       "png",
			Quality:      encode.DefaultQuality,
			TileSize:     256,
			Concurrency:  runtime.NumCPU(),
			Paths:        true,
			MarkerRadius: 5,
			LineWidth:    2,
		},
		Colors: ColorConfig{
			Track:    "#2e7d32",
			Hut:      "#1565c0",
			Campsite: "#ef6c00",
			Outline:  "#ffffff",
		},
		Metadata: MetadataConfig{
			Name:        "nzhike",
			Description: "DOC tracks, huts and campsites",
			Attribution: "Department of Conservation (CC BY 4.0)",
		},
		Near: NearConfig{K: 5, RadiusKm: 25},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}
	cfg.DataDir = os.ExpandEnv(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks value ranges and that colours and formats parse.
func (c *Config) Validate() error {
	t := c.Tiles
	if t.MinZoom < 0 || t.MaxZoom > 24 || t.MinZoom > t.MaxZoom {
		return fmt.Errorf("tiles: invalid zoom range %d-%d", t.MinZoom, t.MaxZoom)
	}
	if t.TileSize <= 0 {
		return fmt.Errorf("tiles: invalid tile_size %d", t.TileSize)
	}
	if _, err := encode.NewEncoder(t.Format, t.Quality); err != nil {
		return fmt.Errorf("tiles: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}
	if c.Near.K <= 0 || c.Near.RadiusKm <= 0 {
		return fmt.Errorf("near: k and radius_km must be positive")
	}
	if _, err := c.Style(); err != nil {
		return err
	}
	return nil
}

// Style converts the configured colours for the renderer.
func (c *Config) Style() (render.Style, error) {
	var (
		s   render.Style
		err error
	)
	if s.Track, err = render.ParseColor(c.Colors.Track); err != nil {
		return s, fmt.Errorf("colors.track: %w", err)
	}
	if s.Hut, err = render.ParseColor(c.Colors.Hut); err != nil {
		return s, fmt.Errorf("colors.hut: %w", err)
	}
	if s.Campsite, err = render.ParseColor(c.Colors.Campsite); err != nil {
		return s, fmt.Errorf("colors.campsite: %w", err)
	}
	if c.Colors.Outline != "" {
		if s.Outline, err = render.ParseColor(c.Colors.Outline); err != nil {
			return s, fmt.Errorf("colors.outline: %w", err)
		}
	}
	return s, nil
}
