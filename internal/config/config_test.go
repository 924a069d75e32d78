package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nzhike.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 5, cfg.Tiles.MinZoom)
	assert.Equal(t, 12, cfg.Tiles.MaxZoom)
	assert.Equal(t, "png", cfg.Tiles.Format)
	assert.True(t, cfg.Tiles.Paths)
	assert.Positive(t, cfg.Tiles.Concurrency)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Setenv("NZHIKE_TEST_DATA", "/srv/doc")
	path := writeConfig(t, `
data_dir = "$NZHIKE_TEST_DATA/bundle"

[log]
format = "json"

[tiles]
max_zoom = 14
format = "webp"
quality = 70
paths = false

[colors]
hut = "#ff0000"

[metadata]
name = "Canterbury huts"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/doc/bundle", cfg.DataDir)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Tiles.MinZoom, "unset keys keep defaults")
	assert.Equal(t, 14, cfg.Tiles.MaxZoom)
	assert.Equal(t, "webp", cfg.Tiles.Format)
	assert.Equal(t, 70, cfg.Tiles.Quality)
	assert.False(t, cfg.Tiles.Paths)
	assert.Equal(t, "Canterbury huts", cfg.Metadata.Name)
	assert.Equal(t, "Department of Conservation (CC BY 4.0)", cfg.Metadata.Attribution)

	style, err := cfg.Style()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, style.Hut)
	assert.Equal(t, color.RGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}, style.Track)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "data_dir = "},
		{"unknown key", "[tiles]\nmax_zom = 3\n"},
		{"inverted zooms", "[tiles]\nmin_zoom = 10\nmax_zoom = 4\n"},
		{"bad format", "[tiles]\nformat = \"gif\"\n"},
		{"bad quality", "[tiles]\nquality = 120\n"},
		{"bad colour", "[colors]\ntrack = \"green\"\n"},
		{"bad log format", "[log]\nformat = \"xml\"\n"},
		{"bad near", "[near]\nk = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStyle_OutlineOptional(t *testing.T) {
	cfg := Default()
	cfg.Colors.Outline = ""
	style, err := cfg.Style()
	require.NoError(t, err)
	assert.Zero(t, style.Outline)
}
