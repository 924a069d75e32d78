package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Bundle file names.
const (
	TracksFile      = "allTracks.json"
	TracksFallback  = "tracks.json"
	HutsFile        = "allHuts.json"
	CampsitesFile   = "allCampsites.json"
	RecommendedFile = "recommendedTracks.json"
)

// ErrEmptyBundle is returned by Load when none of the bundle files exist.
var ErrEmptyBundle = errors.New("no catalog files found")

// LoadTracks decodes a JSON array of tracks.
func LoadTracks(r io.Reader) ([]Track, error) {
	var v []Track
	return v, decodeArray(r, &v)
}

// LoadHuts decodes a JSON array of huts.
func LoadHuts(r io.Reader) ([]Hut, error) {
	var v []Hut
	return v, decodeArray(r, &v)
}

// LoadCampsites decodes a JSON array of campsites.
func LoadCampsites(r io.Reader) ([]Campsite, error) {
	var v []Campsite
	return v, decodeArray(r, &v)
}

// LoadRecommended decodes a JSON array of recommended tracks.
func LoadRecommended(r io.Reader) ([]RecommendedTrack, error) {
	var v []RecommendedTrack
	return v, decodeArray(r, &v)
}

func decodeArray(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

// Load reads a catalog bundle directory. Missing files are logged and skipped;
// ErrEmptyBundle is returned only when nothing could be loaded. A file that
// exists but does not decode is an error.
func Load(dir string, log logrus.FieldLogger) (*Catalog, error) {
	var (
		tracks      []Track
		huts        []Hut
		campsites   []Campsite
		recommended []RecommendedTrack
		found       int
	)

	load := func(names []string, decode func(io.Reader) (int, error)) error {
		for _, name := range names {
			path := filepath.Join(dir, name)
			n, err := loadFile(path, decode)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return err
			}
			found++
			log.WithFields(logrus.Fields{"file": path, "count": n}).Debug("loaded catalog file")
			return nil
		}
		log.WithField("file", filepath.Join(dir, names[0])).Warn("catalog file missing, skipping")
		return nil
	}

	steps := []struct {
		names  []string
		decode func(io.Reader) (int, error)
	}{
		{[]string{TracksFile, TracksFallback}, func(r io.Reader) (n int, err error) {
			tracks, err = LoadTracks(r)
			return len(tracks), err
		}},
		{[]string{HutsFile}, func(r io.Reader) (n int, err error) {
			huts, err = LoadHuts(r)
			return len(huts), err
		}},
		{[]string{CampsitesFile}, func(r io.Reader) (n int, err error) {
			campsites, err = LoadCampsites(r)
			return len(campsites), err
		}},
		{[]string{RecommendedFile}, func(r io.Reader) (n int, err error) {
			recommended, err = LoadRecommended(r)
			return len(recommended), err
		}},
	}
	for _, s := range steps {
		if err := load(s.names, s.decode); err != nil {
			return nil, err
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("loading catalog from %s: %w", dir, ErrEmptyBundle)
	}

	c := New(tracks, huts, campsites, recommended)
	log.WithFields(logrus.Fields{
		"tracks":      len(tracks),
		"huts":        len(huts),
		"campsites":   len(campsites),
		"recommended": len(recommended),
	}).Info("catalog loaded")
	return c, nil
}

func loadFile(path string, decode func(io.Reader) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := decode(f)
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	return n, nil
}
