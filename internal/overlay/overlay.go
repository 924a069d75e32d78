// Package overlay turns catalog records into WGS84 map features.
package overlay

import (
	"slices"
	"strings"

	"github.com/ctessum/geom"

	"github.com/pspoerri/nzhike/internal/catalog"
	"github.com/pspoerri/nzhike/internal/coord"
)

// Feature is one drawable map object. Geom is a geom.Point or a
// geom.MultiLineString with X = longitude and Y = latitude.
type Feature struct {
	ID     string
	Kind   catalog.Kind
	Name   string
	Region string
	Status string
	Geom   geom.Geom
}

// IsPath reports whether the feature is a track line.
func (f *Feature) IsPath() bool {
	_, ok := f.Geom.(geom.MultiLineString)
	return ok
}

// Options controls Build.
type Options struct {
	// Kinds restricts the output to these record kinds. Empty means all.
	Kinds []catalog.Kind
	// Paths adds one MultiLineString feature per track with a path.
	Paths bool
	// Workers converts track paths concurrently. <= 0 uses GOMAXPROCS.
	Workers int
}

func (o Options) wants(k catalog.Kind) bool {
	return len(o.Kinds) == 0 || slices.Contains(o.Kinds, k)
}

// Stats counts what Build produced.
type Stats struct {
	Points  int
	Paths   int
	Skipped int // records without a location
}

// Build returns one point feature per located place and, with opts.Paths,
// one path feature per track whose line has at least one vertex. Points come
// first in catalog order, then paths.
func Build(cat *catalog.Catalog, opts Options) ([]Feature, Stats) {
	var (
		features []Feature
		stats    Stats
	)
	for _, p := range cat.Places() {
		if !opts.wants(p.Kind) {
			continue
		}
		lat, lon, ok := p.Location()
		if !ok {
			stats.Skipped++
			continue
		}
		f := newFeature(p)
		f.Geom = geom.Point{X: lon, Y: lat}
		features = append(features, f)
		stats.Points++
	}

	if !opts.Paths || !opts.wants(catalog.KindTrack) {
		return features, stats
	}
	paths := catalog.ConvertPaths(cat.Tracks, opts.Workers)
	for i, parts := range paths {
		if len(parts) == 0 {
			continue
		}
		ml := make(geom.MultiLineString, 0, len(parts))
		for _, part := range parts {
			ls := make(geom.LineString, len(part))
			for j, v := range part {
				ls[j] = geom.Point{X: v[1], Y: v[0]}
			}
			ml = append(ml, ls)
		}
		f := newFeature(cat.Tracks[i].Place())
		f.Geom = ml
		features = append(features, f)
		stats.Paths++
	}
	return features, stats
}

func newFeature(p catalog.Place) Feature {
	return Feature{
		ID:     p.ID,
		Kind:   p.Kind,
		Name:   p.Name,
		Region: strings.Join(p.Regions, ", "),
		Status: p.Status,
	}
}

// Bounds returns the extent of all features. Features without geometry are
// ignored; the result is empty when nothing has one.
func Bounds(features []Feature) coord.Bounds {
	b := coord.EmptyBounds()
	for i := range features {
		if features[i].Geom == nil {
			continue
		}
		gb := features[i].Geom.Bounds()
		if gb == nil || gb.Empty() {
			continue
		}
		b.Extend(gb.Min.X, gb.Min.Y)
		b.Extend(gb.Max.X, gb.Max.Y)
	}
	return b
}
