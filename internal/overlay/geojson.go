package overlay

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
)

type jsonFeature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id,omitempty"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

type jsonCollection struct {
	Type     string         `json:"type"`
	Features []*jsonFeature `json:"features"`
}

// WriteGeoJSON writes features as a GeoJSON FeatureCollection with
// [longitude, latitude] positions.
func WriteGeoJSON(w io.Writer, features []Feature) error {
	out := jsonCollection{Type: "FeatureCollection", Features: make([]*jsonFeature, 0, len(features))}
	for i := range features {
		f := &features[i]
		g, err := toGeometry(f.Geom)
		if err != nil {
			return fmt.Errorf("encoding feature %s %q: %w", f.Kind, f.Name, err)
		}
		props := map[string]string{
			"id":   f.ID,
			"kind": f.Kind.String(),
			"name": f.Name,
		}
		if f.Region != "" {
			props["region"] = f.Region
		}
		if f.Status != "" {
			props["status"] = f.Status
		}
		out.Features = append(out.Features, &jsonFeature{
			Type:       "Feature",
			ID:         f.Kind.String() + "/" + f.ID,
			Geometry:   g,
			Properties: props,
		})
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing GeoJSON: %w", err)
	}
	return nil
}

// toGeometry extends geojson.ToGeoJSON with MultiLineString, which it lacks.
func toGeometry(g geom.Geom) (*geojson.Geometry, error) {
	ml, ok := g.(geom.MultiLineString)
	if !ok {
		return geojson.ToGeoJSON(g)
	}
	coords := make([][][]float64, len(ml))
	for i, ls := range ml {
		coords[i] = make([][]float64, len(ls))
		for j, p := range ls {
			coords[i][j] = []float64{p.X, p.Y}
		}
	}
	return &geojson.Geometry{Type: "MultiLineString", Coordinates: coords}, nil
}
