// Package catalog loads the DOC track, hut and campsite catalog and exposes
// its records with WGS84 locations.
package catalog

import (
	"strconv"
	"strings"
)

// Kind identifies the record type behind a Place.
type Kind int

const (
	KindTrack Kind = iota
	KindHut
	KindCampsite
)

var kindNames = [...]string{"track", "hut", "campsite"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind accepts the singular or plural kind name, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for i, n := range kindNames {
		if s == n {
			return Kind(i), true
		}
	}
	return 0, false
}

// Track is one entry of allTracks.json. X and Y hold the track's reference
// point; Line holds its path as a list of parts, each a list of [x, y] vertices.
type Track struct {
	AssetID     string        `json:"assetId"`
	Name        string        `json:"name"`
	Region      []string      `json:"region"`
	X           float64       `json:"x"`
	Y           float64       `json:"y"`
	Line        [][][]float64 `json:"line"`
	Difficulty  string        `json:"difficulty,omitempty"`
	Duration    string        `json:"duration,omitempty"`
	Distance    string        `json:"distance,omitempty"`
	Description string        `json:"description,omitempty"`
	DocID       string        `json:"doc_id,omitempty"`
}

// Hut is one entry of allHuts.json.
type Hut struct {
	AssetID int     `json:"assetId"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Region  *string `json:"region"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Campsite is one entry of allCampsites.json.
type Campsite struct {
	AssetID int     `json:"assetId"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Region  *string `json:"region"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// RecommendedTrack is one curated entry of recommendedTracks.json. It carries
// no coordinates; see Catalog.Recommended.
type RecommendedTrack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Region      string `json:"region"`
	Difficulty  string `json:"difficulty"`
	Duration    string `json:"duration"`
	Distance    string `json:"distance"`
	Description string `json:"description"`
	ImageName   string `json:"image_name"`
	DocID       string `json:"doc_id,omitempty"`
}

// Catalog holds every record of one bundle.
type Catalog struct {
	Tracks      []Track
	Huts        []Hut
	Campsites   []Campsite
	Recommend   []RecommendedTrack
	trackByID   map[string]int
	trackByName map[string]int
}

// New builds a Catalog from already decoded records.
func New(tracks []Track, huts []Hut, campsites []Campsite, recommended []RecommendedTrack) *Catalog {
	c := &Catalog{
		Tracks:      tracks,
		Huts:        huts,
		Campsites:   campsites,
		Recommend:   recommended,
		trackByID:   make(map[string]int, len(tracks)),
		trackByName: make(map[string]int, len(tracks)),
	}
	for i := range tracks {
		// First occurrence wins for both keys.
		if _, ok := c.trackByID[tracks[i].AssetID]; !ok {
			c.trackByID[tracks[i].AssetID] = i
		}
		name := strings.ToLower(tracks[i].Name)
		if _, ok := c.trackByName[name]; !ok {
			c.trackByName[name] = i
		}
	}
	return c
}

// Len returns the total number of tracks, huts and campsites.
func (c *Catalog) Len() int {
	return len(c.Tracks) + len(c.Huts) + len(c.Campsites)
}

// Track returns the track with the given asset ID.
func (c *Catalog) Track(id string) (*Track, bool) {
	i, ok := c.trackByID[id]
	if !ok {
		return nil, false
	}
	return &c.Tracks[i], true
}

// Place is a uniform view over tracks, huts and campsites.
type Place struct {
	Kind        Kind
	ID          string
	Name        string
	Regions     []string
	Status      string
	Description string
	X, Y        float64

	track *Track
}

// Track returns the underlying track for KindTrack places.
func (p *Place) Track() *Track {
	return p.track
}

// Places returns every record as a Place, tracks first, then huts, then campsites.
func (c *Catalog) Places() []Place {
	out := make([]Place, 0, c.Len())
	for i := range c.Tracks {
		out = append(out, c.Tracks[i].Place())
	}
	for _, h := range c.Huts {
		out = append(out, Place{
			Kind:    KindHut,
			ID:      strconv.Itoa(h.AssetID),
			Name:    h.Name,
			Regions: optionalRegion(h.Region),
			Status:  h.Status,
			X:       h.X,
			Y:       h.Y,
		})
	}
	for _, s := range c.Campsites {
		out = append(out, Place{
			Kind:    KindCampsite,
			ID:      strconv.Itoa(s.AssetID),
			Name:    s.Name,
			Regions: optionalRegion(s.Region),
			Status:  s.Status,
			X:       s.X,
			Y:       s.Y,
		})
	}
	return out
}

// Place returns the track as a Place.
func (t *Track) Place() Place {
	return Place{
		Kind:        KindTrack,
		ID:          t.AssetID,
		Name:        t.Name,
		Regions:     t.Region,
		Description: t.Description,
		X:           t.X,
		Y:           t.Y,
		track:       t,
	}
}

func optionalRegion(r *string) []string {
	if r == nil || *r == "" {
		return nil
	}
	return []string{*r}
}
