package catalog

import "strings"

// Recommended returns the curated tracks as full Track values. Each entry is
// matched against the catalog by asset ID, then by case-insensitive name; a
// match fills X and Y where they are zero and Line where it is empty.
// Unmatched entries keep zero coordinates and have no location.
func (c *Catalog) Recommended() []Track {
	out := make([]Track, 0, len(c.Recommend))
	for _, r := range c.Recommend {
		t := Track{
			AssetID:     r.ID,
			Name:        r.Name,
			Difficulty:  r.Difficulty,
			Duration:    r.Duration,
			Distance:    r.Distance,
			Description: r.Description,
			DocID:       r.DocID,
		}
		if r.Region != "" {
			t.Region = []string{r.Region}
		}
		if full, ok := c.match(r); ok {
			if t.X == 0 {
				t.X = full.X
			}
			if t.Y == 0 {
				t.Y = full.Y
			}
			if len(t.Line) == 0 {
				t.Line = full.Line
			}
		}
		out = append(out, t)
	}
	return out
}

func (c *Catalog) match(r RecommendedTrack) (*Track, bool) {
	if i, ok := c.trackByID[r.ID]; ok {
		return &c.Tracks[i], true
	}
	if i, ok := c.trackByName[strings.ToLower(r.Name)]; ok {
		return &c.Tracks[i], true
	}
	return nil, false
}
