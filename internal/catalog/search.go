package catalog

import (
	"slices"
	"sort"
	"strings"
)

// Search returns the places whose name, any region, or (for tracks)
// description contains query, ignoring case. An empty query matches
// everything. When kinds is non-empty only those kinds are returned.
// Results are ordered by kind, then by name.
func (c *Catalog) Search(query string, kinds ...Kind) []Place {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Place
	for _, p := range c.Places() {
		if len(kinds) > 0 && !slices.Contains(kinds, p.Kind) {
			continue
		}
		if q == "" || p.matches(q) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (p *Place) matches(q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	for _, r := range p.Regions {
		if strings.Contains(strings.ToLower(r), q) {
			return true
		}
	}
	return p.Kind == KindTrack && strings.Contains(strings.ToLower(p.Description), q)
}
