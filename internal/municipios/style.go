package municipios

import (
	"sort"

	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/EmpoweredVote/region-map/internal/names"
	"github.com/EmpoweredVote/region-map/internal/regions"
)

// StyleOptions carries the map state a style depends on.
type StyleOptions struct {
	HighlightRegionID regions.RegionID
}

// Styler colors features by region membership. It is immutable; a new one
// is built whenever the catalog is reloaded.
type Styler struct {
	cfg          StyleConfig
	muniToRegion map[string]regions.RegionID
	colors       map[regions.RegionID]string
	lookup       *names.Lookup
}

func NewStyler(cfg StyleConfig, cat regions.Catalog) *Styler {
	m := cat.MunicipioRegions()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Fallback matches scan keys in order; sort so they are repeatable.
	sort.Strings(keys)
	return &Styler{
		cfg:          cfg,
		muniToRegion: m,
		colors:       cat.Colors(),
		lookup:       names.NewLookup(keys),
	}
}

// RegionFor resolves a municipality name to its region.
func (s *Styler) RegionFor(name string) (regions.RegionID, names.MatchKind, bool) {
	if s == nil {
		return "", names.NoMatch, false
	}
	k, kind, ok := s.lookup.Resolve(name)
	if !ok {
		return "", names.NoMatch, false
	}
	return s.muniToRegion[k], kind, true
}

// ColorFor is the display color of a region, or the default color.
func (s *Styler) ColorFor(id regions.RegionID) string {
	if s == nil {
		return DefaultStyleConfig().DefaultColor
	}
	if c, ok := s.colors[id]; ok {
		return c
	}
	return s.cfg.DefaultColor
}

// StyleFor returns the path style of f. Features of the highlighted region
// get the heavier highlight stroke and fill.
func (s *Styler) StyleFor(f geo.Feature, opts StyleOptions) PathStyle {
	cfg := DefaultStyleConfig()
	if s != nil {
		cfg = s.cfg
	}
	region, _, ok := s.RegionFor(f.Name())

	style := cfg.Normal
	if ok && opts.HighlightRegionID != "" && region == opts.HighlightRegionID {
		style = cfg.Highlight
	}
	style.Color = cfg.DefaultColor
	if ok {
		style.Color = s.ColorFor(region)
	}
	return style
}
