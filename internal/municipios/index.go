package municipios

import (
	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/EmpoweredVote/region-map/internal/names"
)

// GeoIndex maps normalized municipality names to their polygon fragments.
type GeoIndex struct {
	byKey  map[string][]geo.Feature
	lookup *names.Lookup
	count  int
}

// NewGeoIndex indexes features by the normalized municipio property.
// Features without a name are left out.
func NewGeoIndex(features []geo.Feature) *GeoIndex {
	ix := &GeoIndex{byKey: make(map[string][]geo.Feature)}
	var keys []string
	for _, f := range features {
		k := names.Key(f.Name())
		if k == "" {
			continue
		}
		if _, ok := ix.byKey[k]; !ok {
			keys = append(keys, k)
		}
		ix.byKey[k] = append(ix.byKey[k], f)
		ix.count++
	}
	ix.lookup = names.NewLookup(keys)
	return ix
}

// Get returns the fragments stored under the exact normalized name.
func (ix *GeoIndex) Get(name string) []geo.Feature {
	if ix == nil {
		return nil
	}
	return ix.byKey[names.Key(name)]
}

// Resolve finds the fragments for name with tolerant matching.
func (ix *GeoIndex) Resolve(name string) (string, names.MatchKind, []geo.Feature) {
	if ix == nil {
		return "", names.NoMatch, nil
	}
	k, kind, ok := ix.lookup.Resolve(name)
	if !ok {
		return "", names.NoMatch, nil
	}
	return k, kind, ix.byKey[k]
}

// Keys lists the indexed names in load order.
func (ix *GeoIndex) Keys() []string {
	if ix == nil {
		return nil
	}
	return ix.lookup.Keys()
}

// Len is the number of distinct municipalities.
func (ix *GeoIndex) Len() int {
	if ix == nil {
		return 0
	}
	return ix.lookup.Len()
}

// FeatureCount is the number of indexed fragments.
func (ix *GeoIndex) FeatureCount() int {
	if ix == nil {
		return 0
	}
	return ix.count
}
