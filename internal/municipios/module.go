package municipios

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/EmpoweredVote/region-map/internal/metrics"
	"github.com/EmpoweredVote/region-map/internal/names"
	"github.com/EmpoweredVote/region-map/internal/regions"
)

// Module holds the loaded municipality geometry and the region styling
// derived from the catalog. Records are loaded once; only the catalog is
// refreshed afterwards.
type Module struct {
	records RecordSource
	catalog regions.Source
	cache   *FeatureCache
	style   StyleConfig

	// loadMu serializes Bootstrap and RefreshRegions so fetches never run
	// under mu.
	loadMu sync.Mutex

	mu           sync.RWMutex
	bootstrapped bool
	features     []geo.Feature
	index        *GeoIndex
	failures     []Failure
	cat          regions.Catalog
	styler       *Styler
}

// NewModule wires a module. catalog and cache may be nil: without a catalog
// every polygon gets the default color, without a cache records are always
// fetched.
func NewModule(records RecordSource, catalog regions.Source, style StyleConfig, cache *FeatureCache) *Module {
	return &Module{
		records: records,
		catalog: catalog,
		cache:   cache,
		style:   style,
		index:   NewGeoIndex(nil),
		styler:  NewStyler(style, regions.Catalog{}),
	}
}

// Bootstrapped reports whether the records have been loaded.
func (m *Module) Bootstrapped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bootstrapped
}

// Bootstrap loads and indexes the records, then the region catalog. It is a
// no-op once it has succeeded. When the records cannot be fetched the module
// stays empty and unbootstrapped so a later call retries; the error is
// returned for logging only.
func (m *Module) Bootstrap(ctx context.Context) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if m.Bootstrapped() {
		return nil
	}

	features, failures, err := m.loadFeatures(ctx)
	if err != nil {
		log.Printf("[municipios] WARN records unavailable, map stays empty: %v", err)
		if cerr := m.refreshRegionsLocked(ctx); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}

	ix := NewGeoIndex(features)
	m.mu.Lock()
	m.features = features
	m.failures = failures
	m.index = ix
	m.bootstrapped = true
	m.mu.Unlock()

	metrics.FeaturesLoaded.Set(float64(len(features)))
	log.Printf("[municipios] loaded %d features for %d municipios (%d skipped) from %s",
		len(features), ix.Len(), len(failures), m.records.Name())

	if err := m.refreshRegionsLocked(ctx); err != nil {
		log.Printf("[municipios] WARN region catalog unavailable, using default colors: %v", err)
	}
	return nil
}

func (m *Module) loadFeatures(ctx context.Context) ([]geo.Feature, []Failure, error) {
	if m.records == nil {
		return nil, nil, ErrSourceFetch
	}
	source := m.records.Name()

	if m.cache != nil {
		features, failures, ok, err := m.cache.Load(ctx, source)
		if err != nil {
			log.Printf("[municipios] cache read failed: %v", err)
		}
		if ok {
			log.Printf("[municipios] cache hit for %s", source)
			return features, failures, nil
		}
	}

	recs, err := m.records.Records(ctx)
	if err != nil {
		return nil, nil, err
	}
	features, failures := NormalizeRecords(recs)

	if m.cache != nil {
		if err := m.cache.Store(ctx, source, features, failures); err != nil {
			log.Printf("[municipios] cache write failed: %v", err)
		}
	}
	return features, failures, nil
}

// RefreshRegions reloads the region catalog and rebuilds the styler. On
// failure the previous maps stay in place.
func (m *Module) RefreshRegions(ctx context.Context) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	return m.refreshRegionsLocked(ctx)
}

func (m *Module) refreshRegionsLocked(ctx context.Context) error {
	if m.catalog == nil {
		return nil
	}
	cat, err := m.catalog.FetchCatalog(ctx)
	if err != nil {
		metrics.NetworkFailuresTotal.WithLabelValues("catalog").Inc()
		return err
	}
	styler := NewStyler(m.style, cat)

	m.mu.Lock()
	m.cat = cat
	m.styler = styler
	m.mu.Unlock()

	log.Printf("[municipios] region catalog loaded: %d regiones, %d municipios mapped",
		len(cat.Regiones), len(styler.muniToRegion))
	return nil
}

// Features returns every loaded fragment.
func (m *Module) Features() []geo.Feature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]geo.Feature(nil), m.features...)
}

// Failures returns the records skipped during the last load.
func (m *Module) Failures() []Failure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Failure(nil), m.failures...)
}

// Catalog returns the region catalog currently in use.
func (m *Module) Catalog() regions.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cat
}

// FeaturesByNames resolves each name to its fragments with tolerant
// matching. Names that match nothing are returned as missing. A municipality
// reached by several names is included once.
func (m *Module) FeaturesByNames(list []string) ([]geo.Feature, []string) {
	m.mu.RLock()
	ix := m.index
	m.mu.RUnlock()

	var out []geo.Feature
	var missing []string
	seen := map[string]bool{}
	for _, name := range list {
		k, _, fs := ix.Resolve(name)
		if len(fs) == 0 {
			if names.Key(name) != "" {
				missing = append(missing, name)
			}
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, fs...)
	}
	return out, missing
}

// FeaturesForRegion returns the fragments of every municipality the catalog
// assigns to id.
func (m *Module) FeaturesForRegion(id regions.RegionID) ([]geo.Feature, []string) {
	return m.FeaturesByNames(m.Catalog().MunicipiosFor(id))
}

// RegionFor resolves a municipality name to its region.
func (m *Module) RegionFor(name string) (regions.RegionID, bool) {
	m.mu.RLock()
	s := m.styler
	m.mu.RUnlock()
	id, _, ok := s.RegionFor(name)
	return id, ok
}

// StyleFor styles f against the current catalog.
func (m *Module) StyleFor(f geo.Feature, opts StyleOptions) PathStyle {
	m.mu.RLock()
	s := m.styler
	m.mu.RUnlock()
	return s.StyleFor(f, opts)
}

// LookupResult explains how a name resolves against the geometry and the
// catalog.
type LookupResult struct {
	Name        string           `json:"name"`
	Key         string           `json:"key"`
	GeoKey      string           `json:"geo_key,omitempty"`
	GeoMatch    names.MatchKind  `json:"geo_match"`
	Fragments   int              `json:"fragments"`
	RegionID    regions.RegionID `json:"region_id,omitempty"`
	RegionMatch names.MatchKind  `json:"region_match"`
	Region      string           `json:"region,omitempty"`
	Color       string           `json:"color"`
}

// Lookup reports how name resolves.
func (m *Module) Lookup(name string) LookupResult {
	m.mu.RLock()
	ix, s, cat := m.index, m.styler, m.cat
	m.mu.RUnlock()

	res := LookupResult{Name: name, Key: names.Key(name)}
	gk, gkind, fs := ix.Resolve(name)
	res.GeoKey, res.GeoMatch, res.Fragments = gk, gkind, len(fs)

	rid, rkind, ok := s.RegionFor(name)
	res.RegionMatch = rkind
	res.Color = s.ColorFor("")
	if ok {
		res.RegionID = rid
		res.Color = s.ColorFor(rid)
		if reg, found := cat.Region(rid); found {
			res.Region = reg.Nombre
		}
	}
	return res
}

// RenderResult is a styled collection ready for a map plus the insert
// diagnostics.
type RenderResult struct {
	Collection geo.FeatureCollection `json:"collection"`
	Insert     geo.InsertResult      `json:"insert"`
	Missing    []string              `json:"missing,omitempty"`
}

// Render inserts features into a fresh strict layer and attaches the region
// id and style of each accepted feature to its properties.
func (m *Module) Render(features []geo.Feature, opts StyleOptions) RenderResult {
	m.mu.RLock()
	s := m.styler
	m.mu.RUnlock()

	layer := geo.NewMemoryLayer()
	res := geo.SafeInsert(layer, geo.NewFeatureCollection(features...))

	added := layer.Features()
	styled := make([]geo.Feature, 0, len(added))
	for _, f := range added {
		props := f.Properties.Clone()
		if rid, _, ok := s.RegionFor(f.Name()); ok {
			props["region_id"] = string(rid)
		}
		props["style"] = s.StyleFor(f, opts)
		styled = append(styled, geo.NewFeature(props, f.Geometry))
	}
	return RenderResult{Collection: geo.NewFeatureCollection(styled...), Insert: res}
}
