package municipios_test

import (
	"context"
	"errors"
	"testing"

	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/EmpoweredVote/region-map/internal/municipios"
	"github.com/EmpoweredVote/region-map/internal/regions"
	"github.com/google/go-cmp/cmp"
)

func newTestModule(t *testing.T) (*municipios.Module, *fakeRecords, *fakeCatalog) {
	t.Helper()
	recs := &fakeRecords{recs: decodeTestRecords(t)}
	cat := &fakeCatalog{cat: decodeTestCatalog(t)}
	m := municipios.NewModule(recs, cat, municipios.DefaultStyleConfig(), nil)
	return m, recs, cat
}

func featureNames(fs []geo.Feature) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name())
	}
	return out
}

// TestModule_BootstrapOnce loads records a single time.
func TestModule_BootstrapOnce(t *testing.T) {
	m, recs, _ := newTestModule(t)
	ctx := context.Background()

	if m.Bootstrapped() {
		t.Fatal("bootstrapped before Bootstrap")
	}
	for i := 0; i < 3; i++ {
		if err := m.Bootstrap(ctx); err != nil {
			t.Fatalf("Bootstrap: %v", err)
		}
	}
	if recs.calls != 1 {
		t.Errorf("expected 1 record fetch, got %d", recs.calls)
	}
	if !m.Bootstrapped() {
		t.Error("expected bootstrapped")
	}
	if n := len(m.Features()); n != 4 {
		t.Errorf("expected 4 features, got %d", n)
	}
	if n := len(m.Failures()); n != 2 {
		t.Errorf("expected 2 failures, got %d", n)
	}
}

// TestModule_BootstrapRetriesAfterFetchFailure stays empty and retries on
// the next call.
func TestModule_BootstrapRetriesAfterFetchFailure(t *testing.T) {
	m, recs, _ := newTestModule(t)
	ctx := context.Background()
	good := recs.recs
	recs.set(nil, municipios.ErrSourceFetch)

	if err := m.Bootstrap(ctx); !errors.Is(err, municipios.ErrSourceFetch) {
		t.Fatalf("expected ErrSourceFetch, got %v", err)
	}
	if m.Bootstrapped() || len(m.Features()) != 0 {
		t.Fatal("module should stay empty and unbootstrapped")
	}
	// The catalog still loads so colors work once geometry arrives.
	if len(m.Catalog().Regiones) != 2 {
		t.Errorf("expected catalog loaded, got %+v", m.Catalog())
	}

	recs.set(good, nil)
	if err := m.Bootstrap(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !m.Bootstrapped() || len(m.Features()) != 4 {
		t.Errorf("retry did not load features")
	}
}

// TestModule_RefreshRegionsKeepsPreviousOnFailure keeps the last good
// catalog when a refresh fails.
func TestModule_RefreshRegionsKeepsPreviousOnFailure(t *testing.T) {
	m, _, cat := newTestModule(t)
	ctx := context.Background()
	if err := m.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	cat.set(regions.Catalog{}, regions.ErrCatalogFetch)
	if err := m.RefreshRegions(ctx); !errors.Is(err, regions.ErrCatalogFetch) {
		t.Fatalf("expected ErrCatalogFetch, got %v", err)
	}
	if id, ok := m.RegionFor("Toluca"); !ok || id != "1" {
		t.Errorf("lost region mapping after failed refresh: %q %v", id, ok)
	}

	updated := decodeTestCatalog(t)
	updated.MuniToRegion["TOLUCA"] = "2"
	cat.set(updated, nil)
	if err := m.RefreshRegions(ctx); err != nil {
		t.Fatalf("RefreshRegions: %v", err)
	}
	if id, _ := m.RegionFor("Toluca"); id != "2" {
		t.Errorf("expected Toluca in region 2 after refresh, got %q", id)
	}
}

// TestModule_CatalogUnavailableUsesDefaultColor renders without a catalog.
func TestModule_CatalogUnavailableUsesDefaultColor(t *testing.T) {
	recs := &fakeRecords{recs: decodeTestRecords(t)}
	cat := &fakeCatalog{err: regions.ErrCatalogFetch}
	m := municipios.NewModule(recs, cat, municipios.DefaultStyleConfig(), nil)

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	for _, f := range m.Features() {
		if got := m.StyleFor(f, municipios.StyleOptions{}).Color; got != "#0b5ed7" {
			t.Errorf("%s color = %s", f.Name(), got)
		}
	}
}

// TestModule_FeaturesByNames resolves tolerant names and reports misses.
func TestModule_FeaturesByNames(t *testing.T) {
	m, _, _ := newTestModule(t)
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	fs, missing := m.FeaturesByNames([]string{"TOLUCA", "Acambay", "acambay de ruiz castaneda", "Zumpango", " "})
	if diff := cmp.Diff([]string{"Toluca", "Acambay de Ruíz Castañeda"}, featureNames(fs)); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Zumpango"}, missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}

// TestModule_FeaturesForRegion follows catalog membership.
func TestModule_FeaturesForRegion(t *testing.T) {
	m, _, _ := newTestModule(t)
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	fs, missing := m.FeaturesForRegion("2")
	if diff := cmp.Diff([]string{"Texcoco", "Acambay de Ruíz Castañeda"}, featureNames(fs)); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
	if len(missing) != 0 {
		t.Errorf("unexpected missing %v", missing)
	}
}

// TestModule_Lookup explains both resolutions.
func TestModule_Lookup(t *testing.T) {
	m, _, _ := newTestModule(t)
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	got := m.Lookup("Acambay de Ruíz Castañeda")
	if got.GeoKey != "acambay de ruiz castaneda" || got.Fragments != 1 || got.RegionID != "2" ||
		got.Region != "Oriente" || got.Color != "#00ff00" {
		t.Errorf("unexpected lookup %+v", got)
	}
}

// TestModule_Render styles accepted features and isolates bad ones.
func TestModule_Render(t *testing.T) {
	m, _, _ := newTestModule(t)
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	broken := geo.NewFeature(geo.Properties{"municipio": "Roto"}, &geo.Geometry{
		Type:        geo.TypePolygon,
		Coordinates: geo.Nest(geo.Nest()),
	})
	features := append(m.Features(), broken)

	res := m.Render(features, municipios.StyleOptions{HighlightRegionID: "1"})
	if res.Insert.Outcome != geo.PartiallyFailed {
		t.Errorf("outcome = %s", res.Insert.Outcome)
	}
	if diff := cmp.Diff([]string{"Roto"}, res.Insert.Skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	if len(res.Collection.Features) != 4 {
		t.Fatalf("expected 4 rendered features, got %d", len(res.Collection.Features))
	}
	for _, f := range res.Collection.Features {
		style, ok := f.Properties["style"].(municipios.PathStyle)
		if !ok {
			t.Fatalf("%s has no style", f.Name())
		}
		if f.Name() == "Toluca" && (style.Weight != 2.5 || f.Properties["region_id"] != "1") {
			t.Errorf("Toluca not highlighted: %+v", f.Properties)
		}
	}
}
