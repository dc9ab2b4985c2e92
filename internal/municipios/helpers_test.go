package municipios_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/EmpoweredVote/region-map/internal/municipios"
	"github.com/EmpoweredVote/region-map/internal/regions"
)

const recordsJSON = `[
	{"municipio": "Toluca", "cve_entidad": "15", "cve_municipio": 106,
	 "poligono": "SRID=4326;POLYGON((-99.7 19.2, -99.6 19.2, -99.6 19.3, -99.7 19.2))"},
	{"Municipio": "Metepec",
	 "geometry": {"type": "Polygon", "coordinates": [[["-99,6","19,2"],[-99.5,19.2],[-99.5,19.3],["-99,6","19,2"]]]}},
	{"nombre": "Acambay de Ruíz Castañeda",
	 "POLIGONO": "MULTIPOLYGON(((-99.9 19.9, -99.8 19.9, -99.8 20.0, -99.9 19.9)),((-99.7 19.9, -99.6 19.9, -99.6 20.0, -99.7 19.9)))"},
	{"municipio": "Texcoco", "wkt": "POLYGON((19.5 -98.9, 19.5 -98.8, 19.6 -98.8, 19.5 -98.9))"},
	{"municipio": "Chalco", "poligono": "POLYGON((garbage))"},
	{"municipio": "Sin Geometria"}
]`

const catalogJSON = `{
	"ok": true,
	"regiones": [
		{"id": 1, "nombre": "Valle de Toluca", "color": "#ff0000"},
		{"id": 2, "nombre": "Oriente", "color": "#00ff00"}
	],
	"muni_to_region": {"TOLUCA": 1, "Metepec": 1, "acambay de ruiz castaneda": 2},
	"region_municipios": [{"municipio": "Texcoco", "region_id": 2}]
}`

func decodeTestRecords(t *testing.T) []municipios.Record {
	t.Helper()
	recs, err := municipios.DecodeRecords(strings.NewReader(recordsJSON))
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	return recs
}

func decodeTestCatalog(t *testing.T) regions.Catalog {
	t.Helper()
	cat, err := regions.DecodeCatalog(strings.NewReader(catalogJSON))
	if err != nil {
		t.Fatalf("DecodeCatalog: %v", err)
	}
	return cat
}

// fakeRecords is a RecordSource whose result can be changed between calls.
type fakeRecords struct {
	mu    sync.Mutex
	recs  []municipios.Record
	err   error
	calls int
}

func (f *fakeRecords) Name() string { return "fake" }

func (f *fakeRecords) Records(ctx context.Context) ([]municipios.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

func (f *fakeRecords) set(recs []municipios.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs, f.err = recs, err
}

// fakeCatalog is a regions.Source whose result can be changed between calls.
type fakeCatalog struct {
	mu  sync.Mutex
	cat regions.Catalog
	err error
}

func (f *fakeCatalog) FetchCatalog(ctx context.Context) (regions.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cat, f.err
}

func (f *fakeCatalog) set(cat regions.Catalog, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cat, f.err = cat, err
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
