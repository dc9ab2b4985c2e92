package regions_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/EmpoweredVote/region-map/internal/regions"
	"github.com/google/go-cmp/cmp"
)

const sampleCatalog = `{
	"ok": true,
	"regiones": [
		{"id": 1, "nombre": "Valle de Toluca", "color": "#ff0000"},
		{"id": "2", "nombre": "Oriente", "color": "  "}
	],
	"muni_to_region": {"Toluca": 1, "Metepec": "1", "Texcoco": 2},
	"region_municipios": [
		{"municipio": "METEPEC", "region_id": 2},
		{"municipio": "Chalco", "region_id": "2"}
	]
}`

// TestDecodeCatalog_MixedIDTypes verifies that numeric and string ids decode
// to the same canonical form.
func TestDecodeCatalog_MixedIDTypes(t *testing.T) {
	cat, err := regions.DecodeCatalog(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !cat.OK {
		t.Error("expected ok=true")
	}
	if got := cat.Regiones[0].ID; got != "1" {
		t.Errorf("regiones[0].id = %q, want \"1\"", got)
	}
	if got := cat.Regiones[1].ID; got != "2" {
		t.Errorf("regiones[1].id = %q, want \"2\"", got)
	}
	if got := cat.MuniToRegion["Metepec"]; got != "1" {
		t.Errorf("muni_to_region[Metepec] = %q, want \"1\"", got)
	}
}

// TestDecodeCatalog_Rejects verifies that payloads outside the contract fail
// with ErrCatalogFetch.
func TestDecodeCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":     `<html>`,
		"array":        `[1, 2]`,
		"empty object": `{}`,
		"missing id":   `{"regiones": [{"nombre": "X"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := regions.DecodeCatalog(strings.NewReader(body))
			if !errors.Is(err, regions.ErrCatalogFetch) {
				t.Fatalf("expected ErrCatalogFetch, got %v", err)
			}
		})
	}
}

// TestCatalog_MunicipioRegions verifies key normalization and that explicit
// region_municipios rows override the muni_to_region map.
func TestCatalog_MunicipioRegions(t *testing.T) {
	cat, err := regions.DecodeCatalog(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]regions.RegionID{
		"toluca":  "1",
		"metepec": "2",
		"texcoco": "2",
		"chalco":  "2",
	}
	if diff := cmp.Diff(want, cat.MunicipioRegions()); diff != "" {
		t.Errorf("MunicipioRegions mismatch (-want +got):\n%s", diff)
	}
}

// TestCatalog_Colors verifies that blank colors are left out.
func TestCatalog_Colors(t *testing.T) {
	cat, err := regions.DecodeCatalog(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[regions.RegionID]string{"1": "#ff0000"}
	if diff := cmp.Diff(want, cat.Colors()); diff != "" {
		t.Errorf("Colors mismatch (-want +got):\n%s", diff)
	}
}

// TestCatalog_MunicipiosFor verifies dedup by normalized name and sorting.
func TestCatalog_MunicipiosFor(t *testing.T) {
	cat, err := regions.DecodeCatalog(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := cat.MunicipiosFor("2")
	want := []string{"Chalco", "METEPEC", "Texcoco"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MunicipiosFor mismatch (-want +got):\n%s", diff)
	}
	if _, ok := cat.Region("9"); ok {
		t.Error("expected unknown region to be missing")
	}
}
