package regions_test

import (
	"strings"
	"testing"

	"github.com/EmpoweredVote/region-map/internal/regions"
	"github.com/google/go-cmp/cmp"
)

// TestReadSeedCSV groups rows by region and dedupes municipalities.
func TestReadSeedCSV(t *testing.T) {
	in := `region,color,municipio
Valle de Toluca,,Toluca
Valle de Toluca,#ff0000,Metepec
Oriente,#00ff00,Texcoco
Valle de Toluca,,METEPEC
Oriente,,
`
	got, err := regions.ReadSeedCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadSeedCSV: %v", err)
	}
	want := []regions.RegionSeed{
		{Nombre: "Valle de Toluca", Color: "#ff0000", Municipios: []string{"Metepec", "Toluca"}},
		{Nombre: "Oriente", Color: "#00ff00", Municipios: []string{"Texcoco"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("seeds mismatch (-want +got):\n%s", diff)
	}
}

// TestReadSeedCSV_Rejects covers the invalid inputs.
func TestReadSeedCSV_Rejects(t *testing.T) {
	cases := map[string]string{
		"no header":      ``,
		"missing column": "region,color\nA,#fff\n",
		"no rows":        "region,municipio\n",
		"empty region":   "region,municipio\n,Toluca\n",
		"two regions":    "region,municipio\nA,Toluca\nB,toluca\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := regions.ReadSeedCSV(strings.NewReader(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
