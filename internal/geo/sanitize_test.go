package geo_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/google/go-cmp/cmp"
)

func decodeGeometry(t *testing.T, raw string) *geo.Geometry {
	t.Helper()
	var g geo.Geometry
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return &g
}

// TestSanitizeGeometry_CoercesStrings accepts comma decimal separators and
// numeric strings.
func TestSanitizeGeometry_CoercesStrings(t *testing.T) {
	g := decodeGeometry(t, `{"type":"Polygon","coordinates":[[["-99,5","19.2"],[-99.4,"19,2"],[-99.4,19.3],[-99.5,19.2]]]}`)
	s, err := geo.SanitizeGeometry(g)
	if err != nil {
		t.Fatalf("SanitizeGeometry: %v", err)
	}
	want := geo.Nest(geo.Ring(
		[2]float64{-99.5, 19.2},
		[2]float64{-99.4, 19.2},
		[2]float64{-99.4, 19.3},
		[2]float64{-99.5, 19.2},
	))
	if diff := cmp.Diff(want, s.Coordinates); diff != "" {
		t.Errorf("coordinates mismatch (-want +got):\n%s", diff)
	}
}

// TestSanitizeGeometry_DropsBadExtraOrdinates keeps lon/lat and finite extras.
func TestSanitizeGeometry_DropsBadExtraOrdinates(t *testing.T) {
	g := decodeGeometry(t, `{"type":"Point","coordinates":[-99.5, 19.2, "x", 2600]}`)
	s, err := geo.SanitizeGeometry(g)
	if err != nil {
		t.Fatalf("SanitizeGeometry: %v", err)
	}
	if diff := cmp.Diff([]float64{-99.5, 19.2, 2600}, s.Coordinates.Position); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
}

// TestSanitizeGeometry_Fails rejects any tree that cannot be fully repaired.
func TestSanitizeGeometry_Fails(t *testing.T) {
	cases := map[string]string{
		"bad lat":        `{"type":"Polygon","coordinates":[[[-99.5,"north"],[-99.4,19.2],[-99.4,19.3]]]}`,
		"short position": `{"type":"LineString","coordinates":[[-99.5],[-99.4,19.2]]}`,
		"empty ring":     `{"type":"Polygon","coordinates":[[]]}`,
		"empty":          `{"type":"MultiPolygon","coordinates":[]}`,
		"missing coords": `{"type":"Polygon"}`,
		"scalar member":  `{"type":"Polygon","coordinates":[[[-99.5,19.2]], 4]}`,
		"unknown type":   `{"type":"Circle","coordinates":[1,2]}`,
		"bad member":     `{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[1,2]},{"type":"Point","coordinates":["a",2]}]}`,
	}
	for name, raw := range cases {
		g := decodeGeometry(t, raw)
		if _, err := geo.SanitizeGeometry(g); !errors.Is(err, geo.ErrSanitize) {
			t.Errorf("%s: expected ErrSanitize, got %v", name, err)
		}
	}
	if _, err := geo.SanitizeGeometry(nil); !errors.Is(err, geo.ErrSanitize) {
		t.Errorf("nil geometry: expected ErrSanitize, got %v", err)
	}
}

// TestSanitizeGeometry_Idempotent checks sanitize(sanitize(g)) == sanitize(g)
// across every supported type.
func TestSanitizeGeometry_Idempotent(t *testing.T) {
	inputs := []string{
		`{"type":"Point","coordinates":["1,5", 2, null]}`,
		`{"type":"MultiPoint","coordinates":[[1,2],[3,4,5]]}`,
		`{"type":"LineString","coordinates":[[1,2],["3","4"]]}`,
		`{"type":"MultiLineString","coordinates":[[[1,2],[3,4]],[[5,6],[7,8]]]}`,
		`{"type":"Polygon","coordinates":[[[-99.5,19.2],[-99.4,19.2],[-99.4,19.3],[-99.5,19.2]]]}`,
		`{"type":"MultiPolygon","coordinates":[[[[-99,19],[-98,19],[-98,20],[-99,19]]],[[[-97,18],[-96,18],[-96,19],[-97,18]]]]}`,
		`{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[1,2]},{"type":"LineString","coordinates":[[1,2],[3,4]]}]}`,
	}
	for _, raw := range inputs {
		once, err := geo.SanitizeGeometry(decodeGeometry(t, raw))
		if err != nil {
			t.Errorf("%s: first pass: %v", raw, err)
			continue
		}
		twice, err := geo.SanitizeGeometry(once)
		if err != nil {
			t.Errorf("%s: second pass: %v", raw, err)
			continue
		}
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("%s: not idempotent (-once +twice):\n%s", raw, diff)
		}
	}
}

// TestSanitizeGeometry_DoesNotAlias makes sure the input is left untouched.
func TestSanitizeGeometry_DoesNotAlias(t *testing.T) {
	g := &geo.Geometry{Type: geo.TypePoint, Coordinates: geo.Pos(1, 2, math.NaN())}
	s, err := geo.SanitizeGeometry(g)
	if err != nil {
		t.Fatalf("SanitizeGeometry: %v", err)
	}
	s.Coordinates.Position[0] = 42
	if g.Coordinates.Position[0] != 1 {
		t.Errorf("sanitized copy aliases the input")
	}
	if len(g.Coordinates.Position) != 3 {
		t.Errorf("input position was modified")
	}
}

// TestSanitizeCollection_FailsOnFirstBadFeature reports the offending feature.
func TestSanitizeCollection_FailsOnFirstBadFeature(t *testing.T) {
	good := geo.NewFeature(geo.Properties{"municipio": "Metepec"}, &geo.Geometry{Type: geo.TypePoint, Coordinates: geo.Pos(-99.6, 19.25)})
	bad := geo.NewFeature(geo.Properties{"municipio": "Lerma"}, &geo.Geometry{Type: geo.TypePoint, Coordinates: geo.Pos(math.NaN(), 19.3)})
	_, err := geo.SanitizeCollection(geo.NewFeatureCollection(good, bad))
	if !errors.Is(err, geo.ErrSanitize) {
		t.Fatalf("expected ErrSanitize, got %v", err)
	}
}

// TestCoordinates_JSONRoundTrip encodes sanitized trees back to plain arrays.
func TestCoordinates_JSONRoundTrip(t *testing.T) {
	g := &geo.Geometry{Type: geo.TypePolygon, Coordinates: geo.Nest(geo.Ring([2]float64{-99.5, 19.2}, [2]float64{-99.4, 19.2}))}
	b, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"type":"Polygon","coordinates":[[[-99.5,19.2],[-99.4,19.2]]]}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}
