package municipios

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/EmpoweredVote/region-map/internal/metrics"
)

var (
	errNoName     = errors.New("record has no municipio")
	errNoGeometry = errors.New("record has neither geometry nor poligono")
	errNotPolygon = errors.New("geometry is not a Polygon or MultiPolygon")
)

// rawSnippetLen caps the offending value kept in a Failure.
const rawSnippetLen = 160

// Failure describes a record that was skipped during normalization.
type Failure struct {
	Municipio string `json:"municipio"`
	Raw       string `json:"raw,omitempty"`
	Err       string `json:"error"`
}

// NormalizeRecord turns a raw record into a clean Polygon or MultiPolygon
// feature. The geometry is taken from, in order: the geometry member, a
// GeoJSON object in poligono, JSON text in poligono, WKT in poligono. The
// coordinates are sanitized before the axis order is checked.
func NormalizeRecord(rec Record) (geo.Feature, error) {
	if rec.Municipio == "" {
		return geo.Feature{}, fmt.Errorf("%w: %v", geo.ErrParse, errNoName)
	}
	g, err := recordGeometry(rec)
	if err != nil {
		metrics.ParseFailuresTotal.Inc()
		return geo.Feature{}, err
	}
	if g.Type != geo.TypePolygon && g.Type != geo.TypeMultiPolygon {
		metrics.ParseFailuresTotal.Inc()
		return geo.Feature{}, fmt.Errorf("%w: %v (%s)", geo.ErrParse, errNotPolygon, g.Type)
	}

	clean, err := geo.SanitizeGeometry(g)
	if err != nil {
		metrics.SanitizeFailuresTotal.Inc()
		return geo.Feature{}, err
	}
	if err := geo.ValidateGeometry(clean); err != nil {
		metrics.SanitizeFailuresTotal.Inc()
		return geo.Feature{}, fmt.Errorf("%w: %v", geo.ErrSanitize, err)
	}
	if geo.FixAxisOrder(clean) {
		metrics.AxisSwapsTotal.Inc()
	}

	props := geo.Properties{"municipio": rec.Municipio}
	if rec.CveEntidad != "" {
		props["cve_entidad"] = rec.CveEntidad
	}
	if rec.CveMunicipio != "" {
		props["cve_municipio"] = rec.CveMunicipio
	}
	return geo.NewFeature(props, clean), nil
}

func recordGeometry(rec Record) (*geo.Geometry, error) {
	if hasGeometry(rec.Geometry) {
		return decodeGeometryJSON(rec.Geometry)
	}
	if len(rec.Poligono) == 0 || isObject(rec.Poligono) && !hasGeometry(rec.Poligono) {
		return nil, fmt.Errorf("%w: %v", geo.ErrParse, errNoGeometry)
	}
	if isObject(rec.Poligono) {
		return decodeGeometryJSON(rec.Poligono)
	}

	var text string
	if err := json.Unmarshal(rec.Poligono, &text); err != nil {
		return nil, fmt.Errorf("%w: poligono is neither text nor an object", geo.ErrParse)
	}
	text = geo.StripSRID(text)
	if strings.HasPrefix(text, "{") {
		return decodeGeometryJSON([]byte(text))
	}
	return geo.ParseWKT(text)
}

// decodeGeometryJSON accepts a bare geometry or a Feature wrapping one.
func decodeGeometryJSON(data []byte) (*geo.Geometry, error) {
	var probe struct {
		Type     string          `json:"type"`
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", geo.ErrParse, err)
	}
	if probe.Type == geo.TypeFeature {
		if !isObject(probe.Geometry) {
			return nil, fmt.Errorf("%w: %v", geo.ErrParse, errNoGeometry)
		}
		data = probe.Geometry
	}
	var g geo.Geometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", geo.ErrParse, err)
	}
	if g.Type == "" {
		return nil, fmt.Errorf("%w: geometry has no type", geo.ErrParse)
	}
	return &g, nil
}

// hasGeometry reports whether v is an object carrying a type plus non-empty
// coordinates (or member geometries), directly or under a Feature.
func hasGeometry(v json.RawMessage) bool {
	if !isObject(v) {
		return false
	}
	var head struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
		Geometries  json.RawMessage `json:"geometries"`
		Geometry    json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(v, &head); err != nil || head.Type == "" {
		return false
	}
	if head.Type == geo.TypeFeature {
		return hasGeometry(head.Geometry)
	}
	return nonEmptyArray(head.Coordinates) || nonEmptyArray(head.Geometries)
}

func nonEmptyArray(v json.RawMessage) bool {
	var items []json.RawMessage
	return json.Unmarshal(v, &items) == nil && len(items) > 0
}

func isObject(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '{'
}

// NormalizeRecords normalizes every record, logging and collecting the ones
// that fail. One bad record never stops the rest.
func NormalizeRecords(recs []Record) ([]geo.Feature, []Failure) {
	features := make([]geo.Feature, 0, len(recs))
	var failures []Failure
	for _, rec := range recs {
		f, err := NormalizeRecord(rec)
		if err != nil {
			fail := Failure{Municipio: rec.Municipio, Raw: rawSnippet(rec), Err: err.Error()}
			log.Printf("[municipios] skipping %q: %v raw=%s", fail.Municipio, err, fail.Raw)
			failures = append(failures, fail)
			continue
		}
		features = append(features, f)
	}
	return features, failures
}

func rawSnippet(rec Record) string {
	raw := rec.Geometry
	if len(raw) == 0 {
		raw = rec.Poligono
	}
	s := string(raw)
	if len(s) > rawSnippetLen {
		s = s[:rawSnippetLen] + "..."
	}
	return s
}
