package municipios

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/EmpoweredVote/region-map/internal/metrics"
	"gorm.io/gorm"
)

// ErrSourceFetch covers a record source that could not be read or whose
// payload is not a JSON array.
var ErrSourceFetch = errors.New("municipio records unavailable")

// Field aliases accepted in record files, in priority order.
var (
	nameKeys     = []string{"municipio", "Municipio", "nombre", "MUN"}
	polygonKeys  = []string{"poligono", "POLIGONO", "wkt", "WKT"}
	entidadKeys  = []string{"cve_entidad", "CVE_ENT"}
	cveMuniKeys  = []string{"cve_municipio", "CVE_MUN"}
	geometryKeys = []string{"geometry"}
)

// Record is one raw municipality boundary row. Geometry holds an embedded
// GeoJSON geometry; Poligono holds a WKT string, JSON text or a GeoJSON
// object. Both are kept raw until normalization.
type Record struct {
	Municipio    string
	CveEntidad   string
	CveMunicipio string
	Geometry     json.RawMessage
	Poligono     json.RawMessage
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("record is not an object: %w", err)
	}
	if m == nil {
		return errors.New("record is null")
	}
	*r = Record{
		Municipio:    scalarText(pick(m, nameKeys)),
		CveEntidad:   scalarText(pick(m, entidadKeys)),
		CveMunicipio: scalarText(pick(m, cveMuniKeys)),
		Geometry:     nonNull(pick(m, geometryKeys)),
		Poligono:     nonNull(pick(m, polygonKeys)),
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := map[string]any{"municipio": r.Municipio}
	if r.CveEntidad != "" {
		out["cve_entidad"] = r.CveEntidad
	}
	if r.CveMunicipio != "" {
		out["cve_municipio"] = r.CveMunicipio
	}
	if len(r.Geometry) > 0 {
		out["geometry"] = r.Geometry
	}
	if len(r.Poligono) > 0 {
		out["poligono"] = r.Poligono
	}
	return json.Marshal(out)
}

func pick(m map[string]json.RawMessage, keys []string) json.RawMessage {
	for _, k := range keys {
		if v, ok := m[k]; ok && len(nonNull(v)) > 0 {
			return v
		}
	}
	return nil
}

func nonNull(v json.RawMessage) json.RawMessage {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}
	return v
}

// scalarText renders a JSON string or number as trimmed text.
func scalarText(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

// DecodeRecords reads a JSON array of records. Elements that are not objects
// are logged and skipped; a payload that is not an array fails with
// ErrSourceFetch.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrSourceFetch, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: payload is not a JSON array", ErrSourceFetch)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode array: %v", ErrSourceFetch, err)
	}
	recs := make([]Record, 0, len(items))
	for i, item := range items {
		var rec Record
		if err := json.Unmarshal(item, &rec); err != nil {
			log.Printf("[municipios] skipping record %d: %v", i, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// RecordSource yields the raw municipality records.
type RecordSource interface {
	Records(ctx context.Context) ([]Record, error)
	// Name identifies the source in logs, metrics and cache keys.
	Name() string
}

// NewRecordSource picks a RecordSource: "db" reads the boundaries
// table, an http(s) URL is fetched, anything else is a file path.
func NewRecordSource(source string, db *gorm.DB) RecordSource {
	switch {
	case source == SourceDatabase:
		return NewBoundaryStore(db)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return NewHTTPSource(source)
	default:
		return FileSource{Path: source}
	}
}

// FileSource reads records from a local JSON file.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Records(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		metrics.NetworkFailuresTotal.WithLabelValues("records").Inc()
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer f.Close()
	recs, err := DecodeRecords(f)
	if err != nil {
		metrics.NetworkFailuresTotal.WithLabelValues("records").Inc()
	}
	return recs, err
}

// HTTPSource fetches records from a static URL.
type HTTPSource struct {
	URL        string
	httpClient *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *HTTPSource) Name() string { return s.URL }

func (s *HTTPSource) Records(ctx context.Context) ([]Record, error) {
	recs, err := s.fetch(ctx)
	if err != nil {
		metrics.NetworkFailuresTotal.WithLabelValues("records").Inc()
	}
	return recs, err
}

func (s *HTTPSource) fetch(ctx context.Context) ([]Record, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrSourceFetch, s.URL, resp.StatusCode)
	}
	recs, err := DecodeRecords(resp.Body)
	if err != nil {
		return nil, err
	}
	log.Printf("[municipios] records fetched status=%d duration=%dms count=%d",
		resp.StatusCode, time.Since(start).Milliseconds(), len(recs))
	return recs, nil
}
