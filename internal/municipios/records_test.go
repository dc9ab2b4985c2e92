package municipios_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EmpoweredVote/region-map/internal/municipios"
)

// TestDecodeRecords_Aliases verifies every accepted field alias.
func TestDecodeRecords_Aliases(t *testing.T) {
	recs := decodeTestRecords(t)
	if len(recs) != 6 {
		t.Fatalf("expected 6 records, got %d", len(recs))
	}
	if recs[0].Municipio != "Toluca" || recs[0].CveEntidad != "15" || recs[0].CveMunicipio != "106" {
		t.Errorf("record 0 = %+v", recs[0])
	}
	if recs[1].Municipio != "Metepec" || len(recs[1].Geometry) == 0 {
		t.Errorf("record 1 = %+v", recs[1])
	}
	if recs[2].Municipio != "Acambay de Ruíz Castañeda" || len(recs[2].Poligono) == 0 {
		t.Errorf("record 2 = %+v", recs[2])
	}
	if len(recs[3].Poligono) == 0 {
		t.Errorf("record 3 lost its wkt: %+v", recs[3])
	}
}

// TestDecodeRecords_NotArray verifies that a non-array payload is a source
// failure.
func TestDecodeRecords_NotArray(t *testing.T) {
	for _, body := range []string{`{"data": []}`, `"x"`, ``, `<html>`} {
		_, err := municipios.DecodeRecords(strings.NewReader(body))
		if !errors.Is(err, municipios.ErrSourceFetch) {
			t.Errorf("DecodeRecords(%q): expected ErrSourceFetch, got %v", body, err)
		}
	}
}

// TestDecodeRecords_SkipsNonObjects verifies that stray array members are
// dropped without failing the load.
func TestDecodeRecords_SkipsNonObjects(t *testing.T) {
	recs, err := municipios.DecodeRecords(strings.NewReader(`[1, {"municipio": "Toluca"}, null, "x"]`))
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	if len(recs) != 1 || recs[0].Municipio != "Toluca" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

// TestFileSource reads records from disk.
func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "municipios.json")
	if err := os.WriteFile(path, []byte(recordsJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	recs, err := municipios.FileSource{Path: path}.Records(context.Background())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 6 {
		t.Errorf("expected 6 records, got %d", len(recs))
	}

	_, err = municipios.FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Records(context.Background())
	if !errors.Is(err, municipios.ErrSourceFetch) {
		t.Errorf("missing file: expected ErrSourceFetch, got %v", err)
	}
}

// TestHTTPSource covers a good payload, an HTTP error and a non-array body.
func TestHTTPSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recordsJSON))
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	mux.HandleFunc("/object", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	recs, err := municipios.NewHTTPSource(srv.URL + "/ok").Records(ctx)
	if err != nil || len(recs) != 6 {
		t.Fatalf("ok: got %d records, err %v", len(recs), err)
	}
	if _, err := municipios.NewHTTPSource(srv.URL + "/fail").Records(ctx); !errors.Is(err, municipios.ErrSourceFetch) {
		t.Errorf("fail: expected ErrSourceFetch, got %v", err)
	}
	if _, err := municipios.NewHTTPSource(srv.URL + "/object").Records(ctx); !errors.Is(err, municipios.ErrSourceFetch) {
		t.Errorf("object: expected ErrSourceFetch, got %v", err)
	}
}

// TestNewRecordSource picks the source from the configured source string.
func TestNewRecordSource(t *testing.T) {
	if _, ok := municipios.NewRecordSource("db", nil).(*municipios.BoundaryStore); !ok {
		t.Error("db: expected BoundaryStore")
	}
	if _, ok := municipios.NewRecordSource("https://example.org/m.json", nil).(*municipios.HTTPSource); !ok {
		t.Error("url: expected HTTPSource")
	}
	if _, ok := municipios.NewRecordSource("static/municipios.json", nil).(municipios.FileSource); !ok {
		t.Error("path: expected FileSource")
	}
}

// TestBoundaryStore_NoDB verifies a store without a connection fails cleanly.
func TestBoundaryStore_NoDB(t *testing.T) {
	_, err := municipios.NewBoundaryStore(nil).Records(context.Background())
	if !errors.Is(err, municipios.ErrSourceFetch) {
		t.Fatalf("expected ErrSourceFetch, got %v", err)
	}
}
