package regions_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EmpoweredVote/region-map/internal/regions"
)

// TestNewClient_EmptyURL verifies that no client is built without a URL.
func TestNewClient_EmptyURL(t *testing.T) {
	if c := regions.NewClient(""); c != nil {
		t.Fatalf("expected nil client, got %+v", c)
	}
}

// TestClient_FetchCatalog verifies a successful round trip against a fake
// catalog endpoint.
func TestClient_FetchCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleCatalog))
	}))
	defer srv.Close()

	cat, err := regions.NewClient(srv.URL).FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cat.Regiones) != 2 {
		t.Errorf("expected 2 regiones, got %d", len(cat.Regiones))
	}
}

// TestClient_FetchCatalog_HTTPError verifies that a non-200 status is
// reported as ErrCatalogFetch.
func TestClient_FetchCatalog_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := regions.NewClient(srv.URL).FetchCatalog(context.Background())
	if !errors.Is(err, regions.ErrCatalogFetch) {
		t.Fatalf("expected ErrCatalogFetch, got %v", err)
	}
}

// TestClient_FetchCatalog_Unreachable verifies that a transport failure is
// reported as ErrCatalogFetch.
func TestClient_FetchCatalog_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := regions.NewClient(url).FetchCatalog(context.Background())
	if !errors.Is(err, regions.ErrCatalogFetch) {
		t.Fatalf("expected ErrCatalogFetch, got %v", err)
	}
}
