package municipios

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/EmpoweredVote/region-map/internal/regions"
)

// maxUploadBytes caps POST /normalize bodies.
const maxUploadBytes = 32 << 20

type handlers struct {
	module *Module
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[municipios] encode response: %v", err)
	}
}

// ensureLoaded retries a failed bootstrap. Handlers answer with whatever is
// loaded either way.
func (h handlers) ensureLoaded(r *http.Request) {
	if h.module.Bootstrapped() {
		return
	}
	if err := h.module.Bootstrap(r.Context()); err != nil {
		log.Printf("[municipios] bootstrap retry failed: %v", err)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetFeatures renders municipalities as a styled FeatureCollection.
//
// Query parameters:
//   - names: comma separated municipality names
//   - region: a region id, used when names is absent
//   - highlight: region id to emphasize
//
// With neither names nor region every loaded municipality is returned.
func (h handlers) GetFeatures(w http.ResponseWriter, r *http.Request) {
	h.ensureLoaded(r)
	q := r.URL.Query()

	var features []geo.Feature
	var missing []string
	switch {
	case q.Get("names") != "":
		features, missing = h.module.FeaturesByNames(splitList(q.Get("names")))
	case q.Get("region") != "":
		features, missing = h.module.FeaturesForRegion(regions.RegionID(strings.TrimSpace(q.Get("region"))))
	default:
		features = h.module.Features()
	}

	res := h.module.Render(features, StyleOptions{
		HighlightRegionID: regions.RegionID(strings.TrimSpace(q.Get("highlight"))),
	})
	res.Missing = missing

	status := "ok"
	switch {
	case !h.module.Bootstrapped():
		status = "unavailable"
	case res.Insert.Outcome == geo.PartiallyFailed || len(missing) > 0:
		status = "partial"
	}
	w.Header().Set("X-Data-Status", status)
	writeJSON(w, http.StatusOK, res)
}

// GetLookup explains how ?name= resolves.
func (h handlers) GetLookup(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "Missing name", http.StatusBadRequest)
		return
	}
	h.ensureLoaded(r)
	writeJSON(w, http.StatusOK, h.module.Lookup(name))
}

// PostNormalize normalizes an uploaded record array without touching the
// loaded data.
func (h handlers) PostNormalize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	recs, err := DecodeRecords(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	features, failures := NormalizeRecords(recs)
	if failures == nil {
		failures = []Failure{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": geo.NewFeatureCollection(features...),
		"failures":   failures,
	})
}

// PostRefreshRegions reloads the region catalog.
func (h handlers) PostRefreshRegions(w http.ResponseWriter, r *http.Request) {
	if err := h.module.RefreshRegions(r.Context()); err != nil {
		log.Printf("[municipios] region refresh failed: %v", err)
		http.Error(w, "Failed to refresh region catalog", http.StatusBadGateway)
		return
	}
	cat := h.module.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"regiones": len(cat.Regiones),
	})
}

// GetFailures lists the records skipped at load.
func (h handlers) GetFailures(w http.ResponseWriter, r *http.Request) {
	failures := h.module.Failures()
	if failures == nil {
		failures = []Failure{}
	}
	writeJSON(w, http.StatusOK, failures)
}

// GetStatus summarizes what is loaded.
func (h handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.module.mu.RLock()
	status := map[string]any{
		"bootstrapped": h.module.bootstrapped,
		"features":     len(h.module.features),
		"municipios":   h.module.index.Len(),
		"failures":     len(h.module.failures),
		"regiones":     len(h.module.cat.Regiones),
	}
	h.module.mu.RUnlock()
	writeJSON(w, http.StatusOK, status)
}
