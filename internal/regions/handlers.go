package regions

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CatalogStore is what the HTTP handlers need from the database.
type CatalogStore interface {
	Source
	MunicipiosForRegions(ctx context.Context, ids []int64) (map[RegionID][]string, error)
	AssignMunicipios(ctx context.Context, regionID uint, municipios []string) error
}

type handlers struct {
	store CatalogStore
	hooks []ChangeHook
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// GetCatalog serves the full catalog: regions, the municipality map and the
// explicit assignment rows.
func (h handlers) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.store.FetchCatalog(r.Context())
	if err != nil {
		log.Printf("[regions] catalog error: %v", err)
		http.Error(w, "Failed to load region catalog", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, cat)
}

// ListRegions returns the regions without their municipalities.
func (h handlers) ListRegions(w http.ResponseWriter, r *http.Request) {
	cat, err := h.store.FetchCatalog(r.Context())
	if err != nil {
		log.Printf("[regions] catalog error: %v", err)
		http.Error(w, "Failed to load regions", http.StatusInternalServerError)
		return
	}
	regs := cat.Regiones
	if regs == nil {
		regs = []CatalogRegion{}
	}
	writeJSON(w, regs)
}

// GetRegionMunicipios returns the municipalities of one region.
func (h handlers) GetRegionMunicipios(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}
	byRegion, err := h.store.MunicipiosForRegions(r.Context(), []int64{id})
	if err != nil {
		log.Printf("[regions] municipios for %d: %v", id, err)
		http.Error(w, "Failed to load municipios", http.StatusInternalServerError)
		return
	}
	munis := byRegion[RegionID(strconv.FormatInt(id, 10))]
	if munis == nil {
		munis = []string{}
	}
	writeJSON(w, map[string]any{
		"region_id":  id,
		"municipios": munis,
	})
}

// ListMunicipiosForRegions answers ?ids=1,2,3 with municipalities grouped by
// region.
func (h handlers) ListMunicipiosForRegions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		http.Error(w, "Missing ids", http.StatusBadRequest)
		return
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			http.Error(w, "Invalid region id: "+part, http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}
	byRegion, err := h.store.MunicipiosForRegions(r.Context(), ids)
	if err != nil {
		log.Printf("[regions] municipios for %v: %v", ids, err)
		http.Error(w, "Failed to load municipios", http.StatusInternalServerError)
		return
	}

	type group struct {
		RegionID   RegionID `json:"region_id"`
		Municipios []string `json:"municipios"`
	}
	out := make([]group, 0, len(byRegion))
	for id, munis := range byRegion {
		out = append(out, group{RegionID: id, Municipios: munis})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionID < out[j].RegionID })
	writeJSON(w, out)
}

// PutRegionMunicipios replaces the municipalities of a region.
func (h handlers) PutRegionMunicipios(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}
	var input struct {
		Municipios []string `json:"municipios"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.AssignMunicipios(r.Context(), uint(id), input.Municipios); err != nil {
		log.Printf("[regions] assign municipios to %d: %v", id, err)
		http.Error(w, "Failed to save municipios", http.StatusInternalServerError)
		return
	}
	for _, hook := range h.hooks {
		hook(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}
