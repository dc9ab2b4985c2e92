package regions

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChangeHook runs after a region's municipalities were replaced.
type ChangeHook func(ctx context.Context)

// SetupRoutes mounts the region endpoints. Hooks run after every successful
// PUT /{id}/municipios so dependents can reload the catalog.
func SetupRoutes(store CatalogStore, hooks ...ChangeHook) http.Handler {
	r := chi.NewRouter()
	h := handlers{store: store, hooks: hooks}

	r.Get("/catalog", h.GetCatalog)
	r.Get("/", h.ListRegions)
	r.Get("/municipios", h.ListMunicipiosForRegions)
	r.Get("/{id}/municipios", h.GetRegionMunicipios)
	r.Put("/{id}/municipios", h.PutRegionMunicipios)

	return r
}
