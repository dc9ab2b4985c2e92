package municipios

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(m *Module) http.Handler {
	r := chi.NewRouter()
	h := handlers{module: m}

	r.Get("/status", h.GetStatus)
	r.Get("/features", h.GetFeatures)
	r.Get("/lookup", h.GetLookup)
	r.Get("/failures", h.GetFailures)
	r.Post("/normalize", h.PostNormalize)
	r.Post("/regions/refresh", h.PostRefreshRegions)

	return r
}
