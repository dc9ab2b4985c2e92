package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/EmpoweredVote/region-map/internal/db"
	"github.com/EmpoweredVote/region-map/internal/metrics"
	"github.com/EmpoweredVote/region-map/internal/middleware"
	"github.com/EmpoweredVote/region-map/internal/municipios"
	"github.com/EmpoweredVote/region-map/internal/regions"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	cfg := municipios.LoadConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid municipios config: ", err)
	}
	style, err := municipios.LoadStyleConfig(cfg.StyleFile)
	if err != nil {
		log.Fatal("Failed to load map style: ", err)
	}

	regions.Init()
	municipios.Init()

	store := regions.NewStore(db.DB)
	var catalog regions.Source = store
	if c := regions.NewClient(cfg.CatalogURL); c != nil {
		catalog = c
	}

	cache, err := municipios.NewFeatureCache(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Fatal("Failed to configure feature cache: ", err)
	}
	if cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(ctx); err != nil {
			log.Printf("[municipios] redis unreachable, cache disabled: %v", err)
			cache = nil
		}
		cancel()
	}

	module := municipios.NewModule(municipios.NewRecordSource(cfg.Source, db.DB), catalog, style, cache)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := module.Bootstrap(ctx); err != nil {
		log.Printf("[municipios] bootstrap incomplete, will retry on demand: %v", err)
	}
	cancel()

	r := chi.NewRouter()
	r.Use(middleware.CORS(middleware.AllowedOriginsFromEnv()))
	r.Use(middleware.RateLimit(middleware.RateLimitConfigFromEnv()))
	r.Get("/", RootHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/regions", regions.SetupRoutes(store, func(ctx context.Context) {
		if err := module.RefreshRegions(ctx); err != nil {
			log.Printf("[regions] refresh after update failed: %v", err)
		}
	}))
	r.Mount("/municipios", municipios.SetupRoutes(module))

	fmt.Printf("Server listening on port :%s...\n", port)

	if err := http.ListenAndServe("0.0.0.0:"+port, r); err != nil {
		log.Fatal(err)
	}
}
