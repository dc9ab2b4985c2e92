package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/EmpoweredVote/region-map/internal/municipios"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load(".env.local")

	cfg := municipios.LoadConfigFromEnv()
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL not set")
	}

	cache, err := municipios.NewFeatureCache(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Redis config error: %v", err)
	}
	defer cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	source := municipios.NewRecordSource(cfg.Source, nil).Name()
	if err := cache.Invalidate(ctx, source); err != nil {
		log.Fatalf("Error deleting cache: %v", err)
	}

	fmt.Printf("✓ Deleted cached features for %s\n", source)
	fmt.Println("\nThe next server start (or the next request after a failed load) will fetch and normalize the records again.")
}
