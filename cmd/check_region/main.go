package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/region-map/internal/municipios"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

func main() {
	godotenv.Load(".env.local")

	var (
		idsFlag = flag.String("ids", "", "comma separated region ids (required)")
		src     = flag.String("src", municipios.DefaultSource, "municipio record file or URL")
	)
	flag.Parse()

	ids, err := parseIDs(*idsFlag)
	if err != nil || len(ids) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT r.id, r.nombre, rm.municipio
		FROM regions.regiones r
		LEFT JOIN regions.region_municipios rm ON rm.region_id = r.id
		WHERE r.id = ANY($1)
		ORDER BY r.id, rm.municipio
	`, pq.Array(ids))
	if err != nil {
		log.Fatalf("Query error: %v", err)
	}
	type region struct {
		Nombre     string
		Municipios []string
	}
	byID := map[int64]*region{}
	for rows.Next() {
		var id int64
		var nombre string
		var muni sql.NullString
		if err := rows.Scan(&id, &nombre, &muni); err != nil {
			log.Fatalf("Scan error: %v", err)
		}
		r, ok := byID[id]
		if !ok {
			r = &region{Nombre: nombre}
			byID[id] = r
		}
		if muni.Valid {
			r.Municipios = append(r.Municipios, muni.String)
		}
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Rows error: %v", err)
	}
	rows.Close()

	recs, err := municipios.NewRecordSource(*src, nil).Records(ctx)
	if err != nil {
		log.Fatalf("Records error: %v", err)
	}
	features, failures := municipios.NormalizeRecords(recs)
	index := municipios.NewGeoIndex(features)
	fmt.Printf("Geometry: %d features, %d municipios, %d records skipped\n\n", len(features), index.Len(), len(failures))

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			fmt.Printf("=== region %d: not found ===\n\n", id)
			continue
		}
		fmt.Printf("=== %d %s (%d municipios) ===\n", id, r.Nombre, len(r.Municipios))
		missing := 0
		for _, m := range r.Municipios {
			key, kind, fs := index.Resolve(m)
			if len(fs) == 0 {
				missing++
				fmt.Printf("  MISSING  %s\n", m)
				continue
			}
			fmt.Printf("  %-9s %s -> %s (%d fragments)\n", strings.ToUpper(kind.String()), m, key, len(fs))
		}
		fmt.Printf("  %d of %d without geometry\n\n", missing, len(r.Municipios))
	}
}

func parseIDs(raw string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
