package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/EmpoweredVote/region-map/internal/names"
	"github.com/EmpoweredVote/region-map/internal/regions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

// CLI flags
var (
	csvPath     = flag.String("csv", "", "Path to the region CSV: region,color,municipio (required)")
	dsn         = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to replace the municipios of the listed regions")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *csvPath == "" {
		fatalf("--csv is required")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		fatalf("open csv: %v", err)
	}
	seeds, err := regions.ReadSeedCSV(f)
	f.Close()
	if err != nil {
		fatalf("CSV error: %v", err)
	}

	fmt.Printf("Loaded %d regions from %s\n", len(seeds), *csvPath)

	if *dryRun {
		printPlan(seeds)
		fmt.Println("Dry run complete. No changes made.")
		return
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}
	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	ids := make([]int64, 0, len(seeds))
	for _, s := range seeds {
		id, err := upsertRegion(ctx, tx, s)
		if err != nil {
			fatalf("%v", err)
		}
		ids = append(ids, id)
	}

	// Replace the assignments of the seeded regions only.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM regions.region_municipios WHERE region_id = ANY($1)`, pq.Array(ids)); err != nil {
		fatalf("clear region_municipios: %v", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO regions.region_municipios (region_id, municipio, municipio_key) VALUES ($1,$2,$3)`)
	if err != nil {
		fatalf("prepare: %v", err)
	}
	defer stmt.Close()

	total := 0
	for i, s := range seeds {
		for _, m := range s.Municipios {
			if _, err := stmt.ExecContext(ctx, ids[i], m, names.Key(m)); err != nil {
				fatalf("insert %q -> %q: %v", m, s.Nombre, err)
			}
			total++
		}
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Printf("Seeded %d regions, %d municipios\n", len(seeds), total)
}

func upsertRegion(ctx context.Context, tx *sql.Tx, s regions.RegionSeed) (int64, error) {
	var id int64
	q := `INSERT INTO regions.regiones (nombre, color)
	      VALUES ($1, $2)
	      ON CONFLICT (nombre) DO UPDATE SET color = COALESCE(NULLIF(EXCLUDED.color, ''), regions.regiones.color)
	      RETURNING id`
	if err := tx.QueryRowContext(ctx, q, s.Nombre, s.Color).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert region '%s': %w", s.Nombre, err)
	}
	return id, nil
}

func printPlan(seeds []regions.RegionSeed) {
	fmt.Println("Plan preview:")
	total := 0
	for _, s := range seeds {
		color := s.Color
		if color == "" {
			color = "(default)"
		}
		fmt.Printf("  %-30s %-10s %d municipios\n", s.Nombre, color, len(s.Municipios))
		total += len(s.Municipios)
	}
	fmt.Printf("  Municipios to assign: %d\n", total)
	fmt.Println("  Tables affected: regions.regiones (upsert), regions.region_municipios (replace per region)")
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
