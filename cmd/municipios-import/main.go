package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/EmpoweredVote/region-map/internal/municipios"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		src       = flag.String("src", "", "municipio record file or URL (required)")
		dbURL     = flag.String("db", os.Getenv("DATABASE_URL"), "DATABASE_URL")
		namespace = flag.String("namespace", "", "UUID Namespace (required, stable forever)")
		dryRun    = flag.Bool("dry-run", false, "normalize only; no DB writes")
	)
	flag.Parse()

	if *src == "" || *namespace == "" || (*dbURL == "" && !*dryRun) {
		flag.Usage()
		os.Exit(2)
	}

	report, err := municipios.RunImport(context.Background(), municipios.ImportConfig{
		Source:      *src,
		DatabaseURL: *dbURL,
		Namespace:   *namespace,
		DryRun:      *dryRun,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Records: %d, upserted: %d, skipped: %d\n", report.Records, report.Upserted, len(report.Failures))
	for _, f := range report.Failures {
		fmt.Printf("  SKIP %-30s %s\n", f.Municipio, f.Err)
	}
}
