package municipios

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/EmpoweredVote/region-map/internal/db"
	"github.com/EmpoweredVote/region-map/internal/geo"
	"github.com/EmpoweredVote/region-map/internal/names"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImportConfig drives a boundary import.
type ImportConfig struct {
	// Source is a file path or URL of a record array.
	Source      string
	DatabaseURL string
	// Namespace seeds the deterministic boundary ids; keep it stable.
	Namespace string
	DryRun    bool
}

// ImportReport summarizes an import.
type ImportReport struct {
	Records  int
	Upserted int
	Failures []Failure
}

// BoundaryID is the deterministic id of fragment n of a municipality.
func BoundaryID(ns uuid.UUID, municipioKey string, fragment int) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(fmt.Sprintf("boundary:%s:%d", municipioKey, fragment)))
}

// BoundariesFromFeatures turns normalized features into rows. Fragments of
// the same municipality are numbered in input order.
func BoundariesFromFeatures(ns uuid.UUID, features []geo.Feature) ([]Boundary, error) {
	fragments := map[string]int{}
	out := make([]Boundary, 0, len(features))
	for _, f := range features {
		key := names.Key(f.Name())
		if key == "" || f.Geometry == nil {
			continue
		}
		geom, err := json.Marshal(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("encode geometry of %q: %w", f.Name(), err)
		}
		n := fragments[key]
		fragments[key] = n + 1
		out = append(out, Boundary{
			ID:           BoundaryID(ns, key, n),
			Municipio:    f.Name(),
			MunicipioKey: key,
			Fragment:     n,
			CveEntidad:   f.Properties.String("cve_entidad"),
			CveMunicipio: f.Properties.String("cve_municipio"),
			GeometryType: f.Geometry.Type,
			Geometry:     geom,
		})
	}
	return out, nil
}

// UpsertBoundaries writes rows in one transaction, updating rows that
// already exist.
func UpsertBoundaries(ctx context.Context, gdb *gorm.DB, rows []Boundary) error {
	if len(rows) == 0 {
		return nil
	}
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"municipio", "cve_entidad", "cve_municipio", "geometry_type", "geometry", "updated_at",
			}),
		}).CreateInBatches(&rows, 100).Error; err != nil {
			return fmt.Errorf("upsert boundaries: %w", err)
		}
		return nil
	})
}

// RunImport normalizes the configured source and upserts the result into
// municipios.boundaries.
func RunImport(ctx context.Context, cfg ImportConfig) (ImportReport, error) {
	if cfg.Source == "" || cfg.Source == SourceDatabase {
		return ImportReport{}, errors.New("import source must be a file path or URL")
	}
	ns, err := uuid.Parse(cfg.Namespace)
	if err != nil {
		return ImportReport{}, fmt.Errorf("invalid namespace uuid: %w", err)
	}

	recs, err := NewRecordSource(cfg.Source, nil).Records(ctx)
	if err != nil {
		return ImportReport{}, err
	}
	features, failures := NormalizeRecords(recs)
	rows, err := BoundariesFromFeatures(ns, features)
	if err != nil {
		return ImportReport{}, err
	}
	report := ImportReport{Records: len(recs), Failures: failures}

	if cfg.DryRun {
		log.Printf("[municipios] dry run: %d boundaries from %d records", len(rows), len(recs))
		return report, nil
	}

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return report, err
	}
	if err := db.EnsureSchema(gdb, "municipios"); err != nil {
		return report, fmt.Errorf("ensure schema municipios: %w", err)
	}
	if err := gdb.AutoMigrate(&Boundary{}); err != nil {
		return report, fmt.Errorf("migrate boundaries: %w", err)
	}
	if err := UpsertBoundaries(ctx, gdb, rows); err != nil {
		return report, err
	}
	report.Upserted = len(rows)
	return report, nil
}
