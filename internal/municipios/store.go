package municipios

import (
	"context"
	"fmt"

	"github.com/EmpoweredVote/region-map/internal/metrics"
	"gorm.io/gorm"
)

// BoundaryStore reads records back from the municipios.boundaries table.
type BoundaryStore struct {
	db *gorm.DB
}

func NewBoundaryStore(db *gorm.DB) *BoundaryStore {
	return &BoundaryStore{db: db}
}

func (s *BoundaryStore) Name() string { return "db:municipios.boundaries" }

// Records returns one record per stored fragment, in name order.
func (s *BoundaryStore) Records(ctx context.Context) ([]Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: no database connection", ErrSourceFetch)
	}
	var rows []Boundary
	if err := s.db.WithContext(ctx).Order("municipio_key, fragment").Find(&rows).Error; err != nil {
		metrics.NetworkFailuresTotal.WithLabelValues("records").Inc()
		return nil, fmt.Errorf("%w: load boundaries: %v", ErrSourceFetch, err)
	}
	recs := make([]Record, 0, len(rows))
	for _, b := range rows {
		recs = append(recs, Record{
			Municipio:    b.Municipio,
			CveEntidad:   b.CveEntidad,
			CveMunicipio: b.CveMunicipio,
			Geometry:     b.Geometry,
		})
	}
	return recs, nil
}
