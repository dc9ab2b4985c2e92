package regions

import (
	"context"
	"fmt"
	"sort"

	"github.com/EmpoweredVote/region-map/internal/names"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Source yields the region catalog.
type Source interface {
	FetchCatalog(ctx context.Context) (Catalog, error)
}

// Store reads the catalog from the regions schema.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FetchCatalog assembles the catalog contract from the regiones and
// region_municipios tables.
func (s *Store) FetchCatalog(ctx context.Context) (Catalog, error) {
	var regs []Region
	if err := s.db.WithContext(ctx).Order("id").Find(&regs).Error; err != nil {
		return Catalog{}, fmt.Errorf("%w: load regiones: %v", ErrCatalogFetch, err)
	}
	var rows []RegionMunicipio
	if err := s.db.WithContext(ctx).Order("region_id, municipio").Find(&rows).Error; err != nil {
		return Catalog{}, fmt.Errorf("%w: load region_municipios: %v", ErrCatalogFetch, err)
	}

	c := Catalog{
		OK:               true,
		Regiones:         make([]CatalogRegion, 0, len(regs)),
		MuniToRegion:     make(map[string]RegionID, len(rows)),
		RegionMunicipios: make([]CatalogMunicipio, 0, len(rows)),
	}
	for _, r := range regs {
		c.Regiones = append(c.Regiones, CatalogRegion{ID: RegionIDFromUint(r.ID), Nombre: r.Nombre, Color: r.Color})
	}
	for _, rm := range rows {
		id := RegionIDFromUint(rm.RegionID)
		c.RegionMunicipios = append(c.RegionMunicipios, CatalogMunicipio{Municipio: rm.Municipio, RegionID: id})
		c.MuniToRegion[rm.Municipio] = id
	}
	return c, nil
}

// MunicipiosForRegions returns the municipalities of every region in ids,
// grouped by region.
func (s *Store) MunicipiosForRegions(ctx context.Context, ids []int64) (map[RegionID][]string, error) {
	out := make(map[RegionID][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT region_id, municipio
		FROM regions.region_municipios
		WHERE region_id = ANY(?)
		ORDER BY region_id, municipio
	`, pq.Array(ids)).Rows()
	if err != nil {
		return nil, fmt.Errorf("region municipios query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rid uint
		var muni string
		if err := rows.Scan(&rid, &muni); err != nil {
			return nil, fmt.Errorf("scan region municipio: %w", err)
		}
		id := RegionIDFromUint(rid)
		out[id] = append(out[id], muni)
	}
	return out, rows.Err()
}

// AssignMunicipios replaces the municipalities of a region.
func (s *Store) AssignMunicipios(ctx context.Context, regionID uint, municipios []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("region_id = ?", regionID).Delete(&RegionMunicipio{}).Error; err != nil {
			return fmt.Errorf("clear region %d: %w", regionID, err)
		}
		seen := map[string]bool{}
		var rows []RegionMunicipio
		for _, m := range municipios {
			k := names.Key(m)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			rows = append(rows, RegionMunicipio{RegionID: regionID, Municipio: m})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Municipio < rows[j].Municipio })
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert region %d municipios: %w", regionID, err)
		}
		return nil
	})
}
