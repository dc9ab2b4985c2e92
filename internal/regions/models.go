package regions

import (
	"github.com/EmpoweredVote/region-map/internal/names"
	"gorm.io/gorm"
)

// Region is an administrative grouping of municipalities used for map
// coloring and representative assignment.
type Region struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Nombre string `gorm:"not null;uniqueIndex" json:"nombre"`
	Color  string `gorm:"size:32" json:"color"`
}

func (Region) TableName() string {
	return "regions.regiones"
}

// RegionMunicipio assigns a municipality (by catalog spelling) to a region.
type RegionMunicipio struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	RegionID     uint   `gorm:"index;not null" json:"region_id"`
	Municipio    string `gorm:"not null" json:"municipio"`
	MunicipioKey string `gorm:"index;size:255" json:"-"` // names.Key(Municipio), maintained by BeforeSave
}

func (RegionMunicipio) TableName() string {
	return "regions.region_municipios"
}

// BeforeSave keeps the normalized key in step with the catalog spelling.
func (rm *RegionMunicipio) BeforeSave(tx *gorm.DB) error {
	rm.MunicipioKey = names.Key(rm.Municipio)
	return nil
}
