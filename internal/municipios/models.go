package municipios

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Boundary is a normalized municipality polygon stored by the importer. A
// municipality split into fragments has one row per fragment.
type Boundary struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Municipio    string          `gorm:"not null" json:"municipio"`
	MunicipioKey string          `gorm:"index;not null" json:"-"`
	Fragment     int             `gorm:"not null;default:0" json:"fragment"`
	CveEntidad   string          `gorm:"size:8" json:"cve_entidad,omitempty"`
	CveMunicipio string          `gorm:"size:8" json:"cve_municipio,omitempty"`
	GeometryType string          `gorm:"size:32;not null" json:"geometry_type"`
	Geometry     json.RawMessage `gorm:"type:jsonb;not null" json:"geometry"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Boundary) TableName() string {
	return "municipios.boundaries"
}
