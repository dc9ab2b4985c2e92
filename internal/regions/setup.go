package regions

import (
	"log"

	"github.com/EmpoweredVote/region-map/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "regions"); err != nil {
		log.Fatal("Failed to ensure schema regions: ", err)
	}

	if err := db.DB.AutoMigrate(
		&Region{},
		&RegionMunicipio{},
	); err != nil {
		log.Fatal("Failed to auto-migrate regions tables: ", err)
	}

	// One assignment per municipality and region.
	if err := db.DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_region_municipio_key
		ON regions.region_municipios (region_id, municipio_key);
	`).Error; err != nil {
		log.Fatal("Failed to create idx_region_municipio_key: ", err)
	}

	log.Println("Regions module initialized")
}
