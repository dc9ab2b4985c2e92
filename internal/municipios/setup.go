package municipios

import (
	"log"

	"github.com/EmpoweredVote/region-map/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "municipios"); err != nil {
		log.Fatal("Failed to ensure schema municipios: ", err)
	}

	if err := db.DB.AutoMigrate(&Boundary{}); err != nil {
		log.Fatal("Failed to auto-migrate municipios tables: ", err)
	}

	if err := db.DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_boundary_key_fragment
		ON municipios.boundaries (municipio_key, fragment);
	`).Error; err != nil {
		log.Fatal("Failed to create idx_boundary_key_fragment: ", err)
	}

	log.Println("Municipios module initialized")
}
