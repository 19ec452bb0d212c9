package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/eligibility"
	"github.com/doorstep-market/doorstep/internal/pkg/env"
)

// partnerFixtureFile is the document shape of a partner fixture: the same
// partner records the eligibility engine consumes, plus nothing else.
type partnerFixtureFile struct {
	Partners []eligibility.FixturePartner `yaml:"partners"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/ingest/main.go <fixture.yml>")
		os.Exit(1)
	}

	env.SetupEnvFile()
	database.SetupDatabase()
	db := database.GetDB()

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read fixture file: %v", err)
	}

	var file partnerFixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		log.Fatalf("Failed to parse fixture file: %v", err)
	}
	if len(file.Partners) == 0 {
		log.Fatal("Fixture file contains no partners")
	}

	created, updated := 0, 0
	for _, fixture := range file.Partners {
		partner := eligibility.FromFixture(fixture)
		if partner.ID == uuid.Nil {
			log.Fatalf("Partner %q has a missing or invalid id", fixture.Name)
		}

		row := models.VendorPartner{
			ID:                   partner.ID,
			Name:                 partner.Name,
			Markets:              models.StringList(partner.Markets),
			CopayEnabled:         partner.Copay.Enabled,
			MinAgentDealsPerYear: partner.Copay.MinAgentDealsPerYear,
			AllowedServiceIDs:    models.UUIDList(partner.Copay.AllowedServiceIDs),
			ProhibitedServiceIDs: models.UUIDList(partner.Copay.ProhibitedServiceIDs),
			SharePct:             partner.SharePct,
			Active:               true,
		}
		if err := row.Validate(); err != nil {
			log.Fatalf("Partner %q failed validation: %v", partner.Name, err)
		}

		var existing models.VendorPartner
		err := db.First(&existing, "id = ?", partner.ID).Error
		switch {
		case err == nil:
			row.CreatedAt = existing.CreatedAt
			if err := db.Save(&row).Error; err != nil {
				log.Fatalf("Failed to update partner %q: %v", partner.Name, err)
			}
			updated++
		default:
			if err := db.Create(&row).Error; err != nil {
				log.Fatalf("Failed to create partner %q: %v", partner.Name, err)
			}
			created++
		}
	}

	log.Printf("Ingested %d partners (%d created, %d updated)", len(file.Partners), created, updated)
}
