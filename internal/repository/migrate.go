package repository

import (
	"github.com/sefazor/festival-backend/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the stores use, including the
// unique indexes and checks declared in the struct tags.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Event{},
		&models.MUNEvent{},
		&models.Team{},
		&models.TeamMember{},
		&registrationRecord{},
	)
}
