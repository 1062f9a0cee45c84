// Package db manages the entity store connection, schema and seed data.
package db

import (
	"fmt"

	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.Sprint{},
		&models.Issue{},
		&models.BPMNDiagram{},
		&models.BPMNElement{},
		&models.BPMNElementStatus{},
		&models.BPMNChangeLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
