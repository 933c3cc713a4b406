package db

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migrations for all models.
func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(&Interaction{})
}
