package db

import (
	"macrocal/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	if err := db.Gorm.AutoMigrate(
		&models.DataSource{},
		&models.Indicator{},
		&models.Release{},
		&models.SyncLog{},
	); err != nil {
		return err
	}
	// Rows created before the history column existed carry NULL.
	return db.Gorm.Exec("UPDATE releases SET revision_history = '[]'::jsonb WHERE revision_history IS NULL").Error
}
