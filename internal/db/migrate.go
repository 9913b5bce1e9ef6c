package db

import (
	"academy/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Season{},
		&models.QuestionCandidate{},
		&models.Question{},
		&models.Prediction{},
		&models.Resolution{},
		&models.Score{},
		&models.SystemSetting{},
	)
}
