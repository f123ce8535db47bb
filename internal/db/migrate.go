package db

import (
	"boardwatch/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.BoardEntry{},
		&models.NewsItem{},
		&models.PipelineRun{},
		&models.RawBoardSnapshot{},
	)
}
