package database

import (
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cvjob-dk/cvjob-backend/internal/models"
)

// Connect opens the Postgres connection and runs migrations.
func Connect(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	logger.Info("database.connect")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("database.connect_failed", "error", err)
		return nil, err
	}

	logger.Info("database.migrate")
	if err := db.AutoMigrate(&models.User{}, &models.JobPosting{}, &models.CoverLetter{}); err != nil {
		logger.Error("database.migrate_failed", "error", err)
		return nil, err
	}
	return db, nil
}
