package services

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/cvjob-dk/cvjob-backend/internal/models"
)

// LetterService is the persistence adapter for cover letters. A letter row
// is only ever inserted after its job posting exists and generation
// succeeded; there are no partially written letters.
type LetterService struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

func NewLetterService(db *gorm.DB, logger *slog.Logger) *LetterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LetterService{DB: db, Logger: logger}
}

func (s *LetterService) Insert(ctx context.Context, userID, jobID uint, content, locale string) (*models.CoverLetter, error) {
	letter := models.CoverLetter{
		UserID:       userID,
		JobPostingID: jobID,
		Content:      content,
		Locale:       locale,
	}
	if err := s.DB.WithContext(ctx).Create(&letter).Error; err != nil {
		s.Logger.Error("letter.insert_failed", "user_id", userID, "job_id", jobID, "error", err)
		return nil, err
	}
	return &letter, nil
}

// Update overwrites the content. Last-writer-wins: there is no version
// check, so two sessions editing the same letter race (accepted limit).
func (s *LetterService) Update(ctx context.Context, userID, letterID uint, content string) (*models.CoverLetter, error) {
	var letter models.CoverLetter
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", letterID, userID).
		First(&letter).Error; err != nil {
		return nil, err
	}
	letter.Content = content
	letter.UpdatedAt = time.Now()
	if err := s.DB.WithContext(ctx).Save(&letter).Error; err != nil {
		s.Logger.Error("letter.update_failed", "letter_id", letterID, "error", err)
		return nil, err
	}
	return &letter, nil
}

func (s *LetterService) GetByID(ctx context.Context, userID, letterID uint) (*models.CoverLetter, error) {
	var letter models.CoverLetter
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", letterID, userID).
		First(&letter).Error
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

// List returns the user's letters, newest first.
func (s *LetterService) List(ctx context.Context, userID uint) ([]models.CoverLetter, error) {
	var letters []models.CoverLetter
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&letters).Error
	return letters, err
}
