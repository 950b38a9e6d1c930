package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cvjob-dk/cvjob-backend/internal/models"
)

type UserService struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

func NewUserService(db *gorm.DB, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{DB: db, Logger: logger}
}

func (s *UserService) GetByToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetCVText stores the extracted CV text on the user, making it available
// to the generation prompt.
func (s *UserService) SetCVText(ctx context.Context, userID uint, text string) error {
	err := s.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("cv_text", text).Error
	if err != nil {
		s.Logger.Error("user.cv_update_failed", "user_id", userID, "error", err)
	}
	return err
}
