package services

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/cvjob-dk/cvjob-backend/internal/dtos"
	"github.com/cvjob-dk/cvjob-backend/internal/models"
)

// JobService is the persistence adapter for job postings.
type JobService struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

func NewJobService(db *gorm.DB, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{DB: db, Logger: logger}
}

func applyForm(job *models.JobPosting, form dtos.JobForm) {
	job.Title = form.Title
	job.Company = form.Company
	job.Description = form.Description
	job.ContactPerson = form.ContactPerson
	job.URL = form.URL
	if form.Deadline != "" {
		if d, err := time.Parse("2006-01-02", form.Deadline); err == nil {
			job.Deadline = &d
		}
	}
}

func (s *JobService) save(ctx context.Context, userID uint, form dtos.JobForm, draft bool) (*models.JobPosting, error) {
	var job models.JobPosting

	if form.ID != 0 {
		if err := s.DB.WithContext(ctx).
			Where("id = ? AND user_id = ?", form.ID, userID).
			First(&job).Error; err != nil {
			return nil, err
		}
		applyForm(&job, form)
		job.Draft = draft
		if err := s.DB.WithContext(ctx).Save(&job).Error; err != nil {
			s.Logger.Error("job.update_failed", "job_id", form.ID, "error", err)
			return nil, err
		}
		return &job, nil
	}

	job = models.JobPosting{UserID: userID, Draft: draft}
	applyForm(&job, form)
	if err := s.DB.WithContext(ctx).Create(&job).Error; err != nil {
		s.Logger.Error("job.create_failed", "user_id", userID, "error", err)
		return nil, err
	}
	return &job, nil
}

// CreateOrUpdate reuses the existing row when the form carries an id owned
// by the user; otherwise it creates a new posting. A resubmit after a failed
// generation therefore updates the same job instead of duplicating it.
func (s *JobService) CreateOrUpdate(ctx context.Context, userID uint, form dtos.JobForm) (*models.JobPosting, error) {
	return s.save(ctx, userID, form, false)
}

// SaveDraft persists a posting without a letter.
func (s *JobService) SaveDraft(ctx context.Context, userID uint, form dtos.JobForm) (*models.JobPosting, error) {
	return s.save(ctx, userID, form, true)
}

func (s *JobService) GetByID(ctx context.Context, userID, jobID uint) (*models.JobPosting, error) {
	var job models.JobPosting
	err := s.DB.WithContext(ctx).
		Preload("CoverLetter").
		Where("id = ? AND user_id = ?", jobID, userID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns the user's postings, newest first.
func (s *JobService) List(ctx context.Context, userID uint) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := s.DB.WithContext(ctx).
		Preload("CoverLetter").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}
