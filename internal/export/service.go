// Package export produces downloadable XLSX workbooks of a user's job
// applications and letters.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cvjob-dk/cvjob-backend/internal/models"
)

// JobLister is the slice of the job adapter the exporter needs.
type JobLister interface {
	List(ctx context.Context, userID uint) ([]models.JobPosting, error)
}

type Service struct {
	jobs   JobLister
	logger *slog.Logger
}

func NewService(jobs JobLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

const sheetName = "Ansøgninger"

var headers = []string{
	"Virksomhed",
	"Stilling",
	"Kontaktperson",
	"Frist",
	"Status",
	"Oprettet",
	"Ansøgning",
}

// ApplicationsXLSX returns a workbook listing the user's postings with their
// letter status.
func (s *Service) ApplicationsXLSX(ctx context.Context, userID uint) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for row, job := range jobs {
		values := []any{
			job.Company,
			job.Title,
			job.ContactPerson,
			formatDeadline(job.Deadline),
			statusLabel(job),
			job.CreatedAt.Format("2006-01-02"),
			letterExcerpt(job.CoverLetter),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.ok", "user_id", userID, "rows", len(jobs), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

func formatDeadline(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}

func statusLabel(job models.JobPosting) string {
	switch {
	case job.CoverLetter != nil:
		return "Ansøgning klar"
	case job.Draft:
		return "Kladde"
	default:
		return "Jobopslag gemt"
	}
}

func letterExcerpt(letter *models.CoverLetter) string {
	if letter == nil {
		return ""
	}
	const max = 500
	if len(letter.Content) > max {
		return letter.Content[:max] + "..."
	}
	return letter.Content
}
