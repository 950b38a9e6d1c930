package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email string `gorm:"uniqueIndex;not null" json:"email"`
	// Token authenticates API calls from the SPA. Issued out of band.
	Token string `gorm:"uniqueIndex;not null" json:"-"`
	Name  string `json:"name"`
	Title string `json:"title"`
	// Profile is the free-text background the generator weaves into letters.
	Profile string `gorm:"type:text" json:"profile"`
	// CVText is the extracted text of the user's uploaded CV.
	CVText string `gorm:"type:text" json:"-"`
}

type JobPosting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint `gorm:"index;not null" json:"user_id"`

	Title         string     `gorm:"not null" json:"title"`
	Company       string     `gorm:"not null" json:"company"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	ContactPerson string     `json:"contact_person,omitempty"`
	URL           string     `json:"url,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	// Draft marks a posting saved without a generated letter.
	Draft bool `gorm:"default:false" json:"draft"`

	// 'omitempty' prevents loops when fetching a JobPosting -> CoverLetter -> ...
	CoverLetter *CoverLetter `json:"cover_letter,omitempty"`
}

type CoverLetter struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID       uint `gorm:"index;not null" json:"user_id"`
	JobPostingID uint `gorm:"index;not null" json:"job_posting_id"`

	Content string `gorm:"type:text;not null" json:"content"`
	Locale  string `gorm:"default:'da'" json:"locale"`
}
