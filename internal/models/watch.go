package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rental-watch/internal/diff"
)

// Watch is an email subscription to changes at one address. Active has no
// column default; callers set it explicitly.
type Watch struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email              string     `gorm:"type:varchar(255);not null;index" json:"email"`
	Address            string     `gorm:"type:varchar(255);not null;index" json:"address"`
	Active             bool       `gorm:"not null;index" json:"active"`
	LastViolationCount int        `gorm:"not null;default:0" json:"last_violation_count"`
	LastComplaintCount int        `gorm:"not null;default:0" json:"last_complaint_count"`
	LastCheckedAt      *time.Time `json:"last_checked_at,omitempty"`
	UnsubscribeToken   string     `gorm:"type:varchar(36);uniqueIndex" json:"-"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Watch) TableName() string {
	return "watches"
}

// BeforeCreate assigns an unsubscribe token
func (w *Watch) BeforeCreate(tx *gorm.DB) error {
	if w.UnsubscribeToken == "" {
		w.UnsubscribeToken = uuid.NewString()
	}
	return nil
}

// Baseline returns the stored counters
func (w *Watch) Baseline() diff.Counts {
	return diff.Counts{Violations: w.LastViolationCount, Complaints: w.LastComplaintCount}
}
