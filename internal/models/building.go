package models

import (
	"time"

	"rental-watch/internal/diff"
)

// LandlordProfile is the owner account of claimed buildings
type LandlordProfile struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (LandlordProfile) TableName() string {
	return "landlord_profiles"
}

// VerificationStatus of a building claim
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// ClaimedBuilding is an address claimed by a landlord. Only verified claims
// are checked for new records.
type ClaimedBuilding struct {
	ID                 uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	Address            string             `gorm:"type:varchar(255);not null" json:"address"`
	LandlordID         uint               `gorm:"not null;index" json:"landlord_id"`
	Landlord           *LandlordProfile   `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"verification_status"`
	LastViolationCount int                `gorm:"not null;default:0" json:"last_violation_count"`
	LastComplaintCount int                `gorm:"not null;default:0" json:"last_complaint_count"`
	LastCheckedAt      *time.Time         `json:"last_checked_at,omitempty"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (ClaimedBuilding) TableName() string {
	return "claimed_buildings"
}

// IsVerified reports whether the claim has been verified
func (b *ClaimedBuilding) IsVerified() bool {
	return b.VerificationStatus == VerificationVerified
}

// Baseline returns the stored counters
func (b *ClaimedBuilding) Baseline() diff.Counts {
	return diff.Counts{Violations: b.LastViolationCount, Complaints: b.LastComplaintCount}
}
