package models

import "time"

// Alert is a change notice for a claimed building. Rows are written once by
// the landlord job; only the consumer flips Read.
type Alert struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	BuildingID  uint      `gorm:"not null;index" json:"building_id"`
	AlertType   string    `gorm:"type:varchar(32);not null" json:"alert_type"` // violation, service_request
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Severity    string    `gorm:"type:varchar(10);not null" json:"severity"` // low, medium, high
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (Alert) TableName() string {
	return "alerts"
}
