package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job names
const (
	JobCheckWatches   = "check-watches"
	JobLandlordAlerts = "landlord-alerts"
)

// JobRun records one batch invocation and its per-item report
type JobRun struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID      string         `gorm:"type:varchar(36);not null;uniqueIndex" json:"run_id"`
	Job        string         `gorm:"type:varchar(50);not null;index" json:"job"`
	StartedAt  time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt time.Time      `gorm:"not null" json:"finished_at"`
	Checked    int            `gorm:"not null;default:0" json:"checked"`
	Notified   int            `gorm:"not null;default:0" json:"notified"`
	Failed     int            `gorm:"not null;default:0" json:"failed"`
	Report     datatypes.JSON `json:"report,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (JobRun) TableName() string {
	return "job_runs"
}

// Duration of the run
func (r *JobRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NotificationLog is the durable record of one run's email dispatch
type NotificationLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Job           string    `gorm:"type:varchar(50);not null;index" json:"job"`
	RunID         string    `gorm:"type:varchar(36);not null;index" json:"run_id"`
	Attempted     int       `gorm:"not null;default:0" json:"attempted"`
	Sent          int       `gorm:"not null;default:0" json:"sent"`
	FailedBatches int       `gorm:"not null;default:0" json:"failed_batches"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (NotificationLog) TableName() string {
	return "notification_logs"
}
