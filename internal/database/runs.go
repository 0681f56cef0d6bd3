package database

import (
	"context"

	"rental-watch/internal/models"
)

// SaveJobRun records a finished batch invocation
func (gdb *GormDB) SaveJobRun(ctx context.Context, run *models.JobRun) error {
	return gdb.db.WithContext(ctx).Create(run).Error
}

// SaveNotificationLog records a run's email dispatch totals
func (gdb *GormDB) SaveNotificationLog(ctx context.Context, entry *models.NotificationLog) error {
	return gdb.db.WithContext(ctx).Create(entry).Error
}

// RecentJobRuns returns the latest runs of job, newest first. An empty job
// returns runs of every job.
func (gdb *GormDB) RecentJobRuns(ctx context.Context, job string, limit int) ([]models.JobRun, error) {
	if limit <= 0 {
		limit = 20
	}
	q := gdb.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit)
	if job != "" {
		q = q.Where("job = ?", job)
	}
	var runs []models.JobRun
	err := q.Find(&runs).Error
	return runs, err
}
