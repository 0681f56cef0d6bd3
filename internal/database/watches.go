package database

import (
	"context"
	"time"

	"rental-watch/internal/diff"
	"rental-watch/internal/models"
)

// CreateWatch subscribes an email to an address
func (gdb *GormDB) CreateWatch(ctx context.Context, w *models.Watch) error {
	return gdb.db.WithContext(ctx).Create(w).Error
}

// ActiveWatches returns every active subscription, oldest first
func (gdb *GormDB) ActiveWatches(ctx context.Context) ([]models.Watch, error) {
	var watches []models.Watch
	err := gdb.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&watches).Error
	return watches, err
}

// AdvanceWatches writes the same baseline to every watch in ids
func (gdb *GormDB) AdvanceWatches(ctx context.Context, ids []uint, baseline diff.Counts, checkedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return gdb.db.WithContext(ctx).
		Model(&models.Watch{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"last_violation_count": baseline.Violations,
			"last_complaint_count": baseline.Complaints,
			"last_checked_at":      checkedAt,
		}).Error
}

// Unsubscribe deactivates the watch holding token
func (gdb *GormDB) Unsubscribe(ctx context.Context, token string) (bool, error) {
	res := gdb.db.WithContext(ctx).
		Model(&models.Watch{}).
		Where("unsubscribe_token = ? AND active = ?", token, true).
		Update("active", false)
	return res.RowsAffected > 0, res.Error
}
