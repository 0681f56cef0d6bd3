package database

import (
	"context"
	"time"

	"rental-watch/internal/diff"
	"rental-watch/internal/models"
)

// CreateLandlord inserts a landlord profile
func (gdb *GormDB) CreateLandlord(ctx context.Context, l *models.LandlordProfile) error {
	return gdb.db.WithContext(ctx).Create(l).Error
}

// CreateBuilding inserts a building claim
func (gdb *GormDB) CreateBuilding(ctx context.Context, b *models.ClaimedBuilding) error {
	return gdb.db.WithContext(ctx).Create(b).Error
}

// VerifiedBuildings returns verified claims with their landlord loaded
func (gdb *GormDB) VerifiedBuildings(ctx context.Context) ([]models.ClaimedBuilding, error) {
	var buildings []models.ClaimedBuilding
	err := gdb.db.WithContext(ctx).
		Preload("Landlord").
		Where("verification_status = ?", models.VerificationVerified).
		Order("id ASC").
		Find(&buildings).Error
	return buildings, err
}

// AdvanceBuilding stores a building's new baseline
func (gdb *GormDB) AdvanceBuilding(ctx context.Context, id uint, baseline diff.Counts, checkedAt time.Time) error {
	return gdb.db.WithContext(ctx).
		Model(&models.ClaimedBuilding{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_violation_count": baseline.Violations,
			"last_complaint_count": baseline.Complaints,
			"last_checked_at":      checkedAt,
		}).Error
}

// CreateAlerts inserts alert rows in one statement
func (gdb *GormDB) CreateAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return gdb.db.WithContext(ctx).Create(&alerts).Error
}

// AlertsForBuilding returns a building's alerts, newest first
func (gdb *GormDB) AlertsForBuilding(ctx context.Context, buildingID uint) ([]models.Alert, error) {
	var alerts []models.Alert
	err := gdb.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("created_at DESC, id DESC").
		Find(&alerts).Error
	return alerts, err
}
