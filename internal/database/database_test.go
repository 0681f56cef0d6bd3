package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"rental-watch/internal/config"
	"rental-watch/internal/diff"
	"rental-watch/internal/models"
)

func newTestDB(t *testing.T) *GormDB {
	t.Helper()
	gdb, err := Connect(config.DatabaseConfig{
		Type:     "sqlite",
		SQLite:   config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, gdb.InitSchema())
	t.Cleanup(func() { gdb.Close() })
	return gdb
}

func TestConnectRejectsUnknownType(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestInactiveWatchStaysInactive(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()

	paused := &models.Watch{Email: "paused@example.com", Address: "1 A St", Active: false}
	live := &models.Watch{Email: "live@example.com", Address: "1 A St", Active: true}
	require.NoError(t, gdb.CreateWatch(ctx, paused))
	require.NoError(t, gdb.CreateWatch(ctx, live))

	var stored models.Watch
	require.NoError(t, gdb.DB().First(&stored, paused.ID).Error)
	assert.False(t, stored.Active)

	watches, err := gdb.ActiveWatches(ctx)
	require.NoError(t, err)
	require.Len(t, watches, 1)
	assert.Equal(t, "live@example.com", watches[0].Email)
}

func TestDSNs(t *testing.T) {
	assert.Equal(t,
		"u:p@tcp(db:3306)/rentals?charset=utf8mb4&parseTime=True&loc=UTC",
		MySQLDSN(config.MySQLConfig{Host: "db", Port: 3306, User: "u", Password: "p", Database: "rentals"}))
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=rentals sslmode=disable",
		PostgresDSN(config.PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "rentals"}))
}

func TestWatchLifecycle(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()

	a := &models.Watch{Email: "a@example.com", Address: "1550 N Lake Shore Dr", Active: true, LastViolationCount: 3, LastComplaintCount: 1}
	b := &models.Watch{Email: "b@example.com", Address: "1550 N Lake Shore Dr", Active: true}
	require.NoError(t, gdb.CreateWatch(ctx, a))
	require.NoError(t, gdb.CreateWatch(ctx, b))
	assert.NotEmpty(t, a.UnsubscribeToken)
	assert.NotEqual(t, a.UnsubscribeToken, b.UnsubscribeToken)

	checked := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, gdb.AdvanceWatches(ctx, []uint{a.ID, b.ID}, diff.Counts{Violations: 3, Complaints: 2}, checked))

	watches, err := gdb.ActiveWatches(ctx)
	require.NoError(t, err)
	require.Len(t, watches, 2)
	for _, w := range watches {
		assert.Equal(t, diff.Counts{Violations: 3, Complaints: 2}, w.Baseline())
		require.NotNil(t, w.LastCheckedAt)
		assert.True(t, checked.Equal(*w.LastCheckedAt))
	}

	ok, err := gdb.Unsubscribe(ctx, b.UnsubscribeToken)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = gdb.Unsubscribe(ctx, b.UnsubscribeToken)
	require.NoError(t, err)
	assert.False(t, ok)

	watches, err = gdb.ActiveWatches(ctx)
	require.NoError(t, err)
	require.Len(t, watches, 1)
	assert.Equal(t, "a@example.com", watches[0].Email)
}

func TestVerifiedBuildingsAndAlerts(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()

	owner := &models.LandlordProfile{Name: "Owner", Email: "owner@example.com"}
	require.NoError(t, gdb.CreateLandlord(ctx, owner))

	verified := &models.ClaimedBuilding{Address: "2400 W Division St", LandlordID: owner.ID, VerificationStatus: models.VerificationVerified}
	pending := &models.ClaimedBuilding{Address: "100 E Walton St", LandlordID: owner.ID, VerificationStatus: models.VerificationPending}
	require.NoError(t, gdb.CreateBuilding(ctx, verified))
	require.NoError(t, gdb.CreateBuilding(ctx, pending))

	buildings, err := gdb.VerifiedBuildings(ctx)
	require.NoError(t, err)
	require.Len(t, buildings, 1)
	assert.Equal(t, verified.ID, buildings[0].ID)
	require.NotNil(t, buildings[0].Landlord)
	assert.Equal(t, "owner@example.com", buildings[0].Landlord.Email)

	require.NoError(t, gdb.AdvanceBuilding(ctx, verified.ID, diff.Counts{Violations: 4, Complaints: 1}, time.Now()))
	buildings, err = gdb.VerifiedBuildings(ctx)
	require.NoError(t, err)
	assert.Equal(t, diff.Counts{Violations: 4, Complaints: 1}, buildings[0].Baseline())

	require.NoError(t, gdb.CreateAlerts(ctx, nil))
	require.NoError(t, gdb.CreateAlerts(ctx, []models.Alert{
		{BuildingID: verified.ID, AlertType: "violation", Title: "1 new violation", Severity: "low"},
		{BuildingID: verified.ID, AlertType: "service_request", Title: "2 new 311 complaints", Severity: "low"},
	}))
	alerts, err := gdb.AlertsForBuilding(ctx, verified.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.False(t, alerts[0].Read)
}

func TestJobRuns(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	for i, job := range []string{models.JobCheckWatches, models.JobLandlordAlerts, models.JobCheckWatches} {
		require.NoError(t, gdb.SaveJobRun(ctx, &models.JobRun{
			RunID:      "run-" + string(rune('a'+i)),
			Job:        job,
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
			FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Minute),
			Checked:    i,
			Report:     datatypes.JSON(`{"items":[]}`),
		}))
	}
	require.NoError(t, gdb.SaveNotificationLog(ctx, &models.NotificationLog{Job: models.JobCheckWatches, RunID: "run-c", Attempted: 3, Sent: 3}))

	runs, err := gdb.RecentJobRuns(ctx, models.JobCheckWatches, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].RunID)
	assert.Equal(t, time.Minute, runs[0].Duration())

	all, err := gdb.RecentJobRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLeaseKeyIsStablePerJob(t *testing.T) {
	assert.Equal(t, leaseKey(models.JobCheckWatches), leaseKey(models.JobCheckWatches))
	assert.NotEqual(t, leaseKey(models.JobCheckWatches), leaseKey(models.JobLandlordAlerts))
}
