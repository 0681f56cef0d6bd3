package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-watch/internal/diff"
	"rental-watch/internal/models"
)

type fakeBuildingStore struct {
	buildings []models.ClaimedBuilding
	alerts    []models.Alert
	advanced  map[uint]diff.Counts
	alertErr  error
}

func (s *fakeBuildingStore) VerifiedBuildings(context.Context) ([]models.ClaimedBuilding, error) {
	return s.buildings, nil
}

func (s *fakeBuildingStore) AdvanceBuilding(_ context.Context, id uint, baseline diff.Counts, _ time.Time) error {
	if s.advanced == nil {
		s.advanced = make(map[uint]diff.Counts)
	}
	s.advanced[id] = baseline
	return nil
}

func (s *fakeBuildingStore) CreateAlerts(_ context.Context, alerts []models.Alert) error {
	if s.alertErr != nil {
		return s.alertErr
	}
	s.alerts = append(s.alerts, alerts...)
	return nil
}

func verified(id uint, addr string, baseline diff.Counts) models.ClaimedBuilding {
	return models.ClaimedBuilding{
		ID:                 id,
		Address:            addr,
		LandlordID:         9,
		Landlord:           &models.LandlordProfile{ID: 9, Email: "owner@example.com"},
		VerificationStatus: models.VerificationVerified,
		LastViolationCount: baseline.Violations,
		LastComplaintCount: baseline.Complaints,
	}
}

func TestLandlordJobCreatesAlerts(t *testing.T) {
	src := &fakeSource{counts: map[string]diff.Counts{
		"2400 W DIVISION ST": {Violations: 4, Complaints: 3},
		"100 E WALTON ST":    {Violations: 1, Complaints: 1},
	}}
	pending := verified(3, "5 E Pending St", diff.Counts{})
	pending.VerificationStatus = models.VerificationPending
	store := &fakeBuildingStore{buildings: []models.ClaimedBuilding{
		verified(1, "2400 W Division Street", diff.Counts{Violations: 1, Complaints: 1}),
		verified(2, "100 E. Walton St.", diff.Counts{Violations: 1, Complaints: 1}),
		pending,
	}}
	d := &fakeDispatcher{}

	report, err := NewLandlordAlertJob(store, testDeps(src, d, nil)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Items, 2)
	assert.Equal(t, diff.Counts{Violations: 3, Complaints: 2}, report.Items[0].Delta)
	assert.Equal(t, 2, report.Items[0].Alerts)
	assert.False(t, report.Items[1].Delta.Any())

	require.Len(t, store.alerts, 2)
	assert.Equal(t, "violation", store.alerts[0].AlertType)
	assert.Equal(t, "service_request", store.alerts[1].AlertType)
	assert.Equal(t, "high", store.alerts[0].Severity)
	assert.Equal(t, "high", store.alerts[1].Severity)
	assert.Equal(t, uint(1), store.alerts[0].BuildingID)
	assert.Contains(t, store.alerts[0].Title, "3 new violations")

	require.Len(t, d.msgs, 1)
	assert.Equal(t, "owner@example.com", d.msgs[0].To)
	assert.Equal(t, "[high] New activity at 2400 W DIVISION ST", d.msgs[0].Subject)

	assert.Equal(t, diff.Counts{Violations: 4, Complaints: 3}, store.advanced[1])
	assert.Equal(t, diff.Counts{Violations: 1, Complaints: 1}, store.advanced[2])
	_, touched := store.advanced[3]
	assert.False(t, touched)
}

func TestLandlordJobAlertFailureKeepsBaseline(t *testing.T) {
	src := &fakeSource{counts: map[string]diff.Counts{
		"2400 W DIVISION ST": {Violations: 2},
	}}
	store := &fakeBuildingStore{
		buildings: []models.ClaimedBuilding{verified(1, "2400 W Division St", diff.Counts{})},
		alertErr:  errors.New("disk full"),
	}
	d := &fakeDispatcher{}

	report, err := NewLandlordAlertJob(store, testDeps(src, d, nil)).Run(context.Background())
	require.NoError(t, err)

	var pErr *PersistenceError
	require.True(t, errors.As(report.Items[0].Err, &pErr))
	assert.Equal(t, "create alerts", pErr.Op)
	assert.Nil(t, store.advanced)
	assert.Empty(t, d.msgs)
}

func TestLandlordJobFetchFailure(t *testing.T) {
	src := &fakeSource{fail: map[string]error{"2400 W DIVISION ST": errors.New("timeout")}}
	store := &fakeBuildingStore{buildings: []models.ClaimedBuilding{verified(1, "2400 W Division St", diff.Counts{})}}

	report, err := NewLandlordAlertJob(store, testDeps(src, &fakeDispatcher{}, nil)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StageFetch, report.Items[0].Stage)
	assert.Equal(t, 1, report.Failed())
	assert.Nil(t, store.advanced)
}

func TestLandlordJobShrinkingCountKeepsBaseline(t *testing.T) {
	src := &fakeSource{counts: map[string]diff.Counts{
		"2400 W DIVISION ST": {Violations: 2, Complaints: 2},
	}}
	store := &fakeBuildingStore{buildings: []models.ClaimedBuilding{
		verified(1, "2400 W Division St", diff.Counts{Violations: 4, Complaints: 2}),
	}}
	d := &fakeDispatcher{}

	report, err := NewLandlordAlertJob(store, testDeps(src, d, nil)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Items[0].OK())
	assert.Empty(t, store.alerts)
	assert.Empty(t, d.msgs)
	assert.Equal(t, diff.Counts{Violations: 4, Complaints: 2}, store.advanced[1])
}
