package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-watch/internal/config"
	"rental-watch/internal/database"
	"rental-watch/internal/models"
	"rental-watch/internal/neighborhood"
	"rental-watch/internal/notify"
	"rental-watch/internal/opendata"
	"rental-watch/internal/pipeline"
	"rental-watch/internal/search"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeJob struct {
	calls  int
	report *pipeline.Report
	err    error
}

func (j *fakeJob) Run(context.Context) (*pipeline.Report, error) {
	j.calls++
	return j.report, j.err
}

func okReport() *pipeline.Report {
	return &pipeline.Report{
		RunID:    "run-1",
		Items:    []pipeline.ItemResult{{Key: "1 A ST"}, {Key: "2 B ST", Err: errors.New("boom")}, {Key: "3 C ST"}},
		Dispatch: notify.Result{Attempted: 2, Sent: 2},
	}
}

func newCronRouter(h *CronHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/cron/check-watches", h.CheckWatches)
	r.POST("/api/cron/landlord-alerts", h.LandlordAlerts)
	r.GET("/api/admin/runs", h.ListRuns)
	return r
}

func do(r http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTriggerAuth(t *testing.T) {
	job := &fakeJob{report: okReport()}
	r := newCronRouter(NewCronHandler("s3cret", nil, job, job, nil))

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/cron/check-watches", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/cron/check-watches", "Bearer wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/cron/check-watches", "s3cret").Code)
	assert.Equal(t, 0, job.calls)

	w := do(r, http.MethodPost, "/api/cron/check-watches", "Bearer s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3.0, body["checked"])
	assert.Equal(t, 2.0, body["notified"])
	assert.Equal(t, 1.0, body["failed"])
	assert.Equal(t, "run-1", body["run_id"])
}

func TestTriggerEmptySecretRejectsEverything(t *testing.T) {
	job := &fakeJob{report: okReport()}
	r := newCronRouter(NewCronHandler("", nil, job, job, nil))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/cron/landlord-alerts", "Bearer ").Code)
	assert.Equal(t, 0, job.calls)
}

func TestTriggerMissingCredentials(t *testing.T) {
	job := &fakeJob{report: okReport()}
	creds := func() error { return &config.MissingCredentialsError{Missing: []string{"email.api_key"}} }
	r := newCronRouter(NewCronHandler("s3cret", creds, job, job, nil))

	// auth is checked first
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/cron/landlord-alerts", "").Code)

	w := do(r, http.MethodPost, "/api/cron/landlord-alerts", "Bearer s3cret")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "email.api_key")
	assert.Equal(t, 0, job.calls)
}

func TestTriggerErrors(t *testing.T) {
	held := &fakeJob{err: fmt.Errorf("acquire: %w", database.ErrLeaseHeld)}
	broken := &fakeJob{err: errors.New("load watches: db down")}
	r := newCronRouter(NewCronHandler("s3cret", nil, held, broken, nil))

	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/cron/check-watches", "Bearer s3cret").Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/api/cron/landlord-alerts", "Bearer s3cret").Code)
}

// hangupJob cancels the caller's request partway through its run and
// records whether its own context survived.
type hangupJob struct {
	hangup     context.CancelFunc
	errAfter   error
	dispatched bool
}

func (j *hangupJob) Run(ctx context.Context) (*pipeline.Report, error) {
	j.hangup()
	j.errAfter = ctx.Err()
	if ctx.Err() == nil {
		j.dispatched = true
	}
	return okReport(), nil
}

func TestTriggerRunsToCompletionWhenCallerHangsUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	job := &hangupJob{hangup: cancel}
	r := newCronRouter(NewCronHandler("s3cret", nil, job, job, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/cron/check-watches", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Error(t, ctx.Err())
	assert.NoError(t, job.errAfter)
	assert.True(t, job.dispatched)
	assert.Equal(t, http.StatusOK, w.Code)
}

type fakeRuns struct{}

func (fakeRuns) RecentJobRuns(_ context.Context, job string, limit int) ([]models.JobRun, error) {
	return []models.JobRun{{RunID: "r1", Job: job, Checked: limit}}, nil
}

func TestListRuns(t *testing.T) {
	r := newCronRouter(NewCronHandler("s3cret", nil, nil, nil, fakeRuns{}))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/admin/runs", "").Code)

	w := do(r, http.MethodGet, "/api/admin/runs?job=check-watches&limit=5", "Bearer s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"job":"check-watches"`)
	assert.Contains(t, w.Body.String(), `"checked":5`)
}

type fakeRecords struct {
	variants [][]string
	permErr  error
}

func (f *fakeRecords) FetchViolations(_ context.Context, v []string) ([]opendata.Violation, error) {
	return []opendata.Violation{{ID: "1", Status: "OPEN"}, {ID: "2", Status: "COMPLIED"}}, nil
}

func (f *fakeRecords) FetchServiceRequests(_ context.Context, v []string) ([]opendata.ServiceRequest, error) {
	return []opendata.ServiceRequest{{Number: "SR1", Type: "No Heat Complaint"}, {Number: "SR2", Type: "Pothole in Street Complaint"}}, nil
}

func (f *fakeRecords) FetchPermits(_ context.Context, v []string) ([]opendata.Permit, error) {
	f.variants = append(f.variants, v)
	if f.permErr != nil {
		return nil, f.permErr
	}
	return []opendata.Permit{}, nil
}

func TestGetAddressRecords(t *testing.T) {
	src := &fakeRecords{}
	r := gin.New()
	r.GET("/api/addresses/:slug/records", NewRecordsHandler(src).GetAddressRecords)

	w := do(r, http.MethodGet, "/api/addresses/1550-n-lake-shore-dr/records", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Address  string         `json:"address"`
		Variants []string       `json:"variants"`
		Summary  map[string]int `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1550 N LAKE SHORE DR", body.Address)
	assert.Equal(t, []string{"1550 N LAKE SHORE DR", "1550 LAKE SHORE DR"}, body.Variants)
	assert.Equal(t, 1, body.Summary["open_violations"])
	assert.Equal(t, 1, body.Summary["building_requests"])

	src.permErr = &opendata.Error{Dataset: "ydr8-5enu", StatusCode: 500}
	w = do(r, http.MethodGet, "/api/addresses/1550-n-lake-shore-dr/records", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "ydr8-5enu")
}

type fakeAgg struct {
	gotID int
}

func (f *fakeAgg) FetchFullNeighborhoodData(_ context.Context, areaID int, name string) (*neighborhood.Result, error) {
	f.gotID = areaID
	return &neighborhood.Result{AreaID: areaID, AreaName: name}, nil
}

func TestGetNeighborhood(t *testing.T) {
	agg := &fakeAgg{}
	h := NewNeighborhoodHandler(agg)
	r := gin.New()
	r.GET("/api/neighborhoods", h.GetNeighborhood)
	r.GET("/api/neighborhoods/areas", h.ListAreas)

	w := do(r, http.MethodGet, "/api/neighborhoods?q=Wicker+Park", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 24, agg.gotID)
	assert.Contains(t, w.Body.String(), `"area_name":"West Town"`)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/neighborhoods?q=atlantis", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/neighborhoods", "").Code)
	assert.Contains(t, do(r, http.MethodGet, "/api/neighborhoods/areas", "").Body.String(), `"count":77`)
}

type fakeSearcher struct {
	got search.FilterParams
}

func (f *fakeSearcher) Search(p search.FilterParams) ([]search.BuildingDocument, error) {
	f.got = p
	return []search.BuildingDocument{{ID: "1-a-st", Address: "1 A ST"}}, nil
}

type fakeUnsub struct{}

func (fakeUnsub) Unsubscribe(_ context.Context, token string) (bool, error) {
	return token == "good", nil
}

func TestBuildingHandler(t *testing.T) {
	s := &fakeSearcher{}
	h := NewBuildingHandler(s, fakeUnsub{})
	r := gin.New()
	r.GET("/api/buildings/search", h.SearchBuildings)
	r.POST("/api/unsubscribe", h.Unsubscribe)

	w := do(r, http.MethodGet, "/api/buildings/search?q=division&min_violations=2&open=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "division", s.got.Query)
	require.NotNil(t, s.got.MinViolations)
	assert.Equal(t, 2, *s.got.MinViolations)
	assert.Nil(t, s.got.MinComplaints)
	assert.True(t, s.got.OpenViolations)

	form := httptest.NewRequest(http.MethodPost, "/api/unsubscribe", strings.NewReader(url.Values{"token": {"good"}}.Encode()))
	form.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, form)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/unsubscribe?token=good", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/unsubscribe?token=bad", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/unsubscribe", "").Code)
	// a prefetched link must not unsubscribe
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/unsubscribe?token=good", "").Code)

	r2 := gin.New()
	r2.GET("/api/buildings/search", NewBuildingHandler(nil, nil).SearchBuildings)
	assert.Equal(t, http.StatusServiceUnavailable, do(r2, http.MethodGet, "/api/buildings/search?q=x", "").Code)
}
