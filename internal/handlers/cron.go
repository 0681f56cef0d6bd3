package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rental-watch/internal/config"
	"rental-watch/internal/database"
	"rental-watch/internal/models"
	"rental-watch/internal/pipeline"
)

// ErrUnauthorized is a missing or wrong trigger secret.
var ErrUnauthorized = errors.New("unauthorized")

// Job is a batch job that can be triggered over HTTP.
type Job interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// RunLister reads job history.
type RunLister interface {
	RecentJobRuns(ctx context.Context, job string, limit int) ([]models.JobRun, error)
}

// CronHandler exposes the batch jobs to an external scheduler
type CronHandler struct {
	secret      string
	credentials func() error
	watchJob    Job
	landlordJob Job
	runs        RunLister
	log         *logrus.Entry
}

// NewCronHandler creates a trigger handler. credentials reports whether the
// jobs have what they need to run; it is checked on every request.
func NewCronHandler(secret string, credentials func() error, watchJob, landlordJob Job, runs RunLister) *CronHandler {
	return &CronHandler{
		secret:      secret,
		credentials: credentials,
		watchJob:    watchJob,
		landlordJob: landlordJob,
		runs:        runs,
		log:         logrus.WithField("component", "cron"),
	}
}

// CheckWatches runs the watch job synchronously
func (h *CronHandler) CheckWatches(c *gin.Context) {
	h.trigger(c, models.JobCheckWatches, h.watchJob)
}

// LandlordAlerts runs the landlord alert job synchronously
func (h *CronHandler) LandlordAlerts(c *gin.Context) {
	h.trigger(c, models.JobLandlordAlerts, h.landlordJob)
}

// authorize compares the bearer token to the configured secret. An empty
// secret rejects everything.
func (h *CronHandler) authorize(c *gin.Context) error {
	if h.secret == "" {
		return ErrUnauthorized
	}
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func (h *CronHandler) trigger(c *gin.Context, name string, job Job) {
	if err := h.authorize(c); err != nil {
		h.log.WithField("job", name).Warn("rejected trigger with bad secret")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if h.credentials != nil {
		if err := h.credentials(); err != nil {
			var missing *config.MissingCredentialsError
			if errors.As(err, &missing) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured", "missing": missing.Missing})
				return
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
	}
	if job == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job not available"})
		return
	}

	h.log.WithField("job", name).Info("trigger received")
	// runs to completion even if the caller hangs up
	report, err := job.Run(context.WithoutCancel(c.Request.Context()))
	if errors.Is(err, database.ErrLeaseHeld) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("job", name).Error("run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checked":  report.Checked(),
		"notified": report.Notified(),
		"failed":   report.Failed(),
		"run_id":   report.RunID,
	})
}

// ListRuns returns recent job runs; it uses the same secret as the triggers
func (h *CronHandler) ListRuns(c *gin.Context) {
	if err := h.authorize(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not available"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.runs.RecentJobRuns(c.Request.Context(), c.Query("job"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}
