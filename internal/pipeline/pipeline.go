package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"rental-watch/internal/metrics"
	"rental-watch/internal/models"
	"rental-watch/internal/notify"
	"rental-watch/internal/opendata"
	"rental-watch/internal/search"
)

// RecordSource fetches the two record types the jobs count.
type RecordSource interface {
	FetchViolations(ctx context.Context, variants []string) ([]opendata.Violation, error)
	FetchServiceRequests(ctx context.Context, variants []string) ([]opendata.ServiceRequest, error)
}

// RunStore persists finished runs.
type RunStore interface {
	SaveJobRun(ctx context.Context, run *models.JobRun) error
	SaveNotificationLog(ctx context.Context, entry *models.NotificationLog) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []notify.Message) notify.Result
}

// Indexer refreshes an address in the building search index.
type Indexer interface {
	IndexBuilding(doc search.BuildingDocument) error
}

type SummaryPoster interface {
	PostSummary(ctx context.Context, s notify.RunSummary) error
}

// Lease serializes runs of one job across processes.
type Lease interface {
	Acquire(ctx context.Context, job string) (release func(), err error)
}

// Deps are the collaborators shared by both jobs. Indexer, Slack, Lease,
// Runs and Metrics are optional.
type Deps struct {
	Source     RecordSource
	Renderer   *notify.Renderer
	Dispatcher Dispatcher
	Runs       RunStore
	Indexer    Indexer
	Slack      SummaryPoster
	Lease      Lease
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Stages at which an item can fail.
const (
	StageLoad    = "load"
	StageFetch   = "fetch"
	StageRender  = "render"
	StagePersist = "persist"
)

// FetchError is an open-data failure for one address. The address keeps its
// old baseline until a later run succeeds.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failed write for one address.
type PersistenceError struct {
	Key string
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// acquire takes the job lease when one is configured.
func (d *Deps) acquire(ctx context.Context, job string) (func(), error) {
	if d.Lease == nil {
		return func() {}, nil
	}
	return d.Lease.Acquire(ctx, job)
}

// finish records the report everywhere it goes. Failures here are logged
// only; the run itself already happened.
func (d *Deps) finish(ctx context.Context, r *Report, log *logrus.Entry) {
	d.Metrics.Dispatched(r.Job, r.Dispatch.Sent, r.Dispatch.FailedBatches)
	d.Metrics.ObserveRun(r.Job, r.Duration())

	if d.Runs != nil {
		run, err := r.JobRun()
		if err == nil {
			err = d.Runs.SaveJobRun(ctx, run)
		}
		if err != nil {
			log.WithError(err).Error("failed to save job run")
		}
		if err := d.Runs.SaveNotificationLog(ctx, r.NotificationLog()); err != nil {
			log.WithError(err).Error("failed to save notification log")
		}
	}

	if d.Slack != nil {
		if err := d.Slack.PostSummary(ctx, r.Summary()); err != nil {
			log.WithError(err).Warn("failed to post run summary")
		}
	}

	log.WithFields(logrus.Fields{
		"run_id":   r.RunID,
		"checked":  r.Checked(),
		"notified": r.Notified(),
		"failed":   r.Failed(),
		"elapsed":  r.Duration().Round(time.Millisecond),
	}).Info("run finished")
}
