package pipeline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"rental-watch/internal/diff"
	"rental-watch/internal/models"
	"rental-watch/internal/notify"
)

// ItemResult is the outcome of checking one address group or building.
// Err is nil when the item was fully processed.
type ItemResult struct {
	Key      string
	Current  diff.Counts
	Baseline diff.Counts
	Delta    diff.Counts
	Messages int
	Alerts   int
	Err      error
	Stage    string
}

func (r ItemResult) OK() bool {
	return r.Err == nil
}

// Report collects every item of one run.
type Report struct {
	RunID      string
	Job        string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []ItemResult
	Dispatch   notify.Result
}

func newReport(job string, started time.Time) *Report {
	return &Report{RunID: uuid.NewString(), Job: job, StartedAt: started}
}

func (r *Report) add(item ItemResult) {
	r.Items = append(r.Items, item)
}

// Checked is the number of items the run looked at.
func (r *Report) Checked() int {
	return len(r.Items)
}

// Notified is the number of emails the provider accepted.
func (r *Report) Notified() int {
	return r.Dispatch.Sent
}

// Failed is the number of items that ended with an error.
func (r *Report) Failed() int {
	n := 0
	for _, it := range r.Items {
		if !it.OK() {
			n++
		}
	}
	return n
}

func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type reportItem struct {
	Key      string      `json:"key"`
	Current  diff.Counts `json:"current"`
	Baseline diff.Counts `json:"baseline"`
	Delta    diff.Counts `json:"delta"`
	Messages int         `json:"messages"`
	Alerts   int         `json:"alerts,omitempty"`
	Stage    string      `json:"stage,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type reportBody struct {
	Items    []reportItem  `json:"items"`
	Dispatch notify.Result `json:"dispatch"`
	Errors   []string      `json:"dispatch_errors,omitempty"`
}

// JobRun converts the report into its persisted row.
func (r *Report) JobRun() (*models.JobRun, error) {
	body := reportBody{Items: make([]reportItem, len(r.Items)), Dispatch: r.Dispatch}
	for i, it := range r.Items {
		ri := reportItem{
			Key:      it.Key,
			Current:  it.Current,
			Baseline: it.Baseline,
			Delta:    it.Delta,
			Messages: it.Messages,
			Alerts:   it.Alerts,
		}
		if it.Err != nil {
			ri.Stage = it.Stage
			ri.Error = it.Err.Error()
		}
		body.Items[i] = ri
	}
	for _, err := range r.Dispatch.Errors {
		body.Errors = append(body.Errors, err.Error())
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &models.JobRun{
		RunID:      r.RunID,
		Job:        r.Job,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Checked:    r.Checked(),
		Notified:   r.Notified(),
		Failed:     r.Failed(),
		Report:     datatypes.JSON(raw),
	}, nil
}

func (r *Report) NotificationLog() *models.NotificationLog {
	return &models.NotificationLog{
		Job:           r.Job,
		RunID:         r.RunID,
		Attempted:     r.Dispatch.Attempted,
		Sent:          r.Dispatch.Sent,
		FailedBatches: r.Dispatch.FailedBatches,
	}
}

func (r *Report) Summary() notify.RunSummary {
	return notify.RunSummary{
		Job:      r.Job,
		RunID:    r.RunID,
		Checked:  r.Checked(),
		Notified: r.Notified(),
		Failed:   r.Failed(),
		Dispatch: r.Dispatch,
		Duration: r.Duration(),
	}
}
