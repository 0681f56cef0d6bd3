package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"rental-watch/internal/address"
	"rental-watch/internal/diff"
	"rental-watch/internal/models"
	"rental-watch/internal/notify"
)

// BuildingStore is the claimed-building state the landlord job reads and
// advances.
type BuildingStore interface {
	VerifiedBuildings(ctx context.Context) ([]models.ClaimedBuilding, error)
	AdvanceBuilding(ctx context.Context, id uint, baseline diff.Counts, checkedAt time.Time) error
	CreateAlerts(ctx context.Context, alerts []models.Alert) error
}

// LandlordAlertJob records alerts and emails owners about new records at
// their verified buildings.
type LandlordAlertJob struct {
	store BuildingStore
	deps  Deps
	log   *logrus.Entry
}

func NewLandlordAlertJob(store BuildingStore, deps Deps) *LandlordAlertJob {
	return &LandlordAlertJob{
		store: store,
		deps:  deps,
		log:   logrus.WithField("component", "landlord-job").WithField("job", models.JobLandlordAlerts),
	}
}

// Run checks every verified building once, with the same per-item failure
// boundary as the watch job.
func (j *LandlordAlertJob) Run(ctx context.Context) (*Report, error) {
	release, err := j.deps.acquire(ctx, models.JobLandlordAlerts)
	if err != nil {
		return nil, err
	}
	defer release()

	report := newReport(models.JobLandlordAlerts, j.deps.now())
	log := j.log.WithField("run_id", report.RunID)

	buildings, err := j.store.VerifiedBuildings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load buildings: %w", err)
	}
	log.WithField("buildings", len(buildings)).Info("starting run")

	var outbox []notify.Message
	for i := range buildings {
		b := &buildings[i]
		if !b.IsVerified() {
			continue
		}
		item, msgs := j.checkBuilding(ctx, b)
		outbox = append(outbox, msgs...)
		report.add(item)

		j.deps.Metrics.ItemChecked(models.JobLandlordAlerts)
		if !item.OK() {
			j.deps.Metrics.ItemFailed(models.JobLandlordAlerts, item.Stage)
			log.WithError(item.Err).WithFields(logrus.Fields{"building": item.Key, "stage": item.Stage}).Warn("building failed, continuing")
		}
	}

	// baselines behind the outbox are already stored
	ctx = context.WithoutCancel(ctx)
	if len(outbox) > 0 {
		report.Dispatch = j.deps.Dispatcher.Dispatch(ctx, outbox)
	}
	report.FinishedAt = j.deps.now()
	j.deps.finish(ctx, report, log)
	return report, nil
}

func (j *LandlordAlertJob) checkBuilding(ctx context.Context, b *models.ClaimedBuilding) (ItemResult, []notify.Message) {
	key := strconv.FormatUint(uint64(b.ID), 10) + ":" + b.Address
	item := ItemResult{Key: key, Baseline: b.Baseline()}

	canonical := address.Normalize(b.Address)
	obs, err := observe(ctx, j.deps.Source, address.Variants(canonical))
	if err != nil {
		item.Err, item.Stage = &FetchError{Key: key, Err: err}, StageFetch
		return item, nil
	}
	item.Current = obs.counts
	item.Delta = item.Current.Since(item.Baseline)

	var msgs []notify.Message
	if item.Delta.Any() {
		alerts := diff.BuildAlerts(canonical, item.Delta, item.Current)
		rows := make([]models.Alert, len(alerts))
		for i, a := range alerts {
			rows[i] = models.Alert{
				BuildingID:  b.ID,
				AlertType:   a.Type.String(),
				Title:       a.Title,
				Description: a.Description,
				Severity:    a.Severity.String(),
			}
		}
		// without its alerts the building keeps its old baseline and is
		// retried whole on the next run
		if err := j.store.CreateAlerts(ctx, rows); err != nil {
			item.Err, item.Stage = &PersistenceError{Key: key, Op: "create alerts", Err: err}, StagePersist
			return item, nil
		}
		item.Alerts = len(rows)

		if b.Landlord != nil && b.Landlord.Email != "" {
			msg, err := j.deps.Renderer.Landlord(notify.LandlordNotice{
				Email:      b.Landlord.Email,
				Address:    canonical,
				BuildingID: b.ID,
				Delta:      item.Delta,
				Current:    item.Current,
				Severity:   diff.Classify(item.Delta.Total()),
			})
			if err != nil {
				item.Err, item.Stage = err, StageRender
			} else {
				msgs = append(msgs, msg)
				item.Messages = 1
			}
		}
	}

	now := j.deps.now()
	if err := j.store.AdvanceBuilding(ctx, b.ID, diff.Advance(item.Baseline, item.Current), now); err != nil {
		item.Err, item.Stage = &PersistenceError{Key: key, Op: "advance building", Err: err}, StagePersist
	}

	if j.deps.Indexer != nil {
		if err := j.deps.Indexer.IndexBuilding(obs.document(canonical, now)); err != nil {
			j.log.WithError(err).WithField("address", canonical).Warn("search index update failed")
		}
	}
	return item, msgs
}
