package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"rental-watch/internal/address"
	"rental-watch/internal/diff"
	"rental-watch/internal/models"
	"rental-watch/internal/notify"
)

// WatchStore is the subscription state the watch job reads and advances.
type WatchStore interface {
	ActiveWatches(ctx context.Context) ([]models.Watch, error)
	AdvanceWatches(ctx context.Context, ids []uint, baseline diff.Counts, checkedAt time.Time) error
}

// WatchJob notifies subscribers of new records at the addresses they watch.
type WatchJob struct {
	store WatchStore
	deps  Deps
	log   *logrus.Entry
}

func NewWatchJob(store WatchStore, deps Deps) *WatchJob {
	return &WatchJob{
		store: store,
		deps:  deps,
		log:   logrus.WithField("component", "watch-job").WithField("job", models.JobCheckWatches),
	}
}

// watchGroup is every active subscription sharing one literal address.
type watchGroup struct {
	key     string
	members []models.Watch
}

// groupWatches groups by uppercased, trimmed address in first-seen order.
func groupWatches(watches []models.Watch) []watchGroup {
	index := make(map[string]int)
	var groups []watchGroup
	for _, w := range watches {
		key := address.GroupKey(w.Address)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, watchGroup{key: key})
		}
		groups[i].members = append(groups[i].members, w)
	}
	return groups
}

// Run checks every watched address once. Addresses are processed one at a
// time; a failure at one address is recorded in the report and the loop
// moves on. Emails are dispatched after the loop.
func (j *WatchJob) Run(ctx context.Context) (*Report, error) {
	release, err := j.deps.acquire(ctx, models.JobCheckWatches)
	if err != nil {
		return nil, err
	}
	defer release()

	report := newReport(models.JobCheckWatches, j.deps.now())
	log := j.log.WithField("run_id", report.RunID)

	watches, err := j.store.ActiveWatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watches: %w", err)
	}
	groups := groupWatches(watches)
	log.WithFields(logrus.Fields{"watches": len(watches), "addresses": len(groups)}).Info("starting run")

	var outbox []notify.Message
	for _, g := range groups {
		item, msgs := j.checkGroup(ctx, g)
		outbox = append(outbox, msgs...)
		report.add(item)

		j.deps.Metrics.ItemChecked(models.JobCheckWatches)
		if !item.OK() {
			j.deps.Metrics.ItemFailed(models.JobCheckWatches, item.Stage)
			log.WithError(item.Err).WithFields(logrus.Fields{"address": item.Key, "stage": item.Stage}).Warn("address failed, continuing")
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

func (j *WatchJob) checkGroup(ctx context.Context, g watchGroup) (ItemResult, []notify.Message) {
	item := ItemResult{Key: g.key}

	canonical := address.Normalize(g.key)
	obs, err := observe(ctx, j.deps.Source, address.Variants(canonical))
	if err != nil {
		item.Err, item.Stage = &FetchError{Key: g.key, Err: err}, StageFetch
		return item, nil
	}

	baselines := make([]diff.Counts, len(g.members))
	ids := make([]uint, len(g.members))
	for i := range g.members {
		baselines[i] = g.members[i].Baseline()
		ids[i] = g.members[i].ID
	}
	item.Current = obs.counts
	item.Baseline = diff.GroupBaseline(baselines)
	item.Delta = item.Current.Since(item.Baseline)

	var msgs []notify.Message
	if item.Delta.Any() {
		for _, w := range g.members {
			msg, err := j.deps.Renderer.Watch(notify.WatchNotice{
				Email:            w.Email,
				Address:          canonical,
				Delta:            item.Delta,
				Current:          item.Current,
				UnsubscribeToken: w.UnsubscribeToken,
			})
			if err != nil {
				item.Err, item.Stage = err, StageRender
				continue
			}
			msgs = append(msgs, msg)
		}
		item.Messages = len(msgs)
	}

	now := j.deps.now()
	if err := j.store.AdvanceWatches(ctx, ids, diff.Advance(item.Baseline, item.Current), now); err != nil {
		item.Err, item.Stage = &PersistenceError{Key: g.key, Op: "advance watches", Err: err}, StagePersist
	}

	if j.deps.Indexer != nil {
		if err := j.deps.Indexer.IndexBuilding(obs.document(canonical, now)); err != nil {
			j.log.WithError(err).WithField("address", canonical).Warn("search index update failed")
		}
	}
	return item, msgs
}
