package scheduler

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"rental-watch/internal/config"
	"rental-watch/internal/models"
	"rental-watch/internal/pipeline"
)

// Job is one of the batch pipelines.
type Job interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

var dailyTime = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// Scheduler runs the batch jobs in-process on cron schedules. It is the
// alternative to an external scheduler calling the trigger endpoints.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.JobConfig
	jobs      map[string]Job
	timeout   time.Duration
	log       *logrus.Entry
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a scheduler for the watch and landlord jobs in the
// given time zone
func NewScheduler(cfg config.JobConfig, loc *time.Location, watchJob, landlordJob Job) *Scheduler {
	log := logrus.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		cfg: cfg,
		jobs: map[string]Job{
			models.JobCheckWatches:   watchJob,
			models.JobLandlordAlerts: landlordJob,
		},
		timeout: 30 * time.Minute,
		log:     log,
	}
}

// Start registers both schedules and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.cfg.ScheduleEnabled {
		s.log.Info("in-process schedule disabled")
		return nil
	}

	schedules := map[string]string{
		models.JobCheckWatches:   s.cfg.WatchSchedule,
		models.JobLandlordAlerts: s.cfg.LandlordSchedule,
	}
	for name, raw := range schedules {
		if raw == "" {
			continue
		}
		spec, err := parseSchedule(raw)
		if err != nil {
			return fmt.Errorf("schedule for %s: %w", name, err)
		}
		name := name
		if _, err := s.cron.AddFunc(spec, func() { s.run(name) }); err != nil {
			return fmt.Errorf("schedule for %s: %w", name, err)
		}
		s.log.WithFields(logrus.Fields{"job": name, "cron": spec}).Info("job scheduled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.log.Info("stopped")
	}
}

// RunNow executes a job immediately, outside the schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) (*pipeline.Report, error) {
	job, ok := s.jobs[name]
	if !ok || job == nil {
		return nil, fmt.Errorf("unknown job %q", name)
	}
	return job.Run(ctx)
}

func (s *Scheduler) run(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log := s.log.WithField("job", name)
	log.Info("scheduled run starting")
	report, err := s.RunNow(ctx, name)
	if err != nil {
		log.WithError(err).Error("scheduled run failed")
		return
	}
	log.WithFields(logrus.Fields{
		"checked":  report.Checked(),
		"notified": report.Notified(),
		"failed":   report.Failed(),
	}).Info("scheduled run completed")
}

// parseSchedule accepts a standard five-field cron spec or a daily "HH:MM"
func parseSchedule(raw string) (string, error) {
	spec := raw
	if m := dailyTime.FindStringSubmatch(raw); m != nil {
		var hour, minute int
		fmt.Sscanf(m[1]+" "+m[2], "%d %d", &hour, &minute)
		if hour > 23 || minute > 59 {
			return "", fmt.Errorf("invalid time %q", raw)
		}
		spec = fmt.Sprintf("%d %d * * *", minute, hour)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("invalid cron spec %q: %w", raw, err)
	}
	return spec, nil
}
