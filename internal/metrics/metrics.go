package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the job counters. All methods are safe on a nil receiver.
type Metrics struct {
	itemsChecked  *prometheus.CounterVec
	itemFailures  *prometheus.CounterVec
	sent          *prometheus.CounterVec
	batchFailures *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
}

// New registers the job metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		itemsChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalwatch_items_checked_total",
			Help: "Addresses or buildings processed by a job.",
		}, []string{"job"}),
		itemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalwatch_item_failures_total",
			Help: "Items that failed, by stage.",
		}, []string{"job", "stage"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalwatch_notifications_sent_total",
			Help: "Emails accepted by the provider.",
		}, []string{"job"}),
		batchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalwatch_notification_batch_failures_total",
			Help: "Email batches the provider rejected.",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentalwatch_job_duration_seconds",
			Help:    "Wall time of a job run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),
	}
	reg.MustRegister(m.itemsChecked, m.itemFailures, m.sent, m.batchFailures, m.jobDuration)
	return m
}

func (m *Metrics) ItemChecked(job string) {
	if m == nil {
		return
	}
	m.itemsChecked.WithLabelValues(job).Inc()
}

func (m *Metrics) ItemFailed(job, stage string) {
	if m == nil {
		return
	}
	m.itemFailures.WithLabelValues(job, stage).Inc()
}

func (m *Metrics) Dispatched(job string, sent, failedBatches int) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(job).Add(float64(sent))
	m.batchFailures.WithLabelValues(job).Add(float64(failedBatches))
}

func (m *Metrics) ObserveRun(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}
