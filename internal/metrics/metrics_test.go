package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ItemChecked("check-watches")
	m.ItemChecked("check-watches")
	m.ItemFailed("check-watches", "fetch")
	m.Dispatched("check-watches", 70, 1)
	m.ObserveRun("check-watches", 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsChecked.WithLabelValues("check-watches")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemFailures.WithLabelValues("check-watches", "fetch")))
	assert.Equal(t, 70.0, testutil.ToFloat64(m.sent.WithLabelValues("check-watches")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchFailures.WithLabelValues("check-watches")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.jobDuration))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ItemChecked("x")
		m.ItemFailed("x", "fetch")
		m.Dispatched("x", 1, 0)
		m.ObserveRun("x", time.Second)
	})
}
