package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementOperation("settle", "ok")
	m.IncrementOperation("settle", "ok")
	m.IncrementOperation("settle", "unauthorized")
	m.ObserveSettlement(3, 10*time.Millisecond)
	m.IncrementCompensation(true)
	m.IncrementCompensation(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("settle", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("settle", "unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compensations.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BatchSize))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementOperation("deposit", "ok")
		m.ObserveSettlement(1, time.Second)
		m.IncrementCompensation(true)
	})
}
