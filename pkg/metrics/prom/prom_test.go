package prom

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAdapter_RecordsAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "cachecoord", "test", nil)

	a.LockAcquired("Exclusive")
	a.LockAcquired("Exclusive")
	a.LockReleased("Exclusive")
	a.ContentionObserved()
	a.UseCacheDuration(150 * time.Millisecond)
	a.CacheBuilt("widgets")

	assert.Equal(t, float64(2), testutil.ToFloat64(a.locksAcquired.WithLabelValues("Exclusive")))
	assert.Equal(t, float64(1), testutil.ToFloat64(a.locksReleased.WithLabelValues("Exclusive")))
	assert.Equal(t, float64(1), testutil.ToFloat64(a.contentions))
	assert.Equal(t, float64(1), testutil.ToFloat64(a.cachesBuilt.WithLabelValues("widgets")))
}

func TestNew_AcceptsConstLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "cachecoord2", "test", prometheus.Labels{"instance": "a"})
	a.ContentionObserved()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.contentions))
}
