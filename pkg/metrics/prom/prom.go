// Package prom implements metrics.Metrics on top of Prometheus client
// metrics. It is an optional, local-only adapter: nothing in this package
// pushes or scrapes over the network, it only registers metrics against
// whatever Registerer the caller supplies.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fenwick/cachecoord/pkg/metrics"
)

// Adapter implements metrics.Metrics and exports Prometheus counters and
// a histogram. Safe for concurrent use; all Prometheus metric types are
// goroutine-safe.
type Adapter struct {
	locksAcquired *prometheus.CounterVec
	locksReleased *prometheus.CounterVec
	contentions   prometheus.Counter
	useCacheSecs  prometheus.Histogram
	cachesBuilt   *prometheus.CounterVec
}

var _ metrics.Metrics = (*Adapter)(nil)

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		locksAcquired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "locks_acquired_total",
				Help:        "File locks acquired by mode",
				ConstLabels: constLabels,
			},
			[]string{"mode"},
		),
		locksReleased: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "locks_released_total",
				Help:        "File locks released by mode",
				ConstLabels: constLabels,
			},
			[]string{"mode"},
		),
		contentions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "contentions_total",
			Help:        "Contention signals observed by the lock state machine",
			ConstLabels: constLabels,
		}),
		useCacheSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "use_cache_seconds",
			Help:        "Wall-clock duration of UseCache actions",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
		cachesBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "caches_built_total",
				Help:        "Named caches constructed by the registry",
				ConstLabels: constLabels,
			},
			[]string{"name"},
		),
	}
	reg.MustRegister(a.locksAcquired, a.locksReleased, a.contentions, a.useCacheSecs, a.cachesBuilt)
	return a
}

// LockAcquired implements metrics.Metrics.
func (a *Adapter) LockAcquired(mode string) { a.locksAcquired.WithLabelValues(mode).Inc() }

// LockReleased implements metrics.Metrics.
func (a *Adapter) LockReleased(mode string) { a.locksReleased.WithLabelValues(mode).Inc() }

// ContentionObserved implements metrics.Metrics.
func (a *Adapter) ContentionObserved() { a.contentions.Inc() }

// UseCacheDuration implements metrics.Metrics.
func (a *Adapter) UseCacheDuration(d time.Duration) { a.useCacheSecs.Observe(d.Seconds()) }

// CacheBuilt implements metrics.Metrics.
func (a *Adapter) CacheBuilt(name string) { a.cachesBuilt.WithLabelValues(name).Inc() }
