package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	entryOps        *prometheus.CounterVec
	listCache       *prometheus.CounterVec
	storageErrors   *prometheus.CounterVec
	storageDuration *prometheus.HistogramVec
}

// NewPrometheus creates a recorder and registers its collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		entryOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeentries_entry_operations_total",
				Help: "Completed entry operations by kind.",
			},
			[]string{"operation"},
		),
		listCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeentries_list_cache_requests_total",
				Help: "List cache lookups by result.",
			},
			[]string{"result"},
		),
		storageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeentries_storage_errors_total",
				Help: "Failed storage calls by operation.",
			},
			[]string{"operation"},
		),
		storageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timeentries_storage_duration_seconds",
				Help:    "Storage call latency by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(p.entryOps, p.listCache, p.storageErrors, p.storageDuration)
	return p
}

// IncEntryCreated counts a created entry.
func (p *PrometheusRecorder) IncEntryCreated() {
	p.entryOps.WithLabelValues("create").Inc()
}

// IncEntryUpdated counts an updated entry.
func (p *PrometheusRecorder) IncEntryUpdated() {
	p.entryOps.WithLabelValues("update").Inc()
}

// IncEntryDeleted counts a deleted entry.
func (p *PrometheusRecorder) IncEntryDeleted() {
	p.entryOps.WithLabelValues("delete").Inc()
}

// IncEntriesListed counts a list call.
func (p *PrometheusRecorder) IncEntriesListed() {
	p.entryOps.WithLabelValues("list").Inc()
}

// IncListCacheHit counts a list cache hit.
func (p *PrometheusRecorder) IncListCacheHit() {
	p.listCache.WithLabelValues("hit").Inc()
}

// IncListCacheMiss counts a list cache miss.
func (p *PrometheusRecorder) IncListCacheMiss() {
	p.listCache.WithLabelValues("miss").Inc()
}

// IncStorageError counts a failed storage call.
func (p *PrometheusRecorder) IncStorageError(op string) {
	p.storageErrors.WithLabelValues(op).Inc()
}

// ObserveStorageDuration records storage call latency.
func (p *PrometheusRecorder) ObserveStorageDuration(op string, duration time.Duration) {
	p.storageDuration.WithLabelValues(op).Observe(duration.Seconds())
}
