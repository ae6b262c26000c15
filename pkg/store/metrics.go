// Copyright 2025 Certen Protocol

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level metric vars, registered once at package init, in the
// Namespace/Subsystem/Name convention used throughout the pack's
// promauto call sites. Each carries a "store" label, so constructing
// several Stores never re-registers a collector; New binds every Store to
// the label value "default", and newStoreMetricsNamed binds another value.
var (
	storeCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgercore",
		Subsystem: "store",
		Name:      "cache_hits_total",
		Help:      "Encoding cache hits on Resolve.",
	}, []string{"store"})

	storeCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgercore",
		Subsystem: "store",
		Name:      "cache_misses_total",
		Help:      "Encoding cache misses on Resolve.",
	}, []string{"store"})

	storeWritesNovel = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgercore",
		Subsystem: "store",
		Name:      "writes_novel_total",
		Help:      "Writes of a hash not previously seen by this Store.",
	}, []string{"store"})

	storeWritesDeduped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgercore",
		Subsystem: "store",
		Name:      "writes_deduped_total",
		Help:      "Writes of a hash already present, skipped.",
	}, []string{"store"})

	storeBackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgercore",
		Subsystem: "store",
		Name:      "backend_errors_total",
		Help:      "Backend Get/Put failures.",
	}, []string{"store"})
)

// storeMetrics binds the package's CounterVecs to one Store's label value.
type storeMetrics struct {
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	writesNovel   prometheus.Counter
	writesDeduped prometheus.Counter
	backendErrors prometheus.Counter
}

var storeInstanceSeq int

func newStoreMetricsNamed(name string) *storeMetrics {
	return &storeMetrics{
		cacheHits:     storeCacheHits.WithLabelValues(name),
		cacheMisses:   storeCacheMisses.WithLabelValues(name),
		writesNovel:   storeWritesNovel.WithLabelValues(name),
		writesDeduped: storeWritesDeduped.WithLabelValues(name),
		backendErrors: storeBackendErrors.WithLabelValues(name),
	}
}

func newStoreMetrics() *storeMetrics {
	storeInstanceSeq++
	return newStoreMetricsNamed("default")
}
