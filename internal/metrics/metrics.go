package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup Metrics
var (
	FallbackLookups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameFallbackLookups,
			Help: HelpTextFallbackLookups,
		},
	)

	SearchCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSearchCache,
			Help: HelpTextSearchCache,
		},
		[]string{LabelResult},
	)

	Records = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricNameRecords,
			Help: HelpTextRecords,
		},
		[]string{LabelStorage},
	)
)

// Reward Metrics
var (
	Rolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRolls,
			Help: HelpTextRolls,
		},
		[]string{LabelKind},
	)

	RollsExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRollsExhausted,
			Help: HelpTextRollsExhausted,
		},
		[]string{LabelKind},
	)

	GrantFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameGrantFailures,
			Help: HelpTextGrantFailures,
		},
		[]string{LabelResult},
	)
)

// Lifecycle Metrics
var (
	Reloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameReloads,
			Help: HelpTextReloads,
		},
		[]string{LabelResult},
	)

	ReloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameReloadDuration,
			Help:    HelpTextReloadDuration,
			Buckets: ReloadLatencyBuckets,
		},
	)

	PackageCacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePackageCacheReads,
			Help: HelpTextPackageCacheReads,
		},
		[]string{LabelResult},
	)
)
