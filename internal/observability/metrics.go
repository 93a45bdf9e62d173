// Package observability 集中定义 codestat 的指标与链路追踪。
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 指标定义。
var (
	FilesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codestat_files_analyzed_total",
		Help: "Total number of source files analysed, by language.",
	}, []string{"language"})

	LinesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codestat_lines_analyzed_total",
		Help: "Total number of source lines analysed, by language.",
	}, []string{"language"})

	UnreadableFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codestat_unreadable_files_total",
		Help: "Total number of files that could not be read and were counted as empty.",
	})

	RecordCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codestat_record_cache_hits_total",
		Help: "Total number of file records served from the in-memory cache.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codestat_scan_seconds",
		Help:    "Wall-clock time of a full scan.",
		Buckets: prometheus.DefBuckets,
	})

	LastScanFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codestat_last_scan_files",
		Help: "Number of files seen by the most recent scan.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codestat_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherRescansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codestat_watcher_rescans_total",
		Help: "Total number of re-scans triggered by the watcher.",
	})
)
