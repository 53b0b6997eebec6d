package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// File outcome labels for FilesTotal.
const (
	StatusDistilled   = "distilled"
	StatusSyntaxError = "syntax_error"
	StatusUnsupported = "unsupported"
	StatusFailed      = "failed"
	StatusAborted     = "aborted"
)

// Import state labels for ImportsTotal.
const (
	ImportUsed     = "used"
	ImportUnused   = "unused"
	ImportOrphaned = "orphaned"
)

var (
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "distiller_parse_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "distiller_files_total",
		Help: "Files processed by the distillation pipeline, by outcome.",
	}, []string{"status"})

	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "distiller_imports_total",
		Help: "Imports seen by the resolver, by final state.",
	}, []string{"state"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "distiller_diagnostics_total",
		Help: "Diagnostics reported, by code.",
	}, []string{"code"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "distiller_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
