// Package metrics provides Prometheus metrics for timecard: counters,
// gauges, and histograms for timers, record operations, and access
// control decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Timers ─────────────────────────────────────────────────────────────────

// TimersStarted counts started time entries.
var TimersStarted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "timecard",
	Name:      "timers_started_total",
	Help:      "Total time entries started.",
})

// TimersStopped counts stopped time entries.
var TimersStopped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "timecard",
	Name:      "timers_stopped_total",
	Help:      "Total time entries stopped.",
})

// TimerRejections counts start/stop attempts rejected by the ledger.
var TimerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timecard",
	Name:      "timer_rejections_total",
	Help:      "Timer operations rejected by the single-active-timer rules.",
}, []string{"reason"})

// RecordedSeconds accumulates seconds of stopped entries.
var RecordedSeconds = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "timecard",
	Name:      "recorded_seconds_total",
	Help:      "Total seconds recorded across all stopped entries.",
})

// ─── Records ────────────────────────────────────────────────────────────────

// RecordOps counts facade operations by entity and operation.
var RecordOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timecard",
	Name:      "record_ops_total",
	Help:      "Total record facade operations.",
}, []string{"entity", "op"})

// ─── Access Control ─────────────────────────────────────────────────────────

// AccessDenied counts access guard rejections by reason.
var AccessDenied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timecard",
	Name:      "access_denied_total",
	Help:      "Access guard rejections.",
}, []string{"reason"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// RequestLatency tracks API request duration in seconds.
var RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "timecard",
	Name:      "request_latency_seconds",
	Help:      "API request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})
