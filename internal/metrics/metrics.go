package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loxconnect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loxconnect_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ReconcileWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loxconnect_reconcile_writes_total",
			Help: "Reconciliation write-backs of quote request flags and labels",
		},
		[]string{"result"}, // healed, conflict, failed
	)

	DeadlineScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loxconnect_deadline_scans_total",
			Help: "Deadline notification scans by outcome",
		},
		[]string{"result"}, // completed, failed, skipped_locked
	)

	DeadlineScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "loxconnect_deadline_scan_duration_seconds",
			Help: "Duration of deadline notification scans in seconds",
		},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loxconnect_notifications_created_total",
			Help: "Notifications created by type",
		},
		[]string{"type"},
	)

	JobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loxconnect_jobs_active",
			Help: "Number of scheduled jobs currently running",
		},
		[]string{"job"},
	)
)
