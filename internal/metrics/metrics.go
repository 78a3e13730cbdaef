// Package metrics exposes Prometheus instrumentation for the video backend.
//
// Standard Go runtime and process metrics come for free from
// prometheus/client_golang; the collectors here cover the platform-specific
// signals: grant issuance, sweep outcomes and vendor API calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GrantsIssued counts issued playback grants by result.
var GrantsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "learnloop_grants_issued_total",
	Help: "Playback grant issuance attempts by result code.",
}, []string{"result"})

// SessionsSwept counts sessions deactivated by the session sweep.
var SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
	Name: "learnloop_sessions_swept_total",
	Help: "Stale sessions deactivated by the scheduled sweep.",
})

// UploadsSwept counts staged upload files removed by the upload sweep.
var UploadsSwept = promauto.NewCounter(prometheus.CounterOpts{
	Name: "learnloop_uploads_swept_total",
	Help: "Staged upload files deleted by the scheduled sweep.",
})

// SweepErrors counts per-record sweep failures by sweep kind.
var SweepErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "learnloop_sweep_errors_total",
	Help: "Per-record sweep failures.",
}, []string{"sweep"})

// VendorCalls counts outbound vendor API calls by backend and result.
var VendorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "learnloop_vendor_calls_total",
	Help: "Outbound video backend API calls.",
}, []string{"backend", "op", "result"})

// SuspiciousActivity counts anomaly heuristic flags.
var SuspiciousActivity = promauto.NewCounter(prometheus.CounterOpts{
	Name: "learnloop_suspicious_activity_total",
	Help: "Watch-progress updates flagged by the anomaly heuristic.",
})

// Handler returns the Prometheus scrape handler. Mount at GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
