// Package metrics defines and registers all custom Prometheus metrics for the
// accounts service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init through promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Service metrics ───────────────────────────────────────────────────────────

// OperationsTotal counts façade operations.
// Labels:
//   - operation: "list", "get", "create", "update", "patch", "delete", "list_by_username", "list_by_role"
//   - outcome: "ok", "not_found", "invalid_argument", "storage_error", "error"
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of account operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// ── Storage metrics ───────────────────────────────────────────────────────────

// QueryDuration measures a single repository call against its backend.
// Labels:
//   - backend: "postgres", "mongo", "memory"
//   - query: "save", "find_by_id", "find_all", "find_by_username", "find_by_role", "delete_by_id"
var QueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Duration of repository queries against the storage backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend", "query"},
)

// CacheLookupsTotal counts read-through cache lookups.
// Label:
//   - result: "hit" or "miss"
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of account cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts change events handed to the broker.
// Labels:
//   - type: "account.created", "account.updated", "account.deleted"
//   - outcome: "ok", "error", "dropped"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of account change events, by type and outcome.",
	},
	[]string{"type", "outcome"},
)

// EventsQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ObserveQuery records the elapsed time since start for a repository call.
//
//	defer metrics.ObserveQuery("postgres", "find_all", time.Now())
func ObserveQuery(backend, query string, start time.Time) {
	QueryDuration.WithLabelValues(backend, query).Observe(time.Since(start).Seconds())
}
