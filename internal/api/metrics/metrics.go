// Package metrics defines and registers all custom Prometheus metrics for the
// lead dashboard API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leads"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts session tokens handed out.
// Label:
//   - source: "login" or "register"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of session tokens issued, by source.",
	},
	[]string{"source"},
)

// GuardRejectionsTotal counts requests refused by the authorization guard.
// Label:
//   - reason: "invalid_token", "expired_token", "revoked", "inactive_user",
//     "unknown_user", "insufficient_role" or "error"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected by the authorization guard.",
	},
	[]string{"reason"},
)

// ── User administration metrics ───────────────────────────────────────────────

// UserMutationsTotal counts user administration operations.
// Labels:
//   - operation: "create", "update_profile", "update_permissions", "change_password",
//     "set_status" or "delete"
//   - result: "ok" or the error kind (e.g. "authorization", "last_admin")
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of user administration operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// LastAdminBlockedTotal counts operations refused because they would leave no active admin.
var LastAdminBlockedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "last_admin_blocked_total",
		Help:      "Total number of operations blocked by last-admin protection.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsWrittenTotal counts audit events persisted by the dispatcher workers.
// Label:
//   - result: "ok", "error" or "dropped"
var AuditEventsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_written_total",
		Help:      "Total number of audit events handled by the dispatcher, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the current number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
