// Package metrics defines the custom Prometheus metrics of the book API. It is
// the single source of truth for metric names, labels and help strings.
//
// Metrics are registered with the default registry through promauto when the
// package is first imported. HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bookapi"

// ── Book metrics ─────────────────────────────────────────────────────────────

// BookMutationsTotal counts successful writes to the catalogue.
// Label:
//   - operation: "create", "replace" or "delete"
var BookMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "book_mutations_total",
		Help:      "Total number of successful book mutations, by operation.",
	},
	[]string{"operation"},
)

// ── Auth metrics ─────────────────────────────────────────────────────────────

// AuthDecisionsTotal counts every decision taken by the auth middleware chain.
// Labels:
//   - outcome: "allow" or "deny"
//   - reason: decision reason code (e.g. "ok", "bad_credentials", "missing_role")
var AuthDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_decisions_total",
		Help:      "Total number of authentication/authorization decisions, by outcome and reason.",
	},
	[]string{"outcome", "reason"},
)

// CredentialCacheTotal counts credential cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var CredentialCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_cache_total",
		Help:      "Total number of credential cache lookups, labelled by result.",
	},
	[]string{"result"},
)
