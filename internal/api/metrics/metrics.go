// Package metrics defines the custom Prometheus metrics of the accounts API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Call Register once at startup with the registry served on /metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/99minutos/rbac-accounts/internal/core/domain"
)

const namespace = "rbac"

// ── Authentication ──────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PasswordChangesTotal counts password change attempts.
// Label:
//   - result: "success" or "failure"
var PasswordChangesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of password change attempts, by result.",
	},
	[]string{"result"},
)

// ── Accounts ────────────────────────────────────────────────────────────────

// AccountsCreatedTotal counts newly created accounts.
// Labels:
//   - role: "Admin" or "Student"
//   - origin: "register" (self-service) or "admin"
var AccountsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_created_total",
		Help:      "Total number of accounts created, by role and origin.",
	},
	[]string{"role", "origin"},
)

// AccountsDeletedTotal counts accounts removed by an admin.
var AccountsDeletedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_deleted_total",
		Help:      "Total number of accounts deleted.",
	},
)

// PolicyRejectionsTotal counts mutations refused by a policy check.
// Label:
//   - reason: "missing_field", "duplicate_email", "weak_password",
//     "self_delete" or "last_admin"
var PolicyRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_rejections_total",
		Help:      "Total number of account mutations rejected by policy checks.",
	},
	[]string{"reason"},
)

// ── Routing ─────────────────────────────────────────────────────────────────

// RouteResolutionsTotal counts router decisions.
// Labels:
//   - view: the resolved view
//   - redirected: "true" when a guard redirected the caller
var RouteResolutionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_resolutions_total",
		Help:      "Total number of fragment resolutions, by resulting view.",
	},
	[]string{"view", "redirected"},
)

// Register adds every custom metric to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		LoginAttemptsTotal,
		PasswordChangesTotal,
		AccountsCreatedTotal,
		AccountsDeletedTotal,
		PolicyRejectionsTotal,
		RouteResolutionsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObservePolicyRejection records err when it is a policy failure.
func ObservePolicyRejection(err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		PolicyRejectionsTotal.WithLabelValues("missing_field").Inc()
	case errors.Is(err, domain.ErrDuplicateEmail):
		PolicyRejectionsTotal.WithLabelValues("duplicate_email").Inc()
	case errors.Is(err, domain.ErrWeakPassword):
		PolicyRejectionsTotal.WithLabelValues("weak_password").Inc()
	case errors.Is(err, domain.ErrSelfDeletion):
		PolicyRejectionsTotal.WithLabelValues("self_delete").Inc()
	case errors.Is(err, domain.ErrLastAdmin):
		PolicyRejectionsTotal.WithLabelValues("last_admin").Inc()
	}
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
