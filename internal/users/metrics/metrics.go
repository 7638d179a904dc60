package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the users module.
type Metrics struct {
	Registered      prometheus.Counter
	LoginFailures   prometheus.Counter
	ResetsRequested prometheus.Counter
}

// New creates a Metrics instance with all users module metrics registered.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_users_registered_total",
			Help: "Total number of employee accounts created",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_user_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		ResetsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_user_password_resets_requested_total",
			Help: "Total number of password reset emails requested",
		}),
	}
}
