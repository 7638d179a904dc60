package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reservations module.
type Metrics struct {
	Created           prometheus.Counter
	Deleted           prometheus.Counter
	ConflictsRejected *prometheus.CounterVec
}

// Conflict reasons recorded on rejected operations.
const (
	ReasonVehicleBusy     = "vehicle_busy"
	ReasonUserDoubleBook  = "user_double_booked"
	ReasonVehicleStatus   = "vehicle_status"
	ReasonCarpoolConflict = "carpool_conflict"
)

// New creates a Metrics instance with all reservations module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_reservations_created_total",
			Help: "Total number of fleet reservations successfully created",
		}),
		Deleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_reservations_deleted_total",
			Help: "Total number of fleet reservations cancelled by their owner",
		}),
		ConflictsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetpool_reservation_conflicts_total",
			Help: "Reservation operations rejected by a consistency check",
		}, []string{"reason"}),
	}
}

// IncConflict records one rejected operation for the given reason.
func (m *Metrics) IncConflict(reason string) {
	m.ConflictsRejected.WithLabelValues(reason).Inc()
}
