package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the vehicles module.
type Metrics struct {
	FleetVehiclesCreated    prometheus.Counter
	PersonalVehiclesCreated prometheus.Counter
	AvailabilityDuration    prometheus.Histogram
}

// New creates a Metrics instance with all vehicles module metrics registered.
func New() *Metrics {
	return &Metrics{
		FleetVehiclesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_fleet_vehicles_created_total",
			Help: "Total number of fleet vehicles added to the inventory",
		}),
		PersonalVehiclesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_personal_vehicles_created_total",
			Help: "Total number of personal vehicles declared by employees",
		}),
		AvailabilityDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetpool_vehicle_availability_duration_seconds",
			Help:    "Duration of fleet availability searches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveAvailability records the duration of an availability search.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveAvailability(start time.Time) {
	m.AvailabilityDuration.Observe(time.Since(start).Seconds())
}
