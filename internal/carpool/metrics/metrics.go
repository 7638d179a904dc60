package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the carpool module.
type Metrics struct {
	ListingsCreated    prometheus.Counter
	ListingsDeleted    prometheus.Counter
	SeatsBooked        prometheus.Counter
	SeatsReleased      prometheus.Counter
	BookingsRejected   *prometheus.CounterVec
	EnrichmentDuration prometheus.Histogram
}

// Rejection reasons recorded on refused seat bookings.
const (
	ReasonAlreadyRegistered = "already_registered"
	ReasonOrganizer         = "organizer"
	ReasonNoSeats           = "no_seats"
)

// New creates a Metrics instance with all carpool module metrics registered.
func New() *Metrics {
	return &Metrics{
		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_carpool_listings_created_total",
			Help: "Total number of carpool listings published",
		}),
		ListingsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_carpool_listings_deleted_total",
			Help: "Total number of carpool listings withdrawn by their organizer",
		}),
		SeatsBooked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_carpool_seats_booked_total",
			Help: "Total number of passenger seats booked",
		}),
		SeatsReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetpool_carpool_seats_released_total",
			Help: "Total number of passenger seats released",
		}),
		BookingsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetpool_carpool_bookings_rejected_total",
			Help: "Seat bookings refused by the ledger",
		}, []string{"reason"}),
		EnrichmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetpool_carpool_route_enrichment_seconds",
			Help:    "Duration of route enrichment calls during listing creation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncRejected records one refused seat booking for the given reason.
func (m *Metrics) IncRejected(reason string) {
	m.BookingsRejected.WithLabelValues(reason).Inc()
}

// ObserveEnrichment records the duration of one route enrichment call.
func (m *Metrics) ObserveEnrichment(start time.Time) {
	m.EnrichmentDuration.Observe(time.Since(start).Seconds())
}
