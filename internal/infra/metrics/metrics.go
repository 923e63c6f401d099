package metrics

import (
	"net/http"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/usecase/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "petcare"

// BookingMetrics registers on its own registry, not the global default.
type BookingMetrics struct {
	registry *prometheus.Registry

	created      *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	availability *prometheus.CounterVec
}

func NewBookingMetrics() *BookingMetrics {
	m := &BookingMetrics{
		registry: prometheus.NewRegistry(),
		created: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_created_total",
				Help:      "Count of bookings created by assignment mode.",
			},
			[]string{"assignment"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_status_transitions_total",
				Help:      "Count of accepted booking status transitions.",
			},
			[]string{"from", "to"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_rejected_total",
				Help:      "Count of rejected booking writes by error kind.",
			},
			[]string{"reason"},
		),
		availability: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "availability_requests_total",
				Help:      "Count of availability grids served, by cache outcome.",
			},
			[]string{"cache"},
		),
	}
	m.registry.MustRegister(
		m.created,
		m.transitions,
		m.rejected,
		m.availability,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *BookingMetrics) BookingCreated(autoAssigned bool) {
	mode := "explicit"
	if autoAssigned {
		mode = "auto"
	}
	m.created.WithLabelValues(mode).Inc()
}

func (m *BookingMetrics) StatusChanged(from, to booking.Status) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *BookingMetrics) BookingRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *BookingMetrics) AvailabilityServed(cacheHit bool) {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	m.availability.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ shared.BookingMetrics = (*BookingMetrics)(nil)
