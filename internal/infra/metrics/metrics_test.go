//go:build unit

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"petcare-booking/internal/domain/booking"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingMetrics(t *testing.T) {
	m := NewBookingMetrics()

	m.BookingCreated(true)
	m.BookingCreated(true)
	m.BookingCreated(false)
	m.StatusChanged(booking.StatusPending, booking.StatusConfirmed)
	m.BookingRejected("CONFLICT")
	m.AvailabilityServed(true)
	m.AvailabilityServed(false)
	m.AvailabilityServed(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.created.WithLabelValues("auto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.created.WithLabelValues("explicit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("CONFLICT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.availability.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.availability.WithLabelValues("miss")))
}

func TestBookingMetricsHandler(t *testing.T) {
	m := NewBookingMetrics()
	m.BookingCreated(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `petcare_booking_created_total{assignment="explicit"} 1`))
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewBookingMetrics()
		NewBookingMetrics()
	})
}
