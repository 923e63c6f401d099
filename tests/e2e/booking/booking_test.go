//go:build e2e

package booking_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/handler/dto/request"
	"petcare-booking/internal/handler/dto/response"
	"petcare-booking/tests/common/authtest"
	"petcare-booking/tests/common/dbtest"
	"petcare-booking/tests/common/httptest"
	"petcare-booking/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL     = "/api/bookings"
	bookingURL      = "/api/bookings/%s"
	statisticsURL   = "/api/bookings/statistics"
	availabilityURL = "/api/employees/%s/availability?date=%s&serviceId=%s"
)

type BookingSuite struct {
	e2e.SharedSuite
	jwt *authtest.JWTHelper
}

func (s *BookingSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

// salon is the minimal data set for booking one customer's pet with one employee.
type salon struct {
	customerID    uuid.UUID
	customerToken string
	petID         uuid.UUID
	employeeID    uuid.UUID
	employeeToken string
	serviceID     uuid.UUID
	adminToken    string
	date          string
}

func (s *BookingSuite) openSalon(t *testing.T) salon {
	t.Helper()

	customerID := dbtest.CreateTestCustomer(t, s.DB, uuid.New(), "Hanako")
	employeeID := dbtest.CreateTestEmployee(t, s.DB, uuid.New(), time.Now().Add(-time.Hour), "grooming")
	adminToken, _ := s.jwt.TokenFor(t, user.RoleAdmin)

	return salon{
		customerID:    customerID,
		customerToken: s.jwt.GenerateToken(t, customerID, user.RoleCustomer),
		petID:         dbtest.CreateTestPet(t, s.DB, customerID, "Pochi"),
		employeeID:    employeeID,
		employeeToken: s.jwt.GenerateToken(t, employeeID, user.RoleEmployee),
		serviceID:     dbtest.CreateTestService(t, s.DB, "Full Groom", 60, 6500, "grooming"),
		adminToken:    adminToken,
		date:          nextWeek(),
	}
}

func (sl salon) createRequest(startTime string) request.CreateBookingRequest {
	employeeID := sl.employeeID
	return request.CreateBookingRequest{
		PetID:      sl.petID,
		ServiceID:  sl.serviceID,
		EmployeeID: &employeeID,
		Date:       sl.date,
		StartTime:  startTime,
	}
}

// nextWeek keeps bookings clear of the 24 hour lead times.
func nextWeek() string {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.FixedZone("JST", 9*60*60)
	}
	return time.Now().In(loc).AddDate(0, 0, 7).Format("2006-01-02")
}

func (s *BookingSuite) create(t *testing.T, token string, body any) response.CreateBookingResponse {
	t.Helper()

	w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created response.CreateBookingResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
	require.NotNil(t, created.Booking)
	return created
}

// =============================================================================
// TestCreateBooking - 予約作成API
// =============================================================================

func (s *BookingSuite) TestCreateBooking() {
	s.Run("success: 指定した従業員で予約が作成され、詳細が取得できる", func() {
		t := s.T()
		sl := s.openSalon(t)

		req := sl.createRequest("10:00")
		req.Notes = "nervous around dryers"
		created := s.create(t, sl.customerToken, req)
		assert.False(t, created.AutoAssigned)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(bookingURL, created.Booking.ID), nil, sl.customerToken)
		require.Equal(t, http.StatusOK, w.Code)

		var got response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &got))

		expected := &response.BookingResponse{
			CustomerID:    sl.customerID,
			PetID:         sl.petID,
			PetName:       "Pochi",
			EmployeeID:    sl.employeeID,
			ServiceID:     sl.serviceID,
			ScheduledDate: sl.date,
			StartTime:     "10:00",
			EndTime:       "11:00",
			DurationMin:   60,
			Service: response.ServiceSnapshotResponse{
				Name:        "Full Groom",
				PriceCents:  6500,
				DurationMin: 60,
				Category:    "grooming",
			},
			Status:        "pending",
			PaymentStatus: "pending",
			StatusHistory: []response.StatusHistoryResponse{
				{Status: "pending", ChangedBy: sl.customerID},
			},
			Notes: "nervous around dryers",
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(response.BookingResponse{}, "ID", "EmployeeName", "CreatedAt", "UpdatedAt"),
			cmpopts.IgnoreFields(response.StatusHistoryResponse{}, "ChangedAt"),
		}
		if diff := cmp.Diff(expected, &got, opts...); diff != "" {
			t.Errorf("booking response mismatch (-want +got):\n%s", diff)
		}
	})

	s.Run("success: 従業員未指定なら空いている従業員が割り当てられる", func() {
		t := s.T()
		sl := s.openSalon(t)
		s.create(t, sl.customerToken, sl.createRequest("10:00"))

		second := dbtest.CreateTestEmployee(t, s.DB, uuid.New(), time.Now(), "grooming")
		otherPet := dbtest.CreateTestPet(t, s.DB, sl.customerID, "Tama")

		created := s.create(t, sl.customerToken, request.CreateBookingRequest{
			PetID:     otherPet,
			ServiceID: sl.serviceID,
			Date:      sl.date,
			StartTime: "10:00",
		})
		assert.True(t, created.AutoAssigned)
		assert.Equal(t, second, created.Booking.EmployeeID)
	})

	s.Run("success: 予約した枠は空き状況から外れる", func() {
		t := s.T()
		sl := s.openSalon(t)
		url := fmt.Sprintf(availabilityURL, sl.employeeID, sl.date, sl.serviceID)

		// warm the cache so the booking has to invalidate it
		before := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, sl.customerToken)
		require.Equal(t, http.StatusOK, before.Code)
		var initial response.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, before.Body, &initial))
		require.Len(t, initial.Slots, 8)
		assert.True(t, initial.Slots[1].Available)

		s.create(t, sl.customerToken, sl.createRequest("10:00"))

		after := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, sl.customerToken)
		require.Equal(t, http.StatusOK, after.Code)
		var updated response.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, after.Body, &updated))
		require.Len(t, updated.Slots, 8)
		assert.Equal(t, response.SlotResponse{StartTime: "10:00", EndTime: "11:00", Available: false}, updated.Slots[1])
		assert.True(t, updated.Slots[0].Available)
		assert.True(t, updated.Slots[2].Available)
	})

	s.Run("error: 同じ枠への二重予約は409", func() {
		t := s.T()
		sl := s.openSalon(t)
		s.create(t, sl.customerToken, sl.createRequest("10:00"))

		other := dbtest.CreateTestCustomer(t, s.DB, uuid.New(), "Jiro")
		otherPet := dbtest.CreateTestPet(t, s.DB, other, "Kuro")
		req := sl.createRequest("10:00")
		req.PetID = otherPet

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, req,
			s.jwt.GenerateToken(t, other, user.RoleCustomer))
		httptest.AssertErrorKind(t, w, http.StatusConflict, "CONFLICT")
		assert.Equal(t, 1, dbtest.CountBlockingBookings(t, s.DB, sl.employeeID, sl.date))
	})

	s.Run("error: 直近の無断キャンセルが上限に達した顧客は予約できない", func() {
		t := s.T()
		sl := s.openSalon(t)
		for _, daysAgo := range []int{3, 10, 20} {
			dbtest.CreateNoShowBooking(t, s.DB, sl.customerID, sl.petID, sl.employeeID, sl.serviceID,
				time.Now().AddDate(0, 0, -daysAgo))
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, sl.createRequest("10:00"), sl.customerToken)
		httptest.AssertErrorKind(t, w, http.StatusConflict, "CONFLICT")
	})

	s.Run("error: 従業員は予約を作成できない", func() {
		t := s.T()
		sl := s.openSalon(t)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, sl.createRequest("10:00"), sl.employeeToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("error: トークンなしは401", func() {
		t := s.T()
		sl := s.openSalon(t)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, sl.createRequest("10:00"), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestBookingLifecycle - ステータス遷移・キャンセル・評価
// =============================================================================

func (s *BookingSuite) TestBookingLifecycle() {
	s.Run("success: 確定から完了まで進めて評価できる", func() {
		t := s.T()
		sl := s.openSalon(t)
		created := s.create(t, sl.customerToken, sl.createRequest("13:00"))
		statusURL := fmt.Sprintf(bookingURL, created.Booking.ID) + "/status"

		for _, status := range []string{"confirmed", "in_progress", "completed"} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, statusURL,
				request.UpdateStatusRequest{Status: status}, sl.employeeToken)
			require.Equal(t, http.StatusOK, w.Code, "status %s: %s", status, w.Body.String())
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(bookingURL, created.Booking.ID)+"/rating",
			request.AddRatingRequest{Score: 5, Feedback: "  lovely trim  "}, sl.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var rated response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &rated))
		assert.Equal(t, "completed", rated.Status)
		require.NotNil(t, rated.RatingScore)
		assert.Equal(t, 5, *rated.RatingScore)
		require.NotNil(t, rated.RatingFeedback)
		assert.Equal(t, "lovely trim", *rated.RatingFeedback)
		require.NotNil(t, rated.CompletedBy)
		assert.Equal(t, sl.employeeID, *rated.CompletedBy)
		assert.Len(t, rated.StatusHistory, 4)

		again := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(bookingURL, created.Booking.ID)+"/rating",
			request.AddRatingRequest{Score: 4}, sl.customerToken)
		httptest.AssertErrorKind(t, again, http.StatusConflict, "INVALID_STATE")
	})

	s.Run("error: 未確定の予約をいきなり完了にはできない", func() {
		t := s.T()
		sl := s.openSalon(t)
		created := s.create(t, sl.customerToken, sl.createRequest("13:00"))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(bookingURL, created.Booking.ID)+"/status",
			request.UpdateStatusRequest{Status: "completed"}, sl.employeeToken)
		httptest.AssertErrorKind(t, w, http.StatusConflict, "INVALID_STATE")
	})

	s.Run("success: 顧客がキャンセルすると枠が再び予約できる", func() {
		t := s.T()
		sl := s.openSalon(t)
		created := s.create(t, sl.customerToken, sl.createRequest("15:00"))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(bookingURL, created.Booking.ID)+"/cancel",
			request.CancelBookingRequest{Reason: "vet appointment"}, sl.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var cancelled response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &cancelled))
		assert.Equal(t, "cancelled", cancelled.Status)
		require.NotNil(t, cancelled.CancellationInitiator)
		assert.Equal(t, "customer", *cancelled.CancellationInitiator)
		assert.Zero(t, dbtest.CountBlockingBookings(t, s.DB, sl.employeeID, sl.date))

		s.create(t, sl.customerToken, sl.createRequest("15:00"))
	})

	s.Run("success: 管理者は管理者としてキャンセルできる", func() {
		t := s.T()
		sl := s.openSalon(t)
		created := s.create(t, sl.customerToken, sl.createRequest("15:00"))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(bookingURL, created.Booking.ID)+"/cancel",
			request.CancelBookingRequest{Reason: "groomer sick", Initiator: "admin"}, sl.adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var cancelled response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &cancelled))
		require.NotNil(t, cancelled.CancellationInitiator)
		assert.Equal(t, "admin", *cancelled.CancellationInitiator)
	})

	s.Run("success: 予約を別の時間に変更できる", func() {
		t := s.T()
		sl := s.openSalon(t)
		created := s.create(t, sl.customerToken, sl.createRequest("09:00"))

		newStart := "14:00"
		w := httptest.PerformRequest(t, s.Router, http.MethodPatch, fmt.Sprintf(bookingURL, created.Booking.ID),
			request.UpdateBookingRequest{StartTime: &newStart}, sl.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var moved response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &moved))
		assert.Equal(t, "14:00", moved.StartTime)
		assert.Equal(t, "15:00", moved.EndTime)

		// the old slot is free again
		s.create(t, sl.customerToken, sl.createRequest("09:00"))
	})

	s.Run("error: 他の顧客の予約は参照できない", func() {
		t := s.T()
		sl := s.openSalon(t)
		created := s.create(t, sl.customerToken, sl.createRequest("09:00"))

		strangerToken, _ := s.jwt.TokenFor(t, user.RoleCustomer)
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(bookingURL, created.Booking.ID), nil, strangerToken)
		httptest.AssertErrorKind(t, w, http.StatusForbidden, "FORBIDDEN")
	})
}

// =============================================================================
// TestListBookings - 一覧・統計
// =============================================================================

func (s *BookingSuite) TestListBookings() {
	s.Run("success: ページングしながら自分の予約だけが返る", func() {
		t := s.T()
		sl := s.openSalon(t)
		for _, start := range []string{"09:00", "11:00", "13:00"} {
			s.create(t, sl.customerToken, sl.createRequest(start))
		}
		stranger := dbtest.CreateTestCustomer(t, s.DB, uuid.New(), "Jiro")
		strangerReq := sl.createRequest("15:00")
		strangerReq.PetID = dbtest.CreateTestPet(t, s.DB, stranger, "Kuro")
		s.create(t, s.jwt.GenerateToken(t, stranger, user.RoleCustomer), strangerReq)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?limit=2", nil, sl.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var first response.BookingListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &first))
		require.Len(t, first.Bookings, 2)
		require.NotNil(t, first.NextCursor)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?limit=2&after="+*first.NextCursor, nil, sl.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var second response.BookingListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &second))
		require.Len(t, second.Bookings, 1)
		assert.Nil(t, second.NextCursor)

		seen := map[uuid.UUID]bool{}
		for _, b := range append(first.Bookings, second.Bookings...) {
			assert.Equal(t, sl.customerID, b.CustomerID)
			assert.False(t, seen[b.ID], "booking %s returned twice", b.ID)
			seen[b.ID] = true
		}
	})

	s.Run("success: 統計は自分の予約だけを集計する", func() {
		t := s.T()
		sl := s.openSalon(t)
		done := s.create(t, sl.customerToken, sl.createRequest("09:00"))
		s.create(t, sl.customerToken, sl.createRequest("11:00"))
		for _, status := range []string{"confirmed", "in_progress", "completed"} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(bookingURL, done.Booking.ID)+"/status",
				request.UpdateStatusRequest{Status: status}, sl.employeeToken)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, statisticsURL, nil, sl.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var stats response.BookingStatisticsResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &stats))
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, map[string]int{"completed": 1, "pending": 1}, stats.ByStatus)
		assert.Equal(t, int64(6500), stats.CompletedRevenueCents)
		assert.Zero(t, stats.RatedCount)
		assert.Nil(t, stats.AverageRating)
	})

	s.Run("error: 顧客は他の顧客で絞り込めない", func() {
		t := s.T()
		sl := s.openSalon(t)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?customerId="+uuid.NewString(), nil, sl.customerToken)
		httptest.AssertErrorKind(t, w, http.StatusForbidden, "FORBIDDEN")
	})
}
