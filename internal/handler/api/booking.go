package api

import (
	"errors"
	"net/http"

	"petcare-booking/internal/domain/user"
	reqdto "petcare-booking/internal/handler/dto/request"
	resdto "petcare-booking/internal/handler/dto/response"
	"petcare-booking/internal/handler/httperr"
	"petcare-booking/internal/handler/middleware"
	"petcare-booking/internal/usecase/commands"
	"petcare-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errEmptyUpdate = errors.New("no fields to update")

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Create booking
// @Description Book a slot for a pet. Without employeeId the first qualified employee with the slot free is assigned.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Create booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	requester, ok := middleware.GetRequester(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errors.New("missing requester"), "Unauthorized", nil)
		return
	}
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.cmds.Create(c.Request.Context(), req.ToCommand(), requester)
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Create booking failed")
		return
	}
	view, err := h.q.GetBookingByID(c.Request.Context(), result.BookingID, requester)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load booking", nil)
		return
	}
	resp, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render booking", nil)
		return
	}
	c.Header("Location", "/api/bookings/"+result.BookingID.String())
	c.JSON(http.StatusCreated, resdto.CreateBookingResponse{Booking: resp, AutoAssigned: result.AutoAssigned})
}

// @Summary List bookings
// @Description List bookings visible to the requester, newest first, with keyset pagination
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param customerId query string false "Customer ID (admin only, or own ID)"
// @Param employeeId query string false "Employee ID (admin only, or own ID)"
// @Param status query string false "Booking status"
// @Param dateFrom query string false "From date (YYYY-MM-DD)"
// @Param dateTo query string false "To date (YYYY-MM-DD)"
// @Param limit query int false "Max items (default 20)"
// @Param after query string false "Cursor for keyset pagination"
// @Success 200 {object} resdto.BookingListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	requester, ok := middleware.GetRequester(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errors.New("missing requester"), "Unauthorized", nil)
		return
	}
	var q reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	filters, err := q.ToFilters()
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Invalid query")
		return
	}
	items, next, err := h.q.GetBookings(c.Request.Context(), requester, filters, q.Cursor(), q.PageLimit())
	if err != nil {
		httperr.AbortWithDomainError(c, err, "List bookings failed")
		return
	}
	resp, err := resdto.FromBookingList(items, next)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render bookings", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Booking statistics
// @Description Counts per status, completed revenue and average rating over the requester's bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param customerId query string false "Customer ID"
// @Param employeeId query string false "Employee ID"
// @Param dateFrom query string false "From date (YYYY-MM-DD)"
// @Param dateTo query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} resdto.BookingStatisticsResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /bookings/statistics [get]
func (h *BookingHandler) Statistics(c *gin.Context) {
	requester, ok := middleware.GetRequester(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errors.New("missing requester"), "Unauthorized", nil)
		return
	}
	var q reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	filters, err := q.ToFilters()
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Invalid query")
		return
	}
	stats, err := h.q.GetStatistics(c.Request.Context(), requester, filters)
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Statistics failed")
		return
	}
	resp, err := resdto.FromBookingStatistics(stats)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render statistics", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get booking
// @Description Get a booking by ID
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, requester, ok := bookingTarget(c)
	if !ok {
		return
	}
	h.respondWithBooking(c, id, requester)
}

// @Summary Reschedule booking
// @Description Move a booking to another date, time or employee, or edit its notes
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.UpdateBookingRequest true "Update booking request"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id} [patch]
func (h *BookingHandler) Update(c *gin.Context) {
	id, requester, ok := bookingTarget(c)
	if !ok {
		return
	}
	var req reqdto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if req.IsEmpty() {
		httperr.AbortWithError(c, http.StatusBadRequest, errEmptyUpdate, "Invalid request", nil)
		return
	}
	if err := h.cmds.Update(c.Request.Context(), id, req.ToCommand(), requester); err != nil {
		httperr.AbortWithDomainError(c, err, "Update booking failed")
		return
	}
	h.respondWithBooking(c, id, requester)
}

// @Summary Cancel booking
// @Description Cancel a booking. Customers must cancel ahead of the configured lead time.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.CancelBookingRequest true "Cancel booking request"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, requester, ok := bookingTarget(c)
	if !ok {
		return
	}
	var req reqdto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if err := h.cmds.Cancel(c.Request.Context(), id, req.ToCommand(), requester); err != nil {
		httperr.AbortWithDomainError(c, err, "Cancel booking failed")
		return
	}
	h.respondWithBooking(c, id, requester)
}

// @Summary Update booking status
// @Description Move a booking through its lifecycle (staff only)
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.UpdateStatusRequest true "Update status request"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/status [post]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, requester, ok := bookingTarget(c)
	if !ok {
		return
	}
	var req reqdto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if err := h.cmds.UpdateStatus(c.Request.Context(), id, req.ToCommand(), requester); err != nil {
		httperr.AbortWithDomainError(c, err, "Update status failed")
		return
	}
	h.respondWithBooking(c, id, requester)
}

// @Summary Rate booking
// @Description Rate a completed booking once (booking customer only)
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.AddRatingRequest true "Add rating request"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/rating [post]
func (h *BookingHandler) AddRating(c *gin.Context) {
	id, requester, ok := bookingTarget(c)
	if !ok {
		return
	}
	var req reqdto.AddRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if err := h.cmds.AddRating(c.Request.Context(), id, req.ToCommand(), requester); err != nil {
		httperr.AbortWithDomainError(c, err, "Add rating failed")
		return
	}
	h.respondWithBooking(c, id, requester)
}

func (h *BookingHandler) respondWithBooking(c *gin.Context, id uuid.UUID, requester user.Requester) {
	view, err := h.q.GetBookingByID(c.Request.Context(), id, requester)
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Get booking failed")
		return
	}
	resp, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render booking", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// bookingTarget aborts the request itself when it returns false.
func bookingTarget(c *gin.Context) (uuid.UUID, user.Requester, bool) {
	requester, ok := middleware.GetRequester(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errors.New("missing requester"), "Unauthorized", nil)
		return uuid.Nil, user.Requester{}, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return uuid.Nil, user.Requester{}, false
	}
	return id, requester, true
}
