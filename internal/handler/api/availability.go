package api

import (
	"net/http"

	reqdto "petcare-booking/internal/handler/dto/request"
	resdto "petcare-booking/internal/handler/dto/response"
	"petcare-booking/internal/handler/httperr"
	"petcare-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	q queries.AvailabilityQueries
}

func NewAvailabilityHandler(q queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{q: q}
}

// @Summary Employee availability
// @Description Slot grid for one employee, date and service. A day off, an unknown or malformed employee id, or a malformed date yields an empty grid.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param serviceId query string true "Service ID"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /employees/{id}/availability [get]
func (h *AvailabilityHandler) GetSlots(c *gin.Context) {
	var q reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	serviceID, err := uuid.Parse(q.ServiceID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid service id", nil)
		return
	}
	// an id that cannot name an employee has no schedule, like an unknown one
	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, &resdto.AvailabilityResponse{ServiceID: serviceID, Date: q.Date, Slots: []resdto.SlotResponse{}})
		return
	}

	slots, err := h.q.GetAvailableSlots(c.Request.Context(), queries.AvailabilityQuery{
		EmployeeID: employeeID,
		ServiceID:  serviceID,
		Date:       q.Date,
	})
	if err != nil {
		httperr.AbortWithDomainError(c, err, "Availability lookup failed")
		return
	}
	resp, err := resdto.FromSlots(employeeID, serviceID, q.Date, slots)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render slots", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}
