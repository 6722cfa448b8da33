package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aisenh037/dept-mgmt-api/internal/service"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
	"github.com/Aisenh037/dept-mgmt-api/pkg/response"
)

// FacilityHandler handles facility and booking endpoints.
type FacilityHandler struct {
	service *service.FacilityService
}

// NewFacilityHandler constructs a facility handler.
func NewFacilityHandler(svc *service.FacilityService) *FacilityHandler {
	return &FacilityHandler{service: svc}
}

// List godoc
// @Summary List facilities
// @Tags Facilities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /facilities [get]
func (h *FacilityHandler) List(c *gin.Context) {
	facilities, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, facilities, nil)
}

// Create godoc
// @Summary Create facility
// @Tags Facilities
// @Accept json
// @Produce json
// @Param payload body service.CreateFacilityRequest true "Facility payload"
// @Success 201 {object} response.Envelope
// @Router /facilities [post]
func (h *FacilityHandler) Create(c *gin.Context) {
	var req service.CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid facility payload"))
		return
	}
	facility, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, facility)
}

// Book godoc
// @Summary Book facility
// @Description Reserve a facility slot; overlapping live bookings are rejected
// @Tags Facilities
// @Accept json
// @Produce json
// @Param id path string true "Facility ID"
// @Param payload body service.BookFacilityRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /facilities/{id}/bookings [post]
func (h *FacilityHandler) Book(c *gin.Context) {
	var req service.BookFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	booking, err := h.service.Book(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// Bookings godoc
// @Summary List facility bookings
// @Tags Facilities
// @Produce json
// @Param id path string true "Facility ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /facilities/{id}/bookings [get]
func (h *FacilityHandler) Bookings(c *gin.Context) {
	bookings, err := h.service.Bookings(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// Review godoc
// @Summary Approve or reject a booking
// @Tags Facilities
// @Accept json
// @Produce json
// @Param id path string true "Facility ID"
// @Param bookingId path string true "Booking ID"
// @Param payload body map[string]bool true "Approval decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /facilities/{id}/bookings/{bookingId} [put]
func (h *FacilityHandler) Review(c *gin.Context) {
	var payload struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "approve decision required"))
		return
	}
	booking, err := h.service.Review(c.Request.Context(), actorFromContext(c), c.Param("bookingId"), *payload.Approve)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}
