package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aisenh037/dept-mgmt-api/internal/service"
	appErrors "github.com/Aisenh037/dept-mgmt-api/pkg/errors"
	"github.com/Aisenh037/dept-mgmt-api/pkg/response"
)

// AttendanceHandler handles attendance and exam mark endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance for a subject
// @Description Re-marking the same student, subject and date overwrites
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance batch"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	records, err := h.service.Mark(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Sheet godoc
// @Summary Attendance sheet for a subject and date
// @Tags Attendance
// @Produce json
// @Param subject_id query string true "Subject ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	records, err := h.service.Sheet(c.Request.Context(), c.Query("subject_id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// StudentHistory godoc
// @Summary Attendance history for a student
// @Description Students may only read their own history
// @Tags Attendance
// @Produce json
// @Param id path string true "Student account ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *AttendanceHandler) StudentHistory(c *gin.Context) {
	records, err := h.service.StudentHistory(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// RecordMark godoc
// @Summary Record an exam mark
// @Description Re-recording the same student, subject and exam type overwrites
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.RecordMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /marks [post]
func (h *AttendanceHandler) RecordMark(c *gin.Context) {
	var req service.RecordMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark payload"))
		return
	}
	mark, err := h.service.RecordMark(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mark, nil)
}

// StudentMarks godoc
// @Summary Exam marks for a student
// @Description Students may only read their own marks
// @Tags Marks
// @Produce json
// @Param id path string true "Student account ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/marks [get]
func (h *AttendanceHandler) StudentMarks(c *gin.Context) {
	marks, err := h.service.StudentMarks(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}
