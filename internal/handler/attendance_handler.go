package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type attendanceService interface {
	Toggle(ctx context.Context, subjectID, date, studentID string) (*dto.AttendanceChangeResponse, error)
	Set(ctx context.Context, subjectID, date, studentID string, req dto.SetAttendanceRequest) (*dto.AttendanceChangeResponse, error)
	ListDay(ctx context.Context, subjectID, date string) (*dto.DayAttendanceResponse, error)
	Summary(ctx context.Context, subjectID, studentID string) (*models.AttendanceSummary, error)
}

// AttendanceHandler exposes attendance marking.
type AttendanceHandler struct {
	service   attendanceService
	revisions revisionSource
}

// NewAttendanceHandler constructs the handler. revisions may be nil.
func NewAttendanceHandler(service attendanceService, revisions revisionSource) *AttendanceHandler {
	return &AttendanceHandler{service: service, revisions: revisions}
}

// Toggle godoc
// @Summary Cycle a student's status through present, absent and late
// @Description Becoming absent zeroes every grade entry of the day for the student.
// @Tags Attendance
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/attendance/{studentId}/toggle [post]
func (h *AttendanceHandler) Toggle(c *gin.Context) {
	resp, err := h.service.Toggle(c.Request.Context(), c.Param("id"), c.Param("date"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// Set godoc
// @Summary Store an explicit attendance status
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param studentId path string true "Student ID"
// @Param payload body dto.SetAttendanceRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/attendance/{studentId} [put]
func (h *AttendanceHandler) Set(c *gin.Context) {
	var req dto.SetAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Set(c.Request.Context(), c.Param("id"), c.Param("date"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// ListDay godoc
// @Summary Attendance of a subject day
// @Tags Attendance
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/attendance [get]
func (h *AttendanceHandler) ListDay(c *gin.Context) {
	resp, err := h.service.ListDay(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// Summary godoc
// @Summary Attendance counts of a student
// @Tags Attendance
// @Produce json
// @Param id path string true "Subject ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/attendance/summary/{studentId} [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	resp, err := h.service.Summary(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}
