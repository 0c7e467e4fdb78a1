package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type gradeEntryService interface {
	ListDay(ctx context.Context, subjectID, date string) (*dto.DayEntriesResponse, error)
	SetValue(ctx context.Context, key dto.EntryKey, req dto.SetValueRequest) (*models.GradeEntry, error)
	SetNote(ctx context.Context, key dto.EntryKey, req dto.SetNoteRequest) (*models.GradeEntry, error)
	SetIgnored(ctx context.Context, key dto.EntryKey, req dto.SetIgnoredRequest) (*models.GradeEntry, error)
	SetOverride(ctx context.Context, key dto.EntryKey, req dto.SetOverrideRequest) (*models.GradeEntry, error)
}

// GradeEntryHandler exposes the grading grid of a day.
type GradeEntryHandler struct {
	service   gradeEntryService
	revisions revisionSource
}

// NewGradeEntryHandler constructs the handler. revisions may be nil.
func NewGradeEntryHandler(service gradeEntryService, revisions revisionSource) *GradeEntryHandler {
	return &GradeEntryHandler{service: service, revisions: revisions}
}

// ListDay godoc
// @Summary Grading grid of a subject day
// @Tags Grades
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/entries [get]
func (h *GradeEntryHandler) ListDay(c *gin.Context) {
	resp, err := h.service.ListDay(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// SetValue godoc
// @Summary Record a grade
// @Description Unparseable values are stored as 0 and values are clamped to the rule maximum.
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param studentId path string true "Student ID"
// @Param ruleId path string true "Rule ID"
// @Param payload body dto.SetValueRequest true "Value"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/entries/{studentId}/{ruleId}/value [put]
func (h *GradeEntryHandler) SetValue(c *gin.Context) {
	var req dto.SetValueRequest
	if !bindJSON(c, &req) {
		return
	}
	h.write(c, func(ctx context.Context, key dto.EntryKey) (*models.GradeEntry, error) {
		return h.service.SetValue(ctx, key, req)
	})
}

// SetNote godoc
// @Summary Record a note on an entry
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param studentId path string true "Student ID"
// @Param ruleId path string true "Rule ID"
// @Param payload body dto.SetNoteRequest true "Note"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/entries/{studentId}/{ruleId}/note [put]
func (h *GradeEntryHandler) SetNote(c *gin.Context) {
	var req dto.SetNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	h.write(c, func(ctx context.Context, key dto.EntryKey) (*models.GradeEntry, error) {
		return h.service.SetNote(ctx, key, req)
	})
}

// SetIgnored godoc
// @Summary Exclude or include an entry in the final score
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param studentId path string true "Student ID"
// @Param ruleId path string true "Rule ID"
// @Param payload body dto.SetIgnoredRequest true "Ignore flag"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/entries/{studentId}/{ruleId}/ignored [put]
func (h *GradeEntryHandler) SetIgnored(c *gin.Context) {
	var req dto.SetIgnoredRequest
	if !bindJSON(c, &req) {
		return
	}
	h.write(c, func(ctx context.Context, key dto.EntryKey) (*models.GradeEntry, error) {
		return h.service.SetIgnored(ctx, key, req)
	})
}

// SetOverride godoc
// @Summary Override max and coefficient for one student
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param studentId path string true "Student ID"
// @Param ruleId path string true "Rule ID"
// @Param payload body dto.SetOverrideRequest true "Override"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/entries/{studentId}/{ruleId}/override [put]
func (h *GradeEntryHandler) SetOverride(c *gin.Context) {
	var req dto.SetOverrideRequest
	if !bindJSON(c, &req) {
		return
	}
	h.write(c, func(ctx context.Context, key dto.EntryKey) (*models.GradeEntry, error) {
		return h.service.SetOverride(ctx, key, req)
	})
}

func (h *GradeEntryHandler) write(c *gin.Context, call func(ctx context.Context, key dto.EntryKey) (*models.GradeEntry, error)) {
	entry, err := call(c.Request.Context(), entryKeyFromPath(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, entry)
}
