package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/service"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type scoreService interface {
	StudentScore(ctx context.Context, subjectID, studentID string) (*dto.StudentScoreResponse, bool, error)
	ClassScores(ctx context.Context, subjectID string) (*dto.ClassScoresResponse, bool, error)
}

type scoreExporter interface {
	ScoreSheet(ctx context.Context, subjectID string, format service.ExportFormat) (*service.ExportResult, error)
}

// ScoreHandler exposes final scores and score sheet downloads.
type ScoreHandler struct {
	scores    scoreService
	exports   scoreExporter
	revisions revisionSource
}

// NewScoreHandler constructs the handler. exports and revisions may be nil.
func NewScoreHandler(scores scoreService, exports scoreExporter, revisions revisionSource) *ScoreHandler {
	return &ScoreHandler{scores: scores, exports: exports, revisions: revisions}
}

// StudentScore godoc
// @Summary Final score of a student on the 0-20 scale
// @Description display is "---" without entries and "0.00" when nothing carries weight.
// @Tags Scores
// @Produce json
// @Param id path string true "Subject ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/students/{studentId}/score [get]
func (h *ScoreHandler) StudentScore(c *gin.Context) {
	resp, cacheHit, err := h.scores.StudentScore(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	respondOK(c, h.revisions, resp)
}

// ClassScores godoc
// @Summary Score sheet of a subject
// @Tags Scores
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/scores [get]
func (h *ScoreHandler) ClassScores(c *gin.Context) {
	resp, cacheHit, err := h.scores.ClassScores(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	respondOK(c, h.revisions, resp)
}

// Export godoc
// @Summary Download the score sheet of a subject
// @Tags Scores
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Subject ID"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /subjects/{id}/scores/export [get]
func (h *ScoreHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrExportDisabled)
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	result, err := h.exports.ScoreSheet(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
