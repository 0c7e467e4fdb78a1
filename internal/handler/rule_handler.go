package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type ruleService interface {
	ListTemplates(ctx context.Context, subjectID string) (*dto.SubjectRulesResponse, error)
	UpdateTemplates(ctx context.Context, subjectID string, req dto.UpdateSubjectRulesRequest) (*dto.SubjectRulesResponse, error)
	ResolveDay(ctx context.Context, subjectID, date string) (*dto.DayRulesResponse, error)
	ApplyDayRules(ctx context.Context, subjectID, date string, req dto.ApplyDayRulesRequest) (*dto.DayRulesResponse, error)
	RemoveRuleFromDay(ctx context.Context, subjectID, date, ruleID string) (*dto.RuleRemovalResponse, error)
	UnifyRule(ctx context.Context, subjectID, date, ruleID string, req dto.UnifyRuleRequest) (*dto.UnifyRuleResponse, error)
	CheckConsistency(ctx context.Context, subjectID, date string) (*dto.ConsistencyResponse, error)
}

// RuleHandler exposes subject templates and daily rules.
type RuleHandler struct {
	service   ruleService
	revisions revisionSource
}

// NewRuleHandler constructs the handler. revisions may be nil.
func NewRuleHandler(service ruleService, revisions revisionSource) *RuleHandler {
	return &RuleHandler{service: service, revisions: revisions}
}

// ListTemplates godoc
// @Summary List the rule templates of a subject
// @Tags Rules
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/rules [get]
func (h *RuleHandler) ListTemplates(c *gin.Context) {
	resp, err := h.service.ListTemplates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// UpdateTemplates godoc
// @Summary Replace the rule templates of a subject
// @Description Recorded grade entries keep the parameters frozen in their snapshots.
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.UpdateSubjectRulesRequest true "Rule templates"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/rules [put]
func (h *RuleHandler) UpdateTemplates(c *gin.Context) {
	var req dto.UpdateSubjectRulesRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.UpdateTemplates(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// ResolveDay godoc
// @Summary Effective rules of a subject day
// @Tags Rules
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/rules [get]
func (h *RuleHandler) ResolveDay(c *gin.Context) {
	resp, err := h.service.ResolveDay(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// ApplyDayRules godoc
// @Summary Regenerate the rules of a subject day
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.ApplyDayRulesRequest true "Day rules"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/rules [put]
func (h *RuleHandler) ApplyDayRules(c *gin.Context) {
	var req dto.ApplyDayRulesRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.ApplyDayRules(c.Request.Context(), c.Param("id"), c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// RemoveRule godoc
// @Summary Delete a rule and its entries from one day
// @Tags Rules
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param ruleId path string true "Rule ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/rules/{ruleId} [delete]
func (h *RuleHandler) RemoveRule(c *gin.Context) {
	resp, err := h.service.RemoveRuleFromDay(c.Request.Context(), c.Param("id"), c.Param("date"), c.Param("ruleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// UnifyRule godoc
// @Summary Apply one max and coefficient to every entry of a rule on a day
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param ruleId path string true "Rule ID"
// @Param payload body dto.UnifyRuleRequest true "Unified parameters"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/rules/{ruleId}/unify [post]
func (h *RuleHandler) UnifyRule(c *gin.Context) {
	var req dto.UnifyRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.UnifyRule(c.Request.Context(), c.Param("id"), c.Param("date"), c.Param("ruleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}

// Consistency godoc
// @Summary Rules whose entries disagree on max or coefficient
// @Tags Rules
// @Produce json
// @Param id path string true "Subject ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/days/{date}/consistency [get]
func (h *RuleHandler) Consistency(c *gin.Context) {
	resp, err := h.service.CheckConsistency(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, h.revisions, resp)
}
