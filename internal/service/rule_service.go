package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/gradebook"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// RuleService manages rule templates and the rules of individual days.
type RuleService struct {
	state     *StateService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRuleService constructs RuleService.
func NewRuleService(state *StateService, validate *validator.Validate, logger *zap.Logger) *RuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleService{state: state, validator: validate, logger: logger}
}

// ListTemplates returns the current templates of a subject.
func (s *RuleService) ListTemplates(ctx context.Context, subjectID string) (*dto.SubjectRulesResponse, error) {
	var resp *dto.SubjectRulesResponse
	err := s.state.Read(ctx, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		resp = subjectRulesResponse(subject)
		return nil
	})
	return resp, err
}

// UpdateTemplates replaces the templates of a subject. Recorded entries keep
// their snapshots.
func (s *RuleService) UpdateTemplates(ctx context.Context, subjectID string, req dto.UpdateSubjectRulesRequest) (*dto.SubjectRulesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rules payload")
	}
	templates, err := normalizeInputs(req.Rules)
	if err != nil {
		return nil, err
	}

	var resp *dto.SubjectRulesResponse
	err = s.state.Mutate(ctx, "update_templates", subjectID, func(doc *models.Document) error {
		subjects, ok := gradebook.ReplaceSubjectRules(doc.Subjects, subjectID, templates)
		if !ok {
			_, err := findSubject(doc, subjectID)
			return err
		}
		doc.Subjects = subjects
		subject, _ := doc.FindSubject(subjectID)
		resp = subjectRulesResponse(subject)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !resp.Totals.Balanced {
		s.logger.Debug("rule percentages do not add up to 100", zap.String("subject_id", subjectID), zap.Float64("percentage", resp.Totals.Percentage))
	}
	return resp, nil
}

// ResolveDay returns the effective rules of a subject day.
func (s *RuleService) ResolveDay(ctx context.Context, subjectID, date string) (*dto.DayRulesResponse, error) {
	if err := validateDay(s.validator, date); err != nil {
		return nil, err
	}
	var resp *dto.DayRulesResponse
	err := s.state.Read(ctx, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		resp = &dto.DayRulesResponse{
			SubjectID: subjectID,
			Date:      date,
			Rules:     gradebook.ResolveForSubject(subject, doc.GradeEntries, date),
		}
		return nil
	})
	return resp, err
}

// ApplyDayRules regenerates a subject day with the given rules for every
// student of the class.
func (s *RuleService) ApplyDayRules(ctx context.Context, subjectID, date string, req dto.ApplyDayRulesRequest) (*dto.DayRulesResponse, error) {
	if err := validateDay(s.validator, date); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day rules payload")
	}
	rules, err := normalizeInputs(req.Rules)
	if err != nil {
		return nil, err
	}

	var resp *dto.DayRulesResponse
	err = s.state.Mutate(ctx, "apply_day_rules", subjectID, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		studentIDs := models.StudentIDs(doc.StudentsOfClass(subject.ClassID))
		if len(studentIDs) == 0 {
			s.logger.Warn("applying day rules to a class without students", zap.String("subject_id", subjectID), zap.String("date", date))
		}
		doc.GradeEntries = gradebook.ApplyRuleOverridesForDay(doc.GradeEntries, studentIDs, subjectID, date, rules, s.state.Stamper())
		resp = &dto.DayRulesResponse{
			SubjectID: subjectID,
			Date:      date,
			Rules:     gradebook.ResolveForSubject(subject, doc.GradeEntries, date),
		}
		return nil
	})
	return resp, err
}

// RemoveRuleFromDay deletes a rule's entries on one day.
func (s *RuleService) RemoveRuleFromDay(ctx context.Context, subjectID, date, ruleID string) (*dto.RuleRemovalResponse, error) {
	if err := validateDay(s.validator, date); err != nil {
		return nil, err
	}
	resp := &dto.RuleRemovalResponse{RuleID: ruleID}
	err := s.state.Mutate(ctx, "remove_day_rule", subjectID, func(doc *models.Document) error {
		if _, err := findSubject(doc, subjectID); err != nil {
			return err
		}
		doc.GradeEntries, resp.Removed = gradebook.RemoveRuleFromDay(doc.GradeEntries, subjectID, date, ruleID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UnifyRule rewrites max and coefficient of a rule's entries on one day.
func (s *RuleService) UnifyRule(ctx context.Context, subjectID, date, ruleID string, req dto.UnifyRuleRequest) (*dto.UnifyRuleResponse, error) {
	if err := validateDay(s.validator, date); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unify payload")
	}
	resp := &dto.UnifyRuleResponse{RuleID: ruleID}
	err := s.state.Mutate(ctx, "unify_day_rule", subjectID, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		if _, ok := gradebook.FindRule(gradebook.ResolveForSubject(subject, doc.GradeEntries, date), ruleID); !ok {
			return ruleNotFound(ruleID, date)
		}
		doc.GradeEntries, resp.Updated = gradebook.UnifyRuleForDay(doc.GradeEntries, subjectID, date, ruleID, req.MaxGrade, req.Coefficient, req.StudentIDs, s.state.Stamper())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CheckConsistency reports rules whose entries disagree on a day.
func (s *RuleService) CheckConsistency(ctx context.Context, subjectID, date string) (*dto.ConsistencyResponse, error) {
	if err := validateDay(s.validator, date); err != nil {
		return nil, err
	}
	var resp *dto.ConsistencyResponse
	err := s.state.Read(ctx, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		day := gradebook.EntriesForDay(doc.GradeEntries, subjectID, date)
		rules := gradebook.ResolveDailyRules(subject.Rules, day)
		roster := models.StudentIDs(doc.StudentsOfClass(subject.ClassID))
		issues := gradebook.CheckDayConsistency(day, rules, roster)
		resp = &dto.ConsistencyResponse{
			SubjectID:  subjectID,
			Date:       date,
			Consistent: len(issues) == 0,
			Issues:     issues,
		}
		return nil
	})
	return resp, err
}

func subjectRulesResponse(subject models.Subject) *dto.SubjectRulesResponse {
	rules := subject.Rules
	if rules == nil {
		rules = []models.RuleTemplate{}
	}
	return &dto.SubjectRulesResponse{
		SubjectID: subject.ID,
		Rules:     rules,
		Totals:    gradebook.RuleTotals(rules),
	}
}

func normalizeInputs(inputs []dto.RuleTemplateInput) ([]models.RuleTemplate, error) {
	templates := make([]models.RuleTemplate, 0, len(inputs))
	for _, in := range inputs {
		templates = append(templates, in.Template())
	}
	normalized, err := gradebook.NormalizeTemplates(templates)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return normalized, nil
}
