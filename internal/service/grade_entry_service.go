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

type entryTransform func(entries []models.GradeEntry, rules []models.EffectiveDailyRule, key gradebook.EntryKey, st gradebook.Stamper) ([]models.GradeEntry, models.GradeEntry, bool)

// GradeEntryService records grades against the effective rules of a day.
type GradeEntryService struct {
	state     *StateService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeEntryService constructs GradeEntryService.
func NewGradeEntryService(state *StateService, validate *validator.Validate, logger *zap.Logger) *GradeEntryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeEntryService{state: state, validator: validate, logger: logger}
}

// ListDay returns the grading grid of a subject day.
func (s *GradeEntryService) ListDay(ctx context.Context, subjectID, date string) (*dto.DayEntriesResponse, error) {
	if err := validateDay(s.validator, date); err != nil {
		return nil, err
	}
	var resp *dto.DayEntriesResponse
	err := s.state.Read(ctx, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		day := gradebook.EntriesForDay(doc.GradeEntries, subjectID, date)
		if day == nil {
			day = []models.GradeEntry{}
		}
		students := doc.StudentsOfClass(subject.ClassID)
		if students == nil {
			students = []models.Student{}
		}
		resp = &dto.DayEntriesResponse{
			SubjectID: subjectID,
			Date:      date,
			Students:  students,
			Rules:     gradebook.ResolveDailyRules(subject.Rules, day),
			Entries:   day,
		}
		return nil
	})
	return resp, err
}

// SetValue records a grade. Unparseable input is stored as 0 and values are
// clamped to the rule maximum.
func (s *GradeEntryService) SetValue(ctx context.Context, key dto.EntryKey, req dto.SetValueRequest) (*models.GradeEntry, error) {
	return s.apply(ctx, "set_value", key, func(entries []models.GradeEntry, rules []models.EffectiveDailyRule, k gradebook.EntryKey, st gradebook.Stamper) ([]models.GradeEntry, models.GradeEntry, bool) {
		return gradebook.SetValue(entries, rules, k, req.Value.String(), st)
	})
}

// SetNote replaces the note of an entry.
func (s *GradeEntryService) SetNote(ctx context.Context, key dto.EntryKey, req dto.SetNoteRequest) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	return s.apply(ctx, "set_note", key, func(entries []models.GradeEntry, rules []models.EffectiveDailyRule, k gradebook.EntryKey, st gradebook.Stamper) ([]models.GradeEntry, models.GradeEntry, bool) {
		return gradebook.SetNote(entries, rules, k, req.Note, st)
	})
}

// SetIgnored excludes or re-includes an entry in the final score.
func (s *GradeEntryService) SetIgnored(ctx context.Context, key dto.EntryKey, req dto.SetIgnoredRequest) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ignore payload")
	}
	ignored := *req.Ignored
	return s.apply(ctx, "set_ignored", key, func(entries []models.GradeEntry, rules []models.EffectiveDailyRule, k gradebook.EntryKey, st gradebook.Stamper) ([]models.GradeEntry, models.GradeEntry, bool) {
		return gradebook.SetIgnored(entries, rules, k, ignored, st)
	})
}

// SetOverride customises max and coefficient for one student's entry.
func (s *GradeEntryService) SetOverride(ctx context.Context, key dto.EntryKey, req dto.SetOverrideRequest) (*models.GradeEntry, error) {
	if req.MaxGrade == nil && req.Coefficient == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "maxGrade or coefficient is required")
	}
	maxRaw := rawPointer(req.MaxGrade)
	coefRaw := rawPointer(req.Coefficient)
	return s.apply(ctx, "set_override", key, func(entries []models.GradeEntry, rules []models.EffectiveDailyRule, k gradebook.EntryKey, st gradebook.Stamper) ([]models.GradeEntry, models.GradeEntry, bool) {
		return gradebook.SetEntryOverride(entries, rules, k, maxRaw, coefRaw, st)
	})
}

func (s *GradeEntryService) apply(ctx context.Context, command string, key dto.EntryKey, transform entryTransform) (*models.GradeEntry, error) {
	if err := s.validator.Struct(key); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry address")
	}
	var result models.GradeEntry
	err := s.state.Mutate(ctx, command, key.SubjectID, func(doc *models.Document) error {
		subject, err := findSubject(doc, key.SubjectID)
		if err != nil {
			return err
		}
		if _, err := findEnrolledStudent(doc, subject, key.StudentID); err != nil {
			return err
		}
		rules := gradebook.ResolveForSubject(subject, doc.GradeEntries, key.Date)
		entryKey := gradebook.EntryKey{StudentID: key.StudentID, SubjectID: key.SubjectID, RuleID: key.RuleID, Date: key.Date}
		entries, entry, ok := transform(doc.GradeEntries, rules, entryKey, s.state.Stamper())
		if !ok {
			return ruleNotFound(key.RuleID, key.Date)
		}
		doc.GradeEntries = entries
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func rawPointer(in *dto.RawInput) *string {
	if in == nil {
		return nil
	}
	value := in.String()
	return &value
}
