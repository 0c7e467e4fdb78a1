package dto

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// RawInput is user input for numeric fields. It accepts JSON numbers and
// strings so clients can forward whatever was typed; parsing is lenient.
type RawInput string

// UnmarshalJSON accepts a number or a string. Any other token (null, bool,
// array, object) becomes empty input, which parses as 0.
func (r *RawInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RawInput(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			*r = ""
			return nil
		}
		*r = RawInput(n.String())
	}
	return nil
}

// String returns the raw text.
func (r RawInput) String() string { return string(r) }

// RawNumber formats a float as RawInput.
func RawNumber(v float64) RawInput {
	return RawInput(strconv.FormatFloat(v, 'f', -1, 64))
}

// RuleTemplateInput describes one grading rule in a rules payload.
type RuleTemplateInput struct {
	ID          string  `json:"id" validate:"omitempty,max=64"`
	Name        string  `json:"name" validate:"required,max=120"`
	MaxGrade    float64 `json:"maxGrade" validate:"gt=0"`
	Coefficient float64 `json:"coefficient" validate:"gte=0"`
	Percentage  float64 `json:"percentage" validate:"gte=0,lte=100"`
	IsNegative  bool    `json:"isNegative"`
}

// Template converts the input into a rule template.
func (in RuleTemplateInput) Template() models.RuleTemplate {
	return models.RuleTemplate{
		ID:          in.ID,
		Name:        in.Name,
		MaxGrade:    in.MaxGrade,
		Coefficient: in.Coefficient,
		Percentage:  in.Percentage,
		IsNegative:  in.IsNegative,
	}
}

// UpdateSubjectRulesRequest replaces the rule templates of a subject.
type UpdateSubjectRulesRequest struct {
	Rules []RuleTemplateInput `json:"rules" validate:"dive"`
}

// ApplyDayRulesRequest regenerates the rules of one subject day.
type ApplyDayRulesRequest struct {
	Rules []RuleTemplateInput `json:"rules" validate:"required,min=1,dive"`
}

// UnifyRuleRequest sets one max and coefficient on every entry of a rule for a
// day. An empty StudentIDs means every student holding an entry.
type UnifyRuleRequest struct {
	MaxGrade    float64  `json:"maxGrade" validate:"gt=0"`
	Coefficient float64  `json:"coefficient" validate:"gte=0"`
	StudentIDs  []string `json:"studentIds" validate:"omitempty,dive,required"`
}

// SetValueRequest records a grade value.
type SetValueRequest struct {
	Value RawInput `json:"value"`
}

// SetNoteRequest records a free-text note.
type SetNoteRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// SetIgnoredRequest toggles whether an entry counts toward the score.
type SetIgnoredRequest struct {
	Ignored *bool `json:"ignored" validate:"required"`
}

// SetOverrideRequest changes max and coefficient for one student's entry.
// Omitted or invalid fields keep their previous value.
type SetOverrideRequest struct {
	MaxGrade    *RawInput `json:"maxGrade"`
	Coefficient *RawInput `json:"coefficient"`
}

// SetAttendanceRequest stores an explicit attendance status.
type SetAttendanceRequest struct {
	Status string `json:"status" validate:"required,oneof=present absent late"`
}

// EntryKey addresses a grade entry from path parameters.
type EntryKey struct {
	SubjectID string `validate:"required"`
	Date      string `validate:"required,datetime=2006-01-02"`
	StudentID string `validate:"required"`
	RuleID    string `validate:"required"`
}

// SubjectRulesResponse lists a subject's templates with their totals.
type SubjectRulesResponse struct {
	SubjectID string                `json:"subjectId"`
	Rules     []models.RuleTemplate `json:"rules"`
	Totals    models.RuleTotals     `json:"totals"`
}

// DayRulesResponse lists the effective rules of a subject day.
type DayRulesResponse struct {
	SubjectID string                      `json:"subjectId"`
	Date      string                      `json:"date"`
	Rules     []models.EffectiveDailyRule `json:"rules"`
}

// RuleRemovalResponse reports entries dropped with a rule.
type RuleRemovalResponse struct {
	RuleID  string `json:"ruleId"`
	Removed int    `json:"removed"`
}

// UnifyRuleResponse reports entries rewritten by a unify.
type UnifyRuleResponse struct {
	RuleID  string `json:"ruleId"`
	Updated int    `json:"updated"`
}

// ConsistencyResponse lists the rules whose entries disagree on a day.
type ConsistencyResponse struct {
	SubjectID  string                    `json:"subjectId"`
	Date       string                    `json:"date"`
	Consistent bool                      `json:"consistent"`
	Issues     []models.DayInconsistency `json:"issues"`
}

// DayEntriesResponse carries the grading grid of a subject day.
type DayEntriesResponse struct {
	SubjectID string                      `json:"subjectId"`
	Date      string                      `json:"date"`
	Students  []models.Student            `json:"students"`
	Rules     []models.EffectiveDailyRule `json:"rules"`
	Entries   []models.GradeEntry         `json:"entries"`
}

// AttendanceChangeResponse reports an attendance write and its cascade.
type AttendanceChangeResponse struct {
	Record        models.AttendanceRecord `json:"record"`
	Previous      models.AttendanceStatus `json:"previous,omitempty"`
	ZeroedEntries int                     `json:"zeroedEntries"`
}

// DayAttendanceResponse lists the attendance of a subject day.
type DayAttendanceResponse struct {
	SubjectID string                    `json:"subjectId"`
	Date      string                    `json:"date"`
	Records   []models.AttendanceRecord `json:"records"`
}

// StudentScoreResponse is the final score of one student.
type StudentScoreResponse struct {
	models.FinalScore
	Display string `json:"display"`
}

// ClassScoresResponse is the score sheet of a subject.
type ClassScoresResponse struct {
	SubjectID   string                   `json:"subjectId"`
	SubjectName string                   `json:"subjectName"`
	Rows        []models.StudentScoreRow `json:"rows"`
}
