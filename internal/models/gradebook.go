package models

import (
	"fmt"
	"time"
)

// Teacher owns the academic years stored in a gradebook document.
type Teacher struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"fullName,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarColor string `json:"avatarColor,omitempty"`
}

// AcademicYear groups the schools a teacher works at during one year.
type AcademicYear struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TeacherID string `json:"teacherId"`
}

// School belongs to an academic year.
type School struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	YearID string `json:"yearId"`
}

// ClassRoom belongs to a school.
type ClassRoom struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SchoolID string `json:"schoolId"`
}

// Subject is taught to a class and owns its rule templates.
type Subject struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	ClassID string         `json:"classId"`
	Rules   []RuleTemplate `json:"rules"`
}

// Student is enrolled in a single class.
type Student struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ClassID string `json:"classId"`
}

// RuleTemplate is a grading rule as currently configured on a subject. New
// grading days start from these values.
type RuleTemplate struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MaxGrade    float64 `json:"maxGrade"`
	Coefficient float64 `json:"coefficient"`
	Percentage  float64 `json:"percentage"`
	IsNegative  bool    `json:"isNegative"`
}

// RuleSnapshot is the frozen copy of rule parameters stored on a grade entry.
// Scoring reads the snapshot, never the live template.
type RuleSnapshot struct {
	MaxAtTime      float64 `json:"maxAtTime"`
	CoefAtTime     float64 `json:"coefAtTime"`
	PercentAtTime  float64 `json:"percentAtTime"`
	RuleNameAtTime string  `json:"ruleNameAtTime"`
	IsNegative     bool    `json:"isNegative"`
	// Customized marks a per-student override of max/coefficient that later
	// value edits must keep.
	Customized bool `json:"customized,omitempty"`
}

// GradeEntry is the single recorded grade of a student for one rule on one day.
type GradeEntry struct {
	ID        string  `json:"id"`
	StudentID string  `json:"studentId"`
	SubjectID string  `json:"subjectId"`
	RuleID    string  `json:"ruleId"`
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	RuleSnapshot
	Note             string    `json:"note,omitempty"`
	IsIgnored        bool      `json:"isIgnored"`
	IsAbsenceDerived bool      `json:"isAbsenceDerived"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AttendanceStatus is the tri-state attendance of a student in a session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// Next returns the status that follows s when attendance is toggled. An empty
// status (no record yet) becomes present.
func (s AttendanceStatus) Next() AttendanceStatus {
	switch s {
	case AttendanceStatusPresent:
		return AttendanceStatusAbsent
	case AttendanceStatusAbsent:
		return AttendanceStatusLate
	default:
		return AttendanceStatusPresent
	}
}

// AttendanceRecord stores a student's status for a subject session.
type AttendanceRecord struct {
	ID        string           `json:"id"`
	StudentID string           `json:"studentId"`
	SubjectID string           `json:"subjectId"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// AttendanceSummary counts a student's statuses for a subject.
type AttendanceSummary struct {
	StudentID string `json:"studentId"`
	SubjectID string `json:"subjectId"`
	Present   int    `json:"present"`
	Absent    int    `json:"absent"`
	Late      int    `json:"late"`
	Total     int    `json:"total"`
}

// RuleSource tells where an effective daily rule came from.
type RuleSource string

const (
	RuleSourceTemplate RuleSource = "template"
	RuleSourceOverride RuleSource = "override"
	RuleSourceAdHoc    RuleSource = "adhoc"
)

// EffectiveDailyRule is a rule as it applies on one subject day. It is derived
// and never persisted.
type EffectiveDailyRule struct {
	RuleTemplate
	Source RuleSource `json:"source"`
}

// Snapshot freezes the rule parameters for storage on a grade entry.
func (r EffectiveDailyRule) Snapshot() RuleSnapshot {
	return RuleSnapshot{
		MaxAtTime:      r.MaxGrade,
		CoefAtTime:     r.Coefficient,
		PercentAtTime:  r.Percentage,
		RuleNameAtTime: r.Name,
		IsNegative:     r.IsNegative,
	}
}

// RuleTotals summarises a subject's template list. Percentages are advisory.
type RuleTotals struct {
	Percentage  float64 `json:"percentage"`
	Coefficient float64 `json:"coefficient"`
	Balanced    bool    `json:"balanced"`
}

// SnapshotVariant groups the students whose entries share max/coefficient.
type SnapshotVariant struct {
	MaxAtTime  float64  `json:"maxAtTime"`
	CoefAtTime float64  `json:"coefAtTime"`
	StudentIDs []string `json:"studentIds"`
}

// DayInconsistency reports a rule whose entries disagree on a given day.
type DayInconsistency struct {
	RuleID   string            `json:"ruleId"`
	RuleName string            `json:"ruleName"`
	Variants []SnapshotVariant `json:"variants"`
}

// ScoreStatus distinguishes computed scores from the no-data sentinels.
type ScoreStatus string

const (
	// ScoreStatusOK carries a computed weighted mean.
	ScoreStatusOK ScoreStatus = "ok"
	// ScoreStatusEmpty means entries exist but none carries weight.
	ScoreStatusEmpty ScoreStatus = "empty"
	// ScoreStatusNoData means the student has no entries for the subject.
	ScoreStatusNoData ScoreStatus = "no-data"
)

// FinalScore is the weighted mean on the 0-20 scale for a student and subject.
type FinalScore struct {
	StudentID   string      `json:"studentId"`
	SubjectID   string      `json:"subjectId"`
	Value       float64     `json:"value"`
	Status      ScoreStatus `json:"status"`
	EntryCount  int         `json:"entryCount"`
	WeightTotal float64     `json:"weightTotal"`
}

// Display renders the score the way the gradebook shows it.
func (f FinalScore) Display() string {
	switch f.Status {
	case ScoreStatusOK:
		return fmt.Sprintf("%.2f", f.Value)
	case ScoreStatusEmpty:
		return "0.00"
	default:
		return "---"
	}
}

// StudentScoreRow is one line of a class score sheet.
type StudentScoreRow struct {
	StudentID   string     `json:"studentId"`
	StudentName string     `json:"studentName"`
	Score       FinalScore `json:"score"`
	Display     string     `json:"display"`
	Absences    int        `json:"absences"`
	LastNote    string     `json:"lastNote,omitempty"`
}
