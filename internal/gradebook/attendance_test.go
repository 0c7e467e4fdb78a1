package gradebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func threeRuleSubject() models.Subject {
	return models.Subject{
		ID:   "sub-1",
		Name: "English",
		Rules: []models.RuleTemplate{
			{ID: "exam", Name: "Exam", MaxGrade: 20, Coefficient: 1, Percentage: 60},
			{ID: "discipline", Name: "Discipline", MaxGrade: 2, Coefficient: 0.5, Percentage: 20},
			{ID: "hw", Name: "Homework", MaxGrade: 5, Coefficient: 0.5, Percentage: 20},
		},
	}
}

func TestAttendanceStatusCycle(t *testing.T) {
	st := fixedStamper()
	subject := threeRuleSubject()
	date := "2025-01-10"

	var records []models.AttendanceRecord
	var entries []models.GradeEntry
	want := []models.AttendanceStatus{
		models.AttendanceStatusPresent,
		models.AttendanceStatusAbsent,
		models.AttendanceStatusLate,
		models.AttendanceStatusPresent,
	}
	for _, status := range want {
		change := ToggleAttendance(records, entries, subject, "stu-1", date, st)
		assert.Equal(t, status, change.Record.Status)
		records, entries = change.Records, change.Entries
	}
	assert.Len(t, records, 1)
}

func TestAbsenceZeroesEveryRuleOfTheDay(t *testing.T) {
	st := fixedStamper()
	subject := threeRuleSubject()
	date := "2025-01-10"
	key := EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "exam", Date: date}

	entries, _, _ := SetValue(nil, ResolveForSubject(subject, nil, date), key, "17", st)
	entries, _, _ = SetNote(entries, ResolveForSubject(subject, entries, date), key, "sick", st)
	records := []models.AttendanceRecord{{ID: "att-1", StudentID: "stu-1", SubjectID: "sub-1", Date: date, Status: models.AttendanceStatusPresent}}

	change := SetAttendance(records, entries, subject, "stu-1", date, models.AttendanceStatusAbsent, st)
	assert.Equal(t, models.AttendanceStatusPresent, change.Previous)
	assert.Equal(t, 3, change.Zeroed)

	day := EntriesForDay(change.Entries, "sub-1", date)
	require.Len(t, day, 3)
	for _, entry := range day {
		assert.Equal(t, 0.0, entry.Value)
		assert.True(t, entry.IsAbsenceDerived)
		assert.False(t, entry.IsIgnored)
	}
	exam, _ := FindEntry(change.Entries, key)
	assert.Equal(t, "Absent: sick", exam.Note)
	hw, _ := FindEntry(change.Entries, EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "hw", Date: date})
	assert.Equal(t, AbsenceMarker, hw.Note)

	score := FinalScore(change.Entries, "stu-1", "sub-1")
	assert.Equal(t, "0.00", score.Display())

	// leaving absent does not restore the zeroed values
	late := SetAttendance(change.Records, change.Entries, subject, "stu-1", date, models.AttendanceStatusLate, st)
	assert.Equal(t, 0, late.Zeroed)
	exam, _ = FindEntry(late.Entries, key)
	assert.Equal(t, 0.0, exam.Value)
	assert.Equal(t, change.Entries, late.Entries)
}

func TestAbsenceLeavesOtherStudentsAndDays(t *testing.T) {
	st := fixedStamper()
	subject := threeRuleSubject()
	date := "2025-01-10"

	otherStudent := EntryKey{StudentID: "stu-2", SubjectID: "sub-1", RuleID: "exam", Date: date}
	otherDay := EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "exam", Date: "2025-01-09"}
	entries, _, _ := SetValue(nil, ResolveForSubject(subject, nil, date), otherStudent, "15", st)
	entries, _, _ = SetValue(entries, ResolveForSubject(subject, nil, otherDay.Date), otherDay, "12", st)

	change := SetAttendance(nil, entries, subject, "stu-1", date, models.AttendanceStatusAbsent, st)
	require.Len(t, change.Records, 1)

	kept, _ := FindEntry(change.Entries, otherStudent)
	assert.Equal(t, 15.0, kept.Value)
	kept, _ = FindEntry(change.Entries, otherDay)
	assert.Equal(t, 12.0, kept.Value)
	assert.Len(t, entries, 2)
}

func TestRepeatedAbsenceDoesNotCascadeTwice(t *testing.T) {
	st := fixedStamper()
	subject := threeRuleSubject()
	date := "2025-01-10"

	first := SetAttendance(nil, nil, subject, "stu-1", date, models.AttendanceStatusAbsent, st)
	key := EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "exam", Date: date}
	entries, _, _ := SetValue(first.Entries, ResolveForSubject(subject, first.Entries, date), key, "9", st)

	again := SetAttendance(first.Records, entries, subject, "stu-1", date, models.AttendanceStatusAbsent, st)
	assert.Equal(t, 0, again.Zeroed)
	exam, _ := FindEntry(again.Entries, key)
	assert.Equal(t, 9.0, exam.Value)
	assert.False(t, exam.IsAbsenceDerived)
}

func TestManualValueDropsAbsenceMarker(t *testing.T) {
	st := fixedStamper()
	subject := threeRuleSubject()
	date := "2025-01-10"
	exam := EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "exam", Date: date}
	hw := EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "hw", Date: date}

	entries, _, _ := SetNote(nil, ResolveForSubject(subject, nil, date), exam, "sick", st)
	change := SetAttendance(nil, entries, subject, "stu-1", date, models.AttendanceStatusAbsent, st)
	entries = change.Entries

	entries, entry, ok := SetValue(entries, ResolveForSubject(subject, entries, date), exam, "14", st)
	require.True(t, ok)
	assert.Equal(t, 14.0, entry.Value)
	assert.False(t, entry.IsAbsenceDerived)
	assert.Equal(t, "sick", entry.Note)

	entries, entry, _ = SetValue(entries, ResolveForSubject(subject, entries, date), hw, "3", st)
	assert.Empty(t, entry.Note)

	// notes on entries that were never zeroed by an absence stay as typed
	entries, _, _ = SetNote(entries, ResolveForSubject(subject, entries, date), hw, "Absent: late paper", st)
	_, entry, _ = SetValue(entries, ResolveForSubject(subject, entries, date), hw, "4", st)
	assert.Equal(t, "Absent: late paper", entry.Note)
}

func TestAbsenceUsesDayOverrides(t *testing.T) {
	st := fixedStamper()
	subject := threeRuleSubject()
	date := "2025-01-10"

	entries := ApplyRuleOverridesForDay(nil, []string{"stu-2"}, "sub-1", date, []models.RuleTemplate{
		{ID: "exam", Name: "Exam", MaxGrade: 20, Coefficient: 1},
		{ID: "oral", Name: "Oral", MaxGrade: 5, Coefficient: 1},
	}, st)

	change := SetAttendance(nil, entries, subject, "stu-1", date, models.AttendanceStatusAbsent, st)
	assert.Equal(t, 4, change.Zeroed)
	oral, ok := FindEntry(change.Entries, EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "oral", Date: date})
	require.True(t, ok)
	assert.Equal(t, 5.0, oral.MaxAtTime)
}

func TestAttendanceSummaryCounts(t *testing.T) {
	records := []models.AttendanceRecord{
		{StudentID: "stu-1", SubjectID: "sub-1", Date: "2025-01-06", Status: models.AttendanceStatusPresent},
		{StudentID: "stu-1", SubjectID: "sub-1", Date: "2025-01-07", Status: models.AttendanceStatusAbsent},
		{StudentID: "stu-1", SubjectID: "sub-1", Date: "2025-01-08", Status: models.AttendanceStatusLate},
		{StudentID: "stu-1", SubjectID: "sub-1", Date: "2025-01-09", Status: models.AttendanceStatusAbsent},
		{StudentID: "stu-1", SubjectID: "sub-2", Date: "2025-01-09", Status: models.AttendanceStatusAbsent},
		{StudentID: "stu-2", SubjectID: "sub-1", Date: "2025-01-09", Status: models.AttendanceStatusAbsent},
	}

	summary := AttendanceSummary(records, "stu-1", "sub-1")
	assert.Equal(t, 1, summary.Present)
	assert.Equal(t, 2, summary.Absent)
	assert.Equal(t, 1, summary.Late)
	assert.Equal(t, 4, summary.Total)

	assert.Len(t, AttendanceForDay(records, "sub-1", "2025-01-09"), 2)
}
