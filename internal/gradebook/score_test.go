package gradebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func scoredEntry(ruleID string, value, max, coef float64, negative bool) models.GradeEntry {
	return models.GradeEntry{
		ID:        "e-" + ruleID,
		StudentID: "stu-1",
		SubjectID: "sub-1",
		RuleID:    ruleID,
		Date:      "2025-01-10",
		Value:     value,
		RuleSnapshot: models.RuleSnapshot{
			MaxAtTime:  max,
			CoefAtTime: coef,
			IsNegative: negative,
		},
	}
}

func TestFinalScoreNormalizesBeforeWeighting(t *testing.T) {
	entries := []models.GradeEntry{
		scoredEntry("exam", 16, 20, 1, false),
		scoredEntry("discipline", 1, 2, 0.5, false),
	}

	score := FinalScore(entries, "stu-1", "sub-1")
	require.Equal(t, models.ScoreStatusOK, score.Status)
	assert.Equal(t, 14.0, score.Value)
	assert.Equal(t, 1.5, score.WeightTotal)
	assert.Equal(t, "14.00", score.Display())
}

func TestFinalScoreNegativeRuleSubtractsWithoutWeight(t *testing.T) {
	entries := []models.GradeEntry{
		scoredEntry("exam", 16, 20, 1, false),
		scoredEntry("discipline", 1, 2, 0.5, false),
		scoredEntry("penalty", 2, 2, 1, true),
	}

	score := FinalScore(entries, "stu-1", "sub-1")
	assert.Equal(t, 0.67, score.Value)
	assert.Equal(t, 1.5, score.WeightTotal)
}

func TestFinalScoreFloorsAtZero(t *testing.T) {
	entries := []models.GradeEntry{
		scoredEntry("exam", 2, 20, 1, false),
		scoredEntry("penalty", 2, 2, 3, true),
	}

	score := FinalScore(entries, "stu-1", "sub-1")
	assert.Equal(t, models.ScoreStatusOK, score.Status)
	assert.Equal(t, 0.0, score.Value)
}

func TestFinalScoreSentinels(t *testing.T) {
	none := FinalScore(nil, "stu-1", "sub-1")
	assert.Equal(t, models.ScoreStatusNoData, none.Status)
	assert.Equal(t, "---", none.Display())

	ignored := scoredEntry("exam", 12, 20, 1, false)
	ignored.IsIgnored = true
	onlyIgnored := FinalScore([]models.GradeEntry{ignored}, "stu-1", "sub-1")
	assert.Equal(t, models.ScoreStatusEmpty, onlyIgnored.Status)
	assert.Equal(t, "0.00", onlyIgnored.Display())
	assert.Equal(t, 1, onlyIgnored.EntryCount)

	zeroWeight := FinalScore([]models.GradeEntry{scoredEntry("exam", 12, 20, 0, false)}, "stu-1", "sub-1")
	assert.Equal(t, models.ScoreStatusEmpty, zeroWeight.Status)
}

func TestFinalScoreScopesStudentAndSubject(t *testing.T) {
	other := scoredEntry("exam", 0, 20, 1, false)
	other.StudentID = "stu-2"
	otherSubject := scoredEntry("exam", 0, 20, 1, false)
	otherSubject.SubjectID = "sub-2"
	entries := []models.GradeEntry{scoredEntry("exam", 18, 20, 1, false), other, otherSubject}

	score := FinalScore(entries, "stu-1", "sub-1")
	assert.Equal(t, 18.0, score.Value)
	assert.Equal(t, 1, score.EntryCount)
}

func TestIgnoreToggleRestoresScore(t *testing.T) {
	rules := []models.EffectiveDailyRule{
		{RuleTemplate: models.RuleTemplate{ID: "exam", Name: "Exam", MaxGrade: 20, Coefficient: 1}},
		{RuleTemplate: models.RuleTemplate{ID: "hw", Name: "Homework", MaxGrade: 5, Coefficient: 0.5}},
	}
	st := fixedStamper()
	examKey := EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "exam", Date: "2025-01-10"}
	hwKey := EntryKey{StudentID: "stu-1", SubjectID: "sub-1", RuleID: "hw", Date: "2025-01-10"}

	entries, _, _ := SetValue(nil, rules, examKey, "11", st)
	entries, _, _ = SetValue(entries, rules, hwKey, "4", st)
	before := FinalScore(entries, "stu-1", "sub-1")

	entries, ignored, ok := SetIgnored(entries, rules, hwKey, true, st)
	require.True(t, ok)
	assert.Equal(t, 4.0, ignored.Value)
	assert.NotEqual(t, before.Value, FinalScore(entries, "stu-1", "sub-1").Value)

	entries, _, _ = SetIgnored(entries, rules, hwKey, false, st)
	assert.Equal(t, before, FinalScore(entries, "stu-1", "sub-1"))
}

func TestClassScoresRows(t *testing.T) {
	entries := []models.GradeEntry{scoredEntry("exam", 15, 20, 1, false)}
	entries[0].Note = "good work"
	records := []models.AttendanceRecord{
		{StudentID: "stu-1", SubjectID: "sub-1", Date: "2025-01-10", Status: models.AttendanceStatusAbsent},
		{StudentID: "stu-1", SubjectID: "sub-1", Date: "2025-01-11", Status: models.AttendanceStatusPresent},
	}
	students := []models.Student{{ID: "stu-1", Name: "Ali"}, {ID: "stu-2", Name: "Sara"}}

	rows := ClassScores(entries, records, "sub-1", students)
	require.Len(t, rows, 2)
	assert.Equal(t, "15.00", rows[0].Display)
	assert.Equal(t, 1, rows[0].Absences)
	assert.Equal(t, "good work", rows[0].LastNote)
	assert.Equal(t, "---", rows[1].Display)
}
