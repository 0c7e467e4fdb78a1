package gradebook

import (
	"math"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ScaleMax is the top of the scale every entry is normalised to.
const ScaleMax = 20.0

// FinalScore computes the weighted mean of a student's entries for a subject.
//
// Each counted entry is first normalised to the 0-20 scale and only then
// weighted by its snapshot coefficient. Negative rules subtract their weighted
// score and add nothing to the weight total. Ignored entries are skipped.
func FinalScore(entries []models.GradeEntry, studentID, subjectID string) models.FinalScore {
	score := models.FinalScore{StudentID: studentID, SubjectID: subjectID, Status: models.ScoreStatusNoData}

	var weightedSum, weightTotal float64
	for _, entry := range entries {
		if entry.StudentID != studentID || entry.SubjectID != subjectID {
			continue
		}
		score.EntryCount++
		if entry.IsIgnored || entry.MaxAtTime <= 0 {
			continue
		}
		normalized := (entry.Value / entry.MaxAtTime) * ScaleMax
		if entry.RuleSnapshot.IsNegative {
			weightedSum -= normalized * entry.CoefAtTime
			continue
		}
		weightedSum += normalized * entry.CoefAtTime
		weightTotal += entry.CoefAtTime
	}

	if weightTotal <= 0 {
		if score.EntryCount > 0 {
			score.Status = models.ScoreStatusEmpty
		}
		return score
	}

	mean := weightedSum / weightTotal
	if mean < 0 {
		mean = 0
	}
	score.Value = round2(mean)
	score.WeightTotal = weightTotal
	score.Status = models.ScoreStatusOK
	return score
}

// ClassScores builds the score sheet of a subject for the given students.
func ClassScores(entries []models.GradeEntry, records []models.AttendanceRecord, subjectID string, students []models.Student) []models.StudentScoreRow {
	rows := make([]models.StudentScoreRow, 0, len(students))
	for _, student := range students {
		score := FinalScore(entries, student.ID, subjectID)
		rows = append(rows, models.StudentScoreRow{
			StudentID:   student.ID,
			StudentName: student.Name,
			Score:       score,
			Display:     score.Display(),
			Absences:    AttendanceSummary(records, student.ID, subjectID).Absent,
			LastNote:    lastNote(entries, student.ID, subjectID),
		})
	}
	return rows
}

func lastNote(entries []models.GradeEntry, studentID, subjectID string) string {
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.StudentID == studentID && entry.SubjectID == subjectID && entry.Note != "" {
			return entry.Note
		}
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
