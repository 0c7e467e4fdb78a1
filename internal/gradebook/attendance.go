package gradebook

import (
	"strings"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// AbsenceMarker prefixes the note of entries zeroed by an absence.
const AbsenceMarker = "Absent"

// AttendanceChange is the outcome of an attendance write. Records and Entries
// replace the document collections together.
type AttendanceChange struct {
	Record   models.AttendanceRecord
	Previous models.AttendanceStatus
	Records  []models.AttendanceRecord
	Entries  []models.GradeEntry
	Zeroed   int
}

// FindAttendance returns the record of a student for a subject day.
func FindAttendance(records []models.AttendanceRecord, studentID, subjectID, date string) (models.AttendanceRecord, bool) {
	if idx := attendanceIndex(records, studentID, subjectID, date); idx >= 0 {
		return records[idx], true
	}
	return models.AttendanceRecord{}, false
}

// ToggleAttendance advances a student's status along
// present -> absent -> late -> present. A missing record becomes present.
func ToggleAttendance(records []models.AttendanceRecord, entries []models.GradeEntry, subject models.Subject, studentID, date string, st Stamper) AttendanceChange {
	current, _ := FindAttendance(records, studentID, subject.ID, date)
	return SetAttendance(records, entries, subject, studentID, date, current.Status.Next(), st)
}

// SetAttendance stores status for a student. Moving into absent zeroes every
// effective rule of the day for that student in the same change; leaving
// absent restores nothing.
func SetAttendance(records []models.AttendanceRecord, entries []models.GradeEntry, subject models.Subject, studentID, date string, status models.AttendanceStatus, st Stamper) AttendanceChange {
	now := st.now()
	nextRecords := make([]models.AttendanceRecord, len(records), len(records)+1)
	copy(nextRecords, records)

	change := AttendanceChange{Entries: entries}
	idx := attendanceIndex(nextRecords, studentID, subject.ID, date)
	if idx >= 0 {
		change.Previous = nextRecords[idx].Status
		nextRecords[idx].Status = status
		nextRecords[idx].UpdatedAt = now
		change.Record = nextRecords[idx]
	} else {
		change.Record = models.AttendanceRecord{
			ID:        st.id(),
			StudentID: studentID,
			SubjectID: subject.ID,
			Date:      date,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		nextRecords = append(nextRecords, change.Record)
	}
	change.Records = nextRecords

	if status == models.AttendanceStatusAbsent && change.Previous != models.AttendanceStatusAbsent {
		rules := ResolveForSubject(subject, entries, date)
		change.Entries, change.Zeroed = ApplyAbsence(entries, rules, studentID, subject.ID, date, st)
	}
	return change
}

// ApplyAbsence upserts a zero entry flagged as absence-derived for every rule.
func ApplyAbsence(entries []models.GradeEntry, rules []models.EffectiveDailyRule, studentID, subjectID, date string, st Stamper) ([]models.GradeEntry, int) {
	next := entries
	zeroed := 0
	for _, rule := range rules {
		key := EntryKey{StudentID: studentID, SubjectID: subjectID, RuleID: rule.ID, Date: date}
		var ok bool
		next, _, ok = upsert(next, rules, key, st, func(entry *models.GradeEntry, _ models.EffectiveDailyRule) {
			entry.Value = 0
			entry.IsAbsenceDerived = true
			entry.IsIgnored = false
			entry.Note = absenceNote(entry.Note)
		})
		if ok {
			zeroed++
		}
	}
	return next, zeroed
}

// AttendanceSummary counts a student's statuses for a subject.
func AttendanceSummary(records []models.AttendanceRecord, studentID, subjectID string) models.AttendanceSummary {
	summary := models.AttendanceSummary{StudentID: studentID, SubjectID: subjectID}
	for _, record := range records {
		if record.StudentID != studentID || record.SubjectID != subjectID {
			continue
		}
		switch record.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusLate:
			summary.Late++
		default:
			continue
		}
		summary.Total++
	}
	return summary
}

// AttendanceForDay lists the records of a subject day.
func AttendanceForDay(records []models.AttendanceRecord, subjectID, date string) []models.AttendanceRecord {
	var day []models.AttendanceRecord
	for _, record := range records {
		if record.SubjectID == subjectID && record.Date == date {
			day = append(day, record)
		}
	}
	return day
}

func absenceNote(previous string) string {
	previous = strings.TrimSpace(previous)
	if previous == "" || previous == AbsenceMarker {
		return AbsenceMarker
	}
	if strings.HasPrefix(previous, AbsenceMarker+": ") {
		return previous
	}
	return AbsenceMarker + ": " + previous
}

// stripAbsenceNote undoes absenceNote.
func stripAbsenceNote(note string) string {
	note = strings.TrimSpace(note)
	if note == AbsenceMarker {
		return ""
	}
	return strings.TrimPrefix(note, AbsenceMarker+": ")
}

func attendanceIndex(records []models.AttendanceRecord, studentID, subjectID, date string) int {
	for i, record := range records {
		if record.StudentID == studentID && record.SubjectID == subjectID && record.Date == date {
			return i
		}
	}
	return -1
}
