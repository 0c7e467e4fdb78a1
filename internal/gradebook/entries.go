package gradebook

import (
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// EntryKey identifies the single entry a student may hold for a rule on a day.
type EntryKey struct {
	StudentID string
	SubjectID string
	RuleID    string
	Date      string
}

func (k EntryKey) matches(entry models.GradeEntry) bool {
	return entry.StudentID == k.StudentID &&
		entry.SubjectID == k.SubjectID &&
		entry.RuleID == k.RuleID &&
		entry.Date == k.Date
}

// FindEntry returns the entry stored under key.
func FindEntry(entries []models.GradeEntry, key EntryKey) (models.GradeEntry, bool) {
	if idx := indexOf(entries, key); idx >= 0 {
		return entries[idx], true
	}
	return models.GradeEntry{}, false
}

// ParseNumber reads user input as a number. Anything unparseable is 0.
func ParseNumber(raw string) float64 {
	value, ok := parseStrict(raw)
	if !ok {
		return 0
	}
	return value
}

func parseStrict(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.Replace(trimmed, ",", ".", 1), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// Clamp bounds value to [0, limit].
func Clamp(value, limit float64) float64 {
	if value < 0 || math.IsNaN(value) {
		return 0
	}
	if value > limit {
		return limit
	}
	return value
}

// SetValue records raw as the value of the entry under key. The effective rule
// for the day must exist, otherwise the collection is returned untouched and ok
// is false. A manual value on an absence-derived entry drops the absence marker
// from its note.
func SetValue(entries []models.GradeEntry, rules []models.EffectiveDailyRule, key EntryKey, raw string, st Stamper) ([]models.GradeEntry, models.GradeEntry, bool) {
	return upsert(entries, rules, key, st, func(entry *models.GradeEntry, rule models.EffectiveDailyRule) {
		if !entry.Customized {
			entry.RuleSnapshot = rule.Snapshot()
		}
		entry.Value = Clamp(ParseNumber(raw), entry.MaxAtTime)
		if entry.IsAbsenceDerived {
			entry.Note = stripAbsenceNote(entry.Note)
			entry.IsAbsenceDerived = false
		}
	})
}

// SetNote replaces the note of the entry under key.
func SetNote(entries []models.GradeEntry, rules []models.EffectiveDailyRule, key EntryKey, note string, st Stamper) ([]models.GradeEntry, models.GradeEntry, bool) {
	return upsert(entries, rules, key, st, func(entry *models.GradeEntry, _ models.EffectiveDailyRule) {
		entry.Note = note
	})
}

// SetIgnored flips whether the entry takes part in the final score. The value
// is left as is.
func SetIgnored(entries []models.GradeEntry, rules []models.EffectiveDailyRule, key EntryKey, ignored bool, st Stamper) ([]models.GradeEntry, models.GradeEntry, bool) {
	return upsert(entries, rules, key, st, func(entry *models.GradeEntry, _ models.EffectiveDailyRule) {
		entry.IsIgnored = ignored
	})
}

// SetEntryOverride changes max and coefficient for a single student's entry.
// Nil or invalid inputs keep the previous valid value.
func SetEntryOverride(entries []models.GradeEntry, rules []models.EffectiveDailyRule, key EntryKey, rawMax, rawCoef *string, st Stamper) ([]models.GradeEntry, models.GradeEntry, bool) {
	return upsert(entries, rules, key, st, func(entry *models.GradeEntry, _ models.EffectiveDailyRule) {
		if rawMax != nil {
			if value, ok := parseStrict(*rawMax); ok && value > 0 {
				entry.MaxAtTime = value
			}
		}
		if rawCoef != nil {
			if value, ok := parseStrict(*rawCoef); ok && value >= 0 {
				entry.CoefAtTime = value
			}
		}
		entry.Customized = true
		entry.Value = Clamp(entry.Value, entry.MaxAtTime)
	})
}

// ApplyRuleOverridesForDay resynchronises a whole subject day with newRules.
// Entries of rules missing from newRules are dropped. Every student gets an
// entry per rule; values, notes and ignore flags carry over from prior entries
// of the same rule, and every snapshot is restamped from newRules.
func ApplyRuleOverridesForDay(entries []models.GradeEntry, studentIDs []string, subjectID, date string, newRules []models.RuleTemplate, st Stamper) []models.GradeEntry {
	byID := make(map[string]models.RuleTemplate, len(newRules))
	for _, rule := range newRules {
		if rule.ID == "" {
			continue
		}
		byID[rule.ID] = rule
	}

	now := st.now()
	covered := make(map[EntryKey]bool)
	next := make([]models.GradeEntry, 0, len(entries)+len(studentIDs)*len(newRules))
	for _, entry := range entries {
		if entry.SubjectID != subjectID || entry.Date != date {
			next = append(next, entry)
			continue
		}
		rule, keep := byID[entry.RuleID]
		if !keep {
			continue
		}
		entry.RuleSnapshot = snapshotOf(rule)
		entry.Value = Clamp(entry.Value, entry.MaxAtTime)
		entry.UpdatedAt = now
		covered[EntryKey{StudentID: entry.StudentID, SubjectID: subjectID, RuleID: entry.RuleID, Date: date}] = true
		next = append(next, entry)
	}

	for _, rule := range newRules {
		if _, ok := byID[rule.ID]; !ok {
			continue
		}
		for _, studentID := range studentIDs {
			key := EntryKey{StudentID: studentID, SubjectID: subjectID, RuleID: rule.ID, Date: date}
			if covered[key] {
				continue
			}
			covered[key] = true
			next = append(next, models.GradeEntry{
				ID:           st.id(),
				StudentID:    studentID,
				SubjectID:    subjectID,
				RuleID:       rule.ID,
				Date:         date,
				Value:        0,
				RuleSnapshot: snapshotOf(rule),
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
	}
	return next
}

// RemoveRuleFromDay deletes every entry of a rule on a subject day.
func RemoveRuleFromDay(entries []models.GradeEntry, subjectID, date, ruleID string) ([]models.GradeEntry, int) {
	next := make([]models.GradeEntry, 0, len(entries))
	removed := 0
	for _, entry := range entries {
		if entry.SubjectID == subjectID && entry.Date == date && entry.RuleID == ruleID {
			removed++
			continue
		}
		next = append(next, entry)
	}
	return next, removed
}

// UnifyRuleForDay sets one max and coefficient on every entry of a rule on a
// subject day, limited to studentIDs when given. Values are re-clamped and
// per-student customisations are cleared.
func UnifyRuleForDay(entries []models.GradeEntry, subjectID, date, ruleID string, maxGrade, coef float64, studentIDs []string, st Stamper) ([]models.GradeEntry, int) {
	var allowed map[string]bool
	if len(studentIDs) > 0 {
		allowed = make(map[string]bool, len(studentIDs))
		for _, id := range studentIDs {
			allowed[id] = true
		}
	}
	now := st.now()
	next := make([]models.GradeEntry, len(entries))
	copy(next, entries)
	updated := 0
	for i := range next {
		entry := &next[i]
		if entry.SubjectID != subjectID || entry.Date != date || entry.RuleID != ruleID {
			continue
		}
		if allowed != nil && !allowed[entry.StudentID] {
			continue
		}
		if maxGrade > 0 {
			entry.MaxAtTime = maxGrade
		}
		if coef >= 0 {
			entry.CoefAtTime = coef
		}
		entry.Customized = false
		entry.Value = Clamp(entry.Value, entry.MaxAtTime)
		entry.UpdatedAt = now
		updated++
	}
	return next, updated
}

func upsert(entries []models.GradeEntry, rules []models.EffectiveDailyRule, key EntryKey, st Stamper, mutate func(*models.GradeEntry, models.EffectiveDailyRule)) ([]models.GradeEntry, models.GradeEntry, bool) {
	rule, ok := FindRule(rules, key.RuleID)
	if !ok {
		return entries, models.GradeEntry{}, false
	}
	now := st.now()
	next := make([]models.GradeEntry, len(entries), len(entries)+1)
	copy(next, entries)

	idx := indexOf(next, key)
	var entry models.GradeEntry
	if idx >= 0 {
		entry = next[idx]
	} else {
		entry = models.GradeEntry{
			ID:           st.id(),
			StudentID:    key.StudentID,
			SubjectID:    key.SubjectID,
			RuleID:       key.RuleID,
			Date:         key.Date,
			RuleSnapshot: rule.Snapshot(),
			CreatedAt:    now,
		}
	}
	mutate(&entry, rule)
	entry.UpdatedAt = now

	if idx >= 0 {
		next[idx] = entry
	} else {
		next = append(next, entry)
	}
	return next, entry, true
}

func indexOf(entries []models.GradeEntry, key EntryKey) int {
	for i, entry := range entries {
		if key.matches(entry) {
			return i
		}
	}
	return -1
}

func snapshotOf(rule models.RuleTemplate) models.RuleSnapshot {
	return models.RuleSnapshot{
		MaxAtTime:      rule.MaxGrade,
		CoefAtTime:     rule.Coefficient,
		PercentAtTime:  rule.Percentage,
		RuleNameAtTime: rule.Name,
		IsNegative:     rule.IsNegative,
	}
}
