// Package gradebook holds the grading core: daily rule resolution, grade entry
// mutations, the attendance cascade and the weighted score. Every function is a
// pure transform; collections passed in are never modified in place.
package gradebook

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Stamper supplies ids and timestamps for records created by a transform.
type Stamper struct {
	Now   func() time.Time
	NewID func() string
}

// DefaultStamper uses the wall clock and random UUIDs.
func DefaultStamper() Stamper {
	return Stamper{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

func (s Stamper) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func (s Stamper) id() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

// EntriesForDay returns the entries of a subject on a date, in collection order.
func EntriesForDay(entries []models.GradeEntry, subjectID, date string) []models.GradeEntry {
	var day []models.GradeEntry
	for _, entry := range entries {
		if entry.SubjectID == subjectID && entry.Date == date {
			day = append(day, entry)
		}
	}
	return day
}

// ResolveDailyRules merges a subject's templates with the snapshots recorded on
// one day. dayEntries must already be scoped to the subject and date.
//
// A template with a recorded non-customized entry takes name, max,
// coefficient and sign from that entry's snapshot. Per-student overrides never
// speak for the day. Entries whose rule is not in the templates produce ad-hoc
// rules, appended after the templates in order of their first entry; an ad-hoc
// rule with only customized entries falls back to the first of them.
func ResolveDailyRules(templates []models.RuleTemplate, dayEntries []models.GradeEntry) []models.EffectiveDailyRule {
	authoritative := make(map[string]models.GradeEntry, len(dayEntries))
	first := make(map[string]models.GradeEntry, len(dayEntries))
	var order []string
	for _, entry := range dayEntries {
		if _, seen := first[entry.RuleID]; !seen {
			first[entry.RuleID] = entry
			order = append(order, entry.RuleID)
		}
		if _, ok := authoritative[entry.RuleID]; !ok && !entry.Customized {
			authoritative[entry.RuleID] = entry
		}
	}

	known := make(map[string]bool, len(templates))
	rules := make([]models.EffectiveDailyRule, 0, len(templates)+len(order))
	for _, template := range templates {
		known[template.ID] = true
		entry, ok := authoritative[template.ID]
		if !ok {
			rules = append(rules, models.EffectiveDailyRule{RuleTemplate: template, Source: models.RuleSourceTemplate})
			continue
		}
		rule := models.EffectiveDailyRule{RuleTemplate: template, Source: models.RuleSourceOverride}
		if entry.RuleNameAtTime != "" {
			rule.Name = entry.RuleNameAtTime
		}
		if entry.MaxAtTime > 0 {
			rule.MaxGrade = entry.MaxAtTime
		}
		rule.Coefficient = entry.CoefAtTime
		rule.IsNegative = entry.RuleSnapshot.IsNegative
		rules = append(rules, rule)
	}

	for _, ruleID := range order {
		if known[ruleID] {
			continue
		}
		entry, ok := authoritative[ruleID]
		if !ok {
			entry = first[ruleID]
		}
		rules = append(rules, models.EffectiveDailyRule{
			RuleTemplate: models.RuleTemplate{
				ID:          ruleID,
				Name:        entry.RuleNameAtTime,
				MaxGrade:    entry.MaxAtTime,
				Coefficient: entry.CoefAtTime,
				IsNegative:  entry.RuleSnapshot.IsNegative,
			},
			Source: models.RuleSourceAdHoc,
		})
	}
	return rules
}

// ResolveForSubject resolves the rules of a subject on a date from the full
// entry collection.
func ResolveForSubject(subject models.Subject, entries []models.GradeEntry, date string) []models.EffectiveDailyRule {
	return ResolveDailyRules(subject.Rules, EntriesForDay(entries, subject.ID, date))
}

// FindRule looks up an effective rule by id.
func FindRule(rules []models.EffectiveDailyRule, ruleID string) (models.EffectiveDailyRule, bool) {
	for _, rule := range rules {
		if rule.ID == ruleID {
			return rule, true
		}
	}
	return models.EffectiveDailyRule{}, false
}
