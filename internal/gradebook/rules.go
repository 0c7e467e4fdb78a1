package gradebook

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// RuleTotals sums percentages and coefficients of a template list. Balanced
// reports whether percentages add up to 100; nothing enforces it.
func RuleTotals(rules []models.RuleTemplate) models.RuleTotals {
	var totals models.RuleTotals
	for _, rule := range rules {
		totals.Percentage += rule.Percentage
		totals.Coefficient += rule.Coefficient
	}
	totals.Percentage = round2(totals.Percentage)
	totals.Coefficient = round2(totals.Coefficient)
	totals.Balanced = totals.Percentage == 100
	return totals
}

// NormalizeTemplates assigns ids to new rules and rejects duplicates. Past
// entries are not touched: their snapshots keep the old parameters.
func NormalizeTemplates(rules []models.RuleTemplate) ([]models.RuleTemplate, error) {
	seen := make(map[string]bool, len(rules))
	normalized := make([]models.RuleTemplate, 0, len(rules))
	for _, rule := range rules {
		if rule.ID == "" {
			rule.ID = "rule-" + uuid.NewString()
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("duplicate rule id %s", rule.ID)
		}
		seen[rule.ID] = true
		normalized = append(normalized, rule)
	}
	return normalized, nil
}

// ReplaceSubjectRules returns a copy of subjects with the rules of subjectID
// replaced.
func ReplaceSubjectRules(subjects []models.Subject, subjectID string, rules []models.RuleTemplate) ([]models.Subject, bool) {
	next := make([]models.Subject, len(subjects))
	copy(next, subjects)
	for i := range next {
		if next[i].ID == subjectID {
			next[i].Rules = append([]models.RuleTemplate(nil), rules...)
			return next, true
		}
	}
	return subjects, false
}

// CheckDayConsistency lists the rules whose entries on a day disagree on max
// or coefficient. dayEntries must be scoped to one subject and date, and
// studentIDs limits the check to a roster when non-empty.
func CheckDayConsistency(dayEntries []models.GradeEntry, rules []models.EffectiveDailyRule, studentIDs []string) []models.DayInconsistency {
	var roster map[string]bool
	if len(studentIDs) > 0 {
		roster = make(map[string]bool, len(studentIDs))
		for _, id := range studentIDs {
			roster[id] = true
		}
	}

	var issues []models.DayInconsistency
	for _, rule := range rules {
		var variants []models.SnapshotVariant
		for _, entry := range dayEntries {
			if entry.RuleID != rule.ID {
				continue
			}
			if roster != nil && !roster[entry.StudentID] {
				continue
			}
			placed := false
			for i := range variants {
				if variants[i].MaxAtTime == entry.MaxAtTime && variants[i].CoefAtTime == entry.CoefAtTime {
					variants[i].StudentIDs = append(variants[i].StudentIDs, entry.StudentID)
					placed = true
					break
				}
			}
			if !placed {
				variants = append(variants, models.SnapshotVariant{
					MaxAtTime:  entry.MaxAtTime,
					CoefAtTime: entry.CoefAtTime,
					StudentIDs: []string{entry.StudentID},
				})
			}
		}
		if len(variants) > 1 {
			issues = append(issues, models.DayInconsistency{RuleID: rule.ID, RuleName: rule.Name, Variants: variants})
		}
	}
	return issues
}
