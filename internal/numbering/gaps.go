package numbering

import "edicola/pkg/models"

// RuleError records a numbering rule that could not be evaluated. The
// magazine's other rules still contribute to the report.
type RuleError struct {
	RuleID int64  `json:"rule_id"`
	Reason string `json:"reason"`
}

// Report is the outcome of a missing-numbers computation for one magazine:
// the concatenated gaps of every rule that evaluated, plus the rules that
// did not.
type Report struct {
	Missing    []models.MissingNumber `json:"missing"`
	RuleErrors []RuleError            `json:"rule_errors,omitempty"`
}

// covered reports whether some issue's parsed range contains the expected
// slot. Partially parsed ranges never contain. A slot without a year (from
// a continuous numbering) is satisfied by any issue covering the number;
// a slot with a year additionally requires the issue year to match.
func covered(issues []models.Issue, year *int, number int) bool {
	for _, issue := range issues {
		if !issue.Range.Covers(number) {
			continue
		}
		if year == nil {
			return true
		}
		if issue.Year != nil && *issue.Year == *year {
			return true
		}
	}
	return false
}

// MissingForRule computes the gaps for one rule against the magazine's
// issues. Containment is checked against the rule's year-windowed issues,
// and results keep the expansion's natural order (year-major for yearly
// numberings, number-ascending for continuous ones).
func MissingForRule(rule models.Numbering, issues []models.Issue) ([]models.MissingNumber, error) {
	current := IssuesInWindow(issues, rule)
	expected, err := Expand(rule, current)
	if err != nil {
		return nil, err
	}

	missing := make([]models.MissingNumber, 0)
	for _, slot := range expected {
		if !covered(current, slot.Year, slot.Number) {
			missing = append(missing, models.MissingNumber{Year: slot.Year, Number: slot.Number})
		}
	}
	return missing, nil
}

// Missing runs every rule in stored order and concatenates the per-rule
// gaps. There is deliberately no cross-rule dedup and no global sort:
// overlapping rules report the same gap twice, exactly as declared. A rule
// that cannot be evaluated lands in RuleErrors without voiding the rest.
func Missing(rules []models.Numbering, issues []models.Issue) Report {
	report := Report{Missing: make([]models.MissingNumber, 0)}
	for _, rule := range rules {
		missing, err := MissingForRule(rule, issues)
		if err != nil {
			report.RuleErrors = append(report.RuleErrors, RuleError{
				RuleID: rule.ID,
				Reason: err.Error(),
			})
			continue
		}
		report.Missing = append(report.Missing, missing...)
	}
	return report
}
