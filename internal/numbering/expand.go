package numbering

import (
	"fmt"

	"edicola/pkg/models"
)

// Defaults for open number bounds on yearly numberings (monthlies are the
// common case).
const (
	defaultFromNumber = 1
	defaultToNumber   = 12
)

// ConfigError reports a numbering rule whose open bound has no owned
// issues to default from. It is surfaced per rule: other rules of the same
// magazine still evaluate.
type ConfigError struct {
	RuleID int64
	Bound  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("numbering %d: open %s bound with no qualifying issues to default from", e.RuleID, e.Bound)
}

// Expected is one (year, number) slot a numbering rule says should exist.
// Year is nil for continuous numberings.
type Expected struct {
	Year   *int
	Number int
}

// yearInWindow reports whether an issue year falls inside [from, to].
// Open ends match everything on that side; an issue without a year only
// matches open bounds.
func yearInWindow(year, from, to *int) bool {
	if from != nil && (year == nil || *year < *from) {
		return false
	}
	if to != nil && (year == nil || *year > *to) {
		return false
	}
	return true
}

// IssuesInWindow returns the issues whose year falls inside the rule's
// year window, preserving input order.
func IssuesInWindow(issues []models.Issue, rule models.Numbering) []models.Issue {
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if yearInWindow(issue.Year, rule.FromYear, rule.ToYear) {
			out = append(out, issue)
		}
	}
	return out
}

func minYear(issues []models.Issue) (int, bool) {
	found := false
	var min int
	for _, issue := range issues {
		if issue.Year == nil {
			continue
		}
		if !found || *issue.Year < min {
			min = *issue.Year
			found = true
		}
	}
	return min, found
}

func maxYear(issues []models.Issue) (int, bool) {
	found := false
	var max int
	for _, issue := range issues {
		if issue.Year == nil {
			continue
		}
		if !found || *issue.Year > max {
			max = *issue.Year
			found = true
		}
	}
	return max, found
}

func minNumber(issues []models.Issue) (int, bool) {
	found := false
	var min int
	for _, issue := range issues {
		if issue.Range.Min == nil {
			continue
		}
		if !found || *issue.Range.Min < min {
			min = *issue.Range.Min
			found = true
		}
	}
	return min, found
}

func maxNumber(issues []models.Issue) (int, bool) {
	found := false
	var max int
	for _, issue := range issues {
		if issue.Range.Max == nil {
			continue
		}
		if !found || *issue.Range.Max > max {
			max = *issue.Range.Max
			found = true
		}
	}
	return max, found
}

// Expand turns a numbering rule into the full list of expected slots.
// current must already be filtered through IssuesInWindow.
//
// Open bounds are resolved against current on every call, so the window
// widens (or narrows) as issues come and go: a rule with an open upper
// number bound always reaches exactly as far as the highest number
// currently owned.
func Expand(rule models.Numbering, current []models.Issue) ([]Expected, error) {
	if rule.IsYearly {
		fromYear, toYear := 0, 0
		if rule.FromYear != nil {
			fromYear = *rule.FromYear
		} else {
			y, ok := minYear(current)
			if !ok {
				return nil, &ConfigError{RuleID: rule.ID, Bound: "from_year"}
			}
			fromYear = y
		}
		if rule.ToYear != nil {
			toYear = *rule.ToYear
		} else {
			y, ok := maxYear(current)
			if !ok {
				return nil, &ConfigError{RuleID: rule.ID, Bound: "to_year"}
			}
			toYear = y
		}

		fromNumber := defaultFromNumber
		if rule.FromNumber != nil {
			fromNumber = *rule.FromNumber
		}
		toNumber := defaultToNumber
		if rule.ToNumber != nil {
			toNumber = *rule.ToNumber
		}

		var out []Expected
		for year := fromYear; year <= toYear; year++ {
			y := year
			for number := fromNumber; number <= toNumber; number++ {
				out = append(out, Expected{Year: &y, Number: number})
			}
		}
		return out, nil
	}

	// continuous numbering: year plays no role in the expected slots
	fromNumber := 0
	if rule.FromNumber != nil {
		fromNumber = *rule.FromNumber
	} else {
		n, ok := minNumber(current)
		if !ok {
			return nil, &ConfigError{RuleID: rule.ID, Bound: "from_number"}
		}
		fromNumber = n
	}
	toNumber := 0
	if rule.ToNumber != nil {
		toNumber = *rule.ToNumber
	} else {
		n, ok := maxNumber(current)
		if !ok {
			return nil, &ConfigError{RuleID: rule.ID, Bound: "to_number"}
		}
		toNumber = n
	}

	var out []Expected
	for number := fromNumber; number <= toNumber; number++ {
		out = append(out, Expected{Number: number})
	}
	return out, nil
}
