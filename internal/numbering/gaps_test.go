package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edicola/pkg/models"
)

func TestMissingForRuleYearly(t *testing.T) {
	rule := models.Numbering{
		FromYear:   intp(2020),
		ToYear:     intp(2020),
		IsYearly:   true,
		FromNumber: intp(1),
		ToNumber:   intp(6),
	}
	issues := []models.Issue{
		issue(intp(2020), "1"),
		issue(intp(2020), "3/4"),
	}

	missing, err := MissingForRule(rule, issues)
	require.NoError(t, err)
	require.Len(t, missing, 3)

	// generation order preserved: 2, 5, 6
	assert.Equal(t, 2, missing[0].Number)
	assert.Equal(t, 5, missing[1].Number)
	assert.Equal(t, 6, missing[2].Number)
	for _, m := range missing {
		require.NotNil(t, m.Year)
		assert.Equal(t, 2020, *m.Year)
	}
}

func TestMissingForRuleNoCoveringIssues(t *testing.T) {
	rule := models.Numbering{
		FromYear:   intp(2020),
		ToYear:     intp(2021),
		IsYearly:   true,
		FromNumber: intp(1),
		ToNumber:   intp(12),
	}

	missing, err := MissingForRule(rule, nil)
	require.NoError(t, err)
	assert.Len(t, missing, 24)
}

func TestContainment(t *testing.T) {
	t.Run("fully parsed range covers its span for the matching year", func(t *testing.T) {
		issues := []models.Issue{issue(intp(2020), "5-6")}
		assert.True(t, covered(issues, intp(2020), 5))
		assert.True(t, covered(issues, intp(2020), 6))
		assert.False(t, covered(issues, intp(2020), 4))
		assert.False(t, covered(issues, intp(2021), 5))
	})

	t.Run("partially parsed range covers nothing", func(t *testing.T) {
		issues := []models.Issue{issue(intp(2020), "speciale")}
		assert.False(t, covered(issues, intp(2020), 1))
	})

	t.Run("yearless slot matches any issue year", func(t *testing.T) {
		issues := []models.Issue{issue(intp(1999), "7")}
		assert.True(t, covered(issues, nil, 7))
	})

	t.Run("dated slot is not satisfied by a yearless issue", func(t *testing.T) {
		issues := []models.Issue{issue(nil, "7")}
		assert.False(t, covered(issues, intp(2020), 7))
	})
}

func TestMissingConcatenatesWithoutDedup(t *testing.T) {
	// Two overlapping rules: the combined length is the exact sum of the
	// individually computed counts, not the size of their union.
	ruleA := models.Numbering{ID: 1, FromNumber: intp(1), ToNumber: intp(5)}
	ruleB := models.Numbering{ID: 2, FromNumber: intp(3), ToNumber: intp(7)}
	issues := []models.Issue{issue(nil, "2")}

	missingA, err := MissingForRule(ruleA, issues)
	require.NoError(t, err)
	missingB, err := MissingForRule(ruleB, issues)
	require.NoError(t, err)

	report := Missing([]models.Numbering{ruleA, ruleB}, issues)
	assert.Empty(t, report.RuleErrors)
	assert.Len(t, report.Missing, len(missingA)+len(missingB))

	// rule order preserved in the concatenation
	assert.Equal(t, missingA, report.Missing[:len(missingA)])
	assert.Equal(t, missingB, report.Missing[len(missingA):])
}

func TestMissingPartialResultsOnRuleError(t *testing.T) {
	good := models.Numbering{ID: 1, FromNumber: intp(1), ToNumber: intp(3)}
	broken := models.Numbering{ID: 2, IsYearly: true} // open years, nothing to default from
	alsoGood := models.Numbering{ID: 3, FromNumber: intp(10), ToNumber: intp(11)}

	report := Missing([]models.Numbering{good, broken, alsoGood}, nil)

	require.Len(t, report.RuleErrors, 1)
	assert.Equal(t, int64(2), report.RuleErrors[0].RuleID)
	assert.NotEmpty(t, report.RuleErrors[0].Reason)

	// 1..3 plus 10..11 survive the broken rule
	require.Len(t, report.Missing, 5)
	assert.Equal(t, 1, report.Missing[0].Number)
	assert.Equal(t, 11, report.Missing[4].Number)
}

func TestMissingContainmentUsesYearWindow(t *testing.T) {
	// A continuous rule with a year window must ignore covering issues
	// outside that window.
	rule := models.Numbering{
		FromYear:   intp(2020),
		ToYear:     intp(2020),
		FromNumber: intp(1),
		ToNumber:   intp(2),
	}
	issues := []models.Issue{
		issue(intp(2019), "1"), // outside the window, does not count
		issue(intp(2020), "2"),
	}

	missing, err := MissingForRule(rule, issues)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, 1, missing[0].Number)
	assert.Nil(t, missing[0].Year)
}

func TestMissingEmptyRuleSet(t *testing.T) {
	report := Missing(nil, []models.Issue{issue(intp(2020), "1")})
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.RuleErrors)
}
