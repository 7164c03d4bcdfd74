package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edicola/pkg/models"
)

func issue(year *int, raw string) models.Issue {
	return models.Issue{Year: year, Number: raw, Copies: 1, Range: Parse(raw)}
}

func TestIssuesInWindow(t *testing.T) {
	issues := []models.Issue{
		issue(intp(2019), "1"),
		issue(intp(2020), "2"),
		issue(intp(2021), "3"),
		issue(nil, "4"),
	}

	t.Run("both bounds open match everything", func(t *testing.T) {
		got := IssuesInWindow(issues, models.Numbering{})
		assert.Len(t, got, 4)
	})

	t.Run("closed window drops outsiders and yearless issues", func(t *testing.T) {
		got := IssuesInWindow(issues, models.Numbering{FromYear: intp(2020), ToYear: intp(2021)})
		require.Len(t, got, 2)
		assert.Equal(t, "2", got[0].Number)
		assert.Equal(t, "3", got[1].Number)
	})

	t.Run("half open window", func(t *testing.T) {
		got := IssuesInWindow(issues, models.Numbering{FromYear: intp(2021)})
		require.Len(t, got, 1)
		assert.Equal(t, "3", got[0].Number)
	})
}

func TestExpandYearly(t *testing.T) {
	rule := models.Numbering{
		FromYear:   intp(2020),
		ToYear:     intp(2021),
		IsYearly:   true,
		FromNumber: intp(1),
		ToNumber:   intp(12),
	}

	got, err := Expand(rule, nil)
	require.NoError(t, err)
	require.Len(t, got, 24)

	// year-major, number-minor order
	require.NotNil(t, got[0].Year)
	assert.Equal(t, 2020, *got[0].Year)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 2020, *got[11].Year)
	assert.Equal(t, 12, got[11].Number)
	assert.Equal(t, 2021, *got[12].Year)
	assert.Equal(t, 1, got[12].Number)
	assert.Equal(t, 2021, *got[23].Year)
	assert.Equal(t, 12, got[23].Number)
}

func TestExpandYearlyOpenBoundsDefaultFromIssues(t *testing.T) {
	rule := models.Numbering{IsYearly: true, FromNumber: intp(1), ToNumber: intp(2)}
	current := []models.Issue{
		issue(intp(2018), "1"),
		issue(intp(2020), "1"),
	}

	got, err := Expand(rule, current)
	require.NoError(t, err)
	// years 2018..2020 x numbers 1..2
	require.Len(t, got, 6)
	assert.Equal(t, 2018, *got[0].Year)
	assert.Equal(t, 2020, *got[5].Year)
}

func TestExpandYearlyOpenNumberBoundsDefaultToMonthly(t *testing.T) {
	rule := models.Numbering{FromYear: intp(2020), ToYear: intp(2020), IsYearly: true}

	got, err := Expand(rule, nil)
	require.NoError(t, err)
	require.Len(t, got, 12)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 12, got[11].Number)
}

func TestExpandContinuous(t *testing.T) {
	rule := models.Numbering{FromNumber: intp(100), ToNumber: intp(103)}

	got, err := Expand(rule, nil)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, slot := range got {
		assert.Nil(t, slot.Year)
		assert.Equal(t, 100+i, slot.Number)
	}
}

func TestExpandContinuousOpenBoundsDefaultFromRanges(t *testing.T) {
	rule := models.Numbering{}
	current := []models.Issue{
		issue(nil, "3"),
		issue(nil, "5-6"),
		issue(nil, "senza numero"), // unparsed, contributes nothing
	}

	got, err := Expand(rule, current)
	require.NoError(t, err)
	require.Len(t, got, 4) // 3..6
	assert.Equal(t, 3, got[0].Number)
	assert.Equal(t, 6, got[3].Number)
}

func TestExpandAutoExpandingWindow(t *testing.T) {
	// A rule with an open upper bound must follow the collection: adding a
	// higher number on a later call widens the expansion.
	rule := models.Numbering{FromNumber: intp(1)}
	current := []models.Issue{issue(nil, "4")}

	got, err := Expand(rule, current)
	require.NoError(t, err)
	assert.Len(t, got, 4) // 1..4

	current = append(current, issue(nil, "9"))
	got, err = Expand(rule, current)
	require.NoError(t, err)
	assert.Len(t, got, 9) // 1..9, strictly wider
	assert.Equal(t, 9, got[len(got)-1].Number)
}

func TestExpandConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		rule    models.Numbering
		current []models.Issue
		bound   string
	}{
		{
			name:  "yearly open from_year with no issues",
			rule:  models.Numbering{IsYearly: true, ToYear: intp(2020)},
			bound: "from_year",
		},
		{
			name:  "yearly open to_year with no dated issues",
			rule:  models.Numbering{IsYearly: true, FromYear: intp(2020)},
			current: []models.Issue{
				issue(nil, "1"),
			},
			bound: "to_year",
		},
		{
			name:  "continuous open from_number with no issues",
			rule:  models.Numbering{ToNumber: intp(10)},
			bound: "from_number",
		},
		{
			name: "continuous open to_number with only unparsed issues",
			rule: models.Numbering{FromNumber: intp(1)},
			current: []models.Issue{
				issue(nil, "numero unico"),
			},
			bound: "to_number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(tt.rule, tt.current)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.bound, cfgErr.Bound)
		})
	}
}
