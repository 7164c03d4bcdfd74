package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edicola/pkg/models"
)

func intp(n int) *int {
	return &n
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.NumberRange
	}{
		{
			name: "empty input",
			raw:  "",
			want: models.NumberRange{},
		},
		{
			name: "single number",
			raw:  "12",
			want: models.NumberRange{Min: intp(12), Max: intp(12)},
		},
		{
			name: "ascending pair",
			raw:  "12/13",
			want: models.NumberRange{Min: intp(12), Max: intp(13)},
		},
		{
			name: "descending pair is inverted, bounds stay numeric",
			raw:  "13/12",
			want: models.NumberRange{Min: intp(12), Max: intp(13), Inverted: true},
		},
		{
			name: "dash separator",
			raw:  "5-6",
			want: models.NumberRange{Min: intp(5), Max: intp(6)},
		},
		{
			name: "suffix glued to number",
			raw:  "7bis",
			want: models.NumberRange{Min: intp(7), Max: intp(7), Suffix: "bis"},
		},
		{
			name: "suffix after range, whitespace trimmed",
			raw:  "5-6 ter",
			want: models.NumberRange{Min: intp(5), Max: intp(6), Suffix: "ter"},
		},
		{
			name: "prefix before number is skipped",
			raw:  "n° 42",
			want: models.NumberRange{Min: intp(42), Max: intp(42)},
		},
		{
			name: "no digits at all",
			raw:  "annata completa",
			want: models.NumberRange{},
		},
		{
			name: "trailing separator leaves no suffix",
			raw:  "12/",
			want: models.NumberRange{Min: intp(12), Max: intp(12)},
		},
		{
			name: "digits after suffix stay in suffix",
			raw:  "7a1",
			want: models.NumberRange{Min: intp(7), Max: intp(7), Suffix: "a1"},
		},
		{
			name: "three runs keep extremes, inverted is last comparison only",
			raw:  "12/13/11",
			want: models.NumberRange{Min: intp(11), Max: intp(13), Inverted: true},
		},
		{
			name: "inverted then ascending clears the flag",
			raw:  "13/12/14",
			want: models.NumberRange{Min: intp(12), Max: intp(14)},
		},
		{
			name: "multi digit accumulation",
			raw:  "118/121",
			want: models.NumberRange{Min: intp(118), Max: intp(121)},
		},
		{
			name: "separator inside suffix is not a new number",
			raw:  "7 bis/8",
			want: models.NumberRange{Min: intp(7), Max: intp(7), Suffix: "bis/8"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)

			if tt.want.Min == nil {
				assert.Nil(t, got.Min)
			} else {
				require.NotNil(t, got.Min)
				assert.Equal(t, *tt.want.Min, *got.Min)
			}
			if tt.want.Max == nil {
				assert.Nil(t, got.Max)
			} else {
				require.NotNil(t, got.Max)
				assert.Equal(t, *tt.want.Max, *got.Max)
			}
			assert.Equal(t, tt.want.Inverted, got.Inverted)
			assert.Equal(t, tt.want.Suffix, got.Suffix)
		})
	}
}

func TestParseDigitsAndSeparatorsHaveNoSuffix(t *testing.T) {
	for _, raw := range []string{"1", "1/2", "10-11", "1/2/3", "3-2-1", "12/"} {
		assert.Empty(t, Parse(raw).Suffix, "raw=%q", raw)
	}
}

func TestParseNeverInvertsBounds(t *testing.T) {
	// Inverted input keeps true numeric extremes; the flag is informational
	// and is never used to swap Min/Max.
	got := Parse("21/19/20")
	require.NotNil(t, got.Min)
	require.NotNil(t, got.Max)
	assert.Equal(t, 19, *got.Min)
	assert.Equal(t, 21, *got.Max)
	assert.False(t, got.Inverted) // 20 > 19, only the last comparison survives
}
