package numbering

import (
	"strings"

	"edicola/pkg/models"
)

// Scanner states for raw issue-number strings. The scanner walks the
// string once: digits build numbers, '/' and '-' separate number runs,
// and the first other non-digit seen after a number switches the scanner
// permanently to suffix capture.
type parseState int

const (
	statePrefix parseState = iota
	stateNumber
	stateSeparator
	stateSuffix
)

func isSeparator(c rune) bool {
	return c == '/' || c == '-'
}

// Parse extracts the numeric envelope from a raw printed issue number.
// It never fails: input with no digits yields a range with both bounds
// missing, and anything after the numeric part lands in Suffix verbatim
// (trimmed of surrounding whitespace).
//
// Min and Max track the extremes across every number run, while Inverted
// only records the most recent pairwise comparison, so with three or more
// runs earlier ordering information is lost.
func Parse(raw string) models.NumberRange {
	var (
		rng       models.NumberRange
		state     = statePrefix
		cur, prev int
		suffix    strings.Builder
	)

	closeNumber := func() {
		n := cur
		if rng.Min == nil || n < *rng.Min {
			rng.Min = &n
		}
		if rng.Max == nil || n > *rng.Max {
			rng.Max = &n
		}
		rng.Inverted = n < prev
		prev = n
	}

	for _, c := range raw {
		switch {
		case state == stateSuffix:
			suffix.WriteRune(c)
		case c >= '0' && c <= '9':
			switch state {
			case statePrefix, stateSeparator:
				state = stateNumber
				cur = int(c - '0')
			case stateNumber:
				cur = cur*10 + int(c-'0')
			}
		case isSeparator(c):
			if state == stateNumber {
				state = stateSeparator
				closeNumber()
			}
		default:
			if state == stateNumber {
				state = stateSuffix
				closeNumber()
				suffix.WriteRune(c)
			}
		}
	}

	if state == stateNumber {
		closeNumber()
	}

	rng.Suffix = strings.TrimSpace(suffix.String())
	return rng
}
