package models

import "strconv"

// MissingNumber is one expected issue the collection does not cover.
// Year is nil for continuous numberings (year plays no role there).
type MissingNumber struct {
	Year   *int `json:"year,omitempty"`
	Number int  `json:"number"`
}

// Label renders the number for presentation. How an absent year is shown
// is up to the consumer.
func (m MissingNumber) Label() string {
	return strconv.Itoa(m.Number)
}
