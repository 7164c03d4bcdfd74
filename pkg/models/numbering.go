package models

// Numbering declares the year/number window within which a magazine's
// issues are expected to exist. Any nil bound is "open" and resolved from
// the currently owned issues at evaluation time, not frozen at creation.
type Numbering struct {
	ID         int64 `json:"id"`
	MagazineID int64 `json:"magazine_id"`
	FromYear   *int  `json:"from_year,omitempty"`
	ToYear     *int  `json:"to_year,omitempty"`
	IsYearly   bool  `json:"is_yearly"`
	FromNumber *int  `json:"from_number,omitempty"`
	ToNumber   *int  `json:"to_number,omitempty"`
}
