package models

// NumberRange is the numeric envelope extracted from a raw issue-number
// string ("12/13", "7bis", ...). Min and Max are the true numeric extremes
// of every number run found, regardless of the order they appeared in;
// Inverted records that the raw string listed them in descending order and
// is informational only. Suffix holds the trailing non-numeric text.
type NumberRange struct {
	Min      *int   `json:"min,omitempty"`
	Max      *int   `json:"max,omitempty"`
	Inverted bool   `json:"inverted"`
	Suffix   string `json:"suffix,omitempty"`
}

// Covers reports whether the range spans the given number. A partially
// parsed range (either bound missing) covers nothing.
func (r NumberRange) Covers(n int) bool {
	return r.Min != nil && r.Max != nil && *r.Min <= n && n <= *r.Max
}

// Issue is one owned copy (or bundle of copies) of a magazine number.
// Number is the raw printed identifier; Range is derived from it on insert
// and re-derived whenever Number is edited.
type Issue struct {
	ID         int64       `json:"id"`
	MagazineID int64       `json:"magazine_id"`
	Year       *int        `json:"year,omitempty"`
	Number     string      `json:"number"`
	Copies     int         `json:"copies"`
	IsNew      bool        `json:"is_new"`
	Range      NumberRange `json:"range"`
}
