package models

// Magazine is one title in the catalog. It owns issues and numbering
// rules; both are kept in insertion order.
type Magazine struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
