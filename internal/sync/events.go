package sync

import (
	"time"

	"edicola/pkg/models"
)

const (
	IssueCreated  = "issue.created"
	IssueUpdated  = "issue.updated"
	IssueDeleted  = "issue.deleted"
	ImportApplied = "import.applied"
)

// CatalogEvent is broadcast to every connected client whenever the
// catalog changes, so an open missing-numbers view can refresh itself.
type CatalogEvent struct {
	Type       string    `json:"type"`
	MagazineID int64     `json:"magazine_id,omitempty"`
	IssueID    int64     `json:"issue_id,omitempty"`
	Year       *int      `json:"year,omitempty"`
	Number     string    `json:"number,omitempty"`
	At         time.Time `json:"at"`
}

// ImportEvent summarizes an applied catalog snapshot import.
type ImportEvent struct {
	Type          string    `json:"type"`
	NewMagazines  int       `json:"new_magazines"`
	NewIssues     int       `json:"new_issues"`
	UpdatedIssues int       `json:"updated_issues"`
	DeletedIssues int       `json:"deleted_issues"`
	At            time.Time `json:"at"`
}

func NewIssueEvent(eventType string, is models.Issue) CatalogEvent {
	return CatalogEvent{
		Type:       eventType,
		MagazineID: is.MagazineID,
		IssueID:    is.ID,
		Year:       is.Year,
		Number:     is.Number,
		At:         time.Now().UTC(),
	}
}
