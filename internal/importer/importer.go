// Package importer applies a full catalog snapshot from CSV. The CSV is
// the source of truth for the whole catalog: unseen magazines are
// created, absent issues inserted, re-seen issues keep their data (only
// the new-arrival flag is cleared), and owned issues missing from the
// snapshot are deleted.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"edicola/internal/numbering"
)

type Row struct {
	Magazine string
	Year     *int
	Number   string
}

// Summary reports what applying a snapshot changed.
type Summary struct {
	NewMagazines  int `json:"new_magazines"`
	NewIssues     int `json:"new_issues"`
	UpdatedIssues int `json:"updated_issues"`
	DeletedIssues int `json:"deleted_issues"`
}

// ReadCSV parses a snapshot file with a magazine,year,number header.
// Column order is taken from the header; rows lacking a magazine or a
// number are skipped.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) == 0 {
			continue
		}

		row := Row{
			Magazine: strings.TrimSpace(valueAt(header, rec, "magazine")),
			Number:   strings.TrimSpace(valueAt(header, rec, "number")),
		}
		if row.Magazine == "" || row.Number == "" {
			continue
		}
		if s := strings.TrimSpace(valueAt(header, rec, "year")); s != "" {
			y, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("parse year %q for %s %s: %w", s, row.Magazine, row.Number, err)
			}
			row.Year = &y
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func valueAt(header, row []string, name string) string {
	for i, h := range header {
		if h == name && i < len(row) {
			return row[i]
		}
	}
	return ""
}

type issueKey struct {
	MagazineID int64
	HasYear    bool
	Year       int
	Number     string
}

type issueState struct {
	ID    int64
	IsNew bool
}

// Apply reconciles the catalog with the snapshot inside one transaction.
func Apply(ctx context.Context, db *sql.DB, rows []Row) (Summary, error) {
	var sum Summary

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return sum, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	magazines, err := loadMagazines(ctx, tx)
	if err != nil {
		return sum, err
	}

	// create unseen magazines first, in name order
	names := make(map[string]struct{})
	for _, row := range rows {
		names[row.Magazine] = struct{}{}
	}
	var missing []string
	for name := range names {
		if _, ok := magazines[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		res, err := tx.ExecContext(ctx, `INSERT INTO magazines (name) VALUES (?)`, name)
		if err != nil {
			return sum, fmt.Errorf("create magazine %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return sum, fmt.Errorf("create magazine %q id: %w", name, err)
		}
		magazines[name] = id
		sum.NewMagazines++
	}

	existing, err := loadIssues(ctx, tx)
	if err != nil {
		return sum, err
	}

	seen := make(map[issueKey]struct{}, len(rows))
	for _, row := range rows {
		magazineID := magazines[row.Magazine]
		key := issueKey{MagazineID: magazineID, Number: row.Number}
		if row.Year != nil {
			key.HasYear = true
			key.Year = *row.Year
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		state, ok := existing[key]
		if !ok {
			rng := numbering.Parse(row.Number)
			res, err := tx.ExecContext(ctx, `
				INSERT INTO issues (magazine_id, year, issue_number, copies, is_new, num_min, num_max, inverted, suffix)
				VALUES (?, ?, ?, 1, 0, ?, ?, ?, ?)
			`, magazineID, nullInt(row.Year), row.Number,
				nullInt(rng.Min), nullInt(rng.Max), rng.Inverted, rng.Suffix)
			if err != nil {
				return sum, fmt.Errorf("insert issue %s %s: %w", row.Magazine, row.Number, err)
			}
			id, _ := res.LastInsertId()
			existing[key] = issueState{ID: id}
			sum.NewIssues++
			continue
		}

		// the snapshot confirms the issue; a pending new-arrival flag no
		// longer applies
		if state.IsNew {
			if _, err := tx.ExecContext(ctx, `UPDATE issues SET is_new = 0 WHERE id = ?`, state.ID); err != nil {
				return sum, fmt.Errorf("update issue %d: %w", state.ID, err)
			}
			state.IsNew = false
			existing[key] = state
			sum.UpdatedIssues++
		}
	}

	// anything the snapshot no longer lists leaves the catalog
	for key, state := range existing {
		if _, ok := seen[key]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, state.ID); err != nil {
			return sum, fmt.Errorf("delete issue %d: %w", state.ID, err)
		}
		sum.DeletedIssues++
	}

	if err := tx.Commit(); err != nil {
		return sum, fmt.Errorf("commit import: %w", err)
	}
	return sum, nil
}

func loadMagazines(ctx context.Context, tx *sql.Tx) (map[string]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM magazines`)
	if err != nil {
		return nil, fmt.Errorf("load magazines: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan magazine: %w", err)
		}
		out[name] = id
	}
	return out, rows.Err()
}

func loadIssues(ctx context.Context, tx *sql.Tx) (map[issueKey]issueState, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, magazine_id, year, issue_number, is_new FROM issues`)
	if err != nil {
		return nil, fmt.Errorf("load issues: %w", err)
	}
	defer rows.Close()

	out := make(map[issueKey]issueState)
	for rows.Next() {
		var (
			id         int64
			magazineID int64
			year       sql.NullInt64
			number     string
			isNew      bool
		)
		if err := rows.Scan(&id, &magazineID, &year, &number, &isNew); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		key := issueKey{MagazineID: magazineID, Number: number}
		if year.Valid {
			key.HasYear = true
			key.Year = int(year.Int64)
		}
		out[key] = issueState{ID: id, IsNew: isNew}
	}
	return out, rows.Err()
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
