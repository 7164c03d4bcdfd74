package numbering

import (
	"context"
	"database/sql"
	"fmt"

	"edicola/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const ruleColumns = `id, magazine_id, from_year, to_year, is_yearly, from_number, to_number`

func scanRule(scan func(dest ...any) error) (models.Numbering, error) {
	var (
		rule       models.Numbering
		fromYear   sql.NullInt64
		toYear     sql.NullInt64
		fromNumber sql.NullInt64
		toNumber   sql.NullInt64
	)

	err := scan(&rule.ID, &rule.MagazineID, &fromYear, &toYear, &rule.IsYearly, &fromNumber, &toNumber)
	if err != nil {
		return models.Numbering{}, err
	}

	if fromYear.Valid {
		y := int(fromYear.Int64)
		rule.FromYear = &y
	}
	if toYear.Valid {
		y := int(toYear.Int64)
		rule.ToYear = &y
	}
	if fromNumber.Valid {
		n := int(fromNumber.Int64)
		rule.FromNumber = &n
	}
	if toNumber.Valid {
		n := int(toNumber.Int64)
		rule.ToNumber = &n
	}
	return rule, nil
}

func (r *Repo) Insert(ctx context.Context, rule *models.Numbering) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO numberings (magazine_id, from_year, to_year, is_yearly, from_number, to_number)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rule.MagazineID, nullInt(rule.FromYear), nullInt(rule.ToYear), rule.IsYearly,
		nullInt(rule.FromNumber), nullInt(rule.ToNumber))
	if err != nil {
		return fmt.Errorf("insert numbering: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert numbering id: %w", err)
	}
	rule.ID = id
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM numberings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete numbering: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListForMagazine returns a magazine's rules in stored order; the missing
// report concatenates per-rule results in exactly this order.
func (r *Repo) ListForMagazine(ctx context.Context, magazineID int64) ([]models.Numbering, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM numberings
		WHERE magazine_id = ?
		ORDER BY id
	`, magazineID)
	if err != nil {
		return nil, fmt.Errorf("list numberings: %w", err)
	}
	defer rows.Close()

	var out []models.Numbering
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan numbering: %w", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// List returns every rule, in stored order, optionally scoped to one
// magazine.
func (r *Repo) List(ctx context.Context, magazineID int64) ([]models.Numbering, error) {
	if magazineID > 0 {
		return r.ListForMagazine(ctx, magazineID)
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT `+ruleColumns+` FROM numberings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list numberings: %w", err)
	}
	defer rows.Close()

	var out []models.Numbering
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan numbering: %w", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
