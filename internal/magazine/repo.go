package magazine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"edicola/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, name string) (*models.Magazine, error) {
	name = strings.TrimSpace(name)
	res, err := r.DB.ExecContext(ctx, `INSERT INTO magazines (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("create magazine: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create magazine id: %w", err)
	}
	return &models.Magazine{ID: id, Name: name}, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Magazine, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id, name FROM magazines WHERE id = ?`, id)

	var m models.Magazine
	if err := row.Scan(&m.ID, &m.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get magazine: %w", err)
	}
	return &m, nil
}

func (r *Repo) GetByName(ctx context.Context, name string) (*models.Magazine, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id, name FROM magazines WHERE name = ?`, strings.TrimSpace(name))

	var m models.Magazine
	if err := row.Scan(&m.ID, &m.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get magazine by name: %w", err)
	}
	return &m, nil
}

// List returns magazines ordered by name, optionally filtered by a name
// substring.
func (r *Repo) List(ctx context.Context, q string) ([]models.Magazine, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if strings.TrimSpace(q) == "" {
		rows, err = r.DB.QueryContext(ctx, `SELECT id, name FROM magazines ORDER BY name`)
	} else {
		kw := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, name FROM magazines
			WHERE LOWER(name) LIKE ?
			ORDER BY name
		`, kw)
	}
	if err != nil {
		return nil, fmt.Errorf("list magazines: %w", err)
	}
	defer rows.Close()

	var out []models.Magazine
	for rows.Next() {
		var m models.Magazine
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan magazine: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// ListWithNumberings returns the magazines that have at least one
// numbering rule, i.e. the ones a missing-numbers report exists for.
func (r *Repo) ListWithNumberings(ctx context.Context) ([]models.Magazine, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT m.id, m.name
		FROM magazines m
		JOIN numberings n ON n.magazine_id = m.id
		ORDER BY m.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list magazines with numberings: %w", err)
	}
	defer rows.Close()

	var out []models.Magazine
	for rows.Next() {
		var m models.Magazine
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan magazine: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Delete removes a magazine; issues and numberings go with it via the
// schema's ON DELETE CASCADE.
func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM magazines WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete magazine: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
