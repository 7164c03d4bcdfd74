package issue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"edicola/internal/numbering"
	"edicola/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	MagazineID int64  // 0 = any magazine
	Year       *int   // exact match
	Number     string // substring match on the raw identifier
	OnlyNew    bool   // is_new issues (latest arrivals)
	OnlyDupes  bool   // copies > 1
	Limit      int
	Offset     int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const issueColumns = `id, magazine_id, year, issue_number, copies, is_new, num_min, num_max, inverted, suffix`

func scanIssue(scan func(dest ...any) error) (models.Issue, error) {
	var (
		is     models.Issue
		year   sql.NullInt64
		numMin sql.NullInt64
		numMax sql.NullInt64
	)

	err := scan(
		&is.ID, &is.MagazineID, &year, &is.Number, &is.Copies, &is.IsNew,
		&numMin, &numMax, &is.Range.Inverted, &is.Range.Suffix,
	)
	if err != nil {
		return models.Issue{}, err
	}

	if year.Valid {
		y := int(year.Int64)
		is.Year = &y
	}
	if numMin.Valid {
		n := int(numMin.Int64)
		is.Range.Min = &n
	}
	if numMax.Valid {
		n := int(numMax.Int64)
		is.Range.Max = &n
	}
	return is, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// Insert stores a new issue, deriving its parsed range from the raw
// number first. The (magazine_id, year, issue_number) unique constraint
// rejects duplicates at the schema level.
func (r *Repo) Insert(ctx context.Context, is *models.Issue) error {
	if is.Copies <= 0 {
		is.Copies = 1
	}
	is.Range = numbering.Parse(is.Number)

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO issues (magazine_id, year, issue_number, copies, is_new, num_min, num_max, inverted, suffix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, is.MagazineID, nullInt(is.Year), is.Number, is.Copies, is.IsNew,
		nullInt(is.Range.Min), nullInt(is.Range.Max), is.Range.Inverted, is.Range.Suffix)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert issue id: %w", err)
	}
	is.ID = id
	return nil
}

// Update rewrites an issue's editable fields. The parsed range is always
// re-derived from the raw number so an edited identifier never keeps a
// stale envelope.
func (r *Repo) Update(ctx context.Context, is *models.Issue) (bool, error) {
	is.Range = numbering.Parse(is.Number)

	res, err := r.DB.ExecContext(ctx, `
		UPDATE issues
		SET year = ?, issue_number = ?, copies = ?, is_new = ?,
		    num_min = ?, num_max = ?, inverted = ?, suffix = ?
		WHERE id = ?
	`, nullInt(is.Year), is.Number, is.Copies, is.IsNew,
		nullInt(is.Range.Min), nullInt(is.Range.Max), is.Range.Inverted, is.Range.Suffix,
		is.ID)
	if err != nil {
		return false, fmt.Errorf("update issue: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete issue: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteNew removes every issue still flagged as a new arrival, the
// maintenance sweep run after a batch of arrivals turns out to be wrong.
func (r *Repo) DeleteNew(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM issues WHERE is_new = 1`)
	if err != nil {
		return 0, fmt.Errorf("delete new issues: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Issue, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE id = ?
	`, id)

	is, err := scanIssue(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return &is, nil
}

// ListForMagazine returns every issue of a magazine in stored order. Gap
// computation depends on this order being the insertion order.
func (r *Repo) ListForMagazine(ctx context.Context, magazineID int64) ([]models.Issue, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE magazine_id = ?
		ORDER BY id
	`, magazineID)
	if err != nil {
		return nil, fmt.Errorf("list magazine issues: %w", err)
	}
	defer rows.Close()

	var out []models.Issue
	for rows.Next() {
		is, err := scanIssue(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan magazine issue: %w", err)
		}
		out = append(out, is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Issue, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	out := make([]models.Issue, 0, q.Limit)
	for rows.Next() {
		is, err := scanIssue(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		out = append(out, is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// buildListSQL builds either COUNT(*) or the SELECT list for a filtered
// issue query.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := `SELECT ` + issueColumns + ` FROM issues`
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM issues`
	}

	var where []string
	var args []any

	if q.MagazineID > 0 {
		where = append(where, "magazine_id = ?")
		args = append(args, q.MagazineID)
	}
	if q.Year != nil {
		where = append(where, "year = ?")
		args = append(args, *q.Year)
	}
	if strings.TrimSpace(q.Number) != "" {
		where = append(where, "issue_number LIKE ?")
		args = append(args, "%"+strings.TrimSpace(q.Number)+"%")
	}
	if q.OnlyNew {
		where = append(where, "is_new = 1")
	}
	if q.OnlyDupes {
		where = append(where, "copies > 1")
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY magazine_id, year, issue_number"
		sqlStr += " LIMIT ? OFFSET ?"
		limit := q.Limit
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}

	return sqlStr, args
}
