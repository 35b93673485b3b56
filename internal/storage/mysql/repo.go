package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"skincare_reviews/internal/domain"
)

// header uses the upstream CSV names so the column resolver treats a table
// exactly like a file.
var header = []string{"Product", "Review", "Rating", "Merk", "Category", "Price", "UserName", "PostDate", "SkinCond_Age"}

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Name() string { return "mysql:reviews" }

// ReadRows returns every stored review row; NULL cells become empty strings.
func (r *Repo) ReadRows(ctx context.Context) (domain.RawRows, error) {
	rows, err := r.db.QueryContext(ctx, selectReviewsSQL)
	if err != nil {
		return domain.RawRows{}, fmt.Errorf("select reviews: %w", err)
	}
	defer rows.Close()

	out := domain.RawRows{Columns: append([]string(nil), header...)}
	for rows.Next() {
		cells := make([]sql.NullString, len(header))
		dst := make([]any, len(cells))
		for i := range cells {
			dst[i] = &cells[i]
		}
		if err := rows.Scan(dst...); err != nil {
			return domain.RawRows{}, fmt.Errorf("scan review: %w", err)
		}
		rec := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				rec[i] = c.String
			}
		}
		out.Records = append(out.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.RawRows{}, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

// InsertRows writes one multi-row INSERT. Each row must hold len(header) cells.
func (r *Repo) InsertRows(ctx context.Context, rs [][]string) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*len(header))
	for i, rec := range rs {
		if len(rec) != len(header) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(rec), len(header))
		}
		values = append(values, insertReviewsRow)
		for _, c := range rec {
			args = append(args, valStr(c))
		}
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",")
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert reviews: %w", err)
	}
	return nil
}
