package app

import (
	"sort"

	"skincare_reviews/internal/domain"
)

// Sort orders rows by the keys in declared order, each with its own
// direction. The sort is stable and nulls go last in either direction.
func Sort(res domain.Result, keys ...domain.SortKey) domain.Result {
	rows := make([]domain.Row, len(res.Rows))
	copy(rows, res.Rows)
	res.Rows = rows
	if len(keys) == 0 {
		return res
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			a, b := rows[i][k.Column], rows[j][k.Column]
			switch {
			case a == nil && b == nil:
				continue
			case a == nil:
				return false
			case b == nil:
				return true
			}
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if k.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return res
}

// Limit keeps the first n rows; n <= 0 keeps none.
func Limit(res domain.Result, n int) domain.Result {
	if n <= 0 {
		res.Rows = []domain.Row{}
		return res
	}
	if n < len(res.Rows) {
		res.Rows = res.Rows[:n:n]
	}
	return res
}
