package app

import (
	"skincare_reviews/internal/domain"
)

// Filter returns the records matching every predicate, in input order.
// An empty predicate set returns a copy of all records.
func Filter(records []domain.Review, preds []domain.Predicate) []domain.Review {
	out := make([]domain.Review, 0, len(records))
	for _, r := range records {
		if matchesAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r domain.Review, preds []domain.Predicate) bool {
	for _, p := range preds {
		if !matches(r, p) {
			return false
		}
	}
	return true
}

func matches(r domain.Review, p domain.Predicate) bool {
	// "no selection" in a multiselect means show everything, nulls included
	if p.Op == domain.OpIn && len(p.Values) == 0 {
		return true
	}
	v := r.Value(p.Field)
	if v == nil {
		return false
	}
	switch p.Op {
	case domain.OpIn:
		s := formatValue(v)
		for _, want := range p.Values {
			if s == want {
				return true
			}
		}
		return false
	case domain.OpRange:
		f, ok := toFloat(v)
		if !ok {
			return false
		}
		if p.Min != nil && f < *p.Min {
			return false
		}
		if p.Max != nil && f > *p.Max {
			return false
		}
		return true
	case domain.OpEq:
		return equalValues(v, p.Equals)
	}
	return false
}

func equalValues(have, want any) bool {
	if isNumber(have) {
		w, ok := toFloat(want)
		if !ok {
			return false
		}
		h, _ := toFloat(have)
		return h == w
	}
	if s, ok := want.(string); ok {
		return formatValue(have) == s
	}
	return false
}
