package domain

import (
	"fmt"
)

type PredicateOp string

const (
	OpIn    PredicateOp = "in"    // membership; no values means no constraint
	OpRange PredicateOp = "range" // inclusive [Min, Max]; nil bound is open
	OpEq    PredicateOp = "eq"
)

type Predicate struct {
	Field  Field       `json:"field"`
	Op     PredicateOp `json:"op"`
	Values []string    `json:"values,omitempty"`
	Min    *float64    `json:"min,omitempty"`
	Max    *float64    `json:"max,omitempty"`
	Equals any         `json:"equals,omitempty"`
}

func In(f Field, values ...string) Predicate {
	return Predicate{Field: f, Op: OpIn, Values: values}
}

func Range(f Field, min, max *float64) Predicate {
	return Predicate{Field: f, Op: OpRange, Min: min, Max: max}
}

func Eq(f Field, v any) Predicate {
	return Predicate{Field: f, Op: OpEq, Equals: v}
}

type AggOp string

const (
	AggCount   AggOp = "count"
	AggMean    AggOp = "mean"
	AggNUnique AggOp = "nunique"
	AggMin     AggOp = "min"
	AggMax     AggOp = "max"
)

type Aggregation struct {
	Name  string `json:"name"`
	Field Field  `json:"field,omitempty"` // ignored by count
	Op    AggOp  `json:"op"`
}

type SortKey struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
}

// Query describes one read against a dataset: filter, group, aggregate,
// sort, limit. Without group keys and aggregations the result has one row per
// matching record, projected to Columns (every field when empty).
type Query struct {
	Filters      []Predicate   `json:"filters,omitempty"`
	GroupKeys    []Field       `json:"group_keys,omitempty"`
	Aggregations []Aggregation `json:"aggregations,omitempty"`
	Columns      []Field       `json:"columns,omitempty"`
	Sort         []SortKey     `json:"sort,omitempty"`
	Limit        *int          `json:"limit,omitempty"`
}

// Grouped reports whether the query partitions records.
func (q Query) Grouped() bool {
	return len(q.GroupKeys) > 0 || len(q.Aggregations) > 0
}

// OutputColumns returns the result column names in declared order.
func (q Query) OutputColumns() []string {
	if q.Grouped() {
		out := make([]string, 0, len(q.GroupKeys)+len(q.Aggregations))
		for _, k := range q.GroupKeys {
			out = append(out, string(k))
		}
		for _, a := range q.Aggregations {
			out = append(out, a.Name)
		}
		return out
	}
	cols := q.Columns
	if len(cols) == 0 {
		cols = Fields
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}

func (q Query) Validate() error {
	for _, p := range q.Filters {
		if !p.Field.Valid() {
			return fmt.Errorf("%w: filter field %q", ErrUnknownField, p.Field)
		}
		switch p.Op {
		case OpIn:
		case OpRange:
			if !p.Field.Numeric() {
				return fmt.Errorf("%w: range on non-numeric field %q", ErrInvalidQuery, p.Field)
			}
			if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
				return fmt.Errorf("%w: range on %q has min > max", ErrInvalidQuery, p.Field)
			}
		case OpEq:
			if p.Equals == nil {
				return fmt.Errorf("%w: eq on %q without a value", ErrInvalidQuery, p.Field)
			}
		default:
			return fmt.Errorf("%w: unknown predicate op %q", ErrInvalidQuery, p.Op)
		}
	}

	seen := map[string]struct{}{}
	claim := func(name string) error {
		if name == "" {
			return fmt.Errorf("%w: empty output column name", ErrInvalidQuery)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate output column %q", ErrInvalidQuery, name)
		}
		seen[name] = struct{}{}
		return nil
	}
	for _, k := range q.GroupKeys {
		if !k.Valid() {
			return fmt.Errorf("%w: group key %q", ErrUnknownField, k)
		}
		if err := claim(string(k)); err != nil {
			return err
		}
	}
	for _, a := range q.Aggregations {
		switch a.Op {
		case AggCount:
		case AggMean, AggMin, AggMax:
			if !a.Field.Numeric() {
				return fmt.Errorf("%w: %s over non-numeric field %q", ErrInvalidQuery, a.Op, a.Field)
			}
		case AggNUnique:
			if !a.Field.Valid() {
				return fmt.Errorf("%w: aggregation field %q", ErrUnknownField, a.Field)
			}
		default:
			return fmt.Errorf("%w: unknown aggregation op %q", ErrInvalidQuery, a.Op)
		}
		if err := claim(a.Name); err != nil {
			return err
		}
	}
	if !q.Grouped() {
		for _, c := range q.Columns {
			if !c.Valid() {
				return fmt.Errorf("%w: column %q", ErrUnknownField, c)
			}
			if err := claim(string(c)); err != nil {
				return err
			}
		}
	}

	cols := map[string]struct{}{}
	for _, c := range q.OutputColumns() {
		cols[c] = struct{}{}
	}
	for _, s := range q.Sort {
		if _, ok := cols[s.Column]; !ok {
			return fmt.Errorf("%w: sort column %q is not in the output", ErrInvalidQuery, s.Column)
		}
	}
	return nil
}

// Row maps output column name to a string, float64, int64, time.Time or nil.
type Row map[string]any

type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Matched int      `json:"matched"` // records that passed the filters
}

// Empty reports that the filters matched nothing.
func (r Result) Empty() bool { return r.Matched == 0 }
