package app

import (
	"github.com/shopspring/decimal"

	"skincare_reviews/internal/domain"
)

// accumulator folds the values of one aggregation within one group.
type accumulator interface {
	add(v any)
	result(groupSize int) any
}

type countAcc struct{}

func (countAcc) add(any)          {}
func (countAcc) result(n int) any { return int64(n) }

type meanAcc struct {
	sum decimal.Decimal
	n   int64
}

func (a *meanAcc) add(v any) {
	f, ok := toFloat(v)
	if v == nil || !ok {
		return
	}
	a.sum = a.sum.Add(decimal.NewFromFloat(f))
	a.n++
}

func (a *meanAcc) result(int) any {
	if a.n == 0 {
		return nil
	}
	return a.sum.Div(decimal.NewFromInt(a.n)).InexactFloat64()
}

type nuniqueAcc struct{ seen map[string]struct{} }

func (a *nuniqueAcc) add(v any) {
	if v == nil {
		return
	}
	a.seen[keyOf(v)] = struct{}{}
}

func (a *nuniqueAcc) result(int) any { return int64(len(a.seen)) }

type extremumAcc struct {
	best any
	max  bool
}

func (a *extremumAcc) add(v any) {
	if v == nil {
		return
	}
	if a.best == nil {
		a.best = v
		return
	}
	c := compareValues(v, a.best)
	if (a.max && c > 0) || (!a.max && c < 0) {
		a.best = v
	}
}

func (a *extremumAcc) result(int) any { return a.best }

func newAccumulator(op domain.AggOp) accumulator {
	switch op {
	case domain.AggMean:
		return &meanAcc{}
	case domain.AggNUnique:
		return &nuniqueAcc{seen: map[string]struct{}{}}
	case domain.AggMin:
		return &extremumAcc{}
	case domain.AggMax:
		return &extremumAcc{max: true}
	}
	return countAcc{}
}

type group struct {
	key  []any
	size int
	accs []accumulator
}

// Aggregate partitions records by the group key tuple and computes every
// aggregation per group. Groups appear in first-seen order. With no group
// keys the whole input is one group; an empty input yields no rows.
func Aggregate(records []domain.Review, keys []domain.Field, aggs []domain.Aggregation) domain.Result {
	q := domain.Query{GroupKeys: keys, Aggregations: aggs}
	res := domain.Result{Columns: q.OutputColumns(), Rows: []domain.Row{}, Matched: len(records)}
	if len(records) == 0 {
		return res
	}

	index := map[string]*group{}
	var order []*group
	for _, r := range records {
		kv := make([]any, len(keys))
		for i, k := range keys {
			kv[i] = r.Value(k)
		}
		tk := tupleKey(kv)
		g, ok := index[tk]
		if !ok {
			g = &group{key: kv, accs: make([]accumulator, len(aggs))}
			for i, a := range aggs {
				g.accs[i] = newAccumulator(a.Op)
			}
			index[tk] = g
			order = append(order, g)
		}
		g.size++
		for i, a := range aggs {
			if a.Op == domain.AggCount {
				continue
			}
			g.accs[i].add(r.Value(a.Field))
		}
	}

	for _, g := range order {
		row := make(domain.Row, len(keys)+len(aggs))
		for i, k := range keys {
			row[string(k)] = g.key[i]
		}
		for i, a := range aggs {
			row[a.Name] = g.accs[i].result(g.size)
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// Project turns records into rows holding the requested fields.
func Project(records []domain.Review, cols []domain.Field) domain.Result {
	if len(cols) == 0 {
		cols = domain.Fields
	}
	q := domain.Query{Columns: cols}
	res := domain.Result{Columns: q.OutputColumns(), Rows: make([]domain.Row, 0, len(records)), Matched: len(records)}
	for _, r := range records {
		row := make(domain.Row, len(cols))
		for _, c := range cols {
			row[string(c)] = r.Value(c)
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}
