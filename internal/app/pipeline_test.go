package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skincare_reviews/internal/app"
	"skincare_reviews/internal/domain"
)

func sample() []domain.Review {
	return []domain.Review{
		withPrice(rev("Aveeno", "Cleanser", "ProdA", 4, "u1", 2021), 120000),
		withPrice(rev("Aveeno", "Cleanser", "ProdB", 5, "u2", 2021), 90000),
		rev("CeraVe", "Moisturizer", "ProdC", 3, "u1", 2022),
		rev("CeraVe", "Cleanser", "ProdD", 2, "", 0),
	}
}

func TestFilter_EmptyPredicatesIsIdentity(t *testing.T) {
	recs := sample()
	assert.Equal(t, recs, app.Filter(recs, nil))
}

func TestFilter_AddingPredicatesNeverGrows(t *testing.T) {
	recs := sample()
	base := []domain.Predicate{domain.In(domain.FieldCategory, "Cleanser")}
	more := append(base, domain.Range(domain.FieldRating, ptr(4.0), nil))

	a := app.Filter(recs, base)
	b := app.Filter(recs, more)
	assert.Len(t, a, 3)
	assert.Len(t, b, 2)
	for _, r := range b {
		assert.Contains(t, a, r)
	}
}

func TestFilter_EmptyInSetIsNoConstraint(t *testing.T) {
	recs := sample()
	assert.Len(t, app.Filter(recs, []domain.Predicate{domain.In(domain.FieldUserName)}), 4)
}

func TestFilter_NullsExcludedWhenFieldIsTargeted(t *testing.T) {
	recs := sample()
	got := app.Filter(recs, []domain.Predicate{domain.Range(domain.FieldPrice, nil, nil)})
	require.Len(t, got, 2)

	got = app.Filter(recs, []domain.Predicate{domain.Range(domain.FieldYear, ptr(2000.0), ptr(2100.0))})
	assert.Len(t, got, 3)
}

func TestFilter_RangeIsInclusive(t *testing.T) {
	got := app.Filter(sample(), []domain.Predicate{domain.Range(domain.FieldRating, ptr(3.0), ptr(4.0))})
	require.Len(t, got, 2)
	assert.Equal(t, "ProdA", got[0].Product)
	assert.Equal(t, "ProdC", got[1].Product)
}

func TestFilter_EqComparesNumbersNumerically(t *testing.T) {
	recs := sample()
	assert.Len(t, app.Filter(recs, []domain.Predicate{domain.Eq(domain.FieldYear, 2021)}), 2)
	assert.Len(t, app.Filter(recs, []domain.Predicate{domain.Eq(domain.FieldYear, "2021")}), 2)
	assert.Len(t, app.Filter(recs, []domain.Predicate{domain.Eq(domain.FieldBrand, "CeraVe")}), 2)
	assert.Empty(t, app.Filter(recs, []domain.Predicate{domain.Eq(domain.FieldBrand, "cerave")}))
}

// Filter one brand, then group two different ways.
func TestAggregate_BrandThenProduct(t *testing.T) {
	recs := app.Filter(sample(), []domain.Predicate{domain.In(domain.FieldBrand, "Aveeno")})

	byProduct := app.Aggregate(recs, []domain.Field{domain.FieldProduct}, []domain.Aggregation{
		{Name: "n", Op: domain.AggCount},
		{Name: "avg", Field: domain.FieldRating, Op: domain.AggMean},
	})
	require.Len(t, byProduct.Rows, 2)
	assert.Equal(t, domain.Row{"product": "ProdA", "n": int64(1), "avg": 4.0}, byProduct.Rows[0])
	assert.Equal(t, domain.Row{"product": "ProdB", "n": int64(1), "avg": 5.0}, byProduct.Rows[1])

	byBrand := app.Aggregate(recs, []domain.Field{domain.FieldBrand}, []domain.Aggregation{
		{Name: "avg", Field: domain.FieldRating, Op: domain.AggMean},
	})
	require.Len(t, byBrand.Rows, 1)
	assert.InDelta(t, 4.5, byBrand.Rows[0]["avg"], 1e-9)
}

// Null group keys form their own group, in first-seen order.
func TestAggregate_NullYearIsItsOwnGroup(t *testing.T) {
	recs := []domain.Review{
		rev("B", "C", "P1", 4, "u", 0),
		rev("B", "C", "P2", 4, "u", 2021),
		rev("B", "C", "P3", 4, "u", 0),
	}
	res := app.Aggregate(recs, []domain.Field{domain.FieldYear}, []domain.Aggregation{{Name: "n", Op: domain.AggCount}})
	require.Len(t, res.Rows, 2)
	assert.Nil(t, res.Rows[0]["year"])
	assert.Equal(t, int64(2), res.Rows[0]["n"])
	assert.Equal(t, int64(2021), res.Rows[1]["year"])
	assert.Equal(t, int64(1), res.Rows[1]["n"])
}

func TestAggregate_CountsSumToSubsetSize(t *testing.T) {
	recs := sample()
	res := app.Aggregate(recs, []domain.Field{domain.FieldBrand, domain.FieldCategory}, []domain.Aggregation{{Name: "n", Op: domain.AggCount}})
	var total int64
	for _, row := range res.Rows {
		total += row["n"].(int64)
	}
	assert.Equal(t, int64(len(recs)), total)
	assert.Equal(t, len(recs), res.Matched)
}

func TestAggregate_NullHandling(t *testing.T) {
	recs := sample()
	res := app.Aggregate(recs, []domain.Field{domain.FieldBrand}, []domain.Aggregation{
		{Name: "users", Field: domain.FieldUserName, Op: domain.AggNUnique},
		{Name: "cheapest", Field: domain.FieldPrice, Op: domain.AggMin},
		{Name: "latest", Field: domain.FieldYear, Op: domain.AggMax},
	})
	require.Len(t, res.Rows, 2)
	cerave := res.Rows[1]
	assert.Equal(t, "CeraVe", cerave["brand"])
	assert.Equal(t, int64(1), cerave["users"], "empty user names are not counted")
	assert.Nil(t, cerave["cheapest"], "all-null input gives a null cell")
	assert.Equal(t, int64(2022), cerave["latest"])
	assert.Equal(t, 90000.0, res.Rows[0]["cheapest"])
}

func TestAggregate_EmptyInputYieldsNoRows(t *testing.T) {
	res := app.Aggregate(nil, nil, []domain.Aggregation{{Name: "n", Op: domain.AggCount}})
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)
	assert.True(t, res.Empty())
	assert.Equal(t, []string{"n"}, res.Columns)
}

func TestAggregate_NoKeysIsOneGroup(t *testing.T) {
	res := app.Aggregate(sample(), nil, []domain.Aggregation{{Name: "n", Op: domain.AggCount}})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(4), res.Rows[0]["n"])
}

func rowsOf(vals ...any) domain.Result {
	res := domain.Result{Columns: []string{"id", "v"}}
	for i, v := range vals {
		res.Rows = append(res.Rows, domain.Row{"id": int64(i), "v": v})
	}
	return res
}

func ids(res domain.Result) []int64 {
	out := make([]int64, len(res.Rows))
	for i, r := range res.Rows {
		out[i] = r["id"].(int64)
	}
	return out
}

func TestSort_StableAndNullsLast(t *testing.T) {
	in := rowsOf(2.0, nil, 1.0, 2.0, nil, 1.0)

	asc := app.Sort(in, domain.SortKey{Column: "v"})
	assert.Equal(t, []int64{2, 5, 0, 3, 1, 4}, ids(asc))

	desc := app.Sort(in, domain.SortKey{Column: "v", Descending: true})
	assert.Equal(t, []int64{0, 3, 2, 5, 1, 4}, ids(desc))

	// input untouched
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, ids(in))
}

func TestSort_IsIdempotent(t *testing.T) {
	once := app.Sort(rowsOf("b", "a", nil, "c", "a"), domain.SortKey{Column: "v"})
	twice := app.Sort(once, domain.SortKey{Column: "v"})
	assert.Equal(t, once, twice)
}

// Ties on the first key are broken by the second.
func TestSort_MultiKeyDirections(t *testing.T) {
	recs := []domain.Review{
		withPrice(rev("B", "C", "expensive", 5, "u", 2021), 100),
		withPrice(rev("B", "C", "cheap", 5, "u", 2021), 50),
		withPrice(rev("B", "C", "worse", 4, "u", 2021), 10),
	}
	res := app.Sort(app.Project(recs, nil),
		domain.SortKey{Column: "rating", Descending: true},
		domain.SortKey{Column: "price"},
	)
	got := []string{}
	for _, r := range res.Rows {
		got = append(got, r["product"].(string))
	}
	assert.Equal(t, []string{"cheap", "expensive", "worse"}, got)
}

func TestLimit(t *testing.T) {
	in := rowsOf(1.0, 2.0, 3.0)

	assert.Len(t, app.Limit(in, 2).Rows, 2)
	assert.Len(t, app.Limit(in, 10).Rows, 3)
	assert.Empty(t, app.Limit(in, 0).Rows)
	assert.Empty(t, app.Limit(in, -1).Rows)

	for m := 1; m <= 4; m++ {
		for n := 1; n <= m; n++ {
			assert.Equal(t, app.Limit(in, n), app.Limit(app.Limit(in, m), n), "m=%d n=%d", m, n)
		}
	}
}

func TestEvaluate_FullPipeline(t *testing.T) {
	ds := app.NewDataset(sample())
	res, err := ds.Evaluate(domain.Query{
		Filters:      []domain.Predicate{domain.In(domain.FieldCategory, "Cleanser")},
		GroupKeys:    []domain.Field{domain.FieldBrand},
		Aggregations: []domain.Aggregation{{Name: "n", Op: domain.AggCount}, {Name: "avg", Field: domain.FieldRating, Op: domain.AggMean}},
		Sort:         []domain.SortKey{{Column: "avg"}},
		Limit:        ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"brand", "n", "avg"}, res.Columns)
	assert.Equal(t, 3, res.Matched)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "CeraVe", res.Rows[0]["brand"])
}

func TestEvaluate_EmptySubsetIsAWarningNotAnError(t *testing.T) {
	ds := app.NewDataset(sample())
	res, err := ds.Evaluate(domain.Query{
		Filters:      []domain.Predicate{domain.In(domain.FieldBrand, "Nobody")},
		Aggregations: []domain.Aggregation{{Name: "n", Op: domain.AggCount}},
	})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Rows)
}

func TestEvaluate_ProjectsRecords(t *testing.T) {
	ds := app.NewDataset(sample())
	res, err := ds.Evaluate(domain.Query{Columns: []domain.Field{domain.FieldProduct, domain.FieldPrice}})
	require.NoError(t, err)
	assert.Equal(t, []string{"product", "price"}, res.Columns)
	require.Len(t, res.Rows, 4)
	assert.Equal(t, domain.Row{"product": "ProdC", "price": nil}, res.Rows[2])

	all, err := ds.Evaluate(domain.Query{})
	require.NoError(t, err)
	assert.Len(t, all.Columns, len(domain.Fields))
}

func TestEvaluate_RejectsInvalidQueries(t *testing.T) {
	ds := app.NewDataset(sample())
	cases := map[string]struct {
		q    domain.Query
		want error
	}{
		"unknown filter field": {domain.Query{Filters: []domain.Predicate{domain.In("shade", "x")}}, domain.ErrUnknownField},
		"range on text":        {domain.Query{Filters: []domain.Predicate{domain.Range(domain.FieldBrand, nil, nil)}}, domain.ErrInvalidQuery},
		"inverted range":       {domain.Query{Filters: []domain.Predicate{domain.Range(domain.FieldRating, ptr(5.0), ptr(1.0))}}, domain.ErrInvalidQuery},
		"eq without value":     {domain.Query{Filters: []domain.Predicate{domain.Eq(domain.FieldBrand, nil)}}, domain.ErrInvalidQuery},
		"unknown op":           {domain.Query{Filters: []domain.Predicate{{Field: domain.FieldBrand, Op: "like"}}}, domain.ErrInvalidQuery},
		"mean over text":       {domain.Query{Aggregations: []domain.Aggregation{{Name: "m", Field: domain.FieldBrand, Op: domain.AggMean}}}, domain.ErrInvalidQuery},
		"duplicate output": {domain.Query{
			GroupKeys:    []domain.Field{domain.FieldBrand},
			Aggregations: []domain.Aggregation{{Name: "brand", Op: domain.AggCount}},
		}, domain.ErrInvalidQuery},
		"sort on missing column": {domain.Query{
			GroupKeys: []domain.Field{domain.FieldBrand},
			Sort:      []domain.SortKey{{Column: "rating"}},
		}, domain.ErrInvalidQuery},
		"unknown group key": {domain.Query{GroupKeys: []domain.Field{"shade"}}, domain.ErrUnknownField},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ds.Evaluate(tc.q)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
