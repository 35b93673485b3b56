package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skincare_reviews/internal/app"
	"skincare_reviews/internal/domain"
)

func TestQueryService_CachesByDatasetAndQuery(t *testing.T) {
	ctx := context.Background()
	ds := app.NewDataset(sample())
	cache := &fakeCache{}
	svc := app.NewQueryService(ds, cache, time.Minute)

	q := domain.Query{
		GroupKeys:    []domain.Field{domain.FieldBrand},
		Aggregations: []domain.Aggregation{{Name: "n", Op: domain.AggCount}},
	}
	first, err := svc.Query(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)
	for k := range cache.store {
		assert.True(t, strings.HasPrefix(k, "query:"+ds.ID()+":"), k)
	}

	second, err := svc.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.Columns, second.Columns)
	require.Len(t, second.Rows, len(first.Rows))
	// counts come back from JSON as float64
	assert.EqualValues(t, 2, second.Rows[0]["n"])

	// a different dataset never shares keys
	other := app.NewQueryService(app.NewDataset(sample()), cache, time.Minute)
	_, err = other.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets)
}

func TestQueryService_InvalidQueryIsNotCached(t *testing.T) {
	cache := &fakeCache{}
	svc := app.NewQueryService(app.NewDataset(sample()), cache, time.Minute)

	_, err := svc.Query(context.Background(), domain.Query{GroupKeys: []domain.Field{"shade"}})
	assert.ErrorIs(t, err, domain.ErrUnknownField)
	assert.Zero(t, cache.sets)
}

func TestQueryService_WorksWithoutCache(t *testing.T) {
	svc := app.NewQueryService(app.NewDataset(sample()), nil, 0)
	res, err := svc.Query(context.Background(), domain.Query{Columns: []domain.Field{domain.FieldProduct}})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 4)
}

func TestQueryService_Distinct(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{}
	ds := app.NewDataset(sample())
	svc := app.NewQueryService(ds, cache, time.Minute)

	vals, err := svc.Distinct(ctx, domain.FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cleanser", "Moisturizer"}, vals)
	assert.Contains(t, cache.store, "distinct:"+ds.ID()+":category")

	again, err := svc.Distinct(ctx, domain.FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, vals, again)
	assert.Equal(t, 1, cache.hits)

	_, err = svc.Distinct(ctx, "shade")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}
