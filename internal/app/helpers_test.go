package app_test

import (
	"context"
	"encoding/json"
	"time"

	"skincare_reviews/internal/domain"
)

func ptr[T any](v T) *T { return &v }

var header = []string{"Product", "Review", "Rating", "Merk", "Category", "Price", "UserName", "PostDate", "SkinCond_Age"}

func raw(records ...[]string) domain.RawRows {
	return domain.RawRows{Columns: header, Records: records}
}

// rev builds a clean review; year 0 means an unknown post date.
func rev(brand, category, product string, rating float64, user string, year int) domain.Review {
	r := domain.Review{
		Product:    product,
		Brand:      brand,
		Category:   category,
		Rating:     rating,
		ReviewText: "review of " + product,
		UserName:   user,
	}
	if year != 0 {
		d := time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
		r.PostDate = &d
		r.Year = &year
	}
	return r
}

func withPrice(r domain.Review, p float64) domain.Review {
	r.Price = &p
	return r
}

// ---- fakes ----

type fakeCache struct {
	store map[string][]byte
	hits  int
	sets  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	c.sets++
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type fakeSource struct {
	rows domain.RawRows
	err  error
}

func (f fakeSource) Name() string { return "fake" }
func (f fakeSource) ReadRows(ctx context.Context) (domain.RawRows, error) {
	return f.rows, f.err
}
