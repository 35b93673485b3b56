package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"skincare_reviews/internal/domain"
)

// Dataset is the cleaned, immutable collection of reviews. It is safe for
// concurrent readers; nothing mutates it after Load.
type Dataset struct {
	id       string
	source   string
	loadedAt time.Time
	records  []domain.Review
	dropped  int
}

// Load cleans raw rows into a Dataset and reports how many rows were dropped
// for missing mandatory fields.
func Load(raw domain.RawRows) (*Dataset, int, error) {
	idx, err := resolveColumns(raw.Columns)
	if err != nil {
		return nil, 0, err
	}
	ds := &Dataset{
		id:       uuid.NewString(),
		loadedAt: time.Now().UTC(),
		records:  make([]domain.Review, 0, len(raw.Records)),
	}
	for _, rec := range raw.Records {
		r, ok := mapReview(idx, rec)
		if !ok {
			ds.dropped++
			continue
		}
		ds.records = append(ds.records, r)
	}
	return ds, ds.dropped, nil
}

// LoadFrom reads src and loads it. Every failure is a *domain.LoadError.
func LoadFrom(ctx context.Context, src domain.RowSource) (*Dataset, int, error) {
	raw, err := src.ReadRows(ctx)
	if err != nil {
		var le *domain.LoadError
		if errors.As(err, &le) {
			return nil, 0, err
		}
		return nil, 0, &domain.LoadError{Source: src.Name(), Err: err}
	}
	ds, dropped, err := Load(raw)
	if err != nil {
		return nil, 0, &domain.LoadError{Source: src.Name(), Err: err}
	}
	ds.source = src.Name()
	log.Info().
		Str("source", ds.source).
		Str("dataset_id", ds.id).
		Int("kept", ds.Len()).
		Int("dropped", dropped).
		Msg("dataset loaded")
	return ds, dropped, nil
}

// NewDataset wraps already-clean records.
func NewDataset(records []domain.Review) *Dataset {
	return &Dataset{id: uuid.NewString(), loadedAt: time.Now().UTC(), records: cloneAll(records)}
}

func (d *Dataset) ID() string          { return d.id }
func (d *Dataset) Source() string      { return d.source }
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }
func (d *Dataset) Len() int            { return len(d.records) }
func (d *Dataset) Dropped() int        { return d.dropped }

// Records returns a deep copy of every record in load order.
func (d *Dataset) Records() []domain.Review {
	return cloneAll(d.records)
}

func cloneAll(records []domain.Review) []domain.Review {
	out := make([]domain.Review, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Evaluate runs q: filter, then group/aggregate (or project), sort, limit.
func (d *Dataset) Evaluate(q domain.Query) (domain.Result, error) {
	if err := q.Validate(); err != nil {
		return domain.Result{}, err
	}
	subset := Filter(d.records, q.Filters)

	var res domain.Result
	if q.Grouped() {
		res = Aggregate(subset, q.GroupKeys, q.Aggregations)
	} else {
		res = Project(subset, q.Columns)
	}
	res = Sort(res, q.Sort...)
	if q.Limit != nil {
		res = Limit(res, *q.Limit)
	}
	return res, nil
}

// DistinctValues returns the sorted non-null values of f as strings.
func (d *Dataset) DistinctValues(f domain.Field) ([]string, error) {
	return distinctValues(d.records, f)
}

func distinctValues(records []domain.Review, f domain.Field) ([]string, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, f)
	}
	seen := map[string]struct{}{}
	var vals []any
	for _, r := range records {
		v := r.Value(f)
		if v == nil {
			continue
		}
		k := keyOf(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		vals = append(vals, v)
	}
	sort.SliceStable(vals, func(i, j int) bool { return compareValues(vals[i], vals[j]) < 0 })
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = formatValue(v)
	}
	return out, nil
}
