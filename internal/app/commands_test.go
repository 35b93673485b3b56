package app_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skincare_reviews/internal/app"
	"skincare_reviews/internal/domain"
)

type memSink struct {
	mu      sync.Mutex
	rows    [][]string
	batches int
	failOn  string // product name that makes a batch fail
}

func (s *memSink) InsertRows(ctx context.Context, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if s.failOn != "" && r[0] == s.failOn {
			return errors.New("constraint violation")
		}
	}
	s.rows = append(s.rows, rows...)
	s.batches++
	return nil
}

func TestImport_WritesCanonicalRowsInBatches(t *testing.T) {
	src := fakeSource{rows: domain.RawRows{
		// shuffled header with an alias for brand
		Columns: []string{"Brand", "Category", "Product", "Rating", "Review", "PostDate"},
		Records: [][]string{
			{"Wardah", "Toner", "P1", "4", "ok", "2021-01-01"},
			{"Wardah", "Toner", "P2", "", "no rating", ""},
			{"Avoskin", "Serum", "P3", "5", "great", ""},
		},
	}}
	sink := &memSink{}

	stats, err := app.NewImportService(src, sink).Import(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, app.ImportStats{Rows: 3, Batches: 2}, stats)
	assert.Equal(t, 2, sink.batches)
	require.Len(t, sink.rows, 3, "rows are stored raw; cleaning happens on load")

	sort.Slice(sink.rows, func(i, j int) bool { return sink.rows[i][0] < sink.rows[j][0] })
	assert.Equal(t, []string{"P1", "ok", "4", "Wardah", "Toner", "", "", "2021-01-01", ""}, sink.rows[0])
}

func TestImport_ReportsFailedBatches(t *testing.T) {
	src := fakeSource{rows: raw(
		[]string{"A", "x", "4", "B", "C", "", "", "", ""},
		[]string{"BAD", "x", "4", "B", "C", "", "", "", ""},
		[]string{"D", "x", "4", "B", "C", "", "", "", ""},
	)}
	sink := &memSink{failOn: "BAD"}

	stats, err := app.NewImportService(src, sink).Import(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, 3, stats.Batches)
	assert.Equal(t, 1, stats.FailedBatches)
	assert.Len(t, sink.rows, 2)
}

func TestImport_SourceErrors(t *testing.T) {
	svc := app.NewImportService(fakeSource{err: errors.New("boom")}, &memSink{})
	_, err := svc.Import(context.Background(), 0, 0)
	var le *domain.LoadError
	require.ErrorAs(t, err, &le)

	svc = app.NewImportService(fakeSource{rows: domain.RawRows{Columns: []string{"Product"}}}, &memSink{})
	_, err = svc.Import(context.Background(), 0, 0)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
}
