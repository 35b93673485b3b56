package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"skincare_reviews/internal/domain"
)

type ImportService struct {
	src  domain.RowSource
	sink domain.RowSink
}

func NewImportService(src domain.RowSource, sink domain.RowSink) *ImportService {
	return &ImportService{src: src, sink: sink}
}

type ImportStats struct {
	Rows          int
	Batches       int
	FailedBatches int
}

// Import copies every source row into the sink in canonical column order.
// Batches are written concurrently, at most workers at a time. Rows are not
// cleaned here; cleaning happens when a dataset is loaded from the sink.
func (s *ImportService) Import(ctx context.Context, batchSize, workers int) (ImportStats, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	if workers <= 0 {
		workers = 1
	}

	raw, err := s.src.ReadRows(ctx)
	if err != nil {
		return ImportStats{}, &domain.LoadError{Source: s.src.Name(), Err: err}
	}
	idx, err := resolveColumns(raw.Columns)
	if err != nil {
		return ImportStats{}, &domain.LoadError{Source: s.src.Name(), Err: err}
	}

	rows := make([][]string, len(raw.Records))
	for i, rec := range raw.Records {
		rows[i] = canonicalRecord(idx, rec)
	}

	stats := ImportStats{Rows: len(rows)}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed int32

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		batch := rows[start:end]
		stats.Batches++

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return stats, fmt.Errorf("import aborted: %w", err)
		}
		wg.Add(1)
		go func(from int, batch [][]string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.sink.InsertRows(ctx, batch); err != nil {
				atomic.AddInt32(&failed, 1)
				log.Warn().Int("offset", from).Int("rows", len(batch)).Err(err).Msg("batch insert failed")
				return
			}
			log.Debug().Int("offset", from).Int("rows", len(batch)).Msg("batch inserted")
		}(start, batch)
	}

	wg.Wait()
	stats.FailedBatches = int(atomic.LoadInt32(&failed))
	if stats.FailedBatches > 0 {
		return stats, fmt.Errorf("%d of %d batches failed", stats.FailedBatches, stats.Batches)
	}
	return stats, nil
}

func canonicalRecord(idx columnIndex, rec []string) []string {
	out := make([]string, len(domain.CanonicalFields))
	for i, f := range domain.CanonicalFields {
		out[i] = idx.cell(rec, f)
	}
	return out
}
