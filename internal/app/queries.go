package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"skincare_reviews/internal/domain"
)

type QueryService struct {
	ds       *Dataset
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewQueryService serves queries against ds. cache may be nil.
func NewQueryService(ds *Dataset, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{ds: ds, cache: c, cacheTTL: ttl}
}

func (s *QueryService) Dataset() *Dataset { return s.ds }

// Query evaluates q, serving repeated queries from the cache. Keys embed the
// dataset id, so a reload never sees results of a previous load.
func (s *QueryService) Query(ctx context.Context, q domain.Query) (domain.Result, error) {
	if err := q.Validate(); err != nil {
		return domain.Result{}, err
	}
	key, kerr := s.queryKey(q)

	var out domain.Result
	if kerr == nil && s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	res, err := s.ds.Evaluate(q)
	if err != nil {
		return domain.Result{}, err
	}

	if kerr == nil && s.cache != nil {
		// optional size guard
		if b, _ := json.Marshal(res); len(b) < 1_000_000 {
			if err := s.cache.Set(ctx, key, res, int(s.cacheTTL.Seconds())); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("query cache set failed")
			}
		}
	}
	return res, nil
}

func (s *QueryService) Distinct(ctx context.Context, f domain.Field) ([]string, error) {
	key := fmt.Sprintf("distinct:%s:%s", s.ds.ID(), f)
	var out []string
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	vals, err := s.ds.DistinctValues(f)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, vals, int(s.cacheTTL.Seconds()))
	}
	return vals, nil
}

func (s *QueryService) queryKey(q domain.Query) (string, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b)
	return fmt.Sprintf("query:%s:%s", s.ds.ID(), hex.EncodeToString(sum[:])), nil
}
