package domain

import "context"

// RawRows is an untyped table as read from a source: a header and its records.
type RawRows struct {
	Columns []string
	Records [][]string
}

// RowSource is anything the dataset can be loaded from (file, URL, database).
type RowSource interface {
	Name() string
	ReadRows(ctx context.Context) (RawRows, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// RowSink stores raw records laid out in CanonicalFields order.
type RowSink interface {
	InsertRows(ctx context.Context, rows [][]string) error
}
