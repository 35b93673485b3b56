package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"skincare_reviews/internal/domain"
)

var ErrNoHeader = errors.New("csv: no header row")

// Source reads the review dataset from a delimited file on disk.
type Source struct {
	path  string
	comma rune
}

// New returns a Source for path; ".tsv" files are tab separated.
func New(path string) *Source {
	comma := ','
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		comma = '\t'
	}
	return &Source{path: path, comma: comma}
}

func (s *Source) Name() string { return s.path }

func (s *Source) ReadRows(ctx context.Context) (domain.RawRows, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawRows{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return domain.RawRows{}, &domain.LoadError{Source: s.path, Err: err}
	}
	defer f.Close()

	rows, err := Parse(f, s.comma)
	if err != nil {
		return domain.RawRows{}, &domain.LoadError{Source: s.path, Err: err}
	}
	return rows, nil
}

// Parse reads a header row followed by records. Rows may be ragged; short
// rows are padded later by the column resolver.
func Parse(r io.Reader, comma rune) (domain.RawRows, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return domain.RawRows{}, ErrNoHeader
	}
	if err != nil {
		return domain.RawRows{}, fmt.Errorf("read header: %w", err)
	}

	out := domain.RawRows{Columns: header}
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return domain.RawRows{}, fmt.Errorf("read line %d: %w", line, err)
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}
