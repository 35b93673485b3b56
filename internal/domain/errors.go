package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidQuery  = errors.New("invalid query")
	ErrUnknownField  = errors.New("unknown field")
	ErrMissingColumn = errors.New("missing mandatory column")
)

// LoadError is fatal: the source could not be read, so no dataset exists.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
