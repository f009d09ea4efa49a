package aggregator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/store"
)

var (
	// ErrInvalidQuery is matched by every QueryError.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNoSourceIndex is matched by every IndexError.
	ErrNoSourceIndex = errors.New("no source index")

	// ErrStoreUnavailable is the store's availability error, surfaced as is.
	ErrStoreUnavailable = store.ErrUnavailable
)

// QueryError reports malformed input. No store query was issued.
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidQuery, e.Reason)
}

func (e *QueryError) Unwrap() error {
	return ErrInvalidQuery
}

// IndexError reports that none of the requested patterns matched an index.
type IndexError struct {
	Patterns []string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: none of [%s] matched an index", ErrNoSourceIndex, strings.Join(e.Patterns, ", "))
}

func (e *IndexError) Unwrap() error {
	return ErrNoSourceIndex
}
