// In file: internal/summary/errors.go
package summary

import (
	"errors"
	"fmt"
)

// Kind classifies why a summary could not be computed.
type Kind int

const (
	// TableUnavailable means no table has been fetched yet.
	TableUnavailable Kind = iota + 1
	// ColumnMissing means the table does not carry a column the summary reads.
	ColumnMissing
	// EmptyAggregate means a mean or max had no values to work on.
	EmptyAggregate
)

func (k Kind) String() string {
	switch k {
	case TableUnavailable:
		return "table unavailable"
	case ColumnMissing:
		return "column missing"
	case EmptyAggregate:
		return "empty aggregate"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is; every *Error unwraps to the one matching its Kind.
var (
	ErrTableUnavailable = errors.New("claims table unavailable: fetch data first")
	ErrColumnMissing    = errors.New("column missing from claims table")
	ErrEmptyAggregate   = errors.New("no values to aggregate")
)

// Error is returned by every summary operation.
type Error struct {
	Op     string
	Kind   Kind
	Column string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ColumnMissing:
		return fmt.Sprintf("%s: column %q missing from claims table", e.Op, e.Column)
	case EmptyAggregate:
		return fmt.Sprintf("%s: no %s values to aggregate", e.Op, e.Column)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Unwrap())
	}
}

func (e *Error) Unwrap() error {
	switch e.Kind {
	case TableUnavailable:
		return ErrTableUnavailable
	case ColumnMissing:
		return ErrColumnMissing
	case EmptyAggregate:
		return ErrEmptyAggregate
	}
	return nil
}

// KindOf returns the Kind of a summary error, or 0 if err is not one.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
