package skiff

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them with errors.Is.
var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrKeyNotFound is returned when a group key or label is absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidLevel is returned for an unknown or malformed index level.
	ErrInvalidLevel = errors.New("invalid level")

	// ErrInvalidArgument is returned for option combinations that make no sense
	// for the receiver, such as AsIndex=false on a Series grouping.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLengthMismatch is returned when an array does not line up with the rows.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrUnsupportedDType is returned when an operation cannot handle a dtype.
	ErrUnsupportedDType = errors.New("unsupported dtype")

	// ErrNotReduced is returned when an aggregation function does not return a scalar.
	ErrNotReduced = errors.New("function does not reduce")

	// ErrEmptyKeys is returned by a grouping with no keys.
	ErrEmptyKeys = errors.New("no grouping keys")
)

// SchemaError represents a schema mismatch error
type SchemaError struct {
	Message string
	Index   int
}

func (e *SchemaError) Error() string {
	return e.Message
}

// ColumnNotFoundError represents a column not found error
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return "column not found: " + e.Name
}

// Is reports ColumnNotFoundError as ErrColumnNotFound.
func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// KeyNotFoundError is returned when a group key does not exist
type KeyNotFoundError struct {
	Key Key
}

func (e *KeyNotFoundError) Error() string {
	return "key not found: " + e.Key.String()
}

// Is reports KeyNotFoundError as ErrKeyNotFound.
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// DTypeError reports an operation applied to a column of the wrong type
type DTypeError struct {
	Op     string
	Column string
	DType  DType
}

func (e *DTypeError) Error() string {
	return fmt.Sprintf("%s: column %q has unsupported dtype %s", e.Op, e.Column, e.DType)
}

// Is reports DTypeError as ErrUnsupportedDType.
func (e *DTypeError) Is(target error) bool {
	return target == ErrUnsupportedDType
}

func fmtNotReduced(column string, v interface{}) error {
	return fmt.Errorf("%w: column %q produced %T", ErrNotReduced, column, v)
}
