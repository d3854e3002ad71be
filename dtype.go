package skiff

import (
	"fmt"
	"strings"
)

// DType represents the data type of a Series
type DType uint8

const (
	// Numeric types
	Float64 DType = iota
	Float32
	Int64
	Int32
	Int16
	Int8

	// Other types
	Bool
	String
	DateTime // nanoseconds since the Unix epoch, UTC

	// Categorical type (dictionary-encoded strings)
	Categorical

	// Null is the type of a column whose values are all missing
	Null
)

// String returns the string representation of the DType
func (d DType) String() string {
	switch d {
	case Float64:
		return "Float64"
	case Float32:
		return "Float32"
	case Int64:
		return "Int64"
	case Int32:
		return "Int32"
	case Int16:
		return "Int16"
	case Int8:
		return "Int8"
	case Bool:
		return "Bool"
	case String:
		return "String"
	case DateTime:
		return "DateTime"
	case Categorical:
		return "Categorical"
	case Null:
		return "Null"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// ParseDType parses the name produced by DType.String, case-insensitively.
func ParseDType(name string) (DType, error) {
	for d := Float64; d <= Null; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return Null, fmt.Errorf("%w: unknown dtype %q", ErrInvalidArgument, name)
}

// IsNumeric returns true if the dtype is a numeric type
func (d DType) IsNumeric() bool {
	switch d {
	case Float64, Float32, Int64, Int32, Int16, Int8:
		return true
	default:
		return false
	}
}

// IsFloat returns true if the dtype is a floating point type
func (d DType) IsFloat() bool {
	return d == Float64 || d == Float32
}

// IsInteger returns true if the dtype is an integer type
func (d DType) IsInteger() bool {
	switch d {
	case Int64, Int32, Int16, Int8:
		return true
	default:
		return false
	}
}

// IsTemporal returns true for date/time types
func (d DType) IsTemporal() bool {
	return d == DateTime
}

// IsCategorical returns true if the dtype is Categorical
func (d DType) IsCategorical() bool {
	return d == Categorical
}

// summable reports whether sum-like reductions accept the dtype.
// Bool counts as 0/1.
func (d DType) summable() bool {
	return d.IsNumeric() || d == Bool
}

// Size returns the size in bytes of the dtype
func (d DType) Size() int {
	switch d {
	case Float64, Int64, DateTime:
		return 8
	case Float32, Int32:
		return 4
	case Int16:
		return 2
	case Int8, Bool:
		return 1
	case String, Categorical:
		return -1 // Variable size
	default:
		return 0
	}
}

// Schema represents the schema of a DataFrame
type Schema struct {
	names  []string
	dtypes []DType
}

// NewSchema creates a new schema from column names and types
func NewSchema(names []string, dtypes []DType) (*Schema, error) {
	if len(names) != len(dtypes) {
		return nil, fmt.Errorf("%w: names and dtypes must have same length: %d != %d",
			ErrLengthMismatch, len(names), len(dtypes))
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column name: %s", ErrInvalidArgument, name)
		}
		seen[name] = true
	}

	return &Schema{
		names:  append([]string{}, names...),
		dtypes: append([]DType{}, dtypes...),
	}, nil
}

// Len returns the number of columns in the schema
func (s *Schema) Len() int {
	return len(s.names)
}

// Names returns the column names
func (s *Schema) Names() []string {
	return append([]string{}, s.names...)
}

// DTypes returns the column data types
func (s *Schema) DTypes() []DType {
	return append([]DType{}, s.dtypes...)
}

// GetDType returns the dtype for a column name
func (s *Schema) GetDType(name string) (DType, bool) {
	if i, ok := s.GetIndex(name); ok {
		return s.dtypes[i], true
	}
	return Null, false
}

// GetIndex returns the index of a column name
func (s *Schema) GetIndex(name string) (int, bool) {
	for i, n := range s.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// String returns a string representation of the schema
func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("Schema{\n")
	for i, name := range s.names {
		fmt.Fprintf(&b, "  %s: %s\n", name, s.dtypes[i])
	}
	b.WriteString("}")
	return b.String()
}
