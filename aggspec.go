package skiff

import (
	"fmt"
	"strings"
)

// ============================================================================
// Aggregation Types
// ============================================================================

// AggType represents aggregation function types
type AggType int

const (
	AggTypeSum AggType = iota
	AggTypeProd
	AggTypeMean
	AggTypeMedian
	AggTypeVar
	AggTypeStd
	AggTypeSem
	AggTypeMin
	AggTypeMax
	AggTypeFirst
	AggTypeLast
	AggTypeNth
	AggTypeCount
	AggTypeSize
	AggTypeNUnique
	AggTypeCustom
)

func (t AggType) String() string {
	switch t {
	case AggTypeSum:
		return "sum"
	case AggTypeProd:
		return "prod"
	case AggTypeMean:
		return "mean"
	case AggTypeMedian:
		return "median"
	case AggTypeVar:
		return "var"
	case AggTypeStd:
		return "std"
	case AggTypeSem:
		return "sem"
	case AggTypeMin:
		return "min"
	case AggTypeMax:
		return "max"
	case AggTypeFirst:
		return "first"
	case AggTypeLast:
		return "last"
	case AggTypeNth:
		return "nth"
	case AggTypeCount:
		return "count"
	case AggTypeSize:
		return "size"
	case AggTypeNUnique:
		return "nunique"
	case AggTypeCustom:
		return "custom"
	default:
		return "?"
	}
}

// ParseAggType maps a function name such as "mean" to its AggType
func ParseAggType(name string) (AggType, error) {
	for t := AggTypeSum; t < AggTypeCustom; t++ {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown aggregation %q", ErrInvalidArgument, name)
}

// numericOnly reports whether the aggregation only accepts numeric columns.
func (t AggType) numericOnly() bool {
	switch t {
	case AggTypeSum, AggTypeProd, AggTypeMean, AggTypeMedian, AggTypeVar, AggTypeStd, AggTypeSem:
		return true
	}
	return false
}

// accepts reports whether the aggregation can be computed over dtype.
func (t AggType) accepts(dtype DType) bool {
	if t.numericOnly() {
		return dtype.summable()
	}
	return true
}

// ============================================================================
// Aggregation Specs
// ============================================================================

// AggSpec describes one output column of GroupBy.Agg
type AggSpec struct {
	column string
	fn     AggType
	n      int
	custom func(*Series) (interface{}, error)
	alias  string
}

// Alias sets the output column name
func (a AggSpec) Alias(name string) AggSpec {
	a.alias = name
	return a
}

// Column returns the input column ("" for group size)
func (a AggSpec) Column() string {
	return a.column
}

// Type returns the aggregation function
func (a AggSpec) Type() AggType {
	return a.fn
}

// AggSum sums a column
func AggSum(column string) AggSpec { return AggSpec{column: column, fn: AggTypeSum} }

// AggProd multiplies a column
func AggProd(column string) AggSpec { return AggSpec{column: column, fn: AggTypeProd} }

// AggMean averages a column
func AggMean(column string) AggSpec { return AggSpec{column: column, fn: AggTypeMean} }

// AggMedian takes the median of a column
func AggMedian(column string) AggSpec { return AggSpec{column: column, fn: AggTypeMedian} }

// AggVar takes the sample variance of a column
func AggVar(column string) AggSpec { return AggSpec{column: column, fn: AggTypeVar} }

// AggStd takes the sample standard deviation of a column
func AggStd(column string) AggSpec { return AggSpec{column: column, fn: AggTypeStd} }

// AggSem takes the standard error of the mean of a column
func AggSem(column string) AggSpec { return AggSpec{column: column, fn: AggTypeSem} }

// AggMin takes the minimum of a column
func AggMin(column string) AggSpec { return AggSpec{column: column, fn: AggTypeMin} }

// AggMax takes the maximum of a column
func AggMax(column string) AggSpec { return AggSpec{column: column, fn: AggTypeMax} }

// AggFirst takes the first present value of a column
func AggFirst(column string) AggSpec { return AggSpec{column: column, fn: AggTypeFirst} }

// AggLast takes the last present value of a column
func AggLast(column string) AggSpec { return AggSpec{column: column, fn: AggTypeLast} }

// AggNth takes the n-th row of each group (negative counts from the end)
func AggNth(column string, n int) AggSpec {
	return AggSpec{column: column, fn: AggTypeNth, n: n}
}

// AggCount counts present values of a column. Without a column it counts rows.
func AggCount(column ...string) AggSpec {
	if len(column) == 0 {
		return AggSpec{fn: AggTypeSize, alias: "count"}
	}
	return AggSpec{column: column[0], fn: AggTypeCount}
}

// AggSize counts rows per group
func AggSize() AggSpec { return AggSpec{fn: AggTypeSize, alias: "size"} }

// AggNUnique counts distinct present values of a column
func AggNUnique(column string) AggSpec { return AggSpec{column: column, fn: AggTypeNUnique} }

// AggCustom reduces a column with fn, which receives each group's values
// and must return a scalar (nil for missing).
func AggCustom(column string, fn func(*Series) (interface{}, error)) AggSpec {
	return AggSpec{column: column, fn: AggTypeCustom, custom: fn}
}

// AggNamed builds a spec from a function name such as "mean"
func AggNamed(column, fn string) (AggSpec, error) {
	t, err := ParseAggType(fn)
	if err != nil {
		return AggSpec{}, err
	}
	if t == AggTypeSize {
		return AggSpec{fn: t, alias: column}, nil
	}
	return AggSpec{column: column, fn: t}, nil
}

// outputNames resolves result column names: the alias, else the input column
// name, else "column_func" when two specs would otherwise collide.
func outputNames(specs []AggSpec) []string {
	names := make([]string, len(specs))
	counts := make(map[string]int, len(specs))
	for i, s := range specs {
		names[i] = s.alias
		if names[i] == "" {
			names[i] = s.column
		}
		if names[i] == "" {
			names[i] = s.fn.String()
		}
		counts[names[i]]++
	}
	for i, s := range specs {
		if s.alias == "" && counts[names[i]] > 1 {
			names[i] = s.column + "_" + s.fn.String()
		}
	}
	return names
}
