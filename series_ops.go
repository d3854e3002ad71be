package skiff

import (
	"fmt"
	"math"
	"sort"
)

// ============================================================================
// Concatenation
// ============================================================================

// commonDType returns the dtype that can hold values of every input dtype.
// Null adopts the other dtype, mixed numerics widen to Int64 or Float64 and
// anything else falls back to String.
func commonDType(dtypes []DType) DType {
	out := Null
	for _, d := range dtypes {
		switch {
		case d == Null:
		case out == Null:
			out = d
		case out == d:
		case out.IsNumeric() && d.IsNumeric():
			if out.IsFloat() || d.IsFloat() {
				out = Float64
			} else {
				out = Int64
			}
		case (out == String && d == Categorical) || (out == Categorical && d == String):
			out = String
		default:
			return String
		}
	}
	return out
}

func sameCategories(parts []*Series) bool {
	var cats []string
	found := false
	for _, p := range parts {
		if p.dtype != Categorical {
			continue
		}
		if !found {
			cats, found = p.categories, true
			continue
		}
		if len(p.categories) != len(cats) {
			return false
		}
		for i := range cats {
			if cats[i] != p.categories[i] {
				return false
			}
		}
	}
	return true
}

// ConcatSeries appends series end to end, promoting to a common dtype.
// The result keeps a row index when any input has one.
func ConcatSeries(parts ...*Series) (*Series, error) {
	if len(parts) == 0 {
		return NewSeriesNull("", 0), nil
	}
	dtypes := make([]DType, len(parts))
	name := parts[0].name
	hasIndex := false
	for i, p := range parts {
		dtypes[i] = p.dtype
		if p.name != name {
			name = ""
		}
		if p.index != nil {
			hasIndex = true
		}
	}
	dtype := commonDType(dtypes)
	if dtype == Categorical && !sameCategories(parts) {
		dtype = String
	}

	var out *Series
	total := 0
	for _, p := range parts {
		total += p.Len()
	}
	if dtype != Null && allOfDType(parts, dtype) {
		out = concatSame(parts, dtype, total)
	} else {
		var cats []string
		if dtype == Categorical {
			for _, p := range parts {
				if p.dtype == Categorical {
					cats = p.categories
					break
				}
			}
		}
		vals := make([]interface{}, 0, total)
		for _, p := range parts {
			vals = append(vals, p.Values()...)
		}
		out = newSeriesOfDType(name, dtype, vals, cats)
	}
	out.name = name

	if hasIndex {
		idx := parts[0].Index()
		for _, p := range parts[1:] {
			var err error
			if idx, err = idx.Append(p.Index()); err != nil {
				return nil, err
			}
		}
		out.index = idx
	}
	return out, nil
}

func allOfDType(parts []*Series, dtype DType) bool {
	for _, p := range parts {
		if p.dtype != dtype {
			return false
		}
	}
	return true
}

func concatSame(parts []*Series, dtype DType, total int) *Series {
	out := &Series{dtype: dtype, categories: parts[0].categories}
	switch parts[0].data.(type) {
	case []float64:
		out.data = concatTyped[float64](parts, total)
	case []float32:
		out.data = concatTyped[float32](parts, total)
	case []int64:
		out.data = concatTyped[int64](parts, total)
	case []int32:
		out.data = concatTyped[int32](parts, total)
	case []int16:
		out.data = concatTyped[int16](parts, total)
	case []int8:
		out.data = concatTyped[int8](parts, total)
	case []bool:
		out.data = concatTyped[bool](parts, total)
	case []string:
		out.data = concatTyped[string](parts, total)
	}
	masked := false
	for _, p := range parts {
		if p.valid != nil {
			masked = true
		}
	}
	if masked {
		valid := make([]bool, 0, total)
		for _, p := range parts {
			if p.valid != nil {
				valid = append(valid, p.valid...)
			} else {
				valid = append(valid, allValid(p.Len())...)
			}
		}
		out.valid = valid
	}
	return out
}

func concatTyped[T any](parts []*Series, total int) []T {
	out := make([]T, 0, total)
	for _, p := range parts {
		out = append(out, p.data.([]T)...)
	}
	return out
}

// ============================================================================
// Ordering and uniqueness
// ============================================================================

// Argsort returns the positions that sort the series (stable, missing last)
func (s *Series) Argsort(ascending bool) []int {
	pos := seqInts(s.Len())
	asc := []bool{ascending}
	cols := []*Series{s}
	sort.SliceStable(pos, func(a, b int) bool {
		return compareRows(cols, asc, pos[a], pos[b]) < 0
	})
	return pos
}

// Sort returns the series sorted by value, keeping row labels with their values
func (s *Series) Sort(ascending bool) *Series {
	return s.Take(s.Argsort(ascending))
}

// Unique returns distinct values in order of first appearance, missing included once
func (s *Series) Unique() *Series {
	f := factorizeLevel(s, false, false, true)
	return f.uniques
}

// ============================================================================
// Arithmetic
// ============================================================================

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
	opPow
)

func applyFloat(op arithOp, a, b float64) float64 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	default:
		return math.Pow(a, b)
	}
}

func applyInt(op arithOp, a, b int64) (int64, bool) {
	switch op {
	case opAdd:
		return addInt64(a, b)
	case opSub:
		if b == math.MinInt64 {
			return 0, false
		}
		return addInt64(a, -b)
	default:
		return mulInt64(a, b)
	}
}

func (s *Series) arith(op arithOp, other *Series) (*Series, error) {
	if other.Len() != s.Len() {
		return nil, fmt.Errorf("%w: %d values vs %d", ErrLengthMismatch, s.Len(), other.Len())
	}
	if !s.dtype.summable() {
		return nil, &DTypeError{Op: "arithmetic", Column: s.name, DType: s.dtype}
	}
	if !other.dtype.summable() {
		return nil, &DTypeError{Op: "arithmetic", Column: other.name, DType: other.dtype}
	}
	n := s.Len()
	if s.dtype.IsInteger() && other.dtype.IsInteger() && op != opDiv && op != opPow {
		a, b := s.int64s(), other.int64s()
		out := make([]int64, n)
		valid := make([]bool, n)
		exact := true
		for i := range out {
			if s.IsNull(i) || other.IsNull(i) {
				continue
			}
			var ok bool
			if out[i], ok = applyInt(op, a[i], b[i]); !ok {
				exact = false
				break
			}
			valid[i] = true
		}
		if exact {
			return &Series{name: s.name, dtype: Int64, data: out, valid: normalizeValid(valid), index: s.index}, nil
		}
	}
	a, b := s.float64s(), other.float64s()
	out := make([]float64, n)
	for i := range out {
		out[i] = applyFloat(op, a[i], b[i])
	}
	return &Series{name: s.name, dtype: Float64, data: out, index: s.index}, nil
}

func (s *Series) scalar(op arithOp, v float64) (*Series, error) {
	other := NewSeriesFloat64("", make([]float64, s.Len()))
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		ints := make([]int64, s.Len())
		for i := range ints {
			ints[i] = int64(v)
		}
		other = NewSeriesInt64("", ints)
	} else {
		f := other.Float64()
		for i := range f {
			f[i] = v
		}
	}
	return s.arith(op, other)
}

// Add adds two series element-wise
func (s *Series) Add(other *Series) (*Series, error) { return s.arith(opAdd, other) }

// Sub subtracts other element-wise
func (s *Series) Sub(other *Series) (*Series, error) { return s.arith(opSub, other) }

// Mul multiplies two series element-wise
func (s *Series) Mul(other *Series) (*Series, error) { return s.arith(opMul, other) }

// Div divides element-wise, always producing Float64
func (s *Series) Div(other *Series) (*Series, error) { return s.arith(opDiv, other) }

// AddScalar adds v to every value
func (s *Series) AddScalar(v float64) (*Series, error) { return s.scalar(opAdd, v) }

// SubScalar subtracts v from every value
func (s *Series) SubScalar(v float64) (*Series, error) { return s.scalar(opSub, v) }

// MulScalar multiplies every value by v
func (s *Series) MulScalar(v float64) (*Series, error) { return s.scalar(opMul, v) }

// DivScalar divides every value by v
func (s *Series) DivScalar(v float64) (*Series, error) { return s.scalar(opDiv, v) }

// Pow raises every value to the power p
func (s *Series) Pow(p float64) (*Series, error) { return s.scalar(opPow, p) }

// Map applies fn to every value (nil for missing) and infers the result dtype
func (s *Series) Map(fn func(v interface{}) interface{}) *Series {
	vals := make([]interface{}, s.Len())
	for i := range vals {
		vals[i] = fn(s.Get(i))
	}
	out := NewSeriesFromValues(s.name, vals)
	out.index = s.index
	return out
}

// ============================================================================
// Reductions
// ============================================================================

func (s *Series) reduceFloat(fn AggType) float64 {
	r, err := aggregateGroups(s, allRows(s.Len()), fn, 0)
	if err != nil {
		return math.NaN()
	}
	v, _ := r.GetFloat64(0)
	return v
}

func (s *Series) reduceValue(fn AggType, nth int) interface{} {
	r, err := aggregateGroups(s, allRows(s.Len()), fn, nth)
	if err != nil {
		return nil
	}
	return r.Get(0)
}

// Sum returns the sum of present values (NaN for non-numeric series)
func (s *Series) Sum() float64 { return s.reduceFloat(AggTypeSum) }

// Prod returns the product of present values
func (s *Series) Prod() float64 { return s.reduceFloat(AggTypeProd) }

// Mean returns the mean of present values
func (s *Series) Mean() float64 { return s.reduceFloat(AggTypeMean) }

// Median returns the median of present values
func (s *Series) Median() float64 { return s.reduceFloat(AggTypeMedian) }

// Var returns the sample variance (ddof=1)
func (s *Series) Var() float64 { return s.reduceFloat(AggTypeVar) }

// Std returns the sample standard deviation (ddof=1)
func (s *Series) Std() float64 { return s.reduceFloat(AggTypeStd) }

// Sem returns the standard error of the mean
func (s *Series) Sem() float64 { return s.reduceFloat(AggTypeSem) }

// Min returns the smallest present value, nil when there is none
func (s *Series) Min() interface{} { return s.reduceValue(AggTypeMin, 0) }

// Max returns the largest present value, nil when there is none
func (s *Series) Max() interface{} { return s.reduceValue(AggTypeMax, 0) }

// First returns the first present value
func (s *Series) First() interface{} { return s.reduceValue(AggTypeFirst, 0) }

// Last returns the last present value
func (s *Series) Last() interface{} { return s.reduceValue(AggTypeLast, 0) }

// Count returns the number of present values
func (s *Series) Count() int { return s.Len() - s.NullCount() }

// NUnique returns the number of distinct present values
func (s *Series) NUnique() int {
	v, _ := s.reduceValue(AggTypeNUnique, 0).(int64)
	return int(v)
}

// IdxMax returns the row label of the largest value
func (s *Series) IdxMax() interface{} {
	pos := selectGroups(s, allRows(s.Len()), AggTypeMax, 0)[0]
	if pos < 0 {
		return nil
	}
	return s.Index().Label(pos)
}

// IdxMin returns the row label of the smallest value
func (s *Series) IdxMin() interface{} {
	pos := selectGroups(s, allRows(s.Len()), AggTypeMin, 0)[0]
	if pos < 0 {
		return nil
	}
	return s.Index().Label(pos)
}

// ============================================================================
// Window-like operations
// ============================================================================

func (s *Series) keepIndex(out *Series) *Series {
	out.index = s.index
	return out
}

// CumSum returns the running sum. Integer input stays Int64 unless it
// overflows, in which case the result is Float64.
func (s *Series) CumSum() (*Series, error) {
	out, err := cumulativeGroups(s, allRows(s.Len()), cumSum)
	if err != nil {
		return nil, err
	}
	return s.keepIndex(out), nil
}

// CumProd returns the running product with the same overflow rule as CumSum
func (s *Series) CumProd() (*Series, error) {
	out, err := cumulativeGroups(s, allRows(s.Len()), cumProd)
	if err != nil {
		return nil, err
	}
	return s.keepIndex(out), nil
}

// CumMin returns the running minimum, keeping the dtype
func (s *Series) CumMin() *Series {
	out, _ := cumulativeGroups(s, allRows(s.Len()), cumMin)
	return s.keepIndex(out)
}

// CumMax returns the running maximum, keeping the dtype
func (s *Series) CumMax() *Series {
	out, _ := cumulativeGroups(s, allRows(s.Len()), cumMax)
	return s.keepIndex(out)
}

// Rank ranks the values; missing values get a missing rank
func (s *Series) Rank(opts RankOptions) *Series {
	return s.keepIndex(rankGroups(s, allRows(s.Len()), opts))
}

// Shift moves values n positions forward (backward for negative n)
func (s *Series) Shift(n int) *Series {
	return s.keepIndex(shiftGroups(s, allRows(s.Len()), n))
}

// FillNull replaces missing values by propagating present ones
func (s *Series) FillNull(strategy FillStrategy) *Series {
	return s.keepIndex(fillGroups(s, allRows(s.Len()), strategy, 0))
}

// NLargest returns the n largest values, keeping their row labels
func (s *Series) NLargest(n int, keep Keep) *Series {
	return s.Take(topNGroups(s, allRows(s.Len()), n, true, keep)[0])
}

// NSmallest returns the n smallest values, keeping their row labels
func (s *Series) NSmallest(n int, keep Keep) *Series {
	return s.Take(topNGroups(s, allRows(s.Len()), n, false, keep)[0])
}

// Pipe calls fn with the series
func (s *Series) Pipe(fn func(*Series) (*Series, error)) (*Series, error) {
	return fn(s)
}

// Pipe passes v through fn, allowing generic method-chaining helpers
func Pipe[T, R any](v T, fn func(T) R) R {
	return fn(v)
}

// ============================================================================
// Comparison
// ============================================================================

// EqualValues reports whether both series hold the same dtype and values,
// with missing equal to missing
func (s *Series) EqualValues(other *Series) bool {
	if s.dtype != other.dtype || s.Len() != other.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		if !labelsEqual(s.Get(i), other.Get(i)) {
			return false
		}
	}
	return true
}

// Equal reports whether both series have the same name, values and index
func (s *Series) Equal(other *Series) bool {
	if s.name != other.name || !s.EqualValues(other) {
		return false
	}
	return s.Index().Equal(other.Index())
}

// ToFrame turns the series into a single-column DataFrame with the same index
func (s *Series) ToFrame() *DataFrame {
	col := s.shallow()
	col.index = nil
	df, _ := NewDataFrame(col)
	df.index = s.index
	return df
}

// String renders the series as a table
func (s *Series) String() string {
	return SeriesStringWithConfig(s, GetDisplayConfig())
}
