package skiff

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Series is a named, typed column of values with an optional row index.
//
// Missing values are NaN for float dtypes, code -1 for Categorical and a
// cleared validity bit for every other dtype. A Series is immutable: every
// operation returns a new Series that may share backing storage.
type Series struct {
	name       string
	dtype      DType
	data       interface{} // []float64, []float32, []int64, []int32, []int16, []int8, []bool, []string, []int64 (DateTime), []int32 (Categorical codes), []struct{} (Null)
	valid      []bool      // nil means every value is valid
	categories []string
	index      *Index // nil means a range index
}

// ============================================================================
// Constructors
// ============================================================================

// NewSeriesFloat64 creates a Float64 Series. NaN marks a missing value.
// The slice is used directly and must not be modified afterwards.
func NewSeriesFloat64(name string, data []float64) *Series {
	return &Series{name: name, dtype: Float64, data: data}
}

// NewSeriesFloat32 creates a Float32 Series. NaN marks a missing value.
func NewSeriesFloat32(name string, data []float32) *Series {
	return &Series{name: name, dtype: Float32, data: data}
}

// NewSeriesInt64 creates an Int64 Series.
func NewSeriesInt64(name string, data []int64) *Series {
	return &Series{name: name, dtype: Int64, data: data}
}

// NewSeriesInt32 creates an Int32 Series.
func NewSeriesInt32(name string, data []int32) *Series {
	return &Series{name: name, dtype: Int32, data: data}
}

// NewSeriesInt16 creates an Int16 Series.
func NewSeriesInt16(name string, data []int16) *Series {
	return &Series{name: name, dtype: Int16, data: data}
}

// NewSeriesInt8 creates an Int8 Series.
func NewSeriesInt8(name string, data []int8) *Series {
	return &Series{name: name, dtype: Int8, data: data}
}

// NewSeriesBool creates a Bool Series.
func NewSeriesBool(name string, data []bool) *Series {
	return &Series{name: name, dtype: Bool, data: data}
}

// NewSeriesString creates a String Series.
func NewSeriesString(name string, data []string) *Series {
	return &Series{name: name, dtype: String, data: data}
}

// NewSeriesDateTime creates a DateTime Series. The zero time.Time is missing.
func NewSeriesDateTime(name string, data []time.Time) *Series {
	ns := make([]int64, len(data))
	var valid []bool
	for i, t := range data {
		if t.IsZero() {
			if valid == nil {
				valid = allValid(len(data))
			}
			valid[i] = false
			continue
		}
		ns[i] = t.UnixNano()
	}
	return &Series{name: name, dtype: DateTime, data: ns, valid: valid}
}

// NewSeriesCategorical creates a Categorical Series whose categories are the
// sorted distinct values.
func NewSeriesCategorical(name string, data []string) *Series {
	seen := make(map[string]struct{}, 16)
	cats := make([]string, 0, 16)
	for _, v := range data {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			cats = append(cats, v)
		}
	}
	sort.Strings(cats)
	s, _ := NewSeriesCategoricalWithCategories(name, data, cats)
	return s
}

// NewSeriesCategoricalWithCategories creates a Categorical Series with an
// explicit category order. Values outside the categories are missing.
func NewSeriesCategoricalWithCategories(name string, data []string, categories []string) (*Series, error) {
	lookup := make(map[string]int32, len(categories))
	for i, c := range categories {
		if _, dup := lookup[c]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidArgument, c)
		}
		lookup[c] = int32(i)
	}
	codes := make([]int32, len(data))
	for i, v := range data {
		code, ok := lookup[v]
		if !ok {
			code = -1
		}
		codes[i] = code
	}
	return &Series{
		name:       name,
		dtype:      Categorical,
		data:       codes,
		categories: append([]string{}, categories...),
	}, nil
}

// NewSeriesNull creates an all-missing Series of length n.
func NewSeriesNull(name string, n int) *Series {
	return &Series{name: name, dtype: Null, data: make([]struct{}, n)}
}

// NewSeriesInt64WithNulls creates an Int64 Series where valid[i]==false marks a missing value.
func NewSeriesInt64WithNulls(name string, data []int64, valid []bool) *Series {
	return &Series{name: name, dtype: Int64, data: data, valid: normalizeValid(valid)}
}

// NewSeriesStringWithNulls creates a String Series where valid[i]==false marks a missing value.
func NewSeriesStringWithNulls(name string, data []string, valid []bool) *Series {
	return &Series{name: name, dtype: String, data: data, valid: normalizeValid(valid)}
}

// NewSeriesBoolWithNulls creates a Bool Series where valid[i]==false marks a missing value.
func NewSeriesBoolWithNulls(name string, data []bool, valid []bool) *Series {
	return &Series{name: name, dtype: Bool, data: data, valid: normalizeValid(valid)}
}

// NewSeriesFromValues builds a Series from loosely typed values, inferring
// the dtype: Go integers give Int64, any float gives Float64, strings give
// String, bools give Bool and time.Time gives DateTime. nil is missing; a
// Series of only nils has dtype Null.
func NewSeriesFromValues(name string, values []interface{}) *Series {
	return newSeriesOfDType(name, inferDType(values), values, nil)
}

// NewSeriesFromSlice wraps a typed Go slice ([]float64, []int, []string, ...)
// or a []interface{} in a Series.
func NewSeriesFromSlice(name string, values interface{}) (*Series, error) {
	switch v := values.(type) {
	case *Series:
		return v.Rename(name), nil
	case []float64:
		return NewSeriesFloat64(name, v), nil
	case []float32:
		return NewSeriesFloat32(name, v), nil
	case []int64:
		return NewSeriesInt64(name, v), nil
	case []int32:
		return NewSeriesInt32(name, v), nil
	case []int16:
		return NewSeriesInt16(name, v), nil
	case []int8:
		return NewSeriesInt8(name, v), nil
	case []int:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return NewSeriesInt64(name, out), nil
	case []bool:
		return NewSeriesBool(name, v), nil
	case []string:
		return NewSeriesString(name, v), nil
	case []time.Time:
		return NewSeriesDateTime(name, v), nil
	case []interface{}:
		return NewSeriesFromValues(name, v), nil
	default:
		return nil, fmt.Errorf("%w: cannot build a series from %T", ErrUnsupportedDType, values)
	}
}

func allValid(n int) []bool {
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	return v
}

func normalizeValid(valid []bool) []bool {
	for _, ok := range valid {
		if !ok {
			return valid
		}
	}
	return nil
}

func inferDType(values []interface{}) DType {
	dtype := Null
	for _, v := range values {
		if v == nil {
			continue
		}
		var d DType
		switch x := v.(type) {
		case float64, float32:
			d = Float64
		case int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
			d = Int64
		case bool:
			d = Bool
		case string:
			d = String
		case time.Time:
			if x.IsZero() {
				continue
			}
			d = DateTime
		default:
			d = String
		}
		switch {
		case dtype == Null:
			dtype = d
		case dtype == d:
		case dtype.IsNumeric() && d.IsNumeric():
			dtype = Float64
		default:
			return String
		}
	}
	return dtype
}

// newSeriesOfDType builds a Series of the given dtype from loose values.
// Values that cannot be represented become missing.
func newSeriesOfDType(name string, dtype DType, values []interface{}, categories []string) *Series {
	n := len(values)
	var valid []bool
	invalidate := func(i int) {
		if valid == nil {
			valid = allValid(n)
		}
		valid[i] = false
	}
	switch dtype {
	case Float64, Float32:
		out := make([]float64, n)
		for i, v := range values {
			f, ok := toFloat(v)
			if !ok {
				f = math.NaN()
			}
			out[i] = f
		}
		s := NewSeriesFloat64(name, out)
		if dtype == Float32 {
			s, _ = s.Cast(Float32)
		}
		return s
	case Int64, Int32, Int16, Int8, DateTime:
		out := make([]int64, n)
		for i, v := range values {
			x, ok := toInt(v)
			if !ok {
				invalidate(i)
				continue
			}
			out[i] = x
		}
		s := &Series{name: name, dtype: Int64, data: out, valid: valid}
		if dtype == DateTime {
			s.dtype = DateTime
			return s
		}
		if dtype != Int64 {
			s, _ = s.Cast(dtype)
		}
		return s
	case Bool:
		out := make([]bool, n)
		for i, v := range values {
			b, ok := v.(bool)
			if !ok {
				invalidate(i)
				continue
			}
			out[i] = b
		}
		return &Series{name: name, dtype: Bool, data: out, valid: valid}
	case String:
		out := make([]string, n)
		for i, v := range values {
			if v == nil {
				invalidate(i)
				continue
			}
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				invalidate(i)
				continue
			}
			out[i] = formatScalar(v)
		}
		return &Series{name: name, dtype: String, data: out, valid: valid}
	case Categorical:
		strs := make([]string, n)
		missing := make([]bool, n)
		for i, v := range values {
			if v == nil {
				missing[i] = true
				continue
			}
			strs[i] = formatScalar(v)
		}
		var s *Series
		if categories == nil {
			s = NewSeriesCategorical(name, strs)
		} else {
			s, _ = NewSeriesCategoricalWithCategories(name, strs, categories)
		}
		codes := s.data.([]int32)
		for i, m := range missing {
			if m {
				codes[i] = -1
			}
		}
		if categories == nil {
			// drop the placeholder category introduced by missing entries
			s = s.take(seqInts(n))
			s.categories = usedCategories(s)
		}
		return s
	default:
		return NewSeriesNull(name, n)
	}
}

// usedCategories rebuilds the category list of s from the codes actually in use
// and remaps the codes in place.
func usedCategories(s *Series) []string {
	codes := s.data.([]int32)
	used := make([]bool, len(s.categories))
	for _, c := range codes {
		if c >= 0 {
			used[c] = true
		}
	}
	remap := make([]int32, len(s.categories))
	var cats []string
	for i, u := range used {
		if u {
			remap[i] = int32(len(cats))
			cats = append(cats, s.categories[i])
		}
	}
	for i, c := range codes {
		if c >= 0 {
			codes[i] = remap[c]
		}
	}
	return cats
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), !math.IsNaN(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int8:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint8:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return math.NaN(), false
	}
}

func toInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint:
		return int64(x), true
	case uint64:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint8:
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case time.Time:
		if x.IsZero() {
			return 0, false
		}
		return x.UnixNano(), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int64(x), true
	case float32:
		if math.IsNaN(float64(x)) {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

func formatScalar(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// ============================================================================
// Accessors
// ============================================================================

// Name returns the series name
func (s *Series) Name() string {
	return s.name
}

// DType returns the data type
func (s *Series) DType() DType {
	return s.dtype
}

// Len returns the number of values
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	switch d := s.data.(type) {
	case []float64:
		return len(d)
	case []float32:
		return len(d)
	case []int64:
		return len(d)
	case []int32:
		return len(d)
	case []int16:
		return len(d)
	case []int8:
		return len(d)
	case []bool:
		return len(d)
	case []string:
		return len(d)
	case []struct{}:
		return len(d)
	default:
		return 0
	}
}

// IsNull reports whether the value at i is missing
func (s *Series) IsNull(i int) bool {
	if s.valid != nil && !s.valid[i] {
		return true
	}
	switch d := s.data.(type) {
	case []float64:
		return math.IsNaN(d[i])
	case []float32:
		return math.IsNaN(float64(d[i]))
	case []int32:
		return s.dtype == Categorical && d[i] < 0
	case []struct{}:
		return true
	}
	return false
}

// NullCount returns the number of missing values
func (s *Series) NullCount() int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			n++
		}
	}
	return n
}

// Get returns the value at i as a Go value, or nil when missing.
// DateTime values are returned as time.Time and categoricals as string.
func (s *Series) Get(i int) interface{} {
	if s.IsNull(i) {
		return nil
	}
	switch d := s.data.(type) {
	case []float64:
		return d[i]
	case []float32:
		return d[i]
	case []int64:
		if s.dtype == DateTime {
			return time.Unix(0, d[i]).UTC()
		}
		return d[i]
	case []int32:
		if s.dtype == Categorical {
			return s.categories[d[i]]
		}
		return d[i]
	case []int16:
		return d[i]
	case []int8:
		return d[i]
	case []bool:
		return d[i]
	case []string:
		return d[i]
	}
	return nil
}

// GetFloat64 returns the value at i converted to float64
func (s *Series) GetFloat64(i int) (float64, bool) {
	if i < 0 || i >= s.Len() || s.IsNull(i) {
		return math.NaN(), false
	}
	if s.dtype == DateTime {
		return float64(s.data.([]int64)[i]), true
	}
	return toFloat(s.Get(i))
}

// GetInt64 returns the value at i converted to int64
func (s *Series) GetInt64(i int) (int64, bool) {
	if i < 0 || i >= s.Len() || s.IsNull(i) {
		return 0, false
	}
	if s.dtype == DateTime {
		return s.data.([]int64)[i], true
	}
	return toInt(s.Get(i))
}

// GetString returns the value at i for String and Categorical series
func (s *Series) GetString(i int) (string, bool) {
	if i < 0 || i >= s.Len() || s.IsNull(i) {
		return "", false
	}
	v, ok := s.Get(i).(string)
	return v, ok
}

// Values returns every value as a Go value with nil for missing entries.
func (s *Series) Values() []interface{} {
	out := make([]interface{}, s.Len())
	for i := range out {
		out[i] = s.Get(i)
	}
	return out
}

// Float64 returns the underlying data for Float64 series, nil otherwise
func (s *Series) Float64() []float64 {
	d, _ := s.data.([]float64)
	return d
}

// Float32 returns the underlying data for Float32 series, nil otherwise
func (s *Series) Float32() []float32 {
	d, _ := s.data.([]float32)
	return d
}

// Int64 returns the underlying data for Int64 series, nil otherwise
func (s *Series) Int64() []int64 {
	if s.dtype != Int64 {
		return nil
	}
	return s.data.([]int64)
}

// Int32 returns the underlying data for Int32 series, nil otherwise
func (s *Series) Int32() []int32 {
	if s.dtype != Int32 {
		return nil
	}
	return s.data.([]int32)
}

// Bool returns the underlying data for Bool series, nil otherwise
func (s *Series) Bool() []bool {
	d, _ := s.data.([]bool)
	return d
}

// Strings returns the values of String and Categorical series
func (s *Series) Strings() []string {
	switch s.dtype {
	case String:
		return s.data.([]string)
	case Categorical:
		codes := s.data.([]int32)
		out := make([]string, len(codes))
		for i, c := range codes {
			if c >= 0 {
				out[i] = s.categories[c]
			}
		}
		return out
	}
	return nil
}

// Times returns DateTime values; missing entries are the zero time
func (s *Series) Times() []time.Time {
	if s.dtype != DateTime {
		return nil
	}
	ns := s.data.([]int64)
	out := make([]time.Time, len(ns))
	for i, v := range ns {
		if !s.IsNull(i) {
			out[i] = time.Unix(0, v).UTC()
		}
	}
	return out
}

// Categories returns the categories of a Categorical series
func (s *Series) Categories() []string {
	return append([]string{}, s.categories...)
}

// Codes returns the category codes of a Categorical series (-1 = missing)
func (s *Series) Codes() []int32 {
	if s.dtype != Categorical {
		return nil
	}
	return s.data.([]int32)
}

// Validity returns a copy of the validity mask (true = present)
func (s *Series) Validity() []bool {
	out := make([]bool, s.Len())
	for i := range out {
		out[i] = !s.IsNull(i)
	}
	return out
}

// Index returns the row labels of the series
func (s *Series) Index() *Index {
	if s.index == nil {
		return NewRangeIndex(s.Len())
	}
	return s.index
}

// HasIndex reports whether the series carries explicit row labels
func (s *Series) HasIndex() bool {
	return s.index != nil && !s.index.IsRange()
}

// WithIndex returns a copy of the series with the given row labels
func (s *Series) WithIndex(idx *Index) (*Series, error) {
	if idx != nil && idx.Len() != s.Len() {
		return nil, fmt.Errorf("%w: index has %d labels, series has %d values", ErrLengthMismatch, idx.Len(), s.Len())
	}
	out := s.shallow()
	out.index = idx
	return out, nil
}

// Rename returns a copy of the series with a new name
func (s *Series) Rename(name string) *Series {
	out := s.shallow()
	out.name = name
	return out
}

func (s *Series) shallow() *Series {
	out := *s
	return &out
}

// ============================================================================
// Internal value views
// ============================================================================

// float64s returns the values as float64 with NaN for missing entries.
func (s *Series) float64s() []float64 {
	var out []float64
	switch d := s.data.(type) {
	case []float64:
		if s.valid == nil {
			return d
		}
		out = toFloat64Slice(d)
	case []float32:
		out = toFloat64Slice(d)
	case []int64:
		out = toFloat64Slice(d)
	case []int32:
		if s.dtype == Categorical {
			out = make([]float64, len(d))
			for i := range out {
				out[i] = math.NaN()
			}
			return out
		}
		out = toFloat64Slice(d)
	case []int16:
		out = toFloat64Slice(d)
	case []int8:
		out = toFloat64Slice(d)
	case []bool:
		out = make([]float64, len(d))
		for i, b := range d {
			if b {
				out[i] = 1
			}
		}
	default:
		out = make([]float64, s.Len())
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	if s.valid != nil {
		for i, ok := range s.valid {
			if !ok {
				out[i] = math.NaN()
			}
		}
	}
	return out
}

// int64s returns integer, bool and DateTime values as int64; missing entries are 0.
func (s *Series) int64s() []int64 {
	var out []int64
	switch d := s.data.(type) {
	case []int64:
		if s.valid == nil {
			return d
		}
		out = append([]int64{}, d...)
	case []int32:
		out = toInt64Slice(d)
	case []int16:
		out = toInt64Slice(d)
	case []int8:
		out = toInt64Slice(d)
	case []bool:
		out = make([]int64, len(d))
		for i, b := range d {
			if b {
				out[i] = 1
			}
		}
	default:
		return make([]int64, s.Len())
	}
	if s.valid != nil {
		for i, ok := range s.valid {
			if !ok {
				out[i] = 0
			}
		}
	}
	return out
}

// compare orders two present values of the series.
// Categoricals order by category position.
func (s *Series) compare(i, j int) int {
	switch d := s.data.(type) {
	case []float64:
		return cmpOrdered(d[i], d[j])
	case []float32:
		return cmpOrdered(d[i], d[j])
	case []int64:
		return cmpOrdered(d[i], d[j])
	case []int32:
		return cmpOrdered(d[i], d[j])
	case []int16:
		return cmpOrdered(d[i], d[j])
	case []int8:
		return cmpOrdered(d[i], d[j])
	case []string:
		return cmpOrdered(d[i], d[j])
	case []bool:
		switch {
		case d[i] == d[j]:
			return 0
		case !d[i]:
			return -1
		default:
			return 1
		}
	}
	return 0
}

// valueKey returns a comparable representation of a present value.
func (s *Series) valueKey(i int) interface{} {
	switch d := s.data.(type) {
	case []float64:
		return d[i]
	case []float32:
		return d[i]
	case []int64:
		return d[i]
	case []int32:
		return d[i]
	case []int16:
		return d[i]
	case []int8:
		return d[i]
	case []string:
		return d[i]
	case []bool:
		return d[i]
	}
	return nil
}

// ============================================================================
// Selection
// ============================================================================

// take gathers values by position; -1 produces a missing value.
// The result carries no index.
func (s *Series) take(idx []int) *Series {
	out := &Series{name: s.name, dtype: s.dtype, categories: s.categories}
	missing := false
	for _, i := range idx {
		if i < 0 {
			missing = true
			break
		}
	}
	switch d := s.data.(type) {
	case []float64:
		out.data = takeSlice(d, idx, math.NaN())
	case []float32:
		out.data = takeSlice(d, idx, float32(math.NaN()))
	case []int64:
		out.data = takeSlice(d, idx, 0)
	case []int32:
		var fill int32
		if s.dtype == Categorical {
			fill = -1
		}
		out.data = takeSlice(d, idx, fill)
	case []int16:
		out.data = takeSlice(d, idx, 0)
	case []int8:
		out.data = takeSlice(d, idx, 0)
	case []bool:
		out.data = takeSlice(d, idx, false)
	case []string:
		out.data = takeSlice(d, idx, "")
	case []struct{}:
		out.data = make([]struct{}, len(idx))
	}
	usesMask := !s.dtype.IsFloat() && s.dtype != Categorical && s.dtype != Null
	if usesMask && (missing || s.valid != nil) {
		valid := make([]bool, len(idx))
		for k, i := range idx {
			valid[k] = i >= 0 && (s.valid == nil || s.valid[i])
		}
		out.valid = normalizeValid(valid)
	}
	return out
}

func takeSlice[T any](data []T, idx []int, fill T) []T {
	out := make([]T, len(idx))
	for k, i := range idx {
		if i < 0 {
			out[k] = fill
			continue
		}
		out[k] = data[i]
	}
	return out
}

// Take returns the values and row labels at the given positions
func (s *Series) Take(idx []int) *Series {
	out := s.take(idx)
	out.index = s.Index().Take(idx)
	return out
}

// Slice returns rows [start, end)
func (s *Series) Slice(start, end int) *Series {
	n := s.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	idx := make([]int, end-start)
	for i := range idx {
		idx[i] = start + i
	}
	return s.Take(idx)
}

// Head returns the first n values
func (s *Series) Head(n int) *Series {
	return s.Slice(0, n)
}

// Tail returns the last n values
func (s *Series) Tail(n int) *Series {
	return s.Slice(s.Len()-n, s.Len())
}

func seqInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// ============================================================================
// Conversion
// ============================================================================

// Cast converts the series to another dtype. Values that cannot be
// represented become missing.
func (s *Series) Cast(dtype DType) (*Series, error) {
	if dtype == s.dtype {
		return s, nil
	}
	n := s.Len()
	out := &Series{name: s.name, dtype: dtype, index: s.index}
	switch dtype {
	case Float64:
		if !s.dtype.summable() && s.dtype != DateTime && s.dtype != Null {
			return nil, &DTypeError{Op: "cast to Float64", Column: s.name, DType: s.dtype}
		}
		f := s.float64s()
		if s.dtype == Float64 {
			f = append([]float64{}, f...)
		}
		out.data = f
	case Float32:
		if !s.dtype.summable() && s.dtype != Null {
			return nil, &DTypeError{Op: "cast to Float32", Column: s.name, DType: s.dtype}
		}
		f := s.float64s()
		f32 := make([]float32, n)
		for i, v := range f {
			f32[i] = float32(v)
		}
		out.data = f32
	case Int64, Int32, Int16, Int8, DateTime:
		if !s.dtype.summable() && s.dtype != DateTime && s.dtype != Null {
			return nil, &DTypeError{Op: "cast to " + dtype.String(), Column: s.name, DType: s.dtype}
		}
		var ints []int64
		if s.dtype.IsFloat() {
			f := s.float64s()
			ints = make([]int64, n)
			for i, v := range f {
				if !math.IsNaN(v) {
					ints[i] = int64(v)
				}
			}
		} else {
			ints = s.int64s()
			if s.dtype == Int64 || s.dtype == DateTime {
				ints = append([]int64{}, ints...)
			}
		}
		out.valid = normalizeValid(s.Validity())
		switch dtype {
		case Int64, DateTime:
			out.data = ints
		case Int32:
			out.data = narrowInts[int32](ints)
		case Int16:
			out.data = narrowInts[int16](ints)
		case Int8:
			out.data = narrowInts[int8](ints)
		}
	case Bool:
		if !s.dtype.summable() {
			return nil, &DTypeError{Op: "cast to Bool", Column: s.name, DType: s.dtype}
		}
		f := s.float64s()
		b := make([]bool, n)
		for i, v := range f {
			b[i] = v != 0 && !math.IsNaN(v)
		}
		out.data = b
		out.valid = normalizeValid(s.Validity())
	case String:
		strs := make([]string, n)
		for i := range strs {
			if !s.IsNull(i) {
				strs[i] = formatScalar(s.Get(i))
			}
		}
		out.data = strs
		out.valid = normalizeValid(s.Validity())
	case Categorical:
		vals := s.Values()
		c := newSeriesOfDType(s.name, Categorical, vals, nil)
		c.index = s.index
		return c, nil
	case Null:
		out.data = make([]struct{}, n)
	default:
		return nil, &DTypeError{Op: "cast", Column: s.name, DType: s.dtype}
	}
	return out, nil
}

func narrowInts[T int32 | int16 | int8](data []int64) []T {
	out := make([]T, len(data))
	for i, v := range data {
		out[i] = T(v)
	}
	return out
}
