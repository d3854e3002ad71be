package skiff

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

// Group kernels operate on a Series and a list of row groups, each group
// being positions into the Series in their original order. Series-level
// reductions use the same kernels with a single group holding every row.

type number interface {
	constraints.Integer | constraints.Float
}

func toFloat64Slice[T number](data []T) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

func toInt64Slice[T constraints.Integer](data []T) []int64 {
	out := make([]int64, len(data))
	for i, v := range data {
		out[i] = int64(v)
	}
	return out
}

func cmpOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return c, false
	}
	return c, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return c, false
	}
	return c, true
}

func allRows(n int) [][]int {
	return [][]int{seqInts(n)}
}

// ============================================================================
// Reductions
// ============================================================================

// aggregateGroups reduces every group to one value. The result is named after
// s, has one entry per group and no index.
func aggregateGroups(s *Series, groups [][]int, fn AggType, nth int) (*Series, error) {
	if !fn.accepts(s.dtype) {
		return nil, &DTypeError{Op: fn.String(), Column: s.name, DType: s.dtype}
	}
	switch fn {
	case AggTypeSum, AggTypeProd:
		return sumProdGroups(s, groups, fn == AggTypeProd), nil
	case AggTypeMean, AggTypeMedian, AggTypeVar, AggTypeStd, AggTypeSem:
		return momentGroups(s, groups, fn), nil
	case AggTypeMin, AggTypeMax, AggTypeFirst, AggTypeLast, AggTypeNth:
		return s.take(selectGroups(s, groups, fn, nth)), nil
	case AggTypeCount, AggTypeSize, AggTypeNUnique:
		return countGroups(s, groups, fn), nil
	}
	return nil, &DTypeError{Op: fn.String(), Column: s.name, DType: s.dtype}
}

func sumProdGroups(s *Series, groups [][]int, prod bool) *Series {
	if !s.dtype.IsFloat() {
		ints := s.int64s()
		out := make([]int64, len(groups))
		exact := true
		for g, rows := range groups {
			var acc int64
			if prod {
				acc = 1
			}
			for _, r := range rows {
				if s.IsNull(r) {
					continue
				}
				var ok bool
				if prod {
					acc, ok = mulInt64(acc, ints[r])
				} else {
					acc, ok = addInt64(acc, ints[r])
				}
				if !ok {
					exact = false
					break
				}
			}
			if !exact {
				break
			}
			out[g] = acc
		}
		if exact {
			return NewSeriesInt64(s.name, out)
		}
	}

	vals := s.float64s()
	out := make([]float64, len(groups))
	for g, rows := range groups {
		acc := 0.0
		if prod {
			acc = 1
		}
		for _, r := range rows {
			v := vals[r]
			if math.IsNaN(v) {
				continue
			}
			if prod {
				acc *= v
			} else {
				acc += v
			}
		}
		out[g] = acc
	}
	res := NewSeriesFloat64(s.name, out)
	if s.dtype == Float32 {
		res, _ = res.Cast(Float32)
	}
	return res
}

func momentGroups(s *Series, groups [][]int, fn AggType) *Series {
	vals := s.float64s()
	out := make([]float64, len(groups))
	buf := make([]float64, 0, 16)
	for g, rows := range groups {
		buf = buf[:0]
		for _, r := range rows {
			if !math.IsNaN(vals[r]) {
				buf = append(buf, vals[r])
			}
		}
		out[g] = moment(buf, fn)
	}
	return NewSeriesFloat64(s.name, out)
}

// moment computes a float reduction over present values; buf may be reordered.
func moment(buf []float64, fn AggType) float64 {
	n := len(buf)
	if n == 0 {
		return math.NaN()
	}
	if fn == AggTypeMedian {
		sort.Float64s(buf)
		if n%2 == 1 {
			return buf[n/2]
		}
		return (buf[n/2-1] + buf[n/2]) / 2
	}
	sum := 0.0
	for _, v := range buf {
		sum += v
	}
	mean := sum / float64(n)
	if fn == AggTypeMean {
		return mean
	}
	if n < 2 {
		return math.NaN()
	}
	ss := 0.0
	for _, v := range buf {
		d := v - mean
		ss += d * d
	}
	variance := ss / float64(n-1)
	switch fn {
	case AggTypeVar:
		return variance
	case AggTypeStd:
		return math.Sqrt(variance)
	default: // sem
		return math.Sqrt(variance) / math.Sqrt(float64(n))
	}
}

// selectGroups picks one row per group; -1 where the group has no candidate.
func selectGroups(s *Series, groups [][]int, fn AggType, nth int) []int {
	out := make([]int, len(groups))
	for g, rows := range groups {
		best := -1
		switch fn {
		case AggTypeNth:
			k := nth
			if k < 0 {
				k += len(rows)
			}
			if k >= 0 && k < len(rows) {
				best = rows[k]
			}
		case AggTypeFirst:
			for _, r := range rows {
				if !s.IsNull(r) {
					best = r
					break
				}
			}
		case AggTypeLast:
			for i := len(rows) - 1; i >= 0; i-- {
				if !s.IsNull(rows[i]) {
					best = rows[i]
					break
				}
			}
		default:
			for _, r := range rows {
				if s.IsNull(r) {
					continue
				}
				if best < 0 {
					best = r
					continue
				}
				c := s.compare(r, best)
				if (fn == AggTypeMin && c < 0) || (fn == AggTypeMax && c > 0) {
					best = r
				}
			}
		}
		out[g] = best
	}
	return out
}

func countGroups(s *Series, groups [][]int, fn AggType) *Series {
	out := make([]int64, len(groups))
	for g, rows := range groups {
		switch fn {
		case AggTypeSize:
			out[g] = int64(len(rows))
		case AggTypeCount:
			for _, r := range rows {
				if !s.IsNull(r) {
					out[g]++
				}
			}
		case AggTypeNUnique:
			seen := make(map[interface{}]struct{}, len(rows))
			for _, r := range rows {
				if !s.IsNull(r) {
					seen[s.valueKey(r)] = struct{}{}
				}
			}
			out[g] = int64(len(seen))
		}
	}
	return NewSeriesInt64(s.name, out)
}

// customGroups calls fn on every group's values. Each group is passed as a
// Series carrying the group's row labels.
func customGroups(s *Series, groups [][]int, labels *Index, fn func(*Series) (interface{}, error)) (*Series, error) {
	vals := make([]interface{}, len(groups))
	for g, rows := range groups {
		sub := s.take(rows)
		if labels != nil {
			sub.index = labels.Take(rows)
		}
		v, err := fn(sub)
		if err != nil {
			return nil, err
		}
		if !isScalar(v) {
			return nil, fmtNotReduced(s.name, v)
		}
		vals[g] = v
	}
	out := NewSeriesFromValues(s.name, vals)
	if out.dtype == Null && s.dtype != Null {
		out = newSeriesOfDType(s.name, s.dtype, vals, s.categories)
	}
	return out, nil
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case *Series, *DataFrame, []interface{}, []float64, []int64, []int, []string, []bool:
		return false
	}
	return true
}

// ============================================================================
// Cumulative operations
// ============================================================================

type cumOp int

const (
	cumSum cumOp = iota
	cumProd
	cumMin
	cumMax
	cumCount
)

// cumulativeGroups computes a running value within each group. Rows outside
// every group are missing. Missing values stay missing and are skipped by the
// running value.
func cumulativeGroups(s *Series, groups [][]int, op cumOp) (*Series, error) {
	n := s.Len()
	switch op {
	case cumCount:
		out := make([]int64, n)
		valid := make([]bool, n)
		for _, rows := range groups {
			for k, r := range rows {
				out[r] = int64(k)
				valid[r] = true
			}
		}
		return &Series{name: s.name, dtype: Int64, data: out, valid: normalizeValid(valid)}, nil

	case cumMin, cumMax:
		pos := make([]int, n)
		for i := range pos {
			pos[i] = -1
		}
		for _, rows := range groups {
			best := -1
			for _, r := range rows {
				if s.IsNull(r) {
					continue
				}
				if best < 0 {
					best = r
				} else {
					c := s.compare(r, best)
					if (op == cumMin && c < 0) || (op == cumMax && c > 0) {
						best = r
					}
				}
				pos[r] = best
			}
		}
		return s.take(pos), nil
	}

	if !s.dtype.summable() {
		name := "cumsum"
		if op == cumProd {
			name = "cumprod"
		}
		return nil, &DTypeError{Op: name, Column: s.name, DType: s.dtype}
	}

	if !s.dtype.IsFloat() {
		if res, ok := cumulativeInts(s, groups, op == cumProd); ok {
			return res, nil
		}
	}

	vals := s.float64s()
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	for _, rows := range groups {
		acc := 0.0
		if op == cumProd {
			acc = 1
		}
		for _, r := range rows {
			v := vals[r]
			if math.IsNaN(v) {
				continue
			}
			if op == cumProd {
				acc *= v
			} else {
				acc += v
			}
			out[r] = acc
		}
	}
	res := NewSeriesFloat64(s.name, out)
	if s.dtype == Float32 {
		res, _ = res.Cast(Float32)
	}
	return res, nil
}

// cumulativeInts runs an integer cumsum/cumprod; ok is false on int64 overflow.
func cumulativeInts(s *Series, groups [][]int, prod bool) (*Series, bool) {
	n := s.Len()
	ints := s.int64s()
	out := make([]int64, n)
	valid := make([]bool, n)
	for _, rows := range groups {
		var acc int64
		if prod {
			acc = 1
		}
		for _, r := range rows {
			if s.IsNull(r) {
				continue
			}
			var ok bool
			if prod {
				acc, ok = mulInt64(acc, ints[r])
			} else {
				acc, ok = addInt64(acc, ints[r])
			}
			if !ok {
				return nil, false
			}
			out[r] = acc
			valid[r] = true
		}
	}
	return &Series{name: s.name, dtype: Int64, data: out, valid: normalizeValid(valid)}, true
}

// shiftGroups moves values n rows forward within each group (backward for n < 0).
func shiftGroups(s *Series, groups [][]int, n int) *Series {
	pos := make([]int, s.Len())
	for i := range pos {
		pos[i] = -1
	}
	for _, rows := range groups {
		for k, r := range rows {
			src := k - n
			if src >= 0 && src < len(rows) {
				pos[r] = rows[src]
			}
		}
	}
	return s.take(pos)
}

// FillStrategy selects how FillNull propagates values
type FillStrategy int

const (
	// FillForward carries the last present value forward
	FillForward FillStrategy = iota
	// FillBackward carries the next present value backward
	FillBackward
)

// fillGroups propagates present values into missing slots within each group.
// limit <= 0 means unlimited.
func fillGroups(s *Series, groups [][]int, strategy FillStrategy, limit int) *Series {
	pos := make([]int, s.Len())
	for i := range pos {
		pos[i] = -1
	}
	for _, rows := range groups {
		last, run := -1, 0
		visit := func(r int) {
			if !s.IsNull(r) {
				last, run = r, 0
				pos[r] = r
				return
			}
			run++
			if last >= 0 && (limit <= 0 || run <= limit) {
				pos[r] = last
			}
		}
		if strategy == FillForward {
			for _, r := range rows {
				visit(r)
			}
		} else {
			for i := len(rows) - 1; i >= 0; i-- {
				visit(rows[i])
			}
		}
	}
	return s.take(pos)
}

// ============================================================================
// Ranking
// ============================================================================

// RankMethod selects how tied values are ranked
type RankMethod int

const (
	// RankAverage gives tied values the mean of their ranks
	RankAverage RankMethod = iota
	// RankMin gives tied values the lowest rank of the tie
	RankMin
	// RankMax gives tied values the highest rank of the tie
	RankMax
	// RankFirst ranks ties in order of appearance
	RankFirst
	// RankDense is like RankMin but ranks increase by one between distinct values
	RankDense
)

// RankOptions configures Rank
type RankOptions struct {
	Method     RankMethod
	Descending bool
	// Pct divides ranks by the number of ranked values
	Pct bool
}

func rankGroups(s *Series, groups [][]int, opts RankOptions) *Series {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = math.NaN()
	}
	order := make([]int, 0, 16)
	for _, rows := range groups {
		order = order[:0]
		for _, r := range rows {
			if !s.IsNull(r) {
				order = append(order, r)
			}
		}
		sort.SliceStable(order, func(a, b int) bool {
			c := s.compare(order[a], order[b])
			if opts.Descending {
				c = -c
			}
			return c < 0
		})
		dense := 0
		for i := 0; i < len(order); {
			j := i + 1
			for j < len(order) && s.compare(order[i], order[j]) == 0 {
				j++
			}
			dense++
			for k := i; k < j; k++ {
				var rank float64
				switch opts.Method {
				case RankAverage:
					rank = float64(i+1+j) / 2
				case RankMin:
					rank = float64(i + 1)
				case RankMax:
					rank = float64(j)
				case RankFirst:
					rank = float64(k + 1)
				case RankDense:
					rank = float64(dense)
				}
				out[order[k]] = rank
			}
			i = j
		}
		if opts.Pct && len(order) > 0 {
			denom := float64(len(order))
			if opts.Method == RankDense {
				denom = float64(dense)
			}
			for _, r := range order {
				out[r] /= denom
			}
		}
	}
	return NewSeriesFloat64(s.name, out)
}

// ============================================================================
// Top-n selection
// ============================================================================

// Keep selects which of tied values nlargest/nsmallest retain
type Keep int

const (
	// KeepFirst prefers earlier rows among ties
	KeepFirst Keep = iota
	// KeepLast prefers later rows among ties
	KeepLast
)

// topNGroups returns, per group, the rows holding the n largest (or smallest)
// present values in rank order.
func topNGroups(s *Series, groups [][]int, n int, largest bool, keep Keep) [][]int {
	out := make([][]int, len(groups))
	for g, rows := range groups {
		cand := make([]int, 0, len(rows))
		for _, r := range rows {
			if !s.IsNull(r) {
				cand = append(cand, r)
			}
		}
		sort.SliceStable(cand, func(a, b int) bool {
			c := s.compare(cand[a], cand[b])
			if largest {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
			if keep == KeepLast {
				return cand[a] > cand[b]
			}
			return cand[a] < cand[b]
		})
		if n < len(cand) {
			cand = cand[:n]
		}
		out[g] = cand
	}
	return out
}

// sortStable sorts row positions with less comparing two positions.
func sortStable(pos []int, less func(a, b int) bool) {
	sort.SliceStable(pos, func(i, j int) bool { return less(pos[i], pos[j]) })
}

func sortInts(pos []int) {
	sort.Ints(pos)
}
