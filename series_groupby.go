package skiff

import (
	"fmt"
)

// SeriesGroupBy groups the values of a single Series. Reductions return a
// Series named like the source and indexed by the group keys.
type SeriesGroupBy struct {
	*grouping
	s   *Series
	err error
}

// GroupBy groups the series by key specs with default options
func (s *Series) GroupBy(by ...By) *SeriesGroupBy {
	return s.GroupByWith(DefaultGroupOptions(), by...)
}

// GroupByWith groups the series by key specs. AsIndex=false is rejected
// because a Series has no columns to hold the keys.
func (s *Series) GroupByWith(opts GroupOptions, by ...By) *SeriesGroupBy {
	if !opts.AsIndex {
		return &SeriesGroupBy{err: fmt.Errorf("%w: AsIndex=false is only valid when grouping a DataFrame", ErrInvalidArgument)}
	}
	if len(by) == 0 {
		return &SeriesGroupBy{err: ErrEmptyKeys}
	}
	frame := s.ToFrame()
	levels := make([]*Series, len(by))
	for i, b := range by {
		k, err := b.resolve(frame)
		if err != nil {
			return &SeriesGroupBy{err: err}
		}
		levels[i] = k.values
	}
	values := s.shallow()
	values.index = nil
	return &SeriesGroupBy{grouping: newGrouping(levels, opts, s.index), s: values}
}

// Err returns the error recorded while building the grouping
func (sg *SeriesGroupBy) Err() error {
	return sg.err
}

// NumGroups returns the number of groups
func (sg *SeriesGroupBy) NumGroups() int {
	if sg.err != nil {
		return 0
	}
	return sg.info.ngroups
}

// Keys returns the group keys in group order
func (sg *SeriesGroupBy) Keys() []Key {
	if sg.err != nil {
		return nil
	}
	out := make([]Key, sg.info.ngroups)
	for gi := range out {
		out[gi] = sg.key(gi)
	}
	return out
}

// group returns the values of rows carrying their original labels
func (sg *SeriesGroupBy) group(rows []int) *Series {
	sub := sg.s.take(rows)
	sub.index = sg.rowLabels(rows)
	return sub
}

// GetGroup returns the values of one group in original order
func (sg *SeriesGroupBy) GetGroup(key ...interface{}) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	gi, err := sg.lookup(Key(key))
	if err != nil {
		return nil, err
	}
	return sg.group(sg.groups()[gi]), nil
}

// Each calls fn for every group in group order
func (sg *SeriesGroupBy) Each(fn func(key Key, group *Series) error) error {
	if sg.err != nil {
		return sg.err
	}
	for gi, rows := range sg.groups() {
		if err := fn(sg.key(gi), sg.group(rows)); err != nil {
			return err
		}
	}
	return nil
}

func (sg *SeriesGroupBy) reduce(fn AggType, nth int) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	out, err := aggregateGroups(sg.s, sg.groups(), fn, nth)
	if err != nil {
		return nil, err
	}
	out.index = sg.keyIndex()
	return out, nil
}

// Sum computes the per-group sum
func (sg *SeriesGroupBy) Sum() (*Series, error) { return sg.reduce(AggTypeSum, 0) }

// Prod computes the per-group product
func (sg *SeriesGroupBy) Prod() (*Series, error) { return sg.reduce(AggTypeProd, 0) }

// Mean computes the per-group mean
func (sg *SeriesGroupBy) Mean() (*Series, error) { return sg.reduce(AggTypeMean, 0) }

// Median computes the per-group median
func (sg *SeriesGroupBy) Median() (*Series, error) { return sg.reduce(AggTypeMedian, 0) }

// Var computes the per-group sample variance
func (sg *SeriesGroupBy) Var() (*Series, error) { return sg.reduce(AggTypeVar, 0) }

// Std computes the per-group sample standard deviation
func (sg *SeriesGroupBy) Std() (*Series, error) { return sg.reduce(AggTypeStd, 0) }

// Sem computes the per-group standard error of the mean
func (sg *SeriesGroupBy) Sem() (*Series, error) { return sg.reduce(AggTypeSem, 0) }

// Min takes the per-group minimum
func (sg *SeriesGroupBy) Min() (*Series, error) { return sg.reduce(AggTypeMin, 0) }

// Max takes the per-group maximum
func (sg *SeriesGroupBy) Max() (*Series, error) { return sg.reduce(AggTypeMax, 0) }

// First takes the first present value per group
func (sg *SeriesGroupBy) First() (*Series, error) { return sg.reduce(AggTypeFirst, 0) }

// Last takes the last present value per group
func (sg *SeriesGroupBy) Last() (*Series, error) { return sg.reduce(AggTypeLast, 0) }

// Nth takes the n-th value per group
func (sg *SeriesGroupBy) Nth(n int) (*Series, error) { return sg.reduce(AggTypeNth, n) }

// Count counts present values per group
func (sg *SeriesGroupBy) Count() (*Series, error) { return sg.reduce(AggTypeCount, 0) }

// NUnique counts distinct present values per group
func (sg *SeriesGroupBy) NUnique() (*Series, error) { return sg.reduce(AggTypeNUnique, 0) }

// Size counts rows per group
func (sg *SeriesGroupBy) Size() (*Series, error) { return sg.reduce(AggTypeSize, 0) }

// AggFunc reduces each group with fn, which must return a scalar
func (sg *SeriesGroupBy) AggFunc(fn func(*Series) (interface{}, error)) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	labels := sg.index
	if labels == nil {
		labels = NewRangeIndex(sg.n)
	}
	out, err := customGroups(sg.s, sg.groups(), labels, fn)
	if err != nil {
		return nil, err
	}
	out.index = sg.keyIndex()
	return out, nil
}

// AggFuncs applies several named functions, one output column per function
func (sg *SeriesGroupBy) AggFuncs(funcs ...string) (*DataFrame, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	cols := make([]*Series, len(funcs))
	for i, name := range funcs {
		fn, err := ParseAggType(name)
		if err != nil {
			return nil, err
		}
		res, err := aggregateGroups(sg.s, sg.groups(), fn, 0)
		if err != nil {
			return nil, err
		}
		cols[i] = res.Rename(fn.String())
	}
	return &DataFrame{columns: cols, height: sg.info.ngroups, index: sg.keyIndex()}, nil
}

// ============================================================================
// Transformations
// ============================================================================

func (sg *SeriesGroupBy) labelled(out *Series, err error) (*Series, error) {
	if err != nil {
		return nil, err
	}
	out.name = sg.s.name
	out.index = sg.index
	return out, nil
}

// CumSum computes the running sum within each group
func (sg *SeriesGroupBy) CumSum() (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	return sg.labelled(cumulativeGroups(sg.s, sg.groups(), cumSum))
}

// CumProd computes the running product within each group
func (sg *SeriesGroupBy) CumProd() (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	return sg.labelled(cumulativeGroups(sg.s, sg.groups(), cumProd))
}

// CumMin computes the running minimum within each group
func (sg *SeriesGroupBy) CumMin() (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	return sg.labelled(cumulativeGroups(sg.s, sg.groups(), cumMin))
}

// CumMax computes the running maximum within each group
func (sg *SeriesGroupBy) CumMax() (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	return sg.labelled(cumulativeGroups(sg.s, sg.groups(), cumMax))
}

// CumCount numbers the rows of each group from 0
func (sg *SeriesGroupBy) CumCount() (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	out, err := cumulativeGroups(sg.s, sg.groups(), cumCount)
	if err != nil {
		return nil, err
	}
	out.index = sg.index
	return out, nil
}

// Rank ranks values within each group
func (sg *SeriesGroupBy) Rank(opts RankOptions) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	return sg.labelled(rankGroups(sg.s, sg.groups(), opts), nil)
}

// Shift moves values n rows forward within each group
func (sg *SeriesGroupBy) Shift(n int) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	return sg.labelled(shiftGroups(sg.s, sg.groups(), n), nil)
}

// FillNull fills missing values from neighbours within the same group
func (sg *SeriesGroupBy) FillNull(strategy FillStrategy) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	return sg.labelled(fillGroups(sg.s, sg.groups(), strategy, 0), nil)
}

// Transform calls fn with each group's values; fn returns a Series of the
// group's length or a single value to broadcast
func (sg *SeriesGroupBy) Transform(fn func(*Series) (*Series, error)) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	groups := sg.groups()
	pieces := make([]*Series, len(groups))
	for gi, rows := range groups {
		if len(rows) == 0 {
			continue
		}
		res, err := fn(sg.group(rows))
		if err != nil {
			return nil, err
		}
		pieces[gi] = res
	}
	return sg.labelled(sg.scatter(sg.s.name, pieces))
}

// TransformAgg broadcasts a named aggregation to every row of its group
func (sg *SeriesGroupBy) TransformAgg(name string) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	fn, err := ParseAggType(name)
	if err != nil {
		return nil, err
	}
	agg, err := aggregateGroups(sg.s, sg.groups(), fn, 0)
	if err != nil {
		return nil, err
	}
	return sg.labelled(sg.broadcast(agg), nil)
}

// Head returns the first n values of each group in original order
func (sg *SeriesGroupBy) Head(n int) (*Series, error) {
	return sg.positional(n, true)
}

// Tail returns the last n values of each group in original order
func (sg *SeriesGroupBy) Tail(n int) (*Series, error) {
	return sg.positional(n, false)
}

func (sg *SeriesGroupBy) positional(n int, head bool) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	var pos []int
	for _, rows := range sg.groups() {
		k := min(max(n, 0), len(rows))
		if n < 0 {
			k = max(len(rows)+n, 0)
		}
		if head {
			pos = append(pos, rows[:k]...)
		} else {
			pos = append(pos, rows[len(rows)-k:]...)
		}
	}
	sortInts(pos)
	return sg.group(pos), nil
}

// NLargest returns the n largest values of each group. The result is indexed
// by the group keys followed by the original row label.
func (sg *SeriesGroupBy) NLargest(n int, keep Keep) (*Series, error) {
	return sg.topN(n, true, keep)
}

// NSmallest returns the n smallest values of each group, indexed like NLargest
func (sg *SeriesGroupBy) NSmallest(n int, keep Keep) (*Series, error) {
	return sg.topN(n, false, keep)
}

func (sg *SeriesGroupBy) topN(n int, largest bool, keep Keep) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	var pos, owners []int
	for gi, rows := range topNGroups(sg.s, sg.groups(), n, largest, keep) {
		for _, r := range rows {
			pos = append(pos, r)
			owners = append(owners, gi)
		}
	}
	out := sg.s.take(pos)
	idx, err := sg.prependKeys(owners, sg.rowLabels(pos))
	if err != nil {
		return nil, err
	}
	out.index = idx
	return out, nil
}

// prependKeys builds an index of the owning group's key levels followed by
// the levels of inner.
func (sg *SeriesGroupBy) prependKeys(owners []int, inner *Index) (*Index, error) {
	levels := make([]*Series, 0, len(sg.info.keys)+inner.NLevels())
	for l, k := range sg.info.keys {
		levels = append(levels, k.take(owners).Rename(sg.keyNames[l]))
	}
	levels = append(levels, inner.Levels()...)
	return NewIndex(levels...)
}

// ============================================================================
// Apply and filter
// ============================================================================

// ApplySeries calls fn with each group's values and concatenates the results.
// If every result carries its group's labels the values are put back in
// original order; otherwise the group keys are prepended to the result labels
// (when GroupKeys is set). nil results are skipped.
func (sg *SeriesGroupBy) ApplySeries(fn func(key Key, group *Series) (*Series, error)) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	var results []*Series
	var owners []int
	transformLike := true
	for gi, rows := range sg.groups() {
		if len(rows) == 0 {
			continue
		}
		sub := sg.group(rows)
		res, err := fn(sg.key(gi), sub)
		if err != nil {
			return nil, fmt.Errorf("apply group %s: %w", sg.key(gi), err)
		}
		if res == nil {
			continue
		}
		if !res.Index().Equal(sub.Index()) {
			transformLike = false
		}
		results = append(results, res)
		owners = append(owners, gi)
	}
	if len(results) == 0 {
		return NewSeriesNull(sg.s.name, 0), nil
	}
	if transformLike {
		pieces := make([]*Series, len(sg.groups()))
		for i, gi := range owners {
			pieces[gi] = results[i]
		}
		out, err := sg.scatter(sg.s.name, pieces)
		if err != nil {
			return nil, err
		}
		var kept []int
		for i := 0; i < sg.n; i++ {
			if sg.info.ids[i] >= 0 && pieces[sg.info.ids[i]] != nil {
				kept = append(kept, i)
			}
		}
		out = out.take(kept)
		out.index = sg.rowLabels(kept)
		return out, nil
	}
	withLabels := make([]*Series, len(results))
	for i, r := range results {
		withLabels[i] = r.shallow()
		withLabels[i].index = r.Index()
	}
	combined, err := ConcatSeries(withLabels...)
	if err != nil {
		return nil, err
	}
	if !sg.opts.GroupKeys {
		return combined, nil
	}
	var reps []int
	for i, r := range results {
		for k := 0; k < r.Len(); k++ {
			reps = append(reps, owners[i])
		}
	}
	idx, err := sg.prependKeys(reps, combined.Index())
	if err != nil {
		return nil, err
	}
	combined.index = idx
	return combined, nil
}

// ApplyScalar reduces each group with fn into a Series indexed by the keys
func (sg *SeriesGroupBy) ApplyScalar(fn func(key Key, group *Series) (interface{}, error)) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	vals := make([]interface{}, sg.info.ngroups)
	for gi, rows := range sg.groups() {
		v, err := fn(sg.key(gi), sg.group(rows))
		if err != nil {
			return nil, fmt.Errorf("apply group %s: %w", sg.key(gi), err)
		}
		if !isScalar(v) {
			return nil, fmtNotReduced(sg.s.name, v)
		}
		vals[gi] = v
	}
	out := NewSeriesFromValues(sg.s.name, vals)
	out.index = sg.keyIndex()
	return out, nil
}

// Filter keeps the values of groups for which pred is true, in original
// order. With dropNA false all rows are kept and failing ones are missing.
func (sg *SeriesGroupBy) Filter(pred func(group *Series) (bool, error), dropNA bool) (*Series, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	pass := getBoolMask(sg.n)
	defer pass.Release()
	for _, rows := range sg.groups() {
		if len(rows) == 0 {
			continue
		}
		ok, err := pred(sg.group(rows))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			pass.Data[r] = ok
		}
	}
	if dropNA {
		var pos []int
		for i, ok := range pass.Data {
			if ok {
				pos = append(pos, i)
			}
		}
		return sg.group(pos), nil
	}
	pos := make([]int, sg.n)
	for i, ok := range pass.Data {
		pos[i] = i
		if !ok {
			pos[i] = -1
		}
	}
	return sg.labelled(sg.s.take(pos), nil)
}

// Pipe calls fn with the grouping
func (sg *SeriesGroupBy) Pipe(fn func(*SeriesGroupBy) (*Series, error)) (*Series, error) {
	return fn(sg)
}
