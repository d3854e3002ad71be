package skiff

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// streamable reports whether fn can be merged from per-batch partials
func streamable(fn AggType) bool {
	switch fn {
	case AggTypeSum, AggTypeCount, AggTypeSize, AggTypeMin, AggTypeMax, AggTypeMean:
		return true
	}
	return false
}

// streamAcc holds the running state of one aggregation across groups. Slots
// grow as new groups appear.
type streamAcc struct {
	spec   AggSpec
	dtype  DType    // source column dtype
	cats   []string // source categories for min/max of categoricals
	ints   []int64  // exact integer sums
	exact  bool
	floats []float64 // float sums
	counts []int64
	best   []interface{}
}

func (a *streamAcc) grow() {
	a.ints = append(a.ints, 0)
	a.floats = append(a.floats, 0)
	a.counts = append(a.counts, 0)
	a.best = append(a.best, nil)
}

// streamState is a hash table from composite key to group slot
type streamState struct {
	keys      []string
	keyDTypes []DType
	keyCats   [][]string
	buckets   map[uint64][]int
	encoded   []string
	slotKeys  []Key
	accs      []*streamAcc
}

func (st *streamState) slot(key Key, enc string) int {
	h := xxh3.HashString(enc)
	for _, s := range st.buckets[h] {
		if st.encoded[s] == enc {
			return s
		}
	}
	s := len(st.slotKeys)
	st.buckets[h] = append(st.buckets[h], s)
	st.encoded = append(st.encoded, enc)
	st.slotKeys = append(st.slotKeys, key)
	for _, a := range st.accs {
		a.grow()
	}
	return s
}

// StreamGroupBy aggregates batches from reader by the key columns without
// holding the whole input in memory. Only sum, count, size, min, max and mean
// can be streamed. Rows with a missing key are dropped and the result is
// sorted by key, matching GroupBy(keys...).Agg(specs...).
func StreamGroupBy(ctx context.Context, reader BatchReader, keys []string, specs ...AggSpec) (*DataFrame, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeys
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: StreamGroupBy needs at least one aggregation", ErrInvalidArgument)
	}
	st := &streamState{keys: keys, buckets: make(map[uint64][]int)}
	for _, spec := range specs {
		if !streamable(spec.fn) {
			return nil, fmt.Errorf("%w: %s cannot be computed from batches", ErrInvalidArgument, spec.fn)
		}
		st.accs = append(st.accs, &streamAcc{spec: spec, exact: true, dtype: Null})
	}

	batches := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := st.consume(batch); err != nil {
			return nil, err
		}
		batches++
	}
	logDebug().Int("batches", batches).Int("groups", len(st.slotKeys)).Msg("stream groupby finished")
	return st.result(specs)
}

// consume folds one batch into the state: the batch is grouped with the
// in-memory engine and every group's partial result merged into its slot.
func (st *streamState) consume(batch *DataFrame) error {
	by := make([]By, len(st.keys))
	for i, k := range st.keys {
		by[i] = ByColumn(k)
	}
	opts := GroupOptions{Sort: false, AsIndex: true, GroupKeys: true, DropNA: true, Observed: true}
	gb := batch.GroupByWith(opts, by...)
	if gb.err != nil {
		return gb.err
	}
	st.recordKeyTypes(batch)

	groups := gb.groups()
	encoded := ParallelMap(len(groups), func(gi int) string {
		return encodeValue(gb.key(gi))
	})
	slots := make([]int, len(groups))
	for gi := range groups {
		slots[gi] = st.slot(gb.key(gi), encoded[gi])
	}

	for _, acc := range st.accs {
		if err := acc.merge(batch, groups, slots); err != nil {
			return err
		}
	}
	return nil
}

func (st *streamState) recordKeyTypes(batch *DataFrame) {
	if st.keyDTypes == nil {
		st.keyDTypes = make([]DType, len(st.keys))
		st.keyCats = make([][]string, len(st.keys))
		for i, k := range st.keys {
			c := batch.column(k)
			st.keyDTypes[i] = c.dtype
			st.keyCats[i] = append([]string{}, c.categories...)
		}
		return
	}
	for i, k := range st.keys {
		c := batch.column(k)
		if c.dtype != Categorical {
			continue
		}
		known := make(map[string]bool, len(st.keyCats[i]))
		for _, cat := range st.keyCats[i] {
			known[cat] = true
		}
		for _, cat := range c.categories {
			if !known[cat] {
				st.keyCats[i] = append(st.keyCats[i], cat)
			}
		}
	}
}

func (a *streamAcc) merge(batch *DataFrame, groups [][]int, slots []int) error {
	if a.spec.fn == AggTypeSize {
		for gi, rows := range groups {
			a.counts[slots[gi]] += int64(len(rows))
		}
		return nil
	}
	col := batch.column(a.spec.column)
	if col == nil {
		return &ColumnNotFoundError{Name: a.spec.column}
	}
	if a.dtype == Null {
		a.dtype, a.cats = col.dtype, col.categories
	}

	switch a.spec.fn {
	case AggTypeCount:
		part, err := aggregateGroups(col, groups, AggTypeCount, 0)
		if err != nil {
			return err
		}
		for gi, c := range part.Int64() {
			a.counts[slots[gi]] += c
		}

	case AggTypeSum, AggTypeMean:
		part, err := aggregateGroups(col, groups, AggTypeSum, 0)
		if err != nil {
			return err
		}
		counts := countGroups(col, groups, AggTypeCount).Int64()
		ints := part.dtype == Int64
		var exactInts []int64
		if ints {
			exactInts = part.Int64()
		} else {
			a.exact = false
		}
		for gi, f := range part.float64s() {
			s := slots[gi]
			a.floats[s] += f
			a.counts[s] += counts[gi]
			if ints && a.exact {
				var ok bool
				if a.ints[s], ok = addInt64(a.ints[s], exactInts[gi]); !ok {
					a.exact = false
				}
			}
		}

	case AggTypeMin, AggTypeMax:
		part, err := aggregateGroups(col, groups, a.spec.fn, 0)
		if err != nil {
			return err
		}
		for gi := range groups {
			v := part.Get(gi)
			if v == nil {
				continue
			}
			s := slots[gi]
			if a.best[s] == nil {
				a.best[s] = v
				continue
			}
			c := compareValues(v, a.best[s], a.cats)
			if (a.spec.fn == AggTypeMin && c < 0) || (a.spec.fn == AggTypeMax && c > 0) {
				a.best[s] = v
			}
		}
	}
	return nil
}

func (a *streamAcc) series(name string, order []int) *Series {
	n := len(order)
	switch a.spec.fn {
	case AggTypeSize, AggTypeCount:
		out := make([]int64, n)
		for i, s := range order {
			out[i] = a.counts[s]
		}
		return NewSeriesInt64(name, out)

	case AggTypeMean:
		out := make([]float64, n)
		for i, s := range order {
			out[i] = math.NaN()
			if a.counts[s] > 0 {
				out[i] = a.floats[s] / float64(a.counts[s])
			}
		}
		return NewSeriesFloat64(name, out)

	case AggTypeSum:
		if a.exact && !a.dtype.IsFloat() {
			out := make([]int64, n)
			for i, s := range order {
				out[i] = a.ints[s]
			}
			return NewSeriesInt64(name, out)
		}
		out := make([]float64, n)
		for i, s := range order {
			out[i] = a.floats[s]
		}
		res := NewSeriesFloat64(name, out)
		if a.dtype == Float32 {
			res, _ = res.Cast(Float32)
		}
		return res

	default:
		vals := make([]interface{}, n)
		for i, s := range order {
			vals[i] = a.best[s]
		}
		return newSeriesOfDType(name, a.dtype, vals, a.cats)
	}
}

// result builds the key columns, sorts by them and moves them to the index
func (st *streamState) result(specs []AggSpec) (*DataFrame, error) {
	n := len(st.slotKeys)
	cols := make([]*Series, 0, len(st.keys)+len(specs))
	for l, k := range st.keys {
		vals := make([]interface{}, n)
		for s, key := range st.slotKeys {
			vals[s] = key[l]
		}
		dtype := Null
		var cats []string
		if st.keyDTypes != nil {
			dtype, cats = st.keyDTypes[l], st.keyCats[l]
		}
		cols = append(cols, newSeriesOfDType(k, dtype, vals, cats))
	}
	order := seqInts(n)
	for i, name := range outputNames(specs) {
		cols = append(cols, st.accs[i].series(name, order))
	}
	df, err := NewDataFrame(cols...)
	if err != nil {
		return nil, err
	}
	if df, err = df.SortBy(st.keys); err != nil {
		return nil, err
	}
	return df.SetIndex(st.keys...)
}

// compareValues orders two present values of the same column. Categorical
// values follow their category order.
func compareValues(a, b interface{}, cats []string) int {
	switch x := a.(type) {
	case string:
		y := b.(string)
		if cats != nil {
			ia, ib := indexOf(cats, x), indexOf(cats, y)
			if ia >= 0 && ib >= 0 {
				return cmpOrdered(ia, ib)
			}
		}
		return strings.Compare(x, y)
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case time.Time:
		return x.Compare(b.(time.Time))
	case int64:
		return cmpOrdered(x, b.(int64))
	}
	fa, _ := toFloat(a)
	fb, _ := toFloat(b)
	return cmpOrdered(fa, fb)
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}
