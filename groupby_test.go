package skiff

import (
	"errors"
	"math"
	"testing"
	"time"
)

func salesFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		NewSeriesString("region", []string{"east", "west", "east", "west", "east"}),
		NewSeriesFloat64("sales", []float64{100, 200, 150, 250, 175}),
		NewSeriesInt64("units", []int64{10, 20, 15, 25, 18}),
	)
	if err != nil {
		t.Fatalf("failed to create DataFrame: %v", err)
	}
	return df
}

func TestGroupByBasic(t *testing.T) {
	gb := salesFrame(t).GroupBy("region")
	if err := gb.Err(); err != nil {
		t.Fatalf("GroupBy: %v", err)
	}
	if gb.NumGroups() != 2 {
		t.Errorf("expected 2 groups, got %d", gb.NumGroups())
	}
	keys := gb.Keys()
	if keys[0][0] != "east" || keys[1][0] != "west" {
		t.Errorf("keys should be sorted, got %v", keys)
	}
	idx := gb.Indices()
	if len(idx[0]) != 3 || idx[0][2] != 4 || len(idx[1]) != 2 {
		t.Errorf("indices = %v", idx)
	}
	if names := gb.KeyNames(); len(names) != 1 || names[0] != "region" {
		t.Errorf("KeyNames = %v", names)
	}
}

func TestGroupBySum(t *testing.T) {
	result, err := salesFrame(t).GroupBy("region").Sum()
	if err != nil {
		t.Fatalf("failed to compute sum: %v", err)
	}

	if result.Height() != 2 {
		t.Errorf("expected 2 rows, got %d", result.Height())
	}
	if result.Index().Name() != "region" || result.Index().Label(1) != "west" {
		t.Errorf("result should be indexed by region, got %v", result.Index().Labels())
	}

	sales := result.Column("sales").Float64()
	if sales[0] != 425 { // 100 + 150 + 175
		t.Errorf("east sales: expected 425, got %f", sales[0])
	}
	if sales[1] != 450 { // 200 + 250
		t.Errorf("west sales: expected 450, got %f", sales[1])
	}

	units := result.Column("units")
	if units.DType() != Int64 {
		t.Errorf("integer sum should stay Int64, got %v", units.DType())
	}
	if units.Int64()[0] != 43 { // 10 + 15 + 18
		t.Errorf("east units: expected 43, got %d", units.Int64()[0])
	}
}

func TestGroupByMean(t *testing.T) {
	result, err := salesFrame(t).GroupBy("region").Mean("sales")
	if err != nil {
		t.Fatalf("failed to compute mean: %v", err)
	}
	mean := result.Column("sales").Float64()
	if math.Abs(mean[0]-425.0/3) > 1e-9 {
		t.Errorf("east mean: expected %f, got %f", 425.0/3, mean[0])
	}
	if mean[1] != 225 { // (200 + 250) / 2
		t.Errorf("west mean: expected 225, got %f", mean[1])
	}
}

func TestGroupByIntegerSumOverflow(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("k", []string{"a", "a"}),
		NewSeriesInt64("v", []int64{math.MaxInt64, 1}),
	)
	result, err := df.GroupBy("k").Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if result.Column("v").DType() != Float64 {
		t.Errorf("overflowing sum should become Float64, got %v", result.Column("v").DType())
	}
}

func TestGroupByNuisanceColumns(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("k", []string{"a", "b", "a"}),
		NewSeriesString("s", []string{"x", "y", "z"}),
		NewSeriesInt64("v", []int64{1, 2, 3}),
	)

	result, err := df.GroupBy("k").Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if names := result.ColumnNames(); len(names) != 1 || names[0] != "v" {
		t.Errorf("string column should be skipped, got %v", names)
	}

	_, err = df.GroupBy("k").Sum("s")
	var dtErr *DTypeError
	if !errors.As(err, &dtErr) || dtErr.Column != "s" {
		t.Errorf("naming a string column should fail with DTypeError, got %v", err)
	}

	// min works on strings
	mins, err := df.GroupBy("k").Min()
	if err != nil {
		t.Fatalf("Min: %v", err)
	}
	if mins.Get(0, "s") != "x" || mins.Get(1, "s") != "y" {
		t.Errorf("min of s = %v", mins.Column("s").Values())
	}
}

func TestGroupBySortFalse(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("k", []string{"b", "a", "b"}),
		NewSeriesInt64("v", []int64{1, 2, 3}),
	)
	opts := DefaultGroupOptions()
	opts.Sort = false

	result, err := df.GroupByWith(opts, ByColumn("k")).Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if result.Index().Label(0) != "b" || result.Index().Label(1) != "a" {
		t.Errorf("groups should follow first appearance, got %v", result.Index().Labels())
	}
	if result.Column("v").Int64()[0] != 4 {
		t.Errorf("b sum: expected 4, got %d", result.Column("v").Int64()[0])
	}
}

func TestGroupByDropNA(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesStringWithNulls("k", []string{"a", "", "b", "a"}, []bool{true, false, true, true}),
		NewSeriesInt64("v", []int64{1, 2, 3, 4}),
	)

	dropped, err := df.GroupBy("k").Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if dropped.Height() != 2 {
		t.Errorf("missing keys should be dropped, got %d groups", dropped.Height())
	}

	opts := DefaultGroupOptions()
	opts.DropNA = false
	kept, err := df.GroupByWith(opts, ByColumn("k")).Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if kept.Height() != 3 {
		t.Fatalf("missing key should form a group, got %d groups", kept.Height())
	}
	// the missing group sorts last
	if kept.Index().Label(2) != nil {
		t.Errorf("last label = %v, want nil", kept.Index().Label(2))
	}
	want := []int64{5, 3, 2}
	for i, w := range want {
		if got := kept.Column("v").Int64()[i]; got != w {
			t.Errorf("sum[%d] = %d, want %d", i, got, w)
		}
	}
}

func TestGroupByMultipleKeys(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("a", []string{"x", "x", "y", "y", "x"}),
		NewSeriesInt64("b", []int64{1, 2, 1, 1, 1}),
		NewSeriesInt64("v", []int64{1, 2, 3, 4, 5}),
	)

	result, err := df.GroupBy("a", "b").Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if !result.Index().IsMulti() {
		t.Fatal("result should have a multi-index")
	}
	wantKeys := []Key{{"x", int64(1)}, {"x", int64(2)}, {"y", int64(1)}}
	wantSums := []int64{6, 2, 7}
	for i := range wantKeys {
		if !labelsEqual(result.Index().Label(i), wantKeys[i]) {
			t.Errorf("label %d = %v, want %v", i, result.Index().Label(i), wantKeys[i])
		}
		if got := result.Column("v").Int64()[i]; got != wantSums[i] {
			t.Errorf("sum %d = %d, want %d", i, got, wantSums[i])
		}
	}
}

func TestGroupByCategoricalObserved(t *testing.T) {
	cat, _ := NewSeriesCategoricalWithCategories("c", []string{"x", "x", "z"}, []string{"x", "y", "z"})
	df, _ := NewDataFrame(cat, NewSeriesInt64("v", []int64{1, 2, 3}))

	all, err := df.GroupBy("c").Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if all.Height() != 3 {
		t.Fatalf("unobserved categories should be kept, got %d groups", all.Height())
	}
	if all.Index().Label(1) != "y" || all.Column("v").Int64()[1] != 0 {
		t.Errorf("empty category y: label %v sum %v", all.Index().Label(1), all.Column("v").Int64()[1])
	}

	size, err := df.GroupBy("c").Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size.Int64()[1] != 0 {
		t.Errorf("size of y = %d, want 0", size.Int64()[1])
	}

	opts := DefaultGroupOptions()
	opts.Observed = true
	observed, err := df.GroupByWith(opts, ByColumn("c")).Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if observed.Height() != 2 {
		t.Errorf("observed grouping should have 2 groups, got %d", observed.Height())
	}
}

func TestGroupByCountSizeNth(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("k", []string{"a", "a", "b"}),
		NewSeriesFloat64("v", []float64{math.NaN(), 2, 3}),
	)
	gb := df.GroupBy("k")

	counts, err := gb.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if c := counts.Column("v").Int64(); c[0] != 1 || c[1] != 1 {
		t.Errorf("counts = %v, want [1 1]", c)
	}

	size, err := gb.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size.Name() != "size" || size.Int64()[0] != 2 || size.Int64()[1] != 1 {
		t.Errorf("size = %v (%s)", size.Values(), size.Name())
	}

	first, _ := gb.First()
	if first.Get(0, "v") != 2.0 {
		t.Errorf("first should skip missing values, got %v", first.Get(0, "v"))
	}

	nth, _ := gb.Nth(0)
	if nth.Get(0, "v") != nil {
		t.Errorf("nth(0) does not skip missing values, got %v", nth.Get(0, "v"))
	}
	nth1, _ := gb.Nth(1)
	if nth1.Get(1, "v") != nil {
		t.Errorf("nth(1) of a one-row group should be missing, got %v", nth1.Get(1, "v"))
	}
	last, _ := gb.Nth(-1)
	if last.Get(0, "v") != 2.0 {
		t.Errorf("nth(-1) = %v, want 2", last.Get(0, "v"))
	}
}

func TestGroupByAggNaming(t *testing.T) {
	gb := salesFrame(t).GroupBy("region")

	result, err := gb.Agg(AggSum("units"), AggMean("units"), AggSize(), AggMax("sales").Alias("top"))
	if err != nil {
		t.Fatalf("Agg: %v", err)
	}
	want := []string{"units_sum", "units_mean", "size", "top"}
	got := result.ColumnNames()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("columns = %v, want %v", got, want)
		}
	}
	if result.Get(0, "size") != int64(3) || result.Get(1, "top") != 250.0 {
		t.Errorf("row values: %v %v", result.Row(0), result.Row(1))
	}

	counted, err := gb.Agg(AggCount())
	if err != nil {
		t.Fatalf("Agg(count): %v", err)
	}
	if counted.ColumnNames()[0] != "count" {
		t.Errorf("AggCount() column = %v", counted.ColumnNames())
	}

	if _, err := gb.Agg(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Agg() err = %v", err)
	}
	if _, err := gb.Agg(AggSum("nope")); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("unknown column err = %v", err)
	}
}

func TestGroupByAggMap(t *testing.T) {
	result, err := salesFrame(t).GroupBy("region").AggMap(map[string][]string{
		"units": {"min", "max"},
		"sales": {"sum"},
	})
	if err != nil {
		t.Fatalf("AggMap: %v", err)
	}
	want := []string{"sales", "units_min", "units_max"}
	got := result.ColumnNames()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("columns = %v, want %v", got, want)
		}
	}
	if result.Get(1, "units_min") != int64(20) {
		t.Errorf("west units_min = %v", result.Get(1, "units_min"))
	}
}

func TestGroupByAsIndexFalse(t *testing.T) {
	opts := DefaultGroupOptions()
	opts.AsIndex = false
	result, err := salesFrame(t).GroupByWith(opts, ByColumn("region")).Sum("sales")
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if result.HasIndex() {
		t.Error("result should have a range index")
	}
	names := result.ColumnNames()
	if len(names) != 2 || names[0] != "region" || names[1] != "sales" {
		t.Errorf("columns = %v", names)
	}
	if result.Get(1, "region") != "west" {
		t.Errorf("region[1] = %v", result.Get(1, "region"))
	}
}

func TestGroupByGetGroup(t *testing.T) {
	gb := salesFrame(t).GroupBy("region")

	west, err := gb.GetGroup("west")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if west.Height() != 2 || west.Index().Label(1) != int64(3) {
		t.Errorf("west rows: height %d labels %v", west.Height(), west.Index().Labels())
	}

	if _, err := gb.GetGroup("north"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("absent key err = %v", err)
	}
	if _, err := gb.GetGroup(nil); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("nil key err = %v", err)
	}

	groups := gb.Groups()
	if len(groups) != 2 || len(groups[1].Labels) != 2 || groups[1].Labels[0] != int64(1) {
		t.Errorf("Groups = %v", groups)
	}
}

func TestGroupByErrors(t *testing.T) {
	df := salesFrame(t)

	gb := df.GroupBy("nope")
	if !errors.Is(gb.Err(), ErrColumnNotFound) {
		t.Errorf("unknown key err = %v", gb.Err())
	}
	if _, err := gb.Sum(); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("deferred error not returned: %v", err)
	}
	if gb.NumGroups() != 0 {
		t.Errorf("NumGroups on failed grouping = %d", gb.NumGroups())
	}

	if err := df.GroupBy().Err(); !errors.Is(err, ErrEmptyKeys) {
		t.Errorf("no keys err = %v", err)
	}
	if err := df.GroupBy("region").Select("nope").Err(); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Select unknown err = %v", err)
	}
}

func TestGroupByCumulative(t *testing.T) {
	gb := salesFrame(t).GroupBy("region")

	cs, err := gb.CumSum("units")
	if err != nil {
		t.Fatalf("CumSum: %v", err)
	}
	want := []int64{10, 20, 25, 45, 43}
	for i, w := range want {
		if got := cs.Column("units").Int64()[i]; got != w {
			t.Errorf("cumsum[%d] = %d, want %d", i, got, w)
		}
	}

	cc, err := gb.CumCount()
	if err != nil {
		t.Fatalf("CumCount: %v", err)
	}
	wantCount := []int64{0, 0, 1, 1, 2}
	for i, w := range wantCount {
		if cc.Int64()[i] != w {
			t.Errorf("cumcount[%d] = %d, want %d", i, cc.Int64()[i], w)
		}
	}

	shifted, err := gb.Shift(1, "units")
	if err != nil {
		t.Fatalf("Shift: %v", err)
	}
	wantShift := []interface{}{nil, nil, int64(10), int64(20), int64(15)}
	for i, w := range wantShift {
		if got := shifted.Get(i, "units"); got != w {
			t.Errorf("shift[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestGroupByTransform(t *testing.T) {
	gb := salesFrame(t).GroupBy("region")

	sums, err := gb.TransformAgg("sum", "sales")
	if err != nil {
		t.Fatalf("TransformAgg: %v", err)
	}
	want := []float64{425, 450, 425, 450, 425}
	for i, w := range want {
		if got := sums.Column("sales").Float64()[i]; got != w {
			t.Errorf("transform sum[%d] = %f, want %f", i, got, w)
		}
	}

	broadcast, err := gb.Transform(func(s *Series) (*Series, error) {
		return NewSeriesFloat64("", []float64{s.Sum()}), nil
	}, "sales")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for i, w := range want {
		if got := broadcast.Column("sales").Float64()[i]; got != w {
			t.Errorf("broadcast[%d] = %f, want %f", i, got, w)
		}
	}

	_, err = gb.Transform(func(s *Series) (*Series, error) {
		return NewSeriesFloat64("", []float64{1, 2}), nil
	}, "sales")
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("wrong-length transform err = %v", err)
	}
}

func TestGroupByHeadTail(t *testing.T) {
	gb := salesFrame(t).GroupBy("region")

	head, _ := gb.Head(1)
	if got := head.Index().Labels(); len(got) != 2 || got[0] != int64(0) || got[1] != int64(1) {
		t.Errorf("Head(1) labels = %v, want [0 1]", got)
	}
	tail, _ := gb.Tail(1)
	if got := tail.Index().Labels(); len(got) != 2 || got[0] != int64(3) || got[1] != int64(4) {
		t.Errorf("Tail(1) labels = %v, want [3 4]", got)
	}
	dropLast, _ := gb.Head(-2)
	if got := dropLast.Index().Labels(); len(got) != 1 || got[0] != int64(0) {
		t.Errorf("Head(-2) labels = %v, want [0]", got)
	}
}

func TestGroupByFilter(t *testing.T) {
	gb := salesFrame(t).GroupBy("region")
	bigSales := func(g *DataFrame) (bool, error) {
		return g.Column("sales").Sum() > 430, nil
	}

	kept, err := gb.Filter(bigSales, true)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if kept.Height() != 2 || kept.Get(0, "region") != "west" {
		t.Errorf("filtered rows = %d, first region %v", kept.Height(), kept.Get(0, "region"))
	}

	masked, err := gb.Filter(bigSales, false)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if masked.Height() != 5 || masked.Get(0, "sales") != nil || masked.Get(1, "sales") != 200.0 {
		t.Errorf("masked rows: %v %v", masked.Row(0), masked.Row(1))
	}

	boom := errors.New("boom")
	if _, err := gb.Filter(func(*DataFrame) (bool, error) { return false, boom }, true); !errors.Is(err, boom) {
		t.Errorf("predicate error not wrapped: %v", err)
	}
}

func TestGroupByApply(t *testing.T) {
	df := salesFrame(t)
	gb := df.GroupBy("region")

	heights, err := gb.ApplyScalar(func(_ Key, g *DataFrame) (interface{}, error) {
		return g.Height(), nil
	})
	if err != nil {
		t.Fatalf("ApplyScalar: %v", err)
	}
	if heights.Get(0) != int64(3) || heights.Index().Label(1) != "west" {
		t.Errorf("ApplyScalar = %v", heights.Values())
	}

	same, err := gb.ApplyFrame(func(_ Key, g *DataFrame) (*DataFrame, error) { return g, nil })
	if err != nil {
		t.Fatalf("ApplyFrame: %v", err)
	}
	if !same.Equal(df) {
		t.Errorf("identity apply should give back the frame, got\n%v", same)
	}

	firsts, err := gb.ApplyFrame(func(_ Key, g *DataFrame) (*DataFrame, error) { return g.Head(1), nil })
	if err != nil {
		t.Fatalf("ApplyFrame: %v", err)
	}
	if firsts.Height() != 2 || !labelsEqual(firsts.Index().Label(1), Key{"west", int64(1)}) {
		t.Errorf("stacked labels = %v", firsts.Index().Labels())
	}

	stats, err := gb.ApplySeries(func(_ Key, g *DataFrame) (*Series, error) {
		s := g.Column("sales")
		out := NewSeriesFloat64("sales", []float64{s.Min().(float64), s.Max().(float64)})
		return out.WithIndex(NewIndexFromValues("", "min", "max"))
	})
	if err != nil {
		t.Fatalf("ApplySeries: %v", err)
	}
	if stats.ColumnsName() != "sales" || stats.Get(0, "max") != 175.0 || stats.Get(1, "min") != 200.0 {
		t.Errorf("ApplySeries result:\n%v", stats)
	}
}

func TestGroupByKeyOrderIndependent(t *testing.T) {
	const n = 25000
	a, b, c, d, v := make([]int64, n), make([]int64, n), make([]int64, n), make([]int64, n), make([]int64, n)
	for i := 0; i < n; i++ {
		a[i], b[i], c[i], d[i], v[i] = int64(i%50), int64(i%30), int64(i%7), int64(i%11), 1
	}
	df, err := NewDataFrame(
		NewSeriesInt64("A", a), NewSeriesInt64("B", b),
		NewSeriesInt64("C", c), NewSeriesInt64("D", d),
		NewSeriesInt64("v", v),
	)
	if err != nil {
		t.Fatalf("failed to create DataFrame: %v", err)
	}

	fwd := df.GroupBy("A", "B", "C", "D").NumGroups()
	rev := df.GroupBy("D", "C", "B", "A").NumGroups()
	if fwd != 11550 || rev != fwd { // lcm(50, 30, 7, 11)
		t.Errorf("group counts: forward %d, reversed %d", fwd, rev)
	}
}

func TestGroupByCompressedKeys(t *testing.T) {
	// 20000 distinct values per level overflows the combined key space at
	// the fifth level; rows i and i+20000 share every key.
	const n, card = 25000, 20000
	names := []string{"A", "B", "C", "D", "E"}
	mults := []int{1, 3, 7, 9, 11}
	cols := make([]*Series, 0, len(names)+1)
	for l, name := range names {
		vals := make([]int64, n)
		for i := range vals {
			vals[i] = int64(i * mults[l] % card)
		}
		cols = append(cols, NewSeriesInt64(name, vals))
	}
	ones := make([]int64, n)
	for i := range ones {
		ones[i] = 1
	}
	cols = append(cols, NewSeriesInt64("v", ones))
	df, err := NewDataFrame(cols...)
	if err != nil {
		t.Fatalf("failed to create DataFrame: %v", err)
	}

	for _, keys := range [][]string{names, {"E", "D", "C", "B", "A"}} {
		gb := df.GroupBy(keys...)
		if gb.NumGroups() != card {
			t.Fatalf("%v: expected %d groups, got %d", keys, card, gb.NumGroups())
		}
		result, err := gb.Sum("v")
		if err != nil {
			t.Fatalf("%v: Sum: %v", keys, err)
		}
		if !result.Index().IsLexSorted() {
			t.Errorf("%v: result index should be lexsorted", keys)
		}
		total := int64(0)
		for _, x := range result.Column("v").Int64() {
			total += x
		}
		if total != n {
			t.Errorf("%v: sums add up to %d, want %d", keys, total, n)
		}
	}

	sums, err := df.GroupBy(names...).Sum("v")
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	v := sums.Column("v").Int64()
	if v[0] != 2 || v[n-card-1] != 2 || v[n-card] != 1 || v[card-1] != 1 {
		t.Errorf("group sizes: first %d, last shared %d, first single %d, last %d",
			v[0], v[n-card-1], v[n-card], v[card-1])
	}
}

func TestGroupByShiftMissingKey(t *testing.T) {
	df, err := NewDataFrame(
		NewSeriesInt64("A", []int64{1, 1, 1, 1, 2}),
		NewSeriesFloat64("B", []float64{1, math.NaN(), 1, 1, 2}),
		NewSeriesFloat64("v", []float64{10, 20, 30, 40, 50}),
	)
	if err != nil {
		t.Fatalf("failed to create DataFrame: %v", err)
	}

	shifted, err := df.GroupBy("A", "B").Shift(-1)
	if err != nil {
		t.Fatalf("Shift: %v", err)
	}
	if shifted.Height() != 5 {
		t.Fatalf("expected 5 rows, got %d", shifted.Height())
	}
	v := shifted.Column("v")
	if got := v.Float64(); got[0] != 30 || got[2] != 40 {
		t.Errorf("shifted values = %v", got)
	}
	for _, i := range []int{1, 3, 4} {
		if !v.IsNull(i) {
			t.Errorf("row %d should be missing, got %v", i, v.Get(i))
		}
	}
}

func TestGroupByDateTimeMissingKey(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	df, err := NewDataFrame(
		NewSeriesDateTime("ts", []time.Time{day(1), {}, day(2), day(1)}),
		NewSeriesInt64("v", []int64{1, 2, 3, 4}),
	)
	if err != nil {
		t.Fatalf("failed to create DataFrame: %v", err)
	}

	gb := df.GroupBy("ts")
	if gb.NumGroups() != 2 {
		t.Errorf("zero time should not form a group, got %d groups", gb.NumGroups())
	}
	if _, err := gb.GetGroup(nil); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("missing key err = %v", err)
	}
	sums, err := gb.Sum()
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if v := sums.Column("v").Int64(); v[0] != 5 || v[1] != 3 {
		t.Errorf("sums = %v", v)
	}
}

func TestGroupByApplyFrameSkipsNil(t *testing.T) {
	df, err := NewDataFrame(
		NewSeriesInt64("groups", []int64{0, 1, 1}),
		NewSeriesInt64("v", []int64{1, 2, 3}),
	)
	if err != nil {
		t.Fatalf("failed to create DataFrame: %v", err)
	}
	gb := df.GroupBy("groups")

	picked, err := gb.ApplyFrame(func(key Key, _ *DataFrame) (*DataFrame, error) {
		if key[0] == int64(0) {
			return nil, nil
		}
		out, err := NewDataFrame(NewSeriesInt64("x", []int64{7, 8, 9}))
		if err != nil {
			return nil, err
		}
		return out.Take([]int{0, 2}), nil
	})
	if err != nil {
		t.Fatalf("ApplyFrame: %v", err)
	}
	if picked.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", picked.Height())
	}
	idx := picked.Index()
	if !labelsEqual(idx.Label(0), Key{int64(1), int64(0)}) || !labelsEqual(idx.Label(1), Key{int64(1), int64(2)}) {
		t.Errorf("stacked labels = %v", idx.Labels())
	}
	if names := idx.Names(); len(names) != 2 || names[0] != "groups" || names[1] != "" {
		t.Errorf("index names = %q", names)
	}

	none, err := gb.ApplyFrame(func(Key, *DataFrame) (*DataFrame, error) { return nil, nil })
	if err != nil {
		t.Fatalf("ApplyFrame: %v", err)
	}
	if none.Height() != 0 || none.Width() != 0 {
		t.Errorf("all-nil apply should be empty, got %dx%d", none.Height(), none.Width())
	}
}

func TestGroupByNotReduced(t *testing.T) {
	gb := salesFrame(t).GroupBy("region")

	if _, err := gb.AggFunc(func(s *Series) (interface{}, error) { return s, nil }, "sales"); !errors.Is(err, ErrNotReduced) {
		t.Errorf("series result err = %v", err)
	}
	if _, err := gb.AggFunc(func(s *Series) (interface{}, error) { return s.Float64(), nil }, "sales"); !errors.Is(err, ErrNotReduced) {
		t.Errorf("slice result err = %v", err)
	}
	if _, err := gb.ApplyScalar(func(_ Key, g *DataFrame) (interface{}, error) { return g.Column("sales"), nil }); !errors.Is(err, ErrNotReduced) {
		t.Errorf("ApplyScalar series result err = %v", err)
	}
}
