package skiff

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelledSeries(t *testing.T) *Series {
	t.Helper()
	s, err := NewSeriesFloat64("v", []float64{1, 2, 3, 4}).
		WithIndex(NewIndexFromValues("lbl", "a", "b", "c", "d"))
	require.NoError(t, err)
	return s
}

var xy = ByValues([]string{"x", "y", "x", "y"})

func TestSeriesGroupByReductions(t *testing.T) {
	sg := labelledSeries(t).GroupBy(xy)
	require.NoError(t, sg.Err())
	assert.Equal(t, 2, sg.NumGroups())
	assert.Equal(t, []Key{{"x"}, {"y"}}, sg.Keys())

	sum, err := sg.Sum()
	require.NoError(t, err)
	assert.Equal(t, "v", sum.Name())
	assert.Equal(t, []float64{4, 6}, sum.Float64())
	assert.Equal(t, []interface{}{"x", "y"}, sum.Index().Labels())

	mean, err := sg.Mean()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, mean.Float64())

	size, err := sg.Size()
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 2}, size.Int64())

	spread, err := sg.AggFunc(func(g *Series) (interface{}, error) {
		return g.Max().(float64) - g.Min().(float64), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2.0, 2.0}, spread.Values())

	_, err = sg.AggFunc(func(g *Series) (interface{}, error) { return g, nil })
	assert.ErrorIs(t, err, ErrNotReduced)

	multi, err := sg.AggFuncs("min", "max")
	require.NoError(t, err)
	assert.Equal(t, []string{"min", "max"}, multi.ColumnNames())
	assert.Equal(t, 4.0, multi.Get(1, "max"))
}

func TestSeriesGroupByGroups(t *testing.T) {
	sg := labelledSeries(t).GroupBy(xy)

	y, err := sg.GetGroup("y")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2.0, 4.0}, y.Values())
	assert.Equal(t, []interface{}{"b", "d"}, y.Index().Labels())

	_, err = sg.GetGroup("q")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	var seen []string
	require.NoError(t, sg.Each(func(key Key, g *Series) error {
		seen = append(seen, key.String())
		return nil
	}))
	assert.Equal(t, []string{"x", "y"}, seen)
}

func TestSeriesGroupByTransforms(t *testing.T) {
	sg := labelledSeries(t).GroupBy(xy)

	cs, err := sg.CumSum()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 4, 6}, cs.Float64())
	assert.Equal(t, []interface{}{"a", "b", "c", "d"}, cs.Index().Labels())

	means, err := sg.TransformAgg("mean")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 2, 3}, means.Float64())

	centered, err := sg.Transform(func(g *Series) (*Series, error) {
		return g.SubScalar(g.Mean())
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1, 1, 1}, centered.Float64())

	head, err := sg.Head(1)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, head.Index().Labels())

	tail, err := sg.Tail(-1)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"c", "d"}, tail.Index().Labels())

	cc, err := sg.CumCount()
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 1, 1}, cc.Int64())
}

func TestSeriesGroupByTopN(t *testing.T) {
	sg := labelledSeries(t).GroupBy(xy)

	top, err := sg.NLargest(1, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{3.0, 4.0}, top.Values())
	assert.Equal(t, 2, top.Index().NLevels())
	assert.True(t, labelsEqual(Key{"x", "c"}, top.Index().Label(0)))
	assert.Equal(t, []string{"", "lbl"}, top.Index().Names())

	bottom, err := sg.NSmallest(1, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 2.0}, bottom.Values())
}

func TestSeriesGroupByApply(t *testing.T) {
	sg := labelledSeries(t).GroupBy(xy)

	doubled, err := sg.ApplySeries(func(_ Key, g *Series) (*Series, error) {
		return g.MulScalar(2)
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2.0, 4.0, 6.0, 8.0}, doubled.Values())
	assert.Equal(t, []interface{}{"a", "b", "c", "d"}, doubled.Index().Labels())

	firsts, err := sg.ApplySeries(func(_ Key, g *Series) (*Series, error) {
		return g.Head(1), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 2.0}, firsts.Values())
	assert.True(t, labelsEqual(Key{"y", "b"}, firsts.Index().Label(1)))

	// nil results are skipped
	onlyX, err := sg.ApplySeries(func(key Key, g *Series) (*Series, error) {
		if key[0] == "y" {
			return nil, nil
		}
		return g, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 3.0}, onlyX.Values())
	assert.Equal(t, []interface{}{"a", "c"}, onlyX.Index().Labels())

	counts, err := sg.ApplyScalar(func(_ Key, g *Series) (interface{}, error) { return g.Len(), nil })
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(2), int64(2)}, counts.Values())

	boom := errors.New("boom")
	_, err = sg.ApplyScalar(func(Key, *Series) (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestSeriesGroupByFilter(t *testing.T) {
	sg := labelledSeries(t).GroupBy(xy)
	bigSum := func(g *Series) (bool, error) { return g.Sum() > 5, nil }

	kept, err := sg.Filter(bigSum, true)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2.0, 4.0}, kept.Values())
	assert.Equal(t, []interface{}{"b", "d"}, kept.Index().Labels())

	masked, err := sg.Filter(bigSum, false)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, 2.0, nil, 4.0}, masked.Values())
}

func TestSeriesGroupByOptions(t *testing.T) {
	s := labelledSeries(t)

	opts := DefaultGroupOptions()
	opts.AsIndex = false
	assert.ErrorIs(t, s.GroupByWith(opts, xy).Err(), ErrInvalidArgument)
	assert.ErrorIs(t, s.GroupBy().Err(), ErrEmptyKeys)

	byLevel, err := s.GroupBy(ByLevel("lbl")).Sum()
	require.NoError(t, err)
	assert.Equal(t, 4, byLevel.Len())

	fromFrame := salesFrame(t).GroupBy("region").Col("units")
	require.NoError(t, fromFrame.Err())
	sums, err := fromFrame.Sum()
	require.NoError(t, err)
	assert.Equal(t, []int64{43, 45}, sums.Int64())
	assert.Equal(t, "units", sums.Name())

	assert.ErrorIs(t, salesFrame(t).GroupBy("region").Col("nope").Err(), ErrColumnNotFound)
}
