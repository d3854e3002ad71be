package skiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wideFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		NewSeriesInt64("a", []int64{1, 2}),
		NewSeriesInt64("b", []int64{3, 4}),
		NewSeriesInt64("c", []int64{5, 6}),
	)
	require.NoError(t, err)
	return df
}

func TestColumnGroupByAgg(t *testing.T) {
	cg := wideFrame(t).GroupByColumns(map[string]string{"a": "g1", "b": "g2", "c": "g1"})
	require.NoError(t, cg.Err())
	assert.Equal(t, 2, cg.NumGroups())

	sums, err := cg.Sum()
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, sums.ColumnNames())
	assert.Equal(t, []int64{6, 8}, sums.Column("g1").Int64())
	assert.Equal(t, []int64{3, 4}, sums.Column("g2").Int64())

	means, err := cg.Mean()
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, means.Column("g1").Float64())

	maxes, err := cg.Max()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(5), int64(6)}, maxes.Column("g1").Values())

	_, err = cg.Agg("bogus")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestColumnGroupByTransformAgg(t *testing.T) {
	cg := wideFrame(t).GroupByColumns(map[string]string{"a": "g1", "b": "g2", "c": "g1"})

	out, err := cg.TransformAgg("sum")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.ColumnNames())
	assert.Equal(t, []int64{6, 8}, out.Column("a").Int64())
	assert.Equal(t, []int64{3, 4}, out.Column("b").Int64())
	assert.Equal(t, []int64{6, 8}, out.Column("c").Int64())
}

func TestColumnGroupByEach(t *testing.T) {
	cg := wideFrame(t).GroupByColumns(map[string]string{"a": "g1", "c": "g1"})

	var widths []int
	require.NoError(t, cg.Each(func(key string, g *DataFrame) error {
		assert.Equal(t, "g1", key)
		widths = append(widths, g.Width())
		return nil
	}))
	assert.Equal(t, []int{2}, widths)
}

func TestColumnGroupByErrors(t *testing.T) {
	df := wideFrame(t)

	assert.ErrorIs(t, df.GroupByColumns(map[string]string{"z": "g"}).Err(), ErrColumnNotFound)
	assert.ErrorIs(t, df.GroupByColumns(nil).Err(), ErrEmptyKeys)

	opts := DefaultGroupOptions()
	opts.AsIndex = false
	assert.ErrorIs(t, df.GroupByColumnsWith(opts, map[string]string{"a": "g"}).Err(), ErrInvalidArgument)
}
