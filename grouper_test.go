package skiff

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkGroupBy groups df with by and checks the per-group sums of column v.
func checkGroupBy(t *testing.T, df *DataFrame, opts GroupOptions, by []By, wantLabels []interface{}, wantSums []int64) {
	t.Helper()
	gb := df.GroupByWith(opts, by...)
	require.NoError(t, gb.Err())
	res, err := gb.Sum("v")
	require.NoError(t, err)
	assert.Equal(t, wantLabels, res.Index().Labels())
	assert.Equal(t, wantSums, res.Column("v").Int64())
}

func labelledFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		NewSeriesString("k", []string{"a", "b", "a", "b"}),
		NewSeriesInt64("v", []int64{1, 2, 3, 4}),
	)
	require.NoError(t, err)
	df, err = df.WithIndex(NewIndexFromValues("lbl", "w", "x", "y", "z"))
	require.NoError(t, err)
	return df
}

func TestGroupByKeyKinds(t *testing.T) {
	df := labelledFrame(t)
	opts := DefaultGroupOptions()

	t.Run("column", func(t *testing.T) {
		checkGroupBy(t, df, opts, []By{ByColumn("k")}, []interface{}{"a", "b"}, []int64{4, 6})
	})
	t.Run("index level name through ByColumn", func(t *testing.T) {
		checkGroupBy(t, df, opts, []By{ByColumn("lbl")},
			[]interface{}{"w", "x", "y", "z"}, []int64{1, 2, 3, 4})
	})
	t.Run("level", func(t *testing.T) {
		checkGroupBy(t, df, opts, []By{ByLevel(0)},
			[]interface{}{"w", "x", "y", "z"}, []int64{1, 2, 3, 4})
	})
	t.Run("values", func(t *testing.T) {
		checkGroupBy(t, df, opts, []By{ByValues([]int{2, 1, 2, 1})},
			[]interface{}{int64(1), int64(2)}, []int64{6, 4})
	})
	t.Run("series", func(t *testing.T) {
		checkGroupBy(t, df, opts, []By{BySeries(NewSeriesBool("flag", []bool{true, true, false, false}))},
			[]interface{}{false, true}, []int64{7, 3})
	})
	t.Run("func of label", func(t *testing.T) {
		first := func(label interface{}) interface{} {
			if label == "w" || label == "x" {
				return "wx"
			}
			return "yz"
		}
		checkGroupBy(t, df, opts, []By{ByFunc(first)}, []interface{}{"wx", "yz"}, []int64{3, 7})
	})
	t.Run("map of labels", func(t *testing.T) {
		m := map[interface{}]interface{}{"w": "one", "z": "one", "x": "two"}
		// y is unmapped and dropped
		checkGroupBy(t, df, opts, []By{ByMap(m)}, []interface{}{"one", "two"}, []int64{5, 2})
	})
	t.Run("grouper", func(t *testing.T) {
		checkGroupBy(t, df, opts, []By{Grouper{Key: "k"}}, []interface{}{"a", "b"}, []int64{4, 6})
		checkGroupBy(t, df, opts, []By{Grouper{Level: "lbl"}},
			[]interface{}{"w", "x", "y", "z"}, []int64{1, 2, 3, 4})
	})
}

func TestGroupByKeyErrors(t *testing.T) {
	df := labelledFrame(t)
	opts := DefaultGroupOptions()

	assert.ErrorIs(t, df.GroupByWith(opts, ByValues([]int{1})).Err(), ErrLengthMismatch)
	assert.ErrorIs(t, df.GroupByWith(opts, ByLevel(3)).Err(), ErrInvalidLevel)
	assert.ErrorIs(t, df.GroupByWith(opts, ByLevel("nope")).Err(), ErrInvalidLevel)
	assert.ErrorIs(t, df.GroupByWith(opts, Grouper{Key: "k", Axis: 1}).Err(), ErrInvalidArgument)
	assert.ErrorIs(t, df.GroupByWith(opts, Grouper{Key: "k", Level: 0}).Err(), ErrInvalidArgument)
	assert.ErrorIs(t, df.GroupByWith(opts, Grouper{}).Err(), ErrInvalidArgument)
}

func TestGrouperString(t *testing.T) {
	tests := []struct {
		g    Grouper
		want string
	}{
		{Grouper{Key: "A"}, "Grouper(key='A', axis=0, sort=False)"},
		{Grouper{Level: "B", Sort: true}, "Grouper(level='B', axis=0, sort=True)"},
		{Grouper{Level: 1}, "Grouper(level=1, axis=0, sort=False)"},
		{Grouper{Key: "it's"}, `Grouper(key='it\'s', axis=0, sort=False)`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.g.String())
	}
}

func TestDefaultGroupOptions(t *testing.T) {
	opts := DefaultGroupOptions()
	assert.True(t, opts.Sort)
	assert.True(t, opts.AsIndex)
	assert.True(t, opts.GroupKeys)
	assert.True(t, opts.DropNA)
	assert.False(t, opts.Observed)
}

func TestGroupByLevelUnsortedIndexWarns(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))
	t.Cleanup(func() { SetLogger(zerolog.Nop()) })

	df, err := NewDataFrame(
		NewSeriesInt64("a", []int64{2, 1, 2, 1}),
		NewSeriesString("b", []string{"x", "y", "y", "x"}),
		NewSeriesInt64("v", []int64{1, 2, 3, 4}),
	)
	require.NoError(t, err)

	unsorted, err := df.SetIndex("a", "b")
	require.NoError(t, err)
	require.False(t, unsorted.Index().IsLexSorted())
	checkGroupBy(t, unsorted, DefaultGroupOptions(), []By{ByLevel(0)},
		[]interface{}{int64(1), int64(2)}, []int64{6, 4})
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"index_level":0`)

	buf.Reset()
	sorted := unsorted.SortIndex(true)
	require.True(t, sorted.Index().IsLexSorted())
	checkGroupBy(t, sorted, DefaultGroupOptions(), []By{ByLevel(0)},
		[]interface{}{int64(1), int64(2)}, []int64{6, 4})
	assert.Empty(t, buf.String())
}
