package skiff

import (
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func asciiConfig() DisplayConfig {
	cfg := DefaultDisplayConfig()
	cfg.TableStyle = "ascii"
	return cfg
}

func TestDisplayFrame(t *testing.T) {
	df, err := NewDataFrame(
		NewSeriesString("region", []string{"east", "west"}),
		NewSeriesInt64("sales", []int64{425, 450}),
	)
	require.NoError(t, err)
	newGolden(t).Assert(t, "frame_ascii", []byte(StringWithConfig(df, asciiConfig())))
}

func TestDisplayGroupByResult(t *testing.T) {
	sums, err := salesFrame(t).GroupBy("region").Sum()
	require.NoError(t, err)
	newGolden(t).Assert(t, "groupby_sum", []byte(StringWithConfig(sums, asciiConfig())))
}

func TestDisplaySeries(t *testing.T) {
	s := NewSeriesFloat64("v", []float64{1.5, math.NaN()})
	newGolden(t).Assert(t, "series_missing", []byte(SeriesStringWithConfig(s, DefaultDisplayConfig())))

	cfg := asciiConfig()
	cfg.MaxRows = 2
	n := NewSeriesInt64("n", []int64{10, 20, 30, 40, 50})
	newGolden(t).Assert(t, "series_truncated", []byte(SeriesStringWithConfig(n, cfg)))
}

func TestDisplayEmpty(t *testing.T) {
	df, err := NewDataFrame(NewSeriesInt64("a", nil))
	require.NoError(t, err)
	assert.Equal(t, "DataFrame(empty)\ncolumns: [a]", StringWithConfig(df, DefaultDisplayConfig()))

	s := NewSeriesString("s", nil)
	assert.Equal(t, "Series: 's' (String)\nlength: 0\n[]", SeriesStringWithConfig(s, DefaultDisplayConfig()))
}

func TestDisplayConfigSetters(t *testing.T) {
	saved := GetDisplayConfig()
	t.Cleanup(func() { SetDisplayConfig(saved) })

	SetTableStyle("sharp")
	assert.Equal(t, "sharp", GetDisplayConfig().TableStyle)
	SetTableStyle("bogus")
	assert.Equal(t, "sharp", GetDisplayConfig().TableStyle)
	assert.False(t, IsTableStyle("bogus"))

	SetMaxDisplayRows(3)
	SetFloatPrecision(1)
	cfg := GetDisplayConfig()
	assert.Equal(t, 3, cfg.MaxRows)
	assert.Equal(t, "2.5", formatDisplayValue(2.5, cfg))
	assert.Equal(t, "null", formatDisplayValue(nil, cfg))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abcdef", truncate("abcdef", 6))
	assert.Equal(t, "ab...", truncate("abcdef", 5))
	assert.Equal(t, "abcdef", truncate("abcdef", 3))
}

func TestRowWindow(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, rowWindow(3, 10))
	assert.Equal(t, []int{0, 1, -1, 3, 4}, rowWindow(5, 4))
}
