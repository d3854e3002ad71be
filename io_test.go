package skiff

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mixedFrame has a missing value in every nullable column
func mixedFrame(t *testing.T) *DataFrame {
	t.Helper()
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	df, err := NewDataFrame(
		NewSeriesInt64WithNulls("i", []int64{1, 0, 3}, []bool{true, false, true}),
		NewSeriesFloat64("f", []float64{1.5, math.NaN(), 2}),
		NewSeriesStringWithNulls("s", []string{"x", "y", ""}, []bool{true, true, false}),
		NewSeriesBool("b", []bool{true, false, true}),
		NewSeriesCategorical("c", []string{"lo", "hi", "lo"}),
		NewSeriesDateTime("d", []time.Time{day, day.Add(time.Hour), {}}),
	)
	require.NoError(t, err)
	return df
}

func TestReadCSVInfersTypes(t *testing.T) {
	df, err := ReadCSVString("k,v,f,b\na,1,1.5,true\nb,,NA,false\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"k", "v", "f", "b"}, df.ColumnNames())
	assert.Equal(t, String, df.Column("k").DType())
	assert.Equal(t, []interface{}{int64(1), nil}, df.Column("v").Values())
	assert.Equal(t, Float64, df.Column("f").DType())
	assert.True(t, math.IsNaN(df.Column("f").Float64()[1]))
	assert.Equal(t, []interface{}{true, false}, df.Column("b").Values())
}

func TestReadCSVOptions(t *testing.T) {
	text := "# generated\nk,v\na,1\nb,2\nc,3\n"

	opts := DefaultCSVReadOptions()
	opts.Comment = '#'
	opts.MaxRows = 2
	opts.ColumnTypes = map[string]DType{"v": Float64}
	df, err := ReadCSVString(text, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, df.Height())
	assert.Equal(t, []float64{1, 2}, df.Column("v").Float64())

	opts = DefaultCSVReadOptions()
	opts.Comment = '#'
	opts.IndexCol = []string{"k"}
	df, err = ReadCSVString(text, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, df.ColumnNames())
	assert.Equal(t, []string{"k"}, df.Index().Names())

	opts = DefaultCSVReadOptions()
	opts.Comment = '#'
	opts.ColumnTypes = map[string]DType{"k": Int64}
	_, err = ReadCSVString(text, opts)
	assert.Error(t, err)
}

func TestCSVRoundTrip(t *testing.T) {
	df, err := ReadCSVString("k,v,f,b\na,1,1.5,true\nb,,NA,false\n")
	require.NoError(t, err)
	indexed, err := df.SetIndex("k")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, indexed.WriteCSVToWriter(&buf))
	assert.Equal(t, "k,v,f,b\na,1,1.5,true\nb,,,false\n", buf.String())

	path := filepath.Join(t.TempDir(), "frame.csv")
	require.NoError(t, indexed.WriteCSV(path))
	opts := DefaultCSVReadOptions()
	opts.IndexCol = []string{"k"}
	back, err := ReadCSV(path, opts)
	require.NoError(t, err)
	assert.True(t, indexed.Equal(back), "round trip changed the frame:\n%v", back)
}

func TestReadJSON(t *testing.T) {
	text := `[{"b": 1, "a": "x"}, {"b": 2.5, "a": null}]`

	df, err := ReadJSONFromReader(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, df.ColumnNames())
	assert.Equal(t, []interface{}{"x", nil}, df.Column("a").Values())
	assert.Equal(t, []float64{1, 2.5}, df.Column("b").Float64())

	opts := DefaultJSONReadOptions()
	opts.Columns = []string{"b"}
	df, err = ReadJSONFromReader(strings.NewReader(text), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, df.ColumnNames())

	opts = DefaultJSONReadOptions()
	opts.Format = JSONColumns
	df, err = ReadJSONFromReader(strings.NewReader(`{"n": [1, 2], "ok": [true, null]}`), opts)
	require.NoError(t, err)
	assert.Equal(t, Int64, df.Column("n").DType())
	assert.Equal(t, []interface{}{true, nil}, df.Column("ok").Values())

	_, err = ReadJSONFromReader(strings.NewReader(`{"n": 1}`))
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	df, err := NewDataFrame(
		NewSeriesInt64("a", []int64{1, 2}),
		NewSeriesFloat64("f", []float64{0.5, math.NaN()}),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, df.WriteJSONToWriter(&buf))
	assert.JSONEq(t, `[{"a":1,"f":0.5},{"a":2,"f":null}]`, buf.String())

	buf.Reset()
	opts := DefaultJSONWriteOptions()
	opts.Format = JSONColumns
	require.NoError(t, df.WriteJSONToWriter(&buf, opts))
	assert.JSONEq(t, `{"a":[1,2],"f":[0.5,null]}`, buf.String())

	path := filepath.Join(t.TempDir(), "frame.json")
	require.NoError(t, df.WriteJSON(path))
	back, err := ReadJSON(path)
	require.NoError(t, err)
	assert.True(t, df.Equal(back))
}

func TestParquetRoundTrip(t *testing.T) {
	df := mixedFrame(t)

	var buf bytes.Buffer
	require.NoError(t, df.WriteParquetToWriter(&buf))
	back, err := ReadParquetFromReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	assert.Equal(t, df.ColumnNames(), back.ColumnNames())
	for _, name := range df.ColumnNames() {
		assert.Equal(t, df.Column(name).DType(), back.Column(name).DType(), name)
		assert.True(t, df.Column(name).EqualValues(back.Column(name)), name)
	}
}

func TestParquetFileOptions(t *testing.T) {
	sums, err := salesFrame(t).GroupBy("region").Sum()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sums.parquet")
	opts := DefaultParquetWriteOptions()
	opts.Compression = "zstd"
	require.NoError(t, sums.WriteParquet(path, opts))

	back, err := ReadParquet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sales", "units"}, back.ColumnNames())
	assert.Equal(t, []int64{43, 45}, back.Column("units").Int64())

	back, err = ReadParquet(path, ParquetReadOptions{Columns: []string{"units"}, MaxRows: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"units"}, back.ColumnNames())
	assert.Equal(t, 1, back.Height())

	_, err = ReadParquet(path, ParquetReadOptions{Columns: []string{"nope"}})
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestArrowRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	df := mixedFrame(t)
	rec, err := df.ToArrow(mem)
	require.NoError(t, err)
	back, err := NewDataFrameFromArrow(rec)
	rec.Release()
	require.NoError(t, err)
	assert.True(t, df.Equal(back))
	assert.Equal(t, []string{"hi", "lo"}, back.Column("c").Categories())

	table, err := df.ToArrowTable(mem)
	require.NoError(t, err)
	fromTable, err := NewDataFrameFromArrowTable(table)
	table.Release()
	require.NoError(t, err)
	assert.True(t, df.Equal(fromTable))
}

func TestArrowIndexBecomesColumns(t *testing.T) {
	sums, err := salesFrame(t).GroupBy("region").Sum()
	require.NoError(t, err)

	rec, err := sums.ToArrow(nil)
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, int64(3), rec.NumCols())
	assert.Equal(t, "region", rec.Schema().Field(0).Name)
}
