package skiff

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Key/value metadata recording column order and the skiff dtype of every
// column, so narrow integers, datetimes and categoricals survive a round trip.
const (
	dtypesMetadataKey  = "skiff.dtypes"
	columnsMetadataKey = "skiff.columns"
)

// ParquetReadOptions configures Parquet reading behavior
type ParquetReadOptions struct {
	Columns []string // Only read these columns (nil = all)
	MaxRows int      // Max rows to read (0 = unlimited)
}

// DefaultParquetReadOptions returns default Parquet reading options
func DefaultParquetReadOptions() ParquetReadOptions {
	return ParquetReadOptions{}
}

// ReadParquet reads a Parquet file into a DataFrame
func ReadParquet(path string, opts ...ParquetReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return ReadParquetFromReader(f, stat.Size(), opts...)
}

// parquetColumn describes one requested leaf
type parquetColumn struct {
	name  string
	leaf  int
	dtype DType
}

// ReadParquetFromReader reads Parquet data from an io.ReaderAt into a DataFrame.
// Null leaf values become missing entries.
func ReadParquetFromReader(r io.ReaderAt, size int64, opts ...ParquetReadOptions) (*DataFrame, error) {
	opt := DefaultParquetReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	schema := pf.Schema()

	stored := map[string]DType{}
	if meta, ok := pf.Lookup(dtypesMetadataKey); ok {
		stored = parseDTypeMetadata(meta)
	}

	names := opt.Columns
	if len(names) == 0 {
		for _, f := range schema.Fields() {
			names = append(names, f.Name())
		}
		if order, ok := pf.Lookup(columnsMetadataKey); ok && order != "" {
			names = strings.Split(order, "\x1f")
		}
	}

	cols := make([]parquetColumn, len(names))
	for i, name := range names {
		leaf, ok := schema.Lookup(name)
		if !ok {
			return nil, &ColumnNotFoundError{Name: name}
		}
		dtype, ok := stored[name]
		if !ok {
			dtype = parquetKindToDType(leaf.Node.Type().Kind())
		}
		cols[i] = parquetColumn{name: name, leaf: leaf.ColumnIndex, dtype: dtype}
	}

	rowGroups := pf.RowGroups()
	parts := make([]*DataFrame, len(rowGroups))
	errs := ParallelMap(len(rowGroups), func(g int) error {
		var err error
		parts[g], err = readRowGroup(rowGroups[g], cols)
		if err != nil {
			return fmt.Errorf("row group %d: %w", g, err)
		}
		return nil
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if len(parts) == 0 {
		return NewEmptyDataFrame(names...), nil
	}

	df, err := Concat(parts...)
	if err != nil {
		return nil, err
	}
	if opt.MaxRows > 0 && df.Height() > opt.MaxRows {
		df = df.Head(opt.MaxRows)
	}
	return df, nil
}

func readRowGroup(rg parquet.RowGroup, cols []parquetColumn) (*DataFrame, error) {
	vals := make([][]interface{}, len(cols))
	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, 1000)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			for i, c := range cols {
				var v interface{}
				if c.leaf < len(row) {
					v = fromParquetValue(row[c.leaf], c.dtype)
				}
				vals[i] = append(vals[i], v)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rows: %w", err)
		}
		if n == 0 {
			break
		}
	}

	series := make([]*Series, len(cols))
	for i, c := range cols {
		series[i] = newSeriesOfDType(c.name, c.dtype, vals[i], nil)
	}
	return NewDataFrame(series...)
}

func parquetKindToDType(kind parquet.Kind) DType {
	switch kind {
	case parquet.Boolean:
		return Bool
	case parquet.Int32:
		return Int32
	case parquet.Int64:
		return Int64
	case parquet.Float:
		return Float32
	case parquet.Double:
		return Float64
	default:
		return String
	}
}

func fromParquetValue(val parquet.Value, dtype DType) interface{} {
	if val.IsNull() {
		return nil
	}
	switch dtype {
	case Float64:
		return val.Double()
	case Float32:
		return float64(val.Float())
	case Int64, DateTime:
		v := val.Int64()
		if dtype == DateTime {
			return time.Unix(0, v).UTC()
		}
		return v
	case Int32, Int16, Int8:
		return int64(val.Int32())
	case Bool:
		return val.Boolean()
	default:
		return string(val.ByteArray())
	}
}

func parseDTypeMetadata(meta string) map[string]DType {
	out := make(map[string]DType)
	for _, entry := range strings.Split(meta, "\x1f") {
		name, typ, ok := strings.Cut(entry, "\x1e")
		if !ok {
			continue
		}
		if d, err := ParseDType(typ); err == nil {
			out[name] = d
		}
	}
	return out
}

// ParquetWriteOptions configures Parquet writing behavior
type ParquetWriteOptions struct {
	Compression  string // "snappy", "gzip", "zstd", "none" (default "snappy")
	RowGroupSize int    // Rows per row group (default 1000000)
	WriteIndex   bool   // Write a labelled index as leading columns (default true)
}

// DefaultParquetWriteOptions returns default Parquet writing options
func DefaultParquetWriteOptions() ParquetWriteOptions {
	return ParquetWriteOptions{
		Compression:  "snappy",
		RowGroupSize: 1000000,
		WriteIndex:   true,
	}
}

// WriteParquet writes a DataFrame to a Parquet file
func (df *DataFrame) WriteParquet(path string, opts ...ParquetWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return df.WriteParquetToWriter(f, opts...)
}

// WriteParquetToWriter writes a DataFrame to an io.Writer. Every column is an
// optional leaf so missing values round-trip as nulls.
func (df *DataFrame) WriteParquetToWriter(w io.Writer, opts ...ParquetWriteOptions) error {
	opt := DefaultParquetWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.WriteIndex && df.index != nil && !df.index.IsRange() {
		df = df.ResetIndex()
	}
	if df.Width() == 0 {
		return fmt.Errorf("%w: cannot write a frame without columns", ErrInvalidArgument)
	}

	group := make(parquet.Group)
	meta := make([]string, len(df.columns))
	for i, col := range df.columns {
		group[col.name] = parquet.Optional(dtypeToParquetNode(col.dtype))
		meta[i] = col.name + "\x1e" + col.dtype.String()
	}
	schema := parquet.NewSchema("dataframe", group)

	writerOpts := []parquet.WriterOption{
		schema,
		parquet.KeyValueMetadata(dtypesMetadataKey, strings.Join(meta, "\x1f")),
		parquet.KeyValueMetadata(columnsMetadataKey, strings.Join(df.ColumnNames(), "\x1f")),
	}
	switch opt.Compression {
	case "snappy":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Snappy))
	case "gzip":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Gzip))
	case "zstd":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Zstd))
	}

	leaves := make([]int, len(df.columns))
	for i, col := range df.columns {
		leaf, _ := schema.Lookup(col.name)
		leaves[i] = leaf.ColumnIndex
	}

	pw := parquet.NewWriter(w, writerOpts...)
	const batchSize = 1000
	rows := make([]parquet.Row, 0, batchSize)
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if _, err := pw.WriteRows(rows); err != nil {
			return fmt.Errorf("failed to write rows: %w", err)
		}
		rows = rows[:0]
		return nil
	}
	for i := 0; i < df.height; i++ {
		row := make(parquet.Row, len(df.columns))
		for j, col := range df.columns {
			row[leaves[j]] = toParquetValue(col.Get(i), col.dtype, leaves[j])
		}
		rows = append(rows, row)
		if len(rows) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
		if opt.RowGroupSize > 0 && (i+1)%opt.RowGroupSize == 0 {
			if err := flush(); err != nil {
				return err
			}
			if err := pw.Flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	return pw.Close()
}

func dtypeToParquetNode(dtype DType) parquet.Node {
	switch dtype {
	case Float64:
		return parquet.Leaf(parquet.DoubleType)
	case Float32:
		return parquet.Leaf(parquet.FloatType)
	case Int64, DateTime:
		return parquet.Leaf(parquet.Int64Type)
	case Int32, Int16, Int8:
		return parquet.Leaf(parquet.Int32Type)
	case Bool:
		return parquet.Leaf(parquet.BooleanType)
	default:
		return parquet.String()
	}
}

// toParquetValue encodes one cell of an optional leaf
func toParquetValue(v interface{}, dtype DType, leaf int) parquet.Value {
	if v == nil {
		return parquet.NullValue().Level(0, 0, leaf)
	}
	var pv parquet.Value
	switch dtype {
	case Float64:
		pv = parquet.DoubleValue(v.(float64))
	case Float32:
		pv = parquet.FloatValue(v.(float32))
	case Int64:
		pv = parquet.Int64Value(v.(int64))
	case DateTime:
		pv = parquet.Int64Value(v.(time.Time).UnixNano())
	case Int32, Int16, Int8:
		x, _ := toInt(v)
		pv = parquet.Int32Value(int32(x))
	case Bool:
		pv = parquet.BooleanValue(v.(bool))
	default:
		pv = parquet.ByteArrayValue([]byte(formatScalar(v)))
	}
	return pv.Level(0, 1, leaf)
}
