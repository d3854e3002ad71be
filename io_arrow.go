package skiff

import (
	"fmt"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// categoriesMetadataKey keeps the full category list of a categorical column,
// including categories no row uses.
const categoriesMetadataKey = "skiff.categories"

// ============================================================================
// Arrow Export
// ============================================================================

// ToArrow exports a DataFrame to an Arrow Record. A labelled index is
// exported as leading columns. Missing values become Arrow nulls.
// The caller is responsible for calling Release() on the returned Record.
func (df *DataFrame) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if df.index != nil && !df.index.IsRange() {
		df = df.ResetIndex()
	}

	fields := make([]arrow.Field, df.Width())
	for i, col := range df.columns {
		arrowType, err := dtypeToArrowType(col.dtype)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.name, err)
		}
		fields[i] = arrow.Field{Name: col.name, Type: arrowType, Nullable: true}
		if col.dtype == Categorical {
			fields[i].Metadata = arrow.NewMetadata(
				[]string{categoriesMetadataKey},
				[]string{strings.Join(col.categories, "\x1f")},
			)
		}
	}
	schema := arrow.NewSchema(fields, nil)

	arrays := make([]arrow.Array, df.Width())
	for i, col := range df.columns {
		arr, err := seriesToArrowArray(col, mem)
		if err != nil {
			for j := 0; j < i; j++ {
				arrays[j].Release()
			}
			return nil, fmt.Errorf("column %s: %w", col.name, err)
		}
		arrays[i] = arr
	}

	record := array.NewRecord(schema, arrays, int64(df.Height()))
	// the record retains its columns
	for _, arr := range arrays {
		arr.Release()
	}
	return record, nil
}

// ToArrowTable exports a DataFrame to an Arrow Table.
// The caller is responsible for calling Release() on the returned Table.
func (df *DataFrame) ToArrowTable(mem memory.Allocator) (arrow.Table, error) {
	record, err := df.ToArrow(mem)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	return array.NewTableFromRecords(record.Schema(), []arrow.Record{record}), nil
}

func dtypeToArrowType(dtype DType) (arrow.DataType, error) {
	switch dtype {
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case String:
		return arrow.BinaryTypes.String, nil
	case DateTime:
		return arrow.FixedWidthTypes.Timestamp_ns, nil
	case Categorical:
		return &arrow.DictionaryType{
			IndexType: arrow.PrimitiveTypes.Int32,
			ValueType: arrow.BinaryTypes.String,
		}, nil
	case Null:
		return arrow.Null, nil
	default:
		return nil, &DTypeError{Op: "arrow export", DType: dtype}
	}
}

// arrowValidity returns the Arrow validity bitmap for s, nil when no value
// is missing.
func arrowValidity(s *Series) []bool {
	if s.NullCount() == 0 {
		return nil
	}
	valid := make([]bool, s.Len())
	for i := range valid {
		valid[i] = !s.IsNull(i)
	}
	return valid
}

func seriesToArrowArray(s *Series, mem memory.Allocator) (arrow.Array, error) {
	valid := arrowValidity(s)
	switch d := s.data.(type) {
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(d, valid)
		return builder.NewArray(), nil

	case []float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		builder.AppendValues(d, valid)
		return builder.NewArray(), nil

	case []int64:
		if s.dtype == DateTime {
			builder := array.NewTimestampBuilder(mem, &arrow.TimestampType{Unit: arrow.Nanosecond})
			defer builder.Release()
			ts := make([]arrow.Timestamp, len(d))
			for i, v := range d {
				ts[i] = arrow.Timestamp(v)
			}
			builder.AppendValues(ts, valid)
			return builder.NewArray(), nil
		}
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(d, valid)
		return builder.NewArray(), nil

	case []int32:
		if s.dtype == Categorical {
			return categoricalToArrow(s, mem)
		}
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.AppendValues(d, valid)
		return builder.NewArray(), nil

	case []int16:
		builder := array.NewInt16Builder(mem)
		defer builder.Release()
		builder.AppendValues(d, valid)
		return builder.NewArray(), nil

	case []int8:
		builder := array.NewInt8Builder(mem)
		defer builder.Release()
		builder.AppendValues(d, valid)
		return builder.NewArray(), nil

	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(d, valid)
		return builder.NewArray(), nil

	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(d, valid)
		return builder.NewArray(), nil

	case []struct{}:
		builder := array.NewNullBuilder(mem)
		defer builder.Release()
		builder.AppendNulls(len(d))
		return builder.NewArray(), nil

	default:
		return nil, &DTypeError{Op: "arrow export", Column: s.name, DType: s.dtype}
	}
}

func categoricalToArrow(s *Series, mem memory.Allocator) (arrow.Array, error) {
	dictType := &arrow.DictionaryType{
		IndexType: arrow.PrimitiveTypes.Int32,
		ValueType: arrow.BinaryTypes.String,
	}
	builder := array.NewDictionaryBuilder(mem, dictType)
	defer builder.Release()

	dictBuilder := builder.(*array.BinaryDictionaryBuilder)
	for _, code := range s.Codes() {
		if code < 0 {
			dictBuilder.AppendNull()
			continue
		}
		if err := dictBuilder.AppendString(s.categories[code]); err != nil {
			return nil, err
		}
	}
	return builder.NewArray(), nil
}

// ============================================================================
// Arrow Import
// ============================================================================

// NewDataFrameFromArrow creates a DataFrame from an Arrow Record.
func NewDataFrameFromArrow(record arrow.Record) (*DataFrame, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: record is nil", ErrInvalidArgument)
	}

	schema := record.Schema()
	series := make([]*Series, record.NumCols())
	for i := range series {
		field := schema.Field(i)
		s, err := arrowArrayToSeries(field, record.Column(i))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		series[i] = s
	}
	return NewDataFrame(series...)
}

// NewDataFrameFromArrowTable creates a DataFrame from an Arrow Table,
// concatenating the chunks of every column.
func NewDataFrameFromArrowTable(table arrow.Table) (*DataFrame, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: table is nil", ErrInvalidArgument)
	}

	schema := table.Schema()
	series := make([]*Series, table.NumCols())
	for i := range series {
		field := schema.Field(i)
		chunks := table.Column(i).Data().Chunks()
		parts := make([]*Series, len(chunks))
		for j, chunk := range chunks {
			s, err := arrowArrayToSeries(field, chunk)
			if err != nil {
				return nil, fmt.Errorf("column %s chunk %d: %w", field.Name, j, err)
			}
			parts[j] = s
		}
		s, err := ConcatSeries(parts...)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		if len(parts) == 0 {
			s = NewSeriesNull(field.Name, 0)
		}
		s.name = field.Name
		series[i] = s
	}
	return NewDataFrame(series...)
}

// arrowValues copies the values and validity of a primitive Arrow array
func arrowValues[T any](a interface {
	Len() int
	IsNull(i int) bool
	Value(i int) T
}) ([]T, []bool) {
	data := make([]T, a.Len())
	valid := make([]bool, a.Len())
	for i := range data {
		if a.IsNull(i) {
			continue
		}
		data[i], valid[i] = a.Value(i), true
	}
	return data, normalizeValid(valid)
}

func arrowArrayToSeries(field arrow.Field, arr arrow.Array) (*Series, error) {
	name := field.Name
	switch a := arr.(type) {
	case *array.Float64:
		data, valid := arrowValues[float64](a)
		for i := range data {
			if valid != nil && !valid[i] {
				data[i] = math.NaN()
			}
		}
		return NewSeriesFloat64(name, data), nil

	case *array.Float32:
		data, valid := arrowValues[float32](a)
		for i := range data {
			if valid != nil && !valid[i] {
				data[i] = float32(math.NaN())
			}
		}
		return NewSeriesFloat32(name, data), nil

	case *array.Int64:
		data, valid := arrowValues[int64](a)
		return &Series{name: name, dtype: Int64, data: data, valid: valid}, nil

	case *array.Int32:
		data, valid := arrowValues[int32](a)
		return &Series{name: name, dtype: Int32, data: data, valid: valid}, nil

	case *array.Int16:
		data, valid := arrowValues[int16](a)
		return &Series{name: name, dtype: Int16, data: data, valid: valid}, nil

	case *array.Int8:
		data, valid := arrowValues[int8](a)
		return &Series{name: name, dtype: Int8, data: data, valid: valid}, nil

	case *array.Boolean:
		data, valid := arrowValues[bool](a)
		return &Series{name: name, dtype: Bool, data: data, valid: valid}, nil

	case *array.String:
		data, valid := arrowValues[string](a)
		return &Series{name: name, dtype: String, data: data, valid: valid}, nil

	case *array.Timestamp:
		ts, valid := arrowValues[arrow.Timestamp](a)
		unit := a.DataType().(*arrow.TimestampType).Unit
		mult := int64(1)
		switch unit {
		case arrow.Second:
			mult = 1e9
		case arrow.Millisecond:
			mult = 1e6
		case arrow.Microsecond:
			mult = 1e3
		}
		data := make([]int64, len(ts))
		for i, v := range ts {
			data[i] = int64(v) * mult
		}
		return &Series{name: name, dtype: DateTime, data: data, valid: valid}, nil

	case *array.Null:
		return NewSeriesNull(name, a.Len()), nil

	case *array.Dictionary:
		return arrowDictionaryToSeries(field, a)

	default:
		return nil, fmt.Errorf("%w: arrow array type %T", ErrUnsupportedDType, arr)
	}
}

func arrowDictionaryToSeries(field arrow.Field, a *array.Dictionary) (*Series, error) {
	dict, ok := a.Dictionary().(*array.String)
	if !ok {
		return nil, fmt.Errorf("%w: dictionary value type %T", ErrUnsupportedDType, a.Dictionary())
	}
	values := make([]string, dict.Len())
	for i := range values {
		values[i] = dict.Value(i)
	}

	categories := values
	if k := field.Metadata.FindKey(categoriesMetadataKey); k >= 0 {
		if stored := field.Metadata.Values()[k]; stored != "" {
			categories = strings.Split(stored, "\x1f")
		} else {
			categories = nil
		}
	}

	data := make([]string, a.Len())
	missing := make([]bool, a.Len())
	for i := range data {
		if a.IsNull(i) {
			missing[i] = true
			continue
		}
		data[i] = values[a.GetValueIndex(i)]
	}
	s, err := NewSeriesCategoricalWithCategories(field.Name, data, categories)
	if err != nil {
		return nil, err
	}
	codes := s.data.([]int32)
	for i, m := range missing {
		if m {
			codes[i] = -1
		}
	}
	return s, nil
}
