package skiff

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVReadOptions configures CSV reading behavior
type CSVReadOptions struct {
	Delimiter   rune             // Field delimiter (default ',')
	HasHeader   bool             // First row is header (default true)
	ColumnNames []string         // Override column names
	ColumnTypes map[string]DType // Force column types
	InferTypes  bool             // Auto-detect types (default true)
	NullValues  []string         // Strings to treat as missing
	SkipRows    int              // Skip first N rows
	MaxRows     int              // Max rows to read (0 = unlimited)
	TrimSpace   bool             // Trim whitespace from values
	Comment     rune             // Skip lines starting with this
	IndexCol    []string         // Columns moved to the row index
}

// DefaultCSVReadOptions returns default CSV reading options
func DefaultCSVReadOptions() CSVReadOptions {
	return CSVReadOptions{
		Delimiter:  ',',
		HasHeader:  true,
		InferTypes: true,
		NullValues: []string{"", "null", "NULL", "NA", "N/A", "nan", "NaN"},
		TrimSpace:  true,
	}
}

// ReadCSV reads a CSV file into a DataFrame
func ReadCSV(path string, opts ...CSVReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadCSVFromReader(f, opts...)
}

// ReadCSVString parses CSV text, mostly useful for fixtures
func ReadCSVString(text string, opts ...CSVReadOptions) (*DataFrame, error) {
	return ReadCSVFromReader(strings.NewReader(text), opts...)
}

// ReadCSVFromReader reads CSV data from an io.Reader into a DataFrame
func ReadCSVFromReader(r io.Reader, opts ...CSVReadOptions) (*DataFrame, error) {
	opt := DefaultCSVReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := newCSVReader(r, opt)
	headers, err := readCSVHeader(reader, opt)
	if err != nil {
		return nil, err
	}

	var records [][]string
	for opt.MaxRows <= 0 || len(records) < opt.MaxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records), err)
		}
		if headers == nil {
			headers = defaultColumnNames(len(record))
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return NewEmptyDataFrame(headers...), nil
	}

	df, err := recordsToFrame(headers, records, opt)
	if err != nil {
		return nil, err
	}
	if len(opt.IndexCol) > 0 {
		return df.SetIndex(opt.IndexCol...)
	}
	return df, nil
}

func newCSVReader(r io.Reader, opt CSVReadOptions) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = opt.Delimiter
	if opt.Comment != 0 {
		reader.Comment = opt.Comment
	}
	reader.TrimLeadingSpace = opt.TrimSpace
	reader.FieldsPerRecord = -1
	return reader
}

// readCSVHeader skips SkipRows and returns the column names, or nil when
// they must be generated from the first record.
func readCSVHeader(reader *csv.Reader, opt CSVReadOptions) ([]string, error) {
	for i := 0; i < opt.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to skip row %d: %w", i, err)
		}
	}
	var headers []string
	if opt.HasHeader {
		h, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		headers = append(headers, h...)
	}
	if len(opt.ColumnNames) > 0 {
		headers = append([]string{}, opt.ColumnNames...)
	}
	return headers, nil
}

func defaultColumnNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("column_%d", i)
	}
	return names
}

// recordsToFrame infers column types and builds the columns, in parallel
// for large inputs.
func recordsToFrame(headers []string, records [][]string, opt CSVReadOptions) (*DataFrame, error) {
	colTypes := make([]DType, len(headers))
	for i := range colTypes {
		colTypes[i] = String
	}
	if opt.InferTypes {
		colTypes = ParallelMap(len(headers), func(i int) DType {
			return inferColumnType(records, i, opt.NullValues)
		})
	}
	for name, dtype := range opt.ColumnTypes {
		for i, h := range headers {
			if h == name {
				colTypes[i] = dtype
			}
		}
	}

	columns, err := parallelColumns(len(records), len(headers), func(i int) (*Series, error) {
		s, err := buildColumn(headers[i], colTypes[i], records, i, opt.NullValues)
		if err != nil {
			return nil, fmt.Errorf("failed to build column '%s': %w", headers[i], err)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return NewDataFrame(columns...)
}

func inferColumnType(records [][]string, colIdx int, nullValues []string) DType {
	hasInt := false
	hasFloat := false
	hasBool := false
	hasString := false

	for _, record := range records {
		if colIdx >= len(record) {
			continue
		}
		val := strings.TrimSpace(record[colIdx])
		if isNullToken(val, nullValues) {
			continue
		}
		lower := strings.ToLower(val)
		if lower == "true" || lower == "false" {
			hasBool = true
			continue
		}
		if _, err := strconv.ParseInt(val, 10, 64); err == nil {
			hasInt = true
			continue
		}
		if _, err := strconv.ParseFloat(val, 64); err == nil {
			hasFloat = true
			continue
		}
		hasString = true
	}

	// Priority: string > float > int > bool
	switch {
	case hasString:
		return String
	case hasFloat:
		return Float64
	case hasInt:
		return Int64
	case hasBool && !hasInt && !hasFloat:
		return Bool
	}
	// all missing
	return Float64
}

// buildColumn parses one column. Missing tokens become NaN for floats and
// masked entries for every other dtype.
func buildColumn(name string, dtype DType, records [][]string, colIdx int, nullValues []string) (*Series, error) {
	n := len(records)
	cell := func(i int) (string, bool) {
		if colIdx >= len(records[i]) {
			return "", false
		}
		val := strings.TrimSpace(records[i][colIdx])
		return val, !isNullToken(val, nullValues)
	}

	switch dtype {
	case Float64, Float32:
		data := make([]float64, n)
		for i := range data {
			val, ok := cell(i)
			if !ok {
				data[i] = math.NaN()
				continue
			}
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: cannot parse '%s' as float64", i, val)
			}
			data[i] = f
		}
		s := NewSeriesFloat64(name, data)
		if dtype == Float32 {
			return s.Cast(Float32)
		}
		return s, nil

	case Int64, Int32, Int16, Int8:
		data := make([]int64, n)
		valid := make([]bool, n)
		for i := range data {
			val, ok := cell(i)
			if !ok {
				continue
			}
			v, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: cannot parse '%s' as int64", i, val)
			}
			data[i], valid[i] = v, true
		}
		s := NewSeriesInt64WithNulls(name, data, valid)
		if dtype != Int64 {
			return s.Cast(dtype)
		}
		return s, nil

	case Bool:
		data := make([]bool, n)
		valid := make([]bool, n)
		for i := range data {
			val, ok := cell(i)
			if !ok {
				continue
			}
			lower := strings.ToLower(val)
			data[i], valid[i] = lower == "true" || lower == "1" || lower == "yes", true
		}
		return NewSeriesBoolWithNulls(name, data, valid), nil

	case DateTime:
		vals := make([]interface{}, n)
		for i := range vals {
			val, ok := cell(i)
			if !ok {
				continue
			}
			t, err := parseTime(val)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			vals[i] = t
		}
		return newSeriesOfDType(name, DateTime, vals, nil), nil

	case String, Categorical:
		data := make([]string, n)
		valid := make([]bool, n)
		for i := range data {
			data[i], valid[i] = cell(i)
		}
		s := NewSeriesStringWithNulls(name, data, valid)
		if dtype == Categorical {
			return s.Cast(Categorical)
		}
		return s, nil

	default:
		return nil, &DTypeError{Op: "read csv", Column: name, DType: dtype}
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(val string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse '%s' as datetime", val)
}

func isNullToken(val string, nullValues []string) bool {
	for _, nv := range nullValues {
		if val == nv {
			return true
		}
	}
	return false
}

// CSVWriteOptions configures CSV writing behavior
type CSVWriteOptions struct {
	Delimiter   rune   // Field delimiter (default ',')
	WriteHeader bool   // Write header row (default true)
	WriteIndex  bool   // Write a labelled index as leading columns (default true)
	NullString  string // String to write for missing values (default "")
}

// DefaultCSVWriteOptions returns default CSV writing options
func DefaultCSVWriteOptions() CSVWriteOptions {
	return CSVWriteOptions{
		Delimiter:   ',',
		WriteHeader: true,
		WriteIndex:  true,
	}
}

// WriteCSV writes a DataFrame to a CSV file
func (df *DataFrame) WriteCSV(path string, opts ...CSVWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := df.WriteCSVToWriter(w, opts...); err != nil {
		return err
	}
	return w.Flush()
}

// WriteCSVToWriter writes a DataFrame to an io.Writer
func (df *DataFrame) WriteCSVToWriter(w io.Writer, opts ...CSVWriteOptions) error {
	opt := DefaultCSVWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.WriteIndex && df.index != nil && !df.index.IsRange() {
		df = df.ResetIndex()
	}

	writer := csv.NewWriter(w)
	writer.Comma = opt.Delimiter

	if opt.WriteHeader {
		if err := writer.Write(df.ColumnNames()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	// rows are formatted in parallel, written sequentially
	rows := ParallelMap(df.Height(), func(i int) []string {
		row := make([]string, len(df.columns))
		for j, col := range df.columns {
			if val := col.Get(i); val == nil {
				row[j] = opt.NullString
			} else {
				row[j] = formatValue(val)
			}
		}
		return row
	})
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return formatScalar(val)
	}
}
