package skiff

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

// JSONFormat specifies the JSON layout
type JSONFormat int

const (
	// JSONRecords is an array of row objects: [{"a":1,"b":2}, {"a":3,"b":4}]
	JSONRecords JSONFormat = iota
	// JSONColumns is an object of column arrays: {"a":[1,3],"b":[2,4]}
	JSONColumns
)

// JSONReadOptions configures JSON reading behavior
type JSONReadOptions struct {
	Format      JSONFormat       // Expected format
	Columns     []string         // Column order; other keys follow sorted by name
	ColumnTypes map[string]DType // Force column types
}

// DefaultJSONReadOptions returns default JSON reading options
func DefaultJSONReadOptions() JSONReadOptions {
	return JSONReadOptions{
		Format: JSONRecords,
	}
}

// ReadJSON reads a JSON file into a DataFrame
func ReadJSON(path string, opts ...JSONReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadJSONFromReader(f, opts...)
}

// ReadJSONFromReader reads JSON data from an io.Reader into a DataFrame
func ReadJSONFromReader(r io.Reader, opts ...JSONReadOptions) (*DataFrame, error) {
	opt := DefaultJSONReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var columns map[string][]interface{}
	switch opt.Format {
	case JSONRecords:
		var records []map[string]interface{}
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		columns = make(map[string][]interface{})
		for i, record := range records {
			for key, val := range record {
				col, ok := columns[key]
				if !ok {
					col = make([]interface{}, len(records))
					columns[key] = col
				}
				col[i] = val
			}
		}
	case JSONColumns:
		if err := dec.Decode(&columns); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown JSON format %d", ErrInvalidArgument, opt.Format)
	}
	return jsonColumnsToFrame(columns, opt)
}

// jsonColumnOrder puts the requested columns first, then the rest by name
func jsonColumnOrder(columns map[string][]interface{}, first []string) []string {
	seen := make(map[string]bool, len(columns))
	var names []string
	for _, name := range first {
		if _, ok := columns[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range columns {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func jsonColumnsToFrame(columns map[string][]interface{}, opt JSONReadOptions) (*DataFrame, error) {
	names := jsonColumnOrder(columns, opt.Columns)
	height := 0
	for _, vals := range columns {
		height = max(height, len(vals))
	}
	out, err := parallelColumns(height, len(names), func(i int) (*Series, error) {
		vals := make([]interface{}, height)
		for k, v := range columns[names[i]] {
			vals[k] = normalizeJSONValue(v)
		}
		dtype, ok := opt.ColumnTypes[names[i]]
		if !ok {
			dtype = inferJSONType(vals)
		}
		return newSeriesOfDType(names[i], dtype, vals, nil), nil
	})
	if err != nil {
		return nil, err
	}
	return NewDataFrame(out...)
}

// normalizeJSONValue turns decoded numbers into int64 when integral
func normalizeJSONValue(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func inferJSONType(vals []interface{}) DType {
	dtype := Null
	for _, v := range vals {
		switch v.(type) {
		case nil:
			continue
		case bool:
			if dtype == Null {
				dtype = Bool
			}
		case int64:
			if dtype == Null || dtype == Bool {
				dtype = Int64
			}
		case float64:
			if dtype != String {
				dtype = Float64
			}
		default:
			return String
		}
	}
	if dtype == Null {
		return Float64
	}
	return dtype
}

// JSONWriteOptions configures JSON writing behavior
type JSONWriteOptions struct {
	Format     JSONFormat // Output format
	Indent     string     // Indent string (default "", no indent)
	WriteIndex bool       // Write a labelled index as leading fields (default true)
}

// DefaultJSONWriteOptions returns default JSON writing options
func DefaultJSONWriteOptions() JSONWriteOptions {
	return JSONWriteOptions{
		Format:     JSONRecords,
		WriteIndex: true,
	}
}

// WriteJSON writes a DataFrame to a JSON file
func (df *DataFrame) WriteJSON(path string, opts ...JSONWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return df.WriteJSONToWriter(f, opts...)
}

// orderedObject encodes as a JSON object with keys in column order
type orderedObject struct {
	keys   []string
	values []interface{}
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonValue maps a cell to an encodable value; NaN becomes null
func jsonValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// WriteJSONToWriter writes a DataFrame to an io.Writer
func (df *DataFrame) WriteJSONToWriter(w io.Writer, opts ...JSONWriteOptions) error {
	opt := DefaultJSONWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.WriteIndex && df.index != nil && !df.index.IsRange() {
		df = df.ResetIndex()
	}
	names := df.ColumnNames()

	var data interface{}
	switch opt.Format {
	case JSONRecords:
		data = ParallelMap(df.Height(), func(i int) orderedObject {
			vals := make([]interface{}, len(df.columns))
			for j, col := range df.columns {
				vals[j] = jsonValue(col.Get(i))
			}
			return orderedObject{keys: names, values: vals}
		})
	case JSONColumns:
		cols := make([]interface{}, len(df.columns))
		for j, col := range df.columns {
			vals := make([]interface{}, col.Len())
			for i := range vals {
				vals[i] = jsonValue(col.Get(i))
			}
			cols[j] = vals
		}
		data = orderedObject{keys: names, values: cols}
	default:
		return fmt.Errorf("%w: unknown JSON format %d", ErrInvalidArgument, opt.Format)
	}

	encoder := json.NewEncoder(w)
	if opt.Indent != "" {
		encoder.SetIndent("", opt.Indent)
	}
	return encoder.Encode(data)
}
