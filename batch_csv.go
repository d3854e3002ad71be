package skiff

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVBatchReader reads CSV data in batches. Column types are inferred from
// the first batch unless given, and stay fixed for later batches.
type CSVBatchReader struct {
	reader    *csv.Reader
	closer    io.Closer
	opts      CSVReadOptions
	headers   []string
	dtypes    []DType
	batchSize int
	schema    *Schema
	done      bool
}

// CSVBatchReaderOptions configures CSV batch reading.
type CSVBatchReaderOptions struct {
	CSVReadOptions

	// BatchSize is the number of rows per batch
	BatchSize int
}

// DefaultCSVBatchReaderOptions returns default options.
func DefaultCSVBatchReaderOptions() CSVBatchReaderOptions {
	return CSVBatchReaderOptions{
		CSVReadOptions: DefaultCSVReadOptions(),
		BatchSize:      DefaultBatchOptions().BatchSize,
	}
}

// NewCSVBatchReader creates a new CSV batch reader. The header is read
// immediately; a reader that is also an io.Closer is closed by Close.
func NewCSVBatchReader(r io.Reader, opts ...CSVBatchReaderOptions) (*CSVBatchReader, error) {
	opt := DefaultCSVBatchReaderOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultBatchOptions().BatchSize
	}

	reader := newCSVReader(r, opt.CSVReadOptions)
	headers, err := readCSVHeader(reader, opt.CSVReadOptions)
	if err != nil {
		return nil, err
	}

	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}
	return &CSVBatchReader{
		reader:    reader,
		closer:    closer,
		opts:      opt.CSVReadOptions,
		headers:   headers,
		batchSize: opt.BatchSize,
	}, nil
}

// Next reads the next batch of data.
func (r *CSVBatchReader) Next(ctx context.Context) (*DataFrame, error) {
	if r.done {
		return nil, io.EOF
	}

	records := make([][]string, 0, r.batchSize)
	for len(records) < r.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.reader.Read()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if r.headers == nil {
			r.headers = defaultColumnNames(len(record))
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		r.done = true
		return nil, io.EOF
	}

	if r.dtypes == nil {
		r.inferSchema(records)
	}
	columns, err := parallelColumns(len(records), len(r.headers), func(i int) (*Series, error) {
		s, err := buildColumn(r.headers[i], r.dtypes[i], records, i, r.opts.NullValues)
		if err != nil {
			return nil, fmt.Errorf("failed to build column '%s': %w", r.headers[i], err)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return NewDataFrame(columns...)
}

func (r *CSVBatchReader) inferSchema(records [][]string) {
	r.dtypes = make([]DType, len(r.headers))
	for i := range r.dtypes {
		r.dtypes[i] = String
		if r.opts.InferTypes {
			r.dtypes[i] = inferColumnType(records, i, r.opts.NullValues)
		}
		if d, ok := r.opts.ColumnTypes[r.headers[i]]; ok {
			r.dtypes[i] = d
		}
	}
	r.schema, _ = NewSchema(r.headers, r.dtypes)
}

// Schema returns the schema of the data, nil before the first batch.
func (r *CSVBatchReader) Schema() *Schema {
	return r.schema
}

// Close releases resources.
func (r *CSVBatchReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
