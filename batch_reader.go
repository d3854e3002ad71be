package skiff

import (
	"context"
	"io"
)

// BatchReader is an interface for reading data in batches.
// This enables aggregating datasets larger than RAM.
type BatchReader interface {
	// Next reads the next batch of data.
	// Returns io.EOF when there are no more batches.
	Next(ctx context.Context) (*DataFrame, error)

	// Schema returns the schema of the data.
	// May return nil if schema is unknown until first read.
	Schema() *Schema

	// Close releases any resources held by the reader.
	Close() error
}

// BatchOptions configures batch reading behavior.
type BatchOptions struct {
	// BatchSize is the number of rows per batch.
	// Default: 65536
	BatchSize int
}

// DefaultBatchOptions returns default batch reading options.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		BatchSize: 65536,
	}
}

// FrameBatchReader serves an in-memory DataFrame in fixed-size batches.
type FrameBatchReader struct {
	df        *DataFrame
	batchSize int
	offset    int
}

// NewFrameBatchReader splits df into batches of opts.BatchSize rows
func NewFrameBatchReader(df *DataFrame, opts ...BatchOptions) *FrameBatchReader {
	opt := DefaultBatchOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultBatchOptions().BatchSize
	}
	return &FrameBatchReader{df: df, batchSize: opt.BatchSize}
}

// Next returns the next slice of rows
func (r *FrameBatchReader) Next(ctx context.Context) (*DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.offset >= r.df.Height() {
		return nil, io.EOF
	}
	end := min(r.offset+r.batchSize, r.df.Height())
	batch := r.df.Slice(r.offset, end)
	r.offset = end
	return batch, nil
}

// Schema returns the schema of the frame
func (r *FrameBatchReader) Schema() *Schema {
	return r.df.Schema()
}

// Close is a no-op
func (r *FrameBatchReader) Close() error {
	return nil
}

// ============================================================================
// Pipeline API for Streaming Processing
// ============================================================================

// Pipeline applies per-batch transformations to a BatchReader.
type Pipeline struct {
	reader     BatchReader
	transforms []func(*DataFrame) (*DataFrame, error)
	limit      int
	hasLimit   bool
}

// NewPipeline creates a new streaming pipeline from a batch reader.
func NewPipeline(reader BatchReader) *Pipeline {
	return &Pipeline{reader: reader}
}

// Transform adds a transformation function to the pipeline.
func (p *Pipeline) Transform(fn func(*DataFrame) (*DataFrame, error)) *Pipeline {
	p.transforms = append(p.transforms, fn)
	return p
}

// Limit sets a maximum number of rows to process.
func (p *Pipeline) Limit(n int) *Pipeline {
	p.limit = n
	p.hasLimit = true
	return p
}

// Next reads one batch and runs it through the transforms. Pipelines are
// BatchReaders themselves, so they can feed StreamGroupBy.
func (p *Pipeline) Next(ctx context.Context) (*DataFrame, error) {
	if p.hasLimit && p.limit <= 0 {
		return nil, io.EOF
	}
	batch, err := p.reader.Next(ctx)
	if err != nil {
		return nil, err
	}
	for _, transform := range p.transforms {
		if batch, err = transform(batch); err != nil {
			return nil, err
		}
	}
	if p.hasLimit {
		if batch.Height() > p.limit {
			batch = batch.Head(p.limit)
		}
		p.limit -= batch.Height()
	}
	return batch, nil
}

// Schema returns the schema of the underlying reader
func (p *Pipeline) Schema() *Schema {
	return p.reader.Schema()
}

// Close closes the underlying reader
func (p *Pipeline) Close() error {
	return p.reader.Close()
}

// Collect processes all batches and stacks the results into one DataFrame.
func (p *Pipeline) Collect(ctx context.Context) (*DataFrame, error) {
	var results []*DataFrame
	err := p.ForEach(ctx, func(batch *DataFrame) error {
		results = append(results, batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		if schema := p.reader.Schema(); schema != nil {
			return emptyDataFrameFromSchema(schema), nil
		}
		return NewEmptyDataFrame(), nil
	}
	df, err := Concat(results...)
	if err != nil {
		return nil, err
	}
	// batches carry sliced labels; the stacked frame is renumbered
	df.index = nil
	return df, nil
}

// ForEach processes each batch without combining results.
func (p *Pipeline) ForEach(ctx context.Context, fn func(*DataFrame) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := p.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
}

// emptyDataFrameFromSchema creates an empty DataFrame with the given schema
func emptyDataFrameFromSchema(schema *Schema) *DataFrame {
	df := &DataFrame{}
	for i, name := range schema.Names() {
		df.columns = append(df.columns, newSeriesOfDType(name, schema.DTypes()[i], nil, nil))
	}
	return df
}
