package skiff

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Parallel Execution Configuration
// ============================================================================

// ParallelConfig controls parallelization behavior
type ParallelConfig struct {
	// MinRowsForParallel is the minimum rows to justify parallel overhead
	MinRowsForParallel int `yaml:"min_rows_for_parallel"`

	// MorselSize is the number of rows per work unit (default 4096)
	MorselSize int `yaml:"morsel_size"`

	// MaxWorkers limits the number of worker goroutines (0 = GOMAXPROCS)
	MaxWorkers int `yaml:"max_workers"`

	// Enabled controls whether parallelism is used at all
	Enabled bool `yaml:"enabled"`
}

// DefaultParallelConfig returns sensible defaults
func DefaultParallelConfig() *ParallelConfig {
	return &ParallelConfig{
		MinRowsForParallel: 8192, // ~8K rows minimum
		MorselSize:         4096, // ~4K rows per morsel
		MaxWorkers:         0,    // Use all CPUs
		Enabled:            true,
	}
}

var (
	parallelMu   sync.RWMutex
	globalConfig = DefaultParallelConfig()
)

// SetParallelConfig sets the global parallelization configuration
func SetParallelConfig(cfg *ParallelConfig) {
	if cfg == nil {
		return
	}
	c := *cfg
	if c.MorselSize <= 0 {
		c.MorselSize = DefaultParallelConfig().MorselSize
	}
	parallelMu.Lock()
	globalConfig = &c
	parallelMu.Unlock()
}

// GetParallelConfig returns a copy of the current configuration
func GetParallelConfig() *ParallelConfig {
	parallelMu.RLock()
	defer parallelMu.RUnlock()
	c := *globalConfig
	return &c
}

// numWorkers returns the number of workers to use
func (cfg *ParallelConfig) numWorkers() int {
	if cfg.MaxWorkers > 0 {
		return cfg.MaxWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// shouldParallelize determines if an operation should be parallelized
func (cfg *ParallelConfig) shouldParallelize(rows int) bool {
	return cfg.Enabled && rows >= cfg.MinRowsForParallel
}

// ============================================================================
// Morsel-Based Work Distribution
// ============================================================================

// Morsel represents a range of rows to process
type Morsel struct {
	Start int
	End   int
}

// MorselIterator provides work-stealing morsel distribution
type MorselIterator struct {
	totalRows  int
	morselSize int
	nextStart  int64 // atomic counter for work-stealing
}

// NewMorselIterator creates a new morsel iterator
func NewMorselIterator(totalRows, morselSize int) *MorselIterator {
	if morselSize <= 0 {
		morselSize = GetParallelConfig().MorselSize
	}
	return &MorselIterator{
		totalRows:  totalRows,
		morselSize: morselSize,
	}
}

// Next returns the next morsel, or nil if exhausted.
// Safe for concurrent use.
func (mi *MorselIterator) Next() *Morsel {
	for {
		start := atomic.LoadInt64(&mi.nextStart)
		if int(start) >= mi.totalRows {
			return nil
		}

		end := int(start) + mi.morselSize
		if end > mi.totalRows {
			end = mi.totalRows
		}

		if atomic.CompareAndSwapInt64(&mi.nextStart, start, int64(end)) {
			return &Morsel{Start: int(start), End: end}
		}
	}
}

// ============================================================================
// Parallel Execution Helpers
// ============================================================================

// ParallelFor executes fn for each morsel in parallel using work-stealing
func ParallelFor(totalRows int, fn func(start, end int)) {
	cfg := GetParallelConfig()
	if !cfg.shouldParallelize(totalRows) {
		fn(0, totalRows)
		return
	}

	morselIter := NewMorselIterator(totalRows, cfg.MorselSize)
	var wg sync.WaitGroup
	for w := 0; w < cfg.numWorkers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				morsel := morselIter.Next()
				if morsel == nil {
					return
				}
				fn(morsel.Start, morsel.End)
			}
		}()
	}
	wg.Wait()
}

// ParallelMap applies fn to each index in parallel
func ParallelMap[T any](n int, fn func(i int) T) []T {
	results := make([]T, n)
	ParallelFor(n, func(start, end int) {
		for i := start; i < end; i++ {
			results[i] = fn(i)
		}
	})
	return results
}

// parallelColumns builds one output per input column. Columns are processed
// concurrently when the frame is large enough; the first error wins.
func parallelColumns(rows, n int, build func(i int) (*Series, error)) ([]*Series, error) {
	out := make([]*Series, n)
	cfg := GetParallelConfig()
	if !cfg.shouldParallelize(rows) || n <= 1 {
		for i := 0; i < n; i++ {
			s, err := build(i)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(cfg.numWorkers())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			s, err := build(i)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
