// Package config loads the YAML settings file of the skiff command line tool.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/NerdMeNot/skiff"
	"gopkg.in/yaml.v3"
)

// Config is the top level of skiff.yaml. Omitted fields keep their defaults.
type Config struct {
	Display  skiff.DisplayConfig  `yaml:"display"`
	Parallel skiff.ParallelConfig `yaml:"parallel"`
	CSV      CSVConfig            `yaml:"csv"`
	Stream   StreamConfig         `yaml:"stream"`
	Log      LogConfig            `yaml:"log"`
}

// CSVConfig holds defaults for reading CSV input.
type CSVConfig struct {
	// Delimiter is a single character
	Delimiter string `yaml:"delimiter"`

	// NullValues are the tokens read as missing
	NullValues []string `yaml:"null_values"`
}

// StreamConfig controls batched aggregation.
type StreamConfig struct {
	// BatchSize is the number of rows read per batch
	BatchSize int `yaml:"batch_size"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	// JSON writes log lines as JSON instead of console text
	JSON bool `yaml:"json"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	csvOpts := skiff.DefaultCSVReadOptions()
	return &Config{
		Display:  skiff.DefaultDisplayConfig(),
		Parallel: *skiff.DefaultParallelConfig(),
		CSV: CSVConfig{
			Delimiter:  string(csvOpts.Delimiter),
			NullValues: csvOpts.NullValues,
		},
		Stream: StreamConfig{BatchSize: skiff.DefaultBatchOptions().BatchSize},
	}
}

// Load reads and validates a config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Display.MaxRows < 0 || c.Display.MaxCols < 0 {
		return fmt.Errorf("display.max_rows and display.max_cols must not be negative")
	}
	if c.Display.MinColWidth < 1 || c.Display.MaxColWidth < c.Display.MinColWidth {
		return fmt.Errorf("display column widths must satisfy 1 <= min_col_width <= max_col_width")
	}
	if c.Display.FloatPrecision < 0 {
		return fmt.Errorf("display.float_precision must not be negative")
	}
	if !skiff.IsTableStyle(c.Display.TableStyle) {
		return fmt.Errorf("unknown display.table_style %q", c.Display.TableStyle)
	}
	if c.Parallel.MaxWorkers < 0 || c.Parallel.MinRowsForParallel < 0 {
		return fmt.Errorf("parallel.max_workers and parallel.min_rows_for_parallel must not be negative")
	}
	if utf8.RuneCountInString(c.CSV.Delimiter) != 1 {
		return fmt.Errorf("csv.delimiter must be a single character, got %q", c.CSV.Delimiter)
	}
	if c.Stream.BatchSize <= 0 {
		return fmt.Errorf("stream.batch_size must be positive")
	}
	return nil
}

// Apply installs the display and parallel settings as library globals
func (c *Config) Apply() {
	skiff.SetDisplayConfig(c.Display)
	parallel := c.Parallel
	skiff.SetParallelConfig(&parallel)
}

// CSVReadOptions returns reader options with the configured delimiter and null tokens
func (c *Config) CSVReadOptions() skiff.CSVReadOptions {
	opts := skiff.DefaultCSVReadOptions()
	opts.Delimiter, _ = utf8.DecodeRuneInString(c.CSV.Delimiter)
	opts.NullValues = append([]string(nil), c.CSV.NullValues...)
	return opts
}

// BatchOptions returns the configured streaming batch options
func (c *Config) BatchOptions() skiff.BatchOptions {
	return skiff.BatchOptions{BatchSize: c.Stream.BatchSize}
}
