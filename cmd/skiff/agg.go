package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NerdMeNot/skiff"
	"github.com/NerdMeNot/skiff/internal/logging"
	"github.com/spf13/cobra"
)

type aggOptions struct {
	by        []string
	aggs      []string
	noSort    bool
	keepNA    bool
	asColumns bool
	stream    bool
	format    string
}

func newAggCmd(a *app) *cobra.Command {
	opts := &aggOptions{}
	cmd := &cobra.Command{
		Use:   "agg FILE",
		Short: "Aggregate columns per group",
		Long: `agg groups FILE by the --by columns and computes one output column per
--agg flag. An aggregation is written column:function, optionally prefixed
with an output name (total=amount:sum). "size" alone counts rows per group.

Functions: sum prod mean median var std sem min max first last nth count
size nunique. nth takes its position as a third part (amount:nth:2).`,
		Example: `  skiff agg sales.csv --by region --agg amount:sum --agg amount:mean
  skiff agg sales.parquet --by region,year --agg n=size --format csv
  skiff agg huge.csv --by region --agg amount:sum --stream`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgg(cmd, a, opts, args[0])
		},
	}
	cmd.Flags().StringSliceVar(&opts.by, "by", nil, "Key columns (comma separated)")
	cmd.Flags().StringArrayVar(&opts.aggs, "agg", nil, "Aggregation as [name=]column:function")
	cmd.Flags().BoolVar(&opts.noSort, "no-sort", false, "Keep groups in order of first appearance")
	cmd.Flags().BoolVar(&opts.keepNA, "keep-na", false, "Keep rows with a missing key as their own group")
	cmd.Flags().BoolVar(&opts.asColumns, "as-columns", false, "Return keys as leading columns instead of the index")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "Aggregate CSV input in batches")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format: table, csv or json")
	_ = cmd.MarkFlagRequired("by")
	_ = cmd.MarkFlagRequired("agg")
	return cmd
}

// parseAggFlag turns "[name=]column:function[:n]" into a spec
func parseAggFlag(flag string) (skiff.AggSpec, error) {
	alias, body, named := strings.Cut(flag, "=")
	if !named {
		body, alias = flag, ""
	}
	parts := strings.Split(body, ":")

	var spec skiff.AggSpec
	var err error
	switch {
	case len(parts) == 1 && strings.EqualFold(parts[0], "size"):
		spec = skiff.AggSize()
	case len(parts) == 2:
		spec, err = skiff.AggNamed(parts[0], parts[1])
	case len(parts) == 3 && strings.EqualFold(parts[1], "nth"):
		var n int
		if n, err = strconv.Atoi(parts[2]); err == nil {
			spec = skiff.AggNth(parts[0], n)
		}
	default:
		err = fmt.Errorf("%w: aggregation %q is not column:function", skiff.ErrInvalidArgument, flag)
	}
	if err != nil {
		return skiff.AggSpec{}, err
	}
	if alias != "" {
		spec = spec.Alias(alias)
	}
	return spec, nil
}

func runAgg(cmd *cobra.Command, a *app, opts *aggOptions, path string) error {
	logger := logging.GetLogger("cmd.agg")
	done := logging.LogOperationStart(logger, "agg")
	defer done()

	specs := make([]skiff.AggSpec, len(opts.aggs))
	for i, f := range opts.aggs {
		spec, err := parseAggFlag(f)
		if err != nil {
			return err
		}
		specs[i] = spec
	}
	logger.Info().Str("file", path).Strs("by", opts.by).Int("aggs", len(specs)).Bool("stream", opts.stream).Msg("Aggregating")

	var (
		result *skiff.DataFrame
		err    error
	)
	if opts.stream {
		result, err = streamAgg(cmd.Context(), a, opts, path, specs)
	} else {
		result, err = memoryAgg(a, opts, path, specs)
	}
	if err != nil {
		return err
	}
	logger.Info().Int("groups", result.Height()).Msg("Aggregation finished")
	return writeTable(cmd.OutOrStdout(), result, opts.format)
}

func groupOptions(opts *aggOptions) skiff.GroupOptions {
	g := skiff.DefaultGroupOptions()
	g.Sort = !opts.noSort
	g.DropNA = !opts.keepNA
	g.AsIndex = !opts.asColumns
	return g
}

func memoryAgg(a *app, opts *aggOptions, path string, specs []skiff.AggSpec) (*skiff.DataFrame, error) {
	df, err := readTable(path, a.cfg)
	if err != nil {
		return nil, err
	}
	by := make([]skiff.By, len(opts.by))
	for i, k := range opts.by {
		by[i] = skiff.ByColumn(k)
	}
	return df.GroupByWith(groupOptions(opts), by...).Agg(specs...)
}

// streamAgg runs the batched aggregation, which always sorts by key and drops
// missing keys
func streamAgg(ctx context.Context, a *app, opts *aggOptions, path string, specs []skiff.AggSpec) (*skiff.DataFrame, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" && ext != ".tsv" && ext != ".txt" {
		return nil, fmt.Errorf("%w: --stream reads CSV input only", skiff.ErrInvalidArgument)
	}
	if opts.noSort || opts.keepNA {
		return nil, fmt.Errorf("%w: --stream cannot be combined with --no-sort or --keep-na", skiff.ErrInvalidArgument)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	readOpts := skiff.CSVBatchReaderOptions{
		CSVReadOptions: a.cfg.CSVReadOptions(),
		BatchSize:      a.cfg.BatchOptions().BatchSize,
	}
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		readOpts.Delimiter = '\t'
	}
	reader, err := skiff.NewCSVBatchReader(f, readOpts)
	if err != nil {
		f.Close()
		return nil, err
	}
	defer reader.Close()

	result, err := skiff.StreamGroupBy(ctx, reader, opts.by, specs...)
	if err != nil {
		return nil, err
	}
	if opts.asColumns {
		result = result.ResetIndex()
	}
	return result, nil
}
