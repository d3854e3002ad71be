package skiff

import (
	"fmt"
)

// ============================================================================
// Aggregation
// ============================================================================

// aggregate reduces each value column per group. Called without column
// names, columns the function cannot handle are skipped; naming such a
// column is an error.
func (gb *GroupBy) aggregate(fn AggType, nth int, columns []string) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	cols, explicit, err := gb.valueColumns(columns)
	if err != nil {
		return nil, err
	}
	use := make([]*Series, 0, len(cols))
	for _, c := range cols {
		if fn.accepts(c.dtype) {
			use = append(use, c)
			continue
		}
		if explicit {
			return nil, &DTypeError{Op: fn.String(), Column: c.name, DType: c.dtype}
		}
		logDebug().Str("column", c.name).Str("agg", fn.String()).Msg("skipping nuisance column")
	}
	out, err := parallelColumns(gb.df.height, len(use), func(i int) (*Series, error) {
		return aggregateGroups(use[i], gb.groups(), fn, nth)
	})
	if err != nil {
		return nil, err
	}
	return gb.result(out), nil
}

// Sum computes the per-group sum. Integer columns stay Int64 unless the sum
// overflows.
func (gb *GroupBy) Sum(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeSum, 0, columns)
}

// Prod computes the per-group product
func (gb *GroupBy) Prod(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeProd, 0, columns)
}

// Mean computes the per-group mean as Float64
func (gb *GroupBy) Mean(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeMean, 0, columns)
}

// Median computes the per-group median as Float64
func (gb *GroupBy) Median(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeMedian, 0, columns)
}

// Var computes the per-group sample variance
func (gb *GroupBy) Var(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeVar, 0, columns)
}

// Std computes the per-group sample standard deviation
func (gb *GroupBy) Std(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeStd, 0, columns)
}

// Sem computes the per-group standard error of the mean
func (gb *GroupBy) Sem(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeSem, 0, columns)
}

// Min takes the per-group minimum, keeping the column dtype
func (gb *GroupBy) Min(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeMin, 0, columns)
}

// Max takes the per-group maximum, keeping the column dtype
func (gb *GroupBy) Max(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeMax, 0, columns)
}

// First takes the first present value of each group
func (gb *GroupBy) First(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeFirst, 0, columns)
}

// Last takes the last present value of each group
func (gb *GroupBy) Last(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeLast, 0, columns)
}

// Nth takes the n-th row of each group, missing or not. Negative n counts
// from the end.
func (gb *GroupBy) Nth(n int, columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeNth, n, columns)
}

// Count counts present values per group
func (gb *GroupBy) Count(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeCount, 0, columns)
}

// NUnique counts distinct present values per group
func (gb *GroupBy) NUnique(columns ...string) (*DataFrame, error) {
	return gb.aggregate(AggTypeNUnique, 0, columns)
}

// Size returns the number of rows in each group, indexed by the group keys
func (gb *GroupBy) Size() (*Series, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	out := countGroups(NewSeriesNull("size", gb.n), gb.groups(), AggTypeSize)
	out.index = gb.keyIndex()
	return out, nil
}

// Agg computes one output column per spec
func (gb *GroupBy) Agg(specs ...AggSpec) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: Agg needs at least one aggregation", ErrInvalidArgument)
	}
	names := outputNames(specs)
	labels := gb.df.Index()
	out, err := parallelColumns(gb.df.height, len(specs), func(i int) (*Series, error) {
		spec := specs[i]
		var res *Series
		var err error
		switch {
		case spec.fn == AggTypeSize:
			res = countGroups(NewSeriesNull("", gb.n), gb.groups(), AggTypeSize)
		case gb.df.column(spec.column) == nil:
			return nil, &ColumnNotFoundError{Name: spec.column}
		case spec.fn == AggTypeCustom:
			res, err = customGroups(gb.df.column(spec.column), gb.groups(), labels, spec.custom)
		default:
			res, err = aggregateGroups(gb.df.column(spec.column), gb.groups(), spec.fn, spec.n)
		}
		if err != nil {
			return nil, err
		}
		return res.Rename(names[i]), nil
	})
	if err != nil {
		return nil, err
	}
	return gb.result(out), nil
}

// AggMap aggregates columns by function names, e.g. {"C": {"mean"}, "D": {"sum", "max"}}.
// Columns appear in frame order; a column with several functions yields
// "column_func" outputs.
func (gb *GroupBy) AggMap(spec map[string][]string) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	for name := range spec {
		if !gb.df.HasColumn(name) {
			return nil, &ColumnNotFoundError{Name: name}
		}
	}
	var specs []AggSpec
	for _, name := range gb.df.ColumnNames() {
		funcs, ok := spec[name]
		if !ok {
			continue
		}
		for _, f := range funcs {
			s, err := AggNamed(name, f)
			if err != nil {
				return nil, err
			}
			if s.fn == AggTypeSize {
				s = AggCount(name)
			}
			if len(funcs) > 1 {
				s = s.Alias(name + "_" + s.fn.String())
			}
			specs = append(specs, s)
		}
	}
	return gb.Agg(specs...)
}

// AggFuncs applies every named function to every value column. With several
// functions, outputs are named "column_func".
func (gb *GroupBy) AggFuncs(funcs ...string) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	cols, _, err := gb.valueColumns(nil)
	if err != nil {
		return nil, err
	}
	var specs []AggSpec
	for _, c := range cols {
		for _, f := range funcs {
			s, err := AggNamed(c.name, f)
			if err != nil {
				return nil, err
			}
			if s.fn == AggTypeSize {
				s = AggCount(c.name)
			}
			if !s.fn.accepts(c.dtype) {
				continue
			}
			if len(funcs) > 1 {
				s = s.Alias(c.name + "_" + s.fn.String())
			}
			specs = append(specs, s)
		}
	}
	return gb.Agg(specs...)
}

// AggFunc reduces every value column with fn, which receives each group's
// values labelled by their original row labels and must return a scalar.
func (gb *GroupBy) AggFunc(fn func(*Series) (interface{}, error), columns ...string) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	cols, _, err := gb.valueColumns(columns)
	if err != nil {
		return nil, err
	}
	labels := gb.df.Index()
	out := make([]*Series, len(cols))
	for i, c := range cols {
		if out[i], err = customGroups(c, gb.groups(), labels, fn); err != nil {
			return nil, err
		}
	}
	return gb.result(out), nil
}
