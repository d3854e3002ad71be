package skiff

import (
	"fmt"
)

// ColumnGroupBy groups the columns of a DataFrame. Aggregations reduce each
// row across the columns of a group, giving one column per group key.
type ColumnGroupBy struct {
	*grouping
	df   *DataFrame
	cols []*Series // columns that received a key, aligned with the grouping
	err  error
}

// GroupByColumns groups columns by mapping column name to group key. Columns
// absent from the mapping are left out.
func (df *DataFrame) GroupByColumns(mapping map[string]string) *ColumnGroupBy {
	return df.GroupByColumnsWith(DefaultGroupOptions(), mapping)
}

// GroupByColumnsWith groups columns with explicit options
func (df *DataFrame) GroupByColumnsWith(opts GroupOptions, mapping map[string]string) *ColumnGroupBy {
	if !opts.AsIndex {
		return &ColumnGroupBy{err: fmt.Errorf("%w: AsIndex=false is not valid when grouping columns", ErrInvalidArgument)}
	}
	if len(mapping) == 0 {
		return &ColumnGroupBy{err: ErrEmptyKeys}
	}
	for name := range mapping {
		if !df.HasColumn(name) {
			return &ColumnGroupBy{err: &ColumnNotFoundError{Name: name}}
		}
	}
	var cols []*Series
	var keys []string
	for _, c := range df.columns {
		if k, ok := mapping[c.name]; ok {
			cols = append(cols, c)
			keys = append(keys, k)
		}
	}
	labels := NewSeriesString("", keys)
	return &ColumnGroupBy{
		grouping: newGrouping([]*Series{labels}, opts, nil),
		df:       df,
		cols:     cols,
	}
}

// Err returns the error recorded while building the grouping
func (cg *ColumnGroupBy) Err() error {
	return cg.err
}

// NumGroups returns the number of column groups
func (cg *ColumnGroupBy) NumGroups() int {
	if cg.err != nil {
		return 0
	}
	return cg.info.ngroups
}

func (cg *ColumnGroupBy) members(gi int) []*Series {
	pos := cg.groups()[gi]
	out := make([]*Series, len(pos))
	for i, p := range pos {
		out[i] = cg.cols[p]
	}
	return out
}

// Each calls fn with the columns of every group, keeping the row labels
func (cg *ColumnGroupBy) Each(fn func(key string, group *DataFrame) error) error {
	if cg.err != nil {
		return cg.err
	}
	for gi := range cg.groups() {
		sub := &DataFrame{columns: cg.members(gi), height: cg.df.height, index: cg.df.index}
		if err := fn(formatLabel(cg.key(gi)[0]), sub); err != nil {
			return err
		}
	}
	return nil
}

// reduceRows stacks a group's columns end to end and reduces every row
// across them.
func (cg *ColumnGroupBy) reduceRows(gi int, fn AggType) (*Series, error) {
	members := cg.members(gi)
	stacked, err := ConcatSeries(members...)
	if err != nil {
		return nil, err
	}
	h := cg.df.height
	rows := make([][]int, h)
	for r := range rows {
		rows[r] = make([]int, len(members))
		for c := range members {
			rows[r][c] = c*h + r
		}
	}
	out, err := aggregateGroups(stacked, rows, fn, 0)
	if err != nil {
		return nil, err
	}
	out.name = formatLabel(cg.key(gi)[0])
	return out, nil
}

// Agg reduces each row across the columns of every group with the named
// function, giving one column per group.
func (cg *ColumnGroupBy) Agg(name string) (*DataFrame, error) {
	if cg.err != nil {
		return nil, cg.err
	}
	fn, err := ParseAggType(name)
	if err != nil {
		return nil, err
	}
	cols := make([]*Series, cg.info.ngroups)
	for gi := range cols {
		if cols[gi], err = cg.reduceRows(gi, fn); err != nil {
			return nil, err
		}
	}
	return &DataFrame{columns: cols, height: cg.df.height, index: cg.df.index}, nil
}

// Sum adds the columns of each group row by row
func (cg *ColumnGroupBy) Sum() (*DataFrame, error) { return cg.Agg("sum") }

// Mean averages the columns of each group row by row
func (cg *ColumnGroupBy) Mean() (*DataFrame, error) { return cg.Agg("mean") }

// Min takes the row minimum within each group
func (cg *ColumnGroupBy) Min() (*DataFrame, error) { return cg.Agg("min") }

// Max takes the row maximum within each group
func (cg *ColumnGroupBy) Max() (*DataFrame, error) { return cg.Agg("max") }

// Count counts present values per row within each group
func (cg *ColumnGroupBy) Count() (*DataFrame, error) { return cg.Agg("count") }

// TransformAgg replaces every grouped column with its group's row
// aggregation, keeping the frame's shape and column order.
func (cg *ColumnGroupBy) TransformAgg(name string) (*DataFrame, error) {
	if cg.err != nil {
		return nil, cg.err
	}
	fn, err := ParseAggType(name)
	if err != nil {
		return nil, err
	}
	out := make([]*Series, len(cg.cols))
	for gi, pos := range cg.groups() {
		agg, err := cg.reduceRows(gi, fn)
		if err != nil {
			return nil, err
		}
		for _, p := range pos {
			out[p] = agg.Rename(cg.cols[p].name)
		}
	}
	cols := make([]*Series, 0, len(out))
	for _, c := range out {
		if c != nil {
			cols = append(cols, c)
		}
	}
	return &DataFrame{columns: cols, height: cg.df.height, index: cg.df.index}, nil
}
