package skiff

import (
	"fmt"
)

// ============================================================================
// Transformations
// ============================================================================

// transformColumns maps every value column to a same-length column. The
// result keeps the original row labels; rows whose key is missing get
// missing values. Implicitly selected columns whose dtype accept rejects are
// left out; explicitly named ones are an error.
func (gb *GroupBy) transformColumns(columns []string, accept func(DType) bool, op func(*Series) (*Series, error)) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	cols, explicit, err := gb.valueColumns(columns)
	if err != nil {
		return nil, err
	}
	use := make([]*Series, 0, len(cols))
	for _, c := range cols {
		if accept == nil || accept(c.dtype) {
			use = append(use, c)
		} else if explicit {
			return nil, &DTypeError{Op: "transform", Column: c.name, DType: c.dtype}
		}
	}
	out, err := parallelColumns(gb.df.height, len(use), func(i int) (*Series, error) {
		res, err := op(use[i])
		if err != nil {
			return nil, err
		}
		res.name = use[i].name
		res.index = nil
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return &DataFrame{columns: out, height: gb.df.height, index: gb.df.index}, nil
}

func summableDType(d DType) bool { return d.summable() }

// CumSum computes the running sum within each group
func (gb *GroupBy) CumSum(columns ...string) (*DataFrame, error) {
	return gb.transformColumns(columns, summableDType, func(s *Series) (*Series, error) {
		return cumulativeGroups(s, gb.groups(), cumSum)
	})
}

// CumProd computes the running product within each group. Integer columns
// become Float64 if the product overflows.
func (gb *GroupBy) CumProd(columns ...string) (*DataFrame, error) {
	return gb.transformColumns(columns, summableDType, func(s *Series) (*Series, error) {
		return cumulativeGroups(s, gb.groups(), cumProd)
	})
}

// CumMin computes the running minimum within each group, keeping dtypes
func (gb *GroupBy) CumMin(columns ...string) (*DataFrame, error) {
	return gb.transformColumns(columns, nil, func(s *Series) (*Series, error) {
		return cumulativeGroups(s, gb.groups(), cumMin)
	})
}

// CumMax computes the running maximum within each group, keeping dtypes
func (gb *GroupBy) CumMax(columns ...string) (*DataFrame, error) {
	return gb.transformColumns(columns, nil, func(s *Series) (*Series, error) {
		return cumulativeGroups(s, gb.groups(), cumMax)
	})
}

// CumCount numbers the rows of each group from 0, labelled like the input
func (gb *GroupBy) CumCount() (*Series, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	out, err := cumulativeGroups(NewSeriesNull("", gb.n), gb.groups(), cumCount)
	if err != nil {
		return nil, err
	}
	out.index = gb.df.index
	return out, nil
}

// Rank ranks values within each group
func (gb *GroupBy) Rank(opts RankOptions, columns ...string) (*DataFrame, error) {
	return gb.transformColumns(columns, nil, func(s *Series) (*Series, error) {
		return rankGroups(s, gb.groups(), opts), nil
	})
}

// Shift moves values n rows forward within each group (backward for n < 0)
func (gb *GroupBy) Shift(n int, columns ...string) (*DataFrame, error) {
	return gb.transformColumns(columns, nil, func(s *Series) (*Series, error) {
		return shiftGroups(s, gb.groups(), n), nil
	})
}

// FillNull fills missing values from neighbours within the same group
func (gb *GroupBy) FillNull(strategy FillStrategy, columns ...string) (*DataFrame, error) {
	return gb.transformColumns(columns, nil, func(s *Series) (*Series, error) {
		return fillGroups(s, gb.groups(), strategy, 0), nil
	})
}

// Transform calls fn with each group's values of every value column. fn
// returns a Series of the group's length, or of length one to broadcast.
// Results are reassembled in original row order.
func (gb *GroupBy) Transform(fn func(*Series) (*Series, error), columns ...string) (*DataFrame, error) {
	labels := gb.df.Index()
	return gb.transformColumns(columns, nil, func(s *Series) (*Series, error) {
		groups := gb.groups()
		pieces := make([]*Series, len(groups))
		for gi, rows := range groups {
			if len(rows) == 0 {
				continue
			}
			sub := s.take(rows)
			sub.index = labels.Take(rows)
			res, err := fn(sub)
			if err != nil {
				return nil, err
			}
			pieces[gi] = res
		}
		return gb.scatter(s.name, pieces)
	})
}

// TransformAgg broadcasts a named aggregation ("mean", "sum", ...) back to
// every row of its group
func (gb *GroupBy) TransformAgg(name string, columns ...string) (*DataFrame, error) {
	fn, err := ParseAggType(name)
	if err != nil {
		return nil, err
	}
	accept := func(d DType) bool { return fn.accepts(d) }
	return gb.transformColumns(columns, accept, func(s *Series) (*Series, error) {
		agg, err := aggregateGroups(s, gb.groups(), fn, 0)
		if err != nil {
			return nil, err
		}
		return gb.broadcast(agg), nil
	})
}

// Head returns the first n rows of each group in original order.
// Negative n drops the last |n| rows of each group.
func (gb *GroupBy) Head(n int) (*DataFrame, error) {
	return gb.positional(n, true)
}

// Tail returns the last n rows of each group in original order.
// Negative n drops the first |n| rows of each group.
func (gb *GroupBy) Tail(n int) (*DataFrame, error) {
	return gb.positional(n, false)
}

func (gb *GroupBy) positional(n int, head bool) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	var pos []int
	for _, rows := range gb.groups() {
		k := n
		if k < 0 {
			k = max(len(rows)+k, 0)
		}
		k = min(k, len(rows))
		if head {
			pos = append(pos, rows[:k]...)
		} else {
			pos = append(pos, rows[len(rows)-k:]...)
		}
	}
	sortInts(pos)
	return gb.frame().Take(pos), nil
}

// Filter keeps the rows of groups for which pred is true, in original order.
// With dropNA false every row is kept and rows of failing groups are set
// to missing.
func (gb *GroupBy) Filter(pred func(group *DataFrame) (bool, error), dropNA bool) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	f := gb.frame()
	pass := getBoolMask(gb.n)
	defer pass.Release()
	for gi, rows := range gb.groups() {
		if len(rows) == 0 {
			continue
		}
		ok, err := pred(f.Take(rows))
		if err != nil {
			return nil, fmt.Errorf("filter group %s: %w", gb.key(gi), err)
		}
		if ok {
			for _, r := range rows {
				pass.Data[r] = true
			}
		}
	}
	if dropNA {
		return f.Filter(pass.Data)
	}
	pos := make([]int, gb.n)
	for i, ok := range pass.Data {
		if ok {
			pos[i] = i
		} else {
			pos[i] = -1
		}
	}
	return f.takeRows(pos, f.index), nil
}
