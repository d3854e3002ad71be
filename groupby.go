package skiff

import (
	"fmt"
)

// grouping is the split step shared by frame, series and column groupings:
// the row-to-group mapping plus what is needed to label results.
type grouping struct {
	info     *groupInfo
	keyNames []string
	opts     GroupOptions
	n        int
	index    *Index // source row labels, nil means a range index
}

func newGrouping(levels []*Series, opts GroupOptions, index *Index) *grouping {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.name
	}
	n := 0
	if len(levels) > 0 {
		n = levels[0].Len()
	}
	return &grouping{
		info:     buildGroups(levels, opts.Sort, opts.DropNA, opts.Observed),
		keyNames: names,
		opts:     opts,
		n:        n,
		index:    index,
	}
}

func (g *grouping) groups() [][]int {
	return g.info.positions
}

// key returns the key of group gi
func (g *grouping) key(gi int) Key {
	k := make(Key, len(g.info.keys))
	for l, s := range g.info.keys {
		k[l] = s.Get(gi)
	}
	return k
}

// keyIndex labels aggregated results with the group keys
func (g *grouping) keyIndex() *Index {
	levels := make([]*Series, len(g.info.keys))
	for l, s := range g.info.keys {
		levels[l] = s.Rename(g.keyNames[l])
	}
	idx, _ := NewIndex(levels...)
	return idx
}

// lookup finds the group whose key equals key
func (g *grouping) lookup(key Key) (int, error) {
	for _, v := range key {
		if v == nil {
			return -1, &KeyNotFoundError{Key: key}
		}
		if f, ok := v.(float64); ok && f != f {
			return -1, &KeyNotFoundError{Key: key}
		}
	}
	if len(key) != len(g.info.keys) {
		return -1, fmt.Errorf("%w: key %s has %d values for %d grouping levels",
			ErrKeyNotFound, key, len(key), len(g.info.keys))
	}
	want := encodeValue(key)
	for gi := 0; gi < g.info.ngroups; gi++ {
		if encodeValue(g.key(gi)) == want {
			return gi, nil
		}
	}
	return -1, &KeyNotFoundError{Key: key}
}

// rowLabels returns the source labels of the given rows
func (g *grouping) rowLabels(rows []int) *Index {
	if g.index == nil {
		return NewRangeIndex(g.n).Take(rows)
	}
	return g.index.Take(rows)
}

// broadcast expands one value per group to one value per row
func (g *grouping) broadcast(perGroup *Series) *Series {
	return perGroup.take(g.info.ids)
}

// scatter reassembles per-group results into original row order. Each piece
// must match its group's length or hold a single value to broadcast. Rows
// outside every group are missing.
func (g *grouping) scatter(name string, pieces []*Series) (*Series, error) {
	groups := g.groups()
	parts := make([]*Series, 0, len(pieces))
	src := make([]int, g.n)
	for i := range src {
		src[i] = -1
	}
	offset := 0
	for gi, p := range pieces {
		rows := groups[gi]
		if p == nil || len(rows) == 0 {
			continue
		}
		switch {
		case p.Len() == len(rows):
		case p.Len() == 1:
			p = p.take(make([]int, len(rows)))
		default:
			return nil, fmt.Errorf("%w: transform of group %s returned %d values for %d rows",
				ErrLengthMismatch, g.key(gi), p.Len(), len(rows))
		}
		parts = append(parts, p)
		for k, r := range rows {
			src[r] = offset + k
		}
		offset += len(rows)
	}
	if len(parts) == 0 {
		return NewSeriesNull(name, g.n), nil
	}
	all, err := ConcatSeries(parts...)
	if err != nil {
		return nil, err
	}
	out := all.take(src)
	out.name = name
	return out, nil
}

// ============================================================================
// DataFrame grouping
// ============================================================================

// GroupBy represents a split of a DataFrame's rows by one or more keys.
// Construction errors are deferred to the first operation and available
// from Err.
type GroupBy struct {
	*grouping
	df         *DataFrame
	keyColumns []string
	selection  []string // nil means every column not used as a key
	err        error
}

// GroupBy groups rows by the named columns with default options
func (df *DataFrame) GroupBy(columns ...string) *GroupBy {
	by := make([]By, len(columns))
	for i, c := range columns {
		by[i] = ByColumn(c)
	}
	return df.GroupByWith(DefaultGroupOptions(), by...)
}

// GroupByWith groups rows by arbitrary key specs
func (df *DataFrame) GroupByWith(opts GroupOptions, by ...By) *GroupBy {
	gb := &GroupBy{df: df}
	if len(by) == 0 {
		gb.err = ErrEmptyKeys
		return gb
	}
	levels := make([]*Series, len(by))
	for i, b := range by {
		k, err := b.resolve(df)
		if err != nil {
			gb.err = err
			return gb
		}
		levels[i] = k.values
		if k.column != "" {
			gb.keyColumns = append(gb.keyColumns, k.column)
		}
	}
	gb.grouping = newGrouping(levels, opts, df.index)
	return gb
}

// Err returns the error recorded while building the grouping
func (gb *GroupBy) Err() error {
	return gb.err
}

// NumGroups returns the number of groups (0 when the grouping failed)
func (gb *GroupBy) NumGroups() int {
	if gb.err != nil {
		return 0
	}
	return gb.info.ngroups
}

// Len is an alias of NumGroups
func (gb *GroupBy) Len() int {
	return gb.NumGroups()
}

// KeyNames returns the names of the grouping keys ("" for unnamed keys)
func (gb *GroupBy) KeyNames() []string {
	if gb.err != nil {
		return nil
	}
	return append([]string{}, gb.keyNames...)
}

// Keys returns the group keys in group order
func (gb *GroupBy) Keys() []Key {
	if gb.err != nil {
		return nil
	}
	out := make([]Key, gb.info.ngroups)
	for gi := range out {
		out[gi] = gb.key(gi)
	}
	return out
}

// Indices returns the row positions of every group, aligned with Keys
func (gb *GroupBy) Indices() [][]int {
	if gb.err != nil {
		return nil
	}
	out := make([][]int, gb.info.ngroups)
	for gi, rows := range gb.groups() {
		out[gi] = append([]int{}, rows...)
	}
	return out
}

// GroupLabels pairs a group key with the row labels of its members
type GroupLabels struct {
	Key    Key
	Labels []interface{}
}

// Groups returns the row labels of every group in group order
func (gb *GroupBy) Groups() []GroupLabels {
	if gb.err != nil {
		return nil
	}
	out := make([]GroupLabels, gb.info.ngroups)
	for gi, rows := range gb.groups() {
		out[gi] = GroupLabels{Key: gb.key(gi), Labels: gb.rowLabels(rows).Labels()}
	}
	return out
}

// frame returns the source rows restricted to the selected columns
func (gb *GroupBy) frame() *DataFrame {
	if gb.selection == nil {
		return gb.df
	}
	f, _ := gb.df.Select(gb.selection...)
	return f
}

// GetGroup returns the rows of the group with the given key, in original order
func (gb *GroupBy) GetGroup(key ...interface{}) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	gi, err := gb.lookup(Key(key))
	if err != nil {
		return nil, err
	}
	return gb.frame().Take(gb.groups()[gi]), nil
}

// Each calls fn for every group in group order
func (gb *GroupBy) Each(fn func(key Key, group *DataFrame) error) error {
	if gb.err != nil {
		return gb.err
	}
	f := gb.frame()
	for gi, rows := range gb.groups() {
		if err := fn(gb.key(gi), f.Take(rows)); err != nil {
			return err
		}
	}
	return nil
}

// Select restricts subsequent operations to the named columns
func (gb *GroupBy) Select(columns ...string) *GroupBy {
	out := *gb
	if out.err != nil {
		return &out
	}
	for _, c := range columns {
		if !gb.df.HasColumn(c) {
			out.err = &ColumnNotFoundError{Name: c}
			return &out
		}
	}
	out.selection = append([]string{}, columns...)
	return &out
}

// Col selects a single column as a SeriesGroupBy
func (gb *GroupBy) Col(name string) *SeriesGroupBy {
	if gb.err != nil {
		return &SeriesGroupBy{err: gb.err}
	}
	c := gb.df.column(name)
	if c == nil {
		return &SeriesGroupBy{err: &ColumnNotFoundError{Name: name}}
	}
	sg := &SeriesGroupBy{grouping: gb.grouping, s: c}
	if !gb.opts.AsIndex {
		// a selected column aggregates like a Series; keys go to the index
		g := *gb.grouping
		g.opts.AsIndex = true
		sg.grouping = &g
	}
	return sg
}

// isKeyColumn reports whether name was consumed by a key
func (gb *GroupBy) isKeyColumn(name string) bool {
	for _, k := range gb.keyColumns {
		if k == name {
			return true
		}
	}
	return false
}

// valueColumns resolves the columns an operation applies to. Named columns
// must exist; otherwise the selection or every non-key column is used.
func (gb *GroupBy) valueColumns(names []string) ([]*Series, bool, error) {
	if len(names) > 0 {
		cols := make([]*Series, len(names))
		for i, name := range names {
			c := gb.df.column(name)
			if c == nil {
				return nil, true, &ColumnNotFoundError{Name: name}
			}
			cols[i] = c
		}
		return cols, true, nil
	}
	if gb.selection != nil {
		cols := make([]*Series, len(gb.selection))
		for i, name := range gb.selection {
			cols[i] = gb.df.column(name)
		}
		return cols, true, nil
	}
	var cols []*Series
	for _, c := range gb.df.columns {
		if !gb.isKeyColumn(c.name) {
			cols = append(cols, c)
		}
	}
	return cols, false, nil
}

// result shapes per-group columns: keys as the index, or as leading
// columns over a range index when AsIndex is off.
func (gb *GroupBy) result(cols []*Series) *DataFrame {
	return gb.resultRows(nil, cols)
}

// resultRows is result restricted to the groups in gis (all when nil).
func (gb *GroupBy) resultRows(gis []int, cols []*Series) *DataFrame {
	keys := gb.info.keys
	height := gb.info.ngroups
	if gis != nil {
		keys = make([]*Series, len(gb.info.keys))
		for l, k := range gb.info.keys {
			keys[l] = k.take(gis)
		}
		height = len(gis)
	}
	out := &DataFrame{height: height, columns: cols}
	if gb.opts.AsIndex {
		levels := make([]*Series, len(keys))
		for l, k := range keys {
			levels[l] = k.Rename(gb.keyNames[l])
		}
		out.index, _ = NewIndex(levels...)
		return out
	}
	var lead []*Series
	for l, k := range keys {
		name := gb.keyNames[l]
		if name == "" || out.column(name) != nil {
			continue
		}
		lead = append(lead, k.Rename(name))
	}
	out.columns = append(lead, cols...)
	return out
}

// Pipe calls fn with the grouping, for chaining reusable steps
func (gb *GroupBy) Pipe(fn func(*GroupBy) (*DataFrame, error)) (*DataFrame, error) {
	return fn(gb)
}
