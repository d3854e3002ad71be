package skiff

import (
	"fmt"
	"strconv"
)

// DataFrame is an ordered collection of equal-length columns sharing one
// row index. Like Series, a DataFrame is never modified in place.
type DataFrame struct {
	columns     []*Series // stored without their own index
	height      int
	index       *Index // nil means a range index
	columnsName string
}

// ============================================================================
// Creation
// ============================================================================

// NewDataFrame creates a DataFrame from series of equal length.
// The index of the first series, if it has one, becomes the row index.
func NewDataFrame(series ...*Series) (*DataFrame, error) {
	df := &DataFrame{}
	seen := make(map[string]bool, len(series))
	for _, s := range series {
		if s == nil {
			continue
		}
		if len(df.columns) == 0 {
			df.height = s.Len()
			if s.HasIndex() {
				df.index = s.index
			}
		} else if s.Len() != df.height {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrLengthMismatch, s.name, s.Len(), df.height)
		}
		if seen[s.name] {
			return nil, &SchemaError{Message: "duplicate column name: " + s.name, Index: len(df.columns)}
		}
		seen[s.name] = true
		col := s.shallow()
		col.index = nil
		df.columns = append(df.columns, col)
	}
	return df, nil
}

// NewEmptyDataFrame creates a frame with no rows. Without columns it has no
// columns either.
func NewEmptyDataFrame(columns ...string) *DataFrame {
	df := &DataFrame{}
	for _, c := range columns {
		df.columns = append(df.columns, NewSeriesNull(c, 0))
	}
	return df
}

// FromRecords builds a frame from row-major records, inferring column dtypes
func FromRecords(columns []string, records [][]interface{}) (*DataFrame, error) {
	series := make([]*Series, len(columns))
	for c, name := range columns {
		vals := make([]interface{}, len(records))
		for r, rec := range records {
			if len(rec) != len(columns) {
				return nil, fmt.Errorf("%w: record %d has %d fields, expected %d", ErrLengthMismatch, r, len(rec), len(columns))
			}
			vals[r] = rec[c]
		}
		series[c] = NewSeriesFromValues(name, vals)
	}
	if len(series) == 0 {
		return &DataFrame{height: len(records)}, nil
	}
	return NewDataFrame(series...)
}

// ============================================================================
// Access
// ============================================================================

func (df *DataFrame) column(name string) *Series {
	for _, c := range df.columns {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (df *DataFrame) columnIndex(name string) int {
	for i, c := range df.columns {
		if c.name == name {
			return i
		}
	}
	return -1
}

func (df *DataFrame) withFrameIndex(s *Series) *Series {
	out := s.shallow()
	out.index = df.index
	return out
}

// Column returns the named column carrying the frame's row index, or nil
func (df *DataFrame) Column(name string) *Series {
	c := df.column(name)
	if c == nil {
		return nil
	}
	return df.withFrameIndex(c)
}

// ColumnByName is an alias of Column
func (df *DataFrame) ColumnByName(name string) *Series {
	return df.Column(name)
}

// ColumnAt returns the i-th column
func (df *DataFrame) ColumnAt(i int) *Series {
	if i < 0 || i >= len(df.columns) {
		return nil
	}
	return df.withFrameIndex(df.columns[i])
}

// Columns returns every column
func (df *DataFrame) Columns() []*Series {
	out := make([]*Series, len(df.columns))
	for i, c := range df.columns {
		out[i] = df.withFrameIndex(c)
	}
	return out
}

// ColumnNames returns the column names in order
func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.columns))
	for i, c := range df.columns {
		names[i] = c.name
	}
	return names
}

// DTypes returns the column dtypes in order
func (df *DataFrame) DTypes() []DType {
	out := make([]DType, len(df.columns))
	for i, c := range df.columns {
		out[i] = c.dtype
	}
	return out
}

// Schema returns the column names and dtypes
func (df *DataFrame) Schema() *Schema {
	s, _ := NewSchema(df.ColumnNames(), df.DTypes())
	return s
}

// HasColumn reports whether the named column exists
func (df *DataFrame) HasColumn(name string) bool {
	return df.column(name) != nil
}

// Height returns the number of rows
func (df *DataFrame) Height() int {
	if df == nil {
		return 0
	}
	return df.height
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	if df == nil {
		return 0
	}
	return len(df.columns)
}

// Index returns the row labels
func (df *DataFrame) Index() *Index {
	if df.index == nil {
		return NewRangeIndex(df.height)
	}
	return df.index
}

// HasIndex reports whether the frame carries explicit row labels
func (df *DataFrame) HasIndex() bool {
	return df.index != nil && !df.index.IsRange()
}

// WithIndex returns a copy of the frame with new row labels
func (df *DataFrame) WithIndex(idx *Index) (*DataFrame, error) {
	if idx != nil && idx.Len() != df.height {
		return nil, fmt.Errorf("%w: index has %d labels, frame has %d rows", ErrLengthMismatch, idx.Len(), df.height)
	}
	out := df.Clone()
	out.index = idx
	return out, nil
}

// ColumnsName returns the name of the column axis
func (df *DataFrame) ColumnsName() string {
	return df.columnsName
}

// WithColumnsName returns a copy of the frame with a named column axis
func (df *DataFrame) WithColumnsName(name string) *DataFrame {
	out := df.Clone()
	out.columnsName = name
	return out
}

// Row returns the values of row i in column order
func (df *DataFrame) Row(i int) []interface{} {
	out := make([]interface{}, len(df.columns))
	for c, col := range df.columns {
		out[c] = col.Get(i)
	}
	return out
}

// Get returns one cell, nil when missing or when the column does not exist
func (df *DataFrame) Get(row int, column string) interface{} {
	c := df.column(column)
	if c == nil || row < 0 || row >= df.height {
		return nil
	}
	return c.Get(row)
}

// ============================================================================
// Column operations
// ============================================================================

// Select returns the named columns in the given order
func (df *DataFrame) Select(columns ...string) (*DataFrame, error) {
	out := &DataFrame{height: df.height, index: df.index, columnsName: df.columnsName}
	for _, name := range columns {
		c := df.column(name)
		if c == nil {
			return nil, &ColumnNotFoundError{Name: name}
		}
		out.columns = append(out.columns, c)
	}
	return out, nil
}

// Drop returns the frame without the named columns; unknown names are ignored
func (df *DataFrame) Drop(columns ...string) *DataFrame {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	out := &DataFrame{height: df.height, index: df.index, columnsName: df.columnsName}
	for _, c := range df.columns {
		if !drop[c.name] {
			out.columns = append(out.columns, c)
		}
	}
	return out
}

// WithColumn returns a frame with s added, replacing a column of the same name
func (df *DataFrame) WithColumn(s *Series) (*DataFrame, error) {
	if len(df.columns) > 0 && s.Len() != df.height {
		return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrLengthMismatch, s.name, s.Len(), df.height)
	}
	out := df.Clone()
	if len(out.columns) == 0 {
		out.height = s.Len()
	}
	col := s.shallow()
	col.index = nil
	if i := out.columnIndex(s.name); i >= 0 {
		out.columns[i] = col
	} else {
		out.columns = append(out.columns, col)
	}
	return out, nil
}

// insertColumn returns a frame with s inserted at position pos
func (df *DataFrame) insertColumn(pos int, s *Series) *DataFrame {
	out := df.Clone()
	if len(out.columns) == 0 {
		out.height = s.Len()
	}
	col := s.shallow()
	col.index = nil
	out.columns = append(out.columns, nil)
	copy(out.columns[pos+1:], out.columns[pos:])
	out.columns[pos] = col
	return out
}

// Rename renames one column
func (df *DataFrame) Rename(oldName, newName string) (*DataFrame, error) {
	i := df.columnIndex(oldName)
	if i < 0 {
		return nil, &ColumnNotFoundError{Name: oldName}
	}
	out := df.Clone()
	out.columns[i] = out.columns[i].Rename(newName)
	return out, nil
}

// ============================================================================
// Row operations
// ============================================================================

// takeRows gathers rows by position (-1 gives missing values) and installs idx.
func (df *DataFrame) takeRows(pos []int, idx *Index) *DataFrame {
	out := &DataFrame{height: len(pos), index: idx, columnsName: df.columnsName}
	out.columns = make([]*Series, len(df.columns))
	for i, c := range df.columns {
		out.columns[i] = c.take(pos)
	}
	return out
}

// Take returns the rows at the given positions, keeping their labels
func (df *DataFrame) Take(pos []int) *DataFrame {
	return df.takeRows(pos, df.Index().Take(pos))
}

// Filter keeps rows where mask is true
func (df *DataFrame) Filter(mask []bool) (*DataFrame, error) {
	if len(mask) != df.height {
		return nil, fmt.Errorf("%w: mask has %d entries, frame has %d rows", ErrLengthMismatch, len(mask), df.height)
	}
	pos := make([]int, 0, df.height)
	for i, keep := range mask {
		if keep {
			pos = append(pos, i)
		}
	}
	return df.Take(pos), nil
}

// Slice returns rows [start, end)
func (df *DataFrame) Slice(start, end int) *DataFrame {
	if start < 0 {
		start = 0
	}
	if end > df.height {
		end = df.height
	}
	if start > end {
		start = end
	}
	pos := make([]int, end-start)
	for i := range pos {
		pos[i] = start + i
	}
	return df.Take(pos)
}

// Head returns the first n rows
func (df *DataFrame) Head(n int) *DataFrame {
	return df.Slice(0, n)
}

// Tail returns the last n rows
func (df *DataFrame) Tail(n int) *DataFrame {
	return df.Slice(df.height-n, df.height)
}

// SortBy sorts rows by one or more columns (stable, missing last).
// ascending holds one flag per column or a single flag for all; the default is ascending.
func (df *DataFrame) SortBy(columns []string, ascending ...bool) (*DataFrame, error) {
	cols := make([]*Series, len(columns))
	asc := make([]bool, len(columns))
	for i, name := range columns {
		c := df.column(name)
		if c == nil {
			return nil, &ColumnNotFoundError{Name: name}
		}
		cols[i] = c
		switch {
		case len(ascending) == 0:
			asc[i] = true
		case len(ascending) == 1:
			asc[i] = ascending[0]
		case i < len(ascending):
			asc[i] = ascending[i]
		default:
			return nil, fmt.Errorf("%w: %d sort directions for %d columns", ErrLengthMismatch, len(ascending), len(columns))
		}
	}
	pos := seqInts(df.height)
	sortStable(pos, func(a, b int) bool { return compareRows(cols, asc, a, b) < 0 })
	return df.Take(pos), nil
}

// SortIndex sorts rows by their labels
func (df *DataFrame) SortIndex(ascending bool) *DataFrame {
	return df.Take(df.Index().SortPositions(ascending))
}

// SetIndex moves the named columns into the row index
func (df *DataFrame) SetIndex(columns ...string) (*DataFrame, error) {
	levels := make([]*Series, len(columns))
	for i, name := range columns {
		c := df.column(name)
		if c == nil {
			return nil, &ColumnNotFoundError{Name: name}
		}
		levels[i] = c
	}
	idx, err := NewIndex(levels...)
	if err != nil {
		return nil, err
	}
	out := df.Drop(columns...)
	out.index = idx
	return out, nil
}

// ResetIndex moves the index levels into leading columns and installs a
// range index. Unnamed levels become "index" (single level) or "level_i".
func (df *DataFrame) ResetIndex() *DataFrame {
	idx := df.Index()
	out := df.Clone()
	out.index = nil
	for l := idx.NLevels() - 1; l >= 0; l-- {
		level := idx.Level(l)
		name := level.name
		if name == "" {
			if idx.NLevels() == 1 {
				name = "index"
			} else {
				name = "level_" + strconv.Itoa(l)
			}
		}
		out = out.insertColumn(0, level.Rename(name))
	}
	return out
}

// DropDuplicates keeps the first row of every distinct combination of the
// named columns (all columns when none are named)
func (df *DataFrame) DropDuplicates(columns ...string) (*DataFrame, error) {
	if len(columns) == 0 {
		columns = df.ColumnNames()
	}
	keys := make([]*Series, len(columns))
	for i, name := range columns {
		c := df.column(name)
		if c == nil {
			return nil, &ColumnNotFoundError{Name: name}
		}
		keys[i] = c
	}
	info := buildGroups(keys, false, false, true)
	pos := make([]int, 0, info.ngroups)
	for _, rows := range info.positions {
		pos = append(pos, rows[0])
	}
	sortInts(pos)
	return df.Take(pos), nil
}

// Clone returns a shallow copy; column data is shared
func (df *DataFrame) Clone() *DataFrame {
	out := *df
	out.columns = append([]*Series{}, df.columns...)
	return &out
}

// Pipe calls fn with the frame
func (df *DataFrame) Pipe(fn func(*DataFrame) (*DataFrame, error)) (*DataFrame, error) {
	return fn(df)
}

// ============================================================================
// Combination
// ============================================================================

// Concat stacks frames vertically. Columns are matched by name; a column
// missing from a frame is filled with missing values there. The result keeps
// row labels when any input has them.
func Concat(frames ...*DataFrame) (*DataFrame, error) {
	var names []string
	seen := make(map[string]bool)
	hasIndex := false
	total := 0
	var parts []*DataFrame
	for _, f := range frames {
		if f == nil {
			continue
		}
		parts = append(parts, f)
		total += f.height
		if f.HasIndex() {
			hasIndex = true
		}
		for _, c := range f.columns {
			if !seen[c.name] {
				seen[c.name] = true
				names = append(names, c.name)
			}
		}
	}
	if len(parts) == 0 {
		return NewEmptyDataFrame(), nil
	}

	out := &DataFrame{height: total, columnsName: parts[0].columnsName}
	for _, f := range parts[1:] {
		if f.columnsName != out.columnsName {
			out.columnsName = ""
		}
	}
	for _, name := range names {
		pieces := make([]*Series, len(parts))
		for i, f := range parts {
			if c := f.column(name); c != nil {
				pieces[i] = c
			} else {
				pieces[i] = NewSeriesNull(name, f.height)
			}
		}
		col, err := ConcatSeries(pieces...)
		if err != nil {
			return nil, err
		}
		col.name = name
		out.columns = append(out.columns, col)
	}
	if hasIndex {
		idx := parts[0].Index()
		for _, f := range parts[1:] {
			var err error
			if idx, err = idx.Append(f.Index()); err != nil {
				return nil, err
			}
		}
		out.index = idx
	}
	return out, nil
}

// Equal reports whether both frames have the same columns, values, dtypes and index
func (df *DataFrame) Equal(other *DataFrame) bool {
	if df == nil || other == nil {
		return df == other
	}
	if df.height != other.height || len(df.columns) != len(other.columns) {
		return false
	}
	for i, c := range df.columns {
		o := other.columns[i]
		if c.name != o.name || !c.EqualValues(o) {
			return false
		}
	}
	return df.Index().Equal(other.Index())
}

// String renders the frame as a table
func (df *DataFrame) String() string {
	return StringWithConfig(df, GetDisplayConfig())
}
