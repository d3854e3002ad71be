package skiff

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupOptions controls how a grouping is built and how results are shaped
type GroupOptions struct {
	// Sort orders groups by key; otherwise groups follow first appearance
	Sort bool
	// AsIndex places group keys in the result index; otherwise they become
	// leading columns and the result gets a range index
	AsIndex bool
	// GroupKeys prepends the group keys to the index of Apply results that
	// are not shaped like the input
	GroupKeys bool
	// DropNA excludes rows whose key is missing; otherwise they form a group
	DropNA bool
	// Observed limits categorical keys to categories that occur
	Observed bool
}

// DefaultGroupOptions returns Sort, AsIndex, GroupKeys and DropNA enabled
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{
		Sort:      true,
		AsIndex:   true,
		GroupKeys: true,
		DropNA:    true,
	}
}

// groupKey is a resolved grouping key: one value per row plus, for keys
// taken from a column, the column consumed by the key.
type groupKey struct {
	values *Series
	column string
}

// By describes one grouping key
type By interface {
	resolve(df *DataFrame) (groupKey, error)
}

type byColumn string

// ByColumn groups by the values of a column
func ByColumn(name string) By {
	return byColumn(name)
}

func (b byColumn) resolve(df *DataFrame) (groupKey, error) {
	name := string(b)
	col := df.column(name)
	if col == nil {
		if df.index != nil && name != "" {
			if l, err := df.index.resolveLevel(name); err == nil {
				return groupKey{values: df.index.Level(l)}, nil
			}
		}
		return groupKey{}, &ColumnNotFoundError{Name: name}
	}
	return groupKey{values: col, column: name}, nil
}

type byLevel struct {
	level interface{}
}

// ByLevel groups by an index level, given by name or position
func ByLevel(level interface{}) By {
	return byLevel{level: level}
}

func (b byLevel) resolve(df *DataFrame) (groupKey, error) {
	idx := df.Index()
	l, err := idx.resolveLevel(b.level)
	if err != nil {
		return groupKey{}, err
	}
	if idx.IsMulti() && !idx.IsLexSorted() {
		logWarn().
			Interface("index_level", b.level).
			Msg("grouping by a level of an index that is not lexsorted; performance may suffer")
	}
	return groupKey{values: idx.Level(l)}, nil
}

type bySeries struct {
	s *Series
}

// BySeries groups by an external series aligned by position.
// The series name becomes the key name.
func BySeries(s *Series) By {
	return bySeries{s: s}
}

func (b bySeries) resolve(df *DataFrame) (groupKey, error) {
	if b.s.Len() != df.Height() {
		return groupKey{}, fmt.Errorf("%w: grouper %q has %d values, frame has %d rows",
			ErrLengthMismatch, b.s.name, b.s.Len(), df.Height())
	}
	v := b.s.shallow()
	v.index = nil
	return groupKey{values: v}, nil
}

type byValues struct {
	values interface{}
}

// ByValues groups by an unnamed array of keys, such as []string or []int
func ByValues(values interface{}) By {
	return byValues{values: values}
}

func (b byValues) resolve(df *DataFrame) (groupKey, error) {
	s, err := NewSeriesFromSlice("", b.values)
	if err != nil {
		return groupKey{}, err
	}
	return bySeries{s: s}.resolve(df)
}

type byFunc struct {
	fn func(label interface{}) interface{}
}

// ByFunc groups by fn applied to each row label. A nil result is a missing key.
func ByFunc(fn func(label interface{}) interface{}) By {
	return byFunc{fn: fn}
}

func (b byFunc) resolve(df *DataFrame) (groupKey, error) {
	idx := df.Index()
	vals := make([]interface{}, idx.Len())
	for i := range vals {
		vals[i] = b.fn(idx.Label(i))
	}
	return groupKey{values: NewSeriesFromValues("", vals)}, nil
}

type byMap struct {
	m map[interface{}]interface{}
}

// ByMap groups by looking up each row label in m; unmapped labels are missing keys
func ByMap(m map[interface{}]interface{}) By {
	enc := make(map[interface{}]interface{}, len(m))
	for k, v := range m {
		enc[encodeValue(k)] = v
	}
	return byMap{m: enc}
}

func (b byMap) resolve(df *DataFrame) (groupKey, error) {
	return byFunc{fn: func(label interface{}) interface{} {
		return b.m[encodeValue(label)]
	}}.resolve(df)
}

// Grouper is a key descriptor naming a column (Key) or an index level (Level)
type Grouper struct {
	Key   string
	Level interface{}
	Axis  int
	Sort  bool
}

// String renders the descriptor as Grouper(key='A', level='B', axis=0, sort=False).
// Unset Key and Level are omitted.
func (g Grouper) String() string {
	var parts []string
	if g.Key != "" {
		parts = append(parts, "key="+quoteAttr(g.Key))
	}
	if g.Level != nil {
		switch l := g.Level.(type) {
		case string:
			parts = append(parts, "level="+quoteAttr(l))
		default:
			parts = append(parts, fmt.Sprintf("level=%v", l))
		}
	}
	parts = append(parts, "axis="+strconv.Itoa(g.Axis))
	sortAttr := "False"
	if g.Sort {
		sortAttr = "True"
	}
	parts = append(parts, "sort="+sortAttr)
	return "Grouper(" + strings.Join(parts, ", ") + ")"
}

func quoteAttr(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func (g Grouper) resolve(df *DataFrame) (groupKey, error) {
	switch {
	case g.Axis != 0:
		return groupKey{}, fmt.Errorf("%w: Grouper axis %d; use GroupByColumns for the column axis", ErrInvalidArgument, g.Axis)
	case g.Key != "" && g.Level != nil:
		return groupKey{}, fmt.Errorf("%w: Grouper takes either a key or a level, not both", ErrInvalidArgument)
	case g.Key != "":
		return byColumn(g.Key).resolve(df)
	case g.Level != nil:
		return byLevel{level: g.Level}.resolve(df)
	default:
		return groupKey{}, fmt.Errorf("%w: Grouper needs a key or a level", ErrInvalidArgument)
	}
}
