package skiff

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Key is a group key or composite row label, one value per level.
type Key []interface{}

// String renders a one-level key as its value and a composite key as a tuple.
func (k Key) String() string {
	if len(k) == 1 {
		return formatLabel(k[0])
	}
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = formatLabel(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatLabel(v interface{}) string {
	if v == nil {
		return "NaN"
	}
	return formatScalar(v)
}

// encodeValue maps a label to a string that is equal for equal values,
// treating Go integer and integral float values alike.
func encodeValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case string:
		return "s" + x
	case bool:
		if x {
			return "b1"
		}
		return "b0"
	case time.Time:
		return "t" + strconv.FormatInt(x.UnixNano(), 10)
	case Key:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = encodeValue(p)
		}
		return "k" + strings.Join(parts, "\x1f")
	}
	if i, ok := v.(int64); ok {
		return "n" + strconv.FormatInt(i, 10)
	}
	if f, ok := toFloat(v); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			if i, ok := toInt(v); ok {
				return "n" + strconv.FormatInt(i, 10)
			}
		}
		return "n" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f, isFloat := v.(float64); isFloat && math.IsNaN(f) {
		return "\x00"
	}
	return "?" + fmt.Sprint(v)
}

func labelsEqual(a, b interface{}) bool {
	return encodeValue(a) == encodeValue(b)
}

// Index holds the row labels of a DataFrame or Series. It is either a range
// index 0..n-1 or one or more label levels; more than one level makes it a
// multi-index whose labels are Key tuples.
type Index struct {
	n      int
	levels []*Series
}

// NewRangeIndex creates the default 0..n-1 index
func NewRangeIndex(n int) *Index {
	return &Index{n: n}
}

// NewIndex creates an index from one or more label levels. Level names
// become the index names.
func NewIndex(levels ...*Series) (*Index, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: index needs at least one level", ErrInvalidLevel)
	}
	n := levels[0].Len()
	out := &Index{n: n, levels: make([]*Series, len(levels))}
	for i, l := range levels {
		if l.Len() != n {
			return nil, fmt.Errorf("%w: index level %d has %d labels, expected %d", ErrLengthMismatch, i, l.Len(), n)
		}
		lv := l.shallow()
		lv.index = nil
		out.levels[i] = lv
	}
	return out, nil
}

// NewIndexFromValues creates a single-level index from loose values
func NewIndexFromValues(name string, values ...interface{}) *Index {
	ix, _ := NewIndex(NewSeriesFromValues(name, values))
	return ix
}

// Len returns the number of labels
func (ix *Index) Len() int {
	return ix.n
}

// IsRange reports whether the index is the default range index
func (ix *Index) IsRange() bool {
	return ix.levels == nil
}

// NLevels returns the number of label levels
func (ix *Index) NLevels() int {
	if ix.levels == nil {
		return 1
	}
	return len(ix.levels)
}

// IsMulti reports whether the index has more than one level
func (ix *Index) IsMulti() bool {
	return len(ix.levels) > 1
}

// Names returns the level names
func (ix *Index) Names() []string {
	if ix.levels == nil {
		return []string{""}
	}
	names := make([]string, len(ix.levels))
	for i, l := range ix.levels {
		names[i] = l.name
	}
	return names
}

// Name returns the name of the first level
func (ix *Index) Name() string {
	return ix.Names()[0]
}

// SetNames returns a copy of the index with new level names
func (ix *Index) SetNames(names ...string) (*Index, error) {
	if len(names) != ix.NLevels() {
		return nil, fmt.Errorf("%w: got %d names for %d levels", ErrInvalidLevel, len(names), ix.NLevels())
	}
	levels := make([]*Series, ix.NLevels())
	for i := range levels {
		levels[i] = ix.Level(i).Rename(names[i])
	}
	return NewIndex(levels...)
}

// Level returns level i as a Series. A range index materializes as Int64.
func (ix *Index) Level(i int) *Series {
	if ix.levels == nil {
		pos := make([]int64, ix.n)
		for k := range pos {
			pos[k] = int64(k)
		}
		return NewSeriesInt64("", pos)
	}
	return ix.levels[i]
}

// Levels returns every level as a Series
func (ix *Index) Levels() []*Series {
	out := make([]*Series, ix.NLevels())
	for i := range out {
		out[i] = ix.Level(i)
	}
	return out
}

// resolveLevel maps a level name or position to a position.
func (ix *Index) resolveLevel(level interface{}) (int, error) {
	switch l := level.(type) {
	case string:
		for i, name := range ix.Names() {
			if name == l && name != "" {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: level %s not found", ErrInvalidLevel, l)
	case int:
		if l < 0 {
			l += ix.NLevels()
		}
		if l < 0 || l >= ix.NLevels() {
			return -1, fmt.Errorf("%w: too many levels: index has only %d levels, not %d", ErrInvalidLevel, ix.NLevels(), l+1)
		}
		return l, nil
	default:
		return -1, fmt.Errorf("%w: level must be a name or position, got %T", ErrInvalidLevel, level)
	}
}

// Label returns the label of row i: a scalar for one level, a Key otherwise
func (ix *Index) Label(i int) interface{} {
	if ix.levels == nil {
		return int64(i)
	}
	if len(ix.levels) == 1 {
		return ix.levels[0].Get(i)
	}
	k := make(Key, len(ix.levels))
	for l, lv := range ix.levels {
		k[l] = lv.Get(i)
	}
	return k
}

// Labels returns every row label
func (ix *Index) Labels() []interface{} {
	out := make([]interface{}, ix.n)
	for i := range out {
		out[i] = ix.Label(i)
	}
	return out
}

// Position returns the first row whose label equals label
func (ix *Index) Position(label interface{}) (int, bool) {
	enc := encodeValue(label)
	for i := 0; i < ix.n; i++ {
		if encodeValue(ix.Label(i)) == enc {
			return i, true
		}
	}
	return -1, false
}

// Take returns the labels at the given positions
func (ix *Index) Take(idx []int) *Index {
	if ix.levels == nil {
		labels := make([]int64, len(idx))
		for k, i := range idx {
			labels[k] = int64(i)
		}
		return &Index{n: len(idx), levels: []*Series{NewSeriesInt64("", labels)}}
	}
	out := &Index{n: len(idx), levels: make([]*Series, len(ix.levels))}
	for i, l := range ix.levels {
		out.levels[i] = l.take(idx)
	}
	return out
}

// Append concatenates the labels of other after ix
func (ix *Index) Append(other *Index) (*Index, error) {
	if ix.NLevels() != other.NLevels() {
		return nil, fmt.Errorf("%w: cannot append an index with %d levels to one with %d",
			ErrInvalidLevel, other.NLevels(), ix.NLevels())
	}
	levels := make([]*Series, ix.NLevels())
	for i := range levels {
		lv, err := ConcatSeries(ix.Level(i), other.Level(i))
		if err != nil {
			return nil, err
		}
		levels[i] = lv
	}
	return NewIndex(levels...)
}

// Equal reports whether both indexes have the same labels and names
func (ix *Index) Equal(other *Index) bool {
	if ix == nil || other == nil {
		return ix == other
	}
	if ix.n != other.n || ix.NLevels() != other.NLevels() {
		return false
	}
	if ix.IsRange() && other.IsRange() {
		return true
	}
	for l := 0; l < ix.NLevels(); l++ {
		if ix.Names()[l] != other.Names()[l] {
			return false
		}
		a, b := ix.Level(l), other.Level(l)
		for i := 0; i < ix.n; i++ {
			if !labelsEqual(a.Get(i), b.Get(i)) {
				return false
			}
		}
	}
	return true
}

// IsLexSorted reports whether the labels are in non-decreasing
// lexicographic order across levels.
func (ix *Index) IsLexSorted() bool {
	if ix.levels == nil {
		return true
	}
	asc := make([]bool, len(ix.levels))
	for i := range asc {
		asc[i] = true
	}
	for i := 1; i < ix.n; i++ {
		if compareRows(ix.levels, asc, i-1, i) > 0 {
			return false
		}
	}
	return true
}

// SortPositions returns the positions that order the labels lexicographically;
// missing labels sort last.
func (ix *Index) SortPositions(ascending bool) []int {
	pos := seqInts(ix.n)
	if ix.levels == nil {
		if !ascending {
			for i, j := 0, len(pos)-1; i < j; i, j = i+1, j-1 {
				pos[i], pos[j] = pos[j], pos[i]
			}
		}
		return pos
	}
	asc := make([]bool, len(ix.levels))
	for i := range asc {
		asc[i] = ascending
	}
	sort.SliceStable(pos, func(a, b int) bool {
		return compareRows(ix.levels, asc, pos[a], pos[b]) < 0
	})
	return pos
}

// ToFrame returns the levels as columns. Unnamed levels become "level_i".
func (ix *Index) ToFrame() *DataFrame {
	levels := ix.Levels()
	cols := make([]*Series, len(levels))
	for i, l := range levels {
		name := l.name
		if name == "" {
			name = "level_" + strconv.Itoa(i)
		}
		cols[i] = l.Rename(name)
	}
	df, _ := NewDataFrame(cols...)
	return df
}

// compareRows orders rows i and j by the given columns; missing values sort last.
func compareRows(cols []*Series, ascending []bool, i, j int) int {
	for c, s := range cols {
		ni, nj := s.IsNull(i), s.IsNull(j)
		switch {
		case ni && nj:
			continue
		case ni:
			return 1
		case nj:
			return -1
		}
		r := s.compare(i, j)
		if r != 0 {
			if !ascending[c] {
				return -r
			}
			return r
		}
	}
	return 0
}

// String renders the labels one per line
func (ix *Index) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Index(names=%v, len=%d)\n", ix.Names(), ix.n)
	for i := 0; i < ix.n; i++ {
		b.WriteString(formatLabel(ix.Label(i)))
		b.WriteByte('\n')
	}
	return b.String()
}
