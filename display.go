package skiff

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// DisplayConfig controls how DataFrames and Series are formatted when printed.
type DisplayConfig struct {
	// MaxRows is the maximum number of rows to display. Longer tables show
	// head and tail rows with an ellipsis row in between.
	// Default: 10 (5 head + 5 tail)
	MaxRows int `yaml:"max_rows"`

	// MaxCols is the maximum number of value columns to display. Index
	// columns are always shown.
	// Default: 10
	MaxCols int `yaml:"max_cols"`

	// MaxColWidth is the maximum width for column content.
	// Values longer than this are truncated with "...".
	// Default: 25
	MaxColWidth int `yaml:"max_col_width"`

	// MinColWidth is the minimum width of a value column.
	// Default: 8
	MinColWidth int `yaml:"min_col_width"`

	// FloatPrecision is the number of decimal places for float values.
	// Default: 4
	FloatPrecision int `yaml:"float_precision"`

	// ShowDTypes controls whether data types are shown under column names.
	// Default: true
	ShowDTypes bool `yaml:"show_dtypes"`

	// ShowShape controls whether the shape header is shown.
	// Default: true
	ShowShape bool `yaml:"show_shape"`

	// ShowIndex controls whether a labelled frame index is shown as leading
	// columns. Series always show their labels.
	// Default: true
	ShowIndex bool `yaml:"show_index"`

	// TableStyle controls the table border style.
	// Options: "rounded", "sharp", "ascii", "minimal"
	// Default: "rounded"
	TableStyle string `yaml:"table_style"`
}

// Table style characters
type tableChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topT, bottomT, leftT, rightT, cross        string
}

var tableStyles = map[string]tableChars{
	"rounded": {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"sharp": {
		topLeft: "┌", topRight: "┐", bottomLeft: "└", bottomRight: "┘",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"ascii": {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topT: "+", bottomT: "+", leftT: "+", rightT: "+", cross: "+",
	},
	"minimal": {
		topLeft: " ", topRight: " ", bottomLeft: " ", bottomRight: " ",
		horizontal: "─", vertical: " ",
		topT: " ", bottomT: " ", leftT: " ", rightT: " ", cross: " ",
	},
}

// DefaultDisplayConfig returns the default display configuration.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MaxRows:        10,
		MaxCols:        10,
		MaxColWidth:    25,
		MinColWidth:    8,
		FloatPrecision: 4,
		ShowDTypes:     true,
		ShowShape:      true,
		ShowIndex:      true,
		TableStyle:     "rounded",
	}
}

var (
	globalDisplayConfig = DefaultDisplayConfig()
	displayConfigMu     sync.RWMutex
)

// SetDisplayConfig sets the global display configuration.
func SetDisplayConfig(cfg DisplayConfig) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig = cfg
}

// GetDisplayConfig returns the current global display configuration.
func GetDisplayConfig() DisplayConfig {
	displayConfigMu.RLock()
	defer displayConfigMu.RUnlock()
	return globalDisplayConfig
}

// SetMaxDisplayRows sets the maximum number of rows to display.
func SetMaxDisplayRows(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.MaxRows = n
}

// SetFloatPrecision sets the decimal precision for float display.
func SetFloatPrecision(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.FloatPrecision = n
}

// IsTableStyle reports whether name is a known table style
func IsTableStyle(name string) bool {
	_, ok := tableStyles[name]
	return ok
}

// SetTableStyle sets the table border style. Unknown styles are ignored.
func SetTableStyle(style string) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	if _, ok := tableStyles[style]; ok {
		globalDisplayConfig.TableStyle = style
	}
}

// formatDisplayValue formats a cell value. Missing values render as "null".
func formatDisplayValue(val interface{}, cfg DisplayConfig) string {
	var s string
	switch v := val.(type) {
	case nil:
		s = "null"
	case float64:
		s = fmt.Sprintf("%.*f", cfg.FloatPrecision, v)
	case float32:
		s = fmt.Sprintf("%.*f", cfg.FloatPrecision, v)
	case time.Time:
		s = v.Format("2006-01-02 15:04:05")
	default:
		s = formatScalar(v)
	}
	return truncate(s, cfg.MaxColWidth)
}

func truncate(s string, width int) string {
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

// rowWindow picks the rows to print; -1 marks the ellipsis row.
func rowWindow(n, maxRows int) []int {
	if n <= maxRows {
		return seqInts(n)
	}
	head := maxRows / 2
	tail := maxRows - head
	out := make([]int, 0, maxRows+1)
	for i := 0; i < head; i++ {
		out = append(out, i)
	}
	out = append(out, -1)
	for i := n - tail; i < n; i++ {
		out = append(out, i)
	}
	return out
}

// ============================================================================
// Table layout
// ============================================================================

// table is a grid of preformatted cells. The first nIndex columns hold row
// labels. A nil row is printed as an ellipsis row.
type table struct {
	header []string // nil hides the header row
	dtypes []string // nil hides the dtype row
	nIndex int
	rows   [][]string
}

func (t *table) widths(cfg DisplayConfig) []int {
	ncols := 0
	if t.header != nil {
		ncols = len(t.header)
	}
	for _, r := range t.rows {
		if len(r) > ncols {
			ncols = len(r)
		}
	}
	w := make([]int, ncols)
	grow := func(c int, s string) {
		if n := utf8.RuneCountInString(s); n > w[c] {
			w[c] = n
		}
	}
	for c := range w {
		if t.header != nil {
			grow(c, t.header[c])
		}
		if t.dtypes != nil {
			grow(c, t.dtypes[c])
		}
		for _, r := range t.rows {
			if r != nil {
				grow(c, r[c])
			}
		}
		floor := cfg.MinColWidth
		if c < t.nIndex {
			floor = 3
		}
		w[c] = max(w[c], floor)
		if cfg.MaxColWidth >= 4 {
			w[c] = min(w[c], cfg.MaxColWidth)
		}
	}
	return w
}

func (t *table) rule(sb *strings.Builder, widths []int, chars tableChars, left, mid, right string) {
	sb.WriteString(left)
	for i, w := range widths {
		if i > 0 {
			sb.WriteString(mid)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(right)
}

func (t *table) line(sb *strings.Builder, widths []int, chars tableChars, cells []string, leftAlign bool) {
	sb.WriteString(chars.vertical)
	for i, w := range widths {
		cell := "…"
		if cells != nil {
			cell = truncate(cells[i], w)
		}
		if leftAlign {
			fmt.Fprintf(sb, " %-*s ", w, cell)
		} else {
			fmt.Fprintf(sb, " %*s ", w, cell)
		}
		sb.WriteString(chars.vertical)
	}
	sb.WriteString("\n")
}

func (t *table) render(sb *strings.Builder, cfg DisplayConfig) {
	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}
	widths := t.widths(cfg)
	t.rule(sb, widths, chars, chars.topLeft, chars.topT, chars.topRight)
	sb.WriteString("\n")
	if t.header != nil {
		t.line(sb, widths, chars, t.header, true)
		if t.dtypes != nil {
			t.line(sb, widths, chars, t.dtypes, true)
		}
		t.rule(sb, widths, chars, chars.leftT, chars.cross, chars.rightT)
		sb.WriteString("\n")
	}
	for _, r := range t.rows {
		t.line(sb, widths, chars, r, false)
	}
	t.rule(sb, widths, chars, chars.bottomLeft, chars.bottomT, chars.bottomRight)
}

// indexCells formats the labels of row i, one cell per level
func indexCells(levels []*Series, i int) []string {
	out := make([]string, len(levels))
	for l, s := range levels {
		out[l] = formatLabel(s.Get(i))
	}
	return out
}

// ============================================================================
// DataFrame and Series rendering
// ============================================================================

// StringWithConfig formats a DataFrame using the provided configuration.
// A labelled index is printed as leading columns headed by the level names.
func StringWithConfig(df *DataFrame, cfg DisplayConfig) string {
	if df.height == 0 || len(df.columns) == 0 {
		return fmt.Sprintf("DataFrame(empty)\ncolumns: %v", df.ColumnNames())
	}

	var sb strings.Builder
	if cfg.ShowShape {
		fmt.Fprintf(&sb, "shape: (%d, %d)\n", df.height, len(df.columns))
	}
	if df.columnsName != "" {
		fmt.Fprintf(&sb, "columns: %s\n", df.columnsName)
	}

	var ix *Index
	var levels []*Series
	if cfg.ShowIndex && df.index != nil && !df.index.IsRange() {
		ix = df.index
		levels = ix.Levels()
	}

	colIndices := seqInts(len(df.columns))
	if cfg.MaxCols > 0 && len(df.columns) > cfg.MaxCols {
		colIndices = rowWindow(len(df.columns), cfg.MaxCols)
	}

	t := &table{}
	if ix != nil {
		t.nIndex = ix.NLevels()
		for l, name := range ix.Names() {
			t.header = append(t.header, name)
			t.dtypes = append(t.dtypes, ix.Level(l).DType().String())
		}
	}
	for _, c := range colIndices {
		if c < 0 {
			t.header = append(t.header, "…")
			t.dtypes = append(t.dtypes, "---")
			continue
		}
		t.header = append(t.header, df.columns[c].name)
		t.dtypes = append(t.dtypes, df.columns[c].dtype.String())
	}
	if !cfg.ShowDTypes {
		t.dtypes = nil
	}

	for _, r := range rowWindow(df.height, cfg.MaxRows) {
		if r < 0 {
			t.rows = append(t.rows, nil)
			continue
		}
		var row []string
		if ix != nil {
			row = indexCells(levels, r)
		}
		for _, c := range colIndices {
			if c < 0 {
				row = append(row, "…")
				continue
			}
			row = append(row, formatDisplayValue(df.columns[c].Get(r), cfg))
		}
		t.rows = append(t.rows, row)
	}
	t.render(&sb, cfg)
	return sb.String()
}

// SeriesStringWithConfig formats a Series using the provided configuration.
// Each row shows its labels (positions for a range index) and its value.
func SeriesStringWithConfig(s *Series, cfg DisplayConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Series: '%s' (%s)\n", s.name, s.dtype)
	fmt.Fprintf(&sb, "length: %d\n", s.Len())
	if s.Len() == 0 {
		sb.WriteString("[]")
		return sb.String()
	}
	levels := s.Index().Levels()
	t := &table{nIndex: len(levels)}
	for _, r := range rowWindow(s.Len(), cfg.MaxRows) {
		if r < 0 {
			t.rows = append(t.rows, nil)
			continue
		}
		row := indexCells(levels, r)
		row = append(row, formatDisplayValue(s.Get(r), cfg))
		t.rows = append(t.rows, row)
	}
	t.render(&sb, cfg)
	return sb.String()
}
