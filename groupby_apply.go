package skiff

import (
	"fmt"
)

// ============================================================================
// Apply
// ============================================================================

// ApplyFrame calls fn with every group's rows (all columns, original labels)
// and combines the returned frames. nil results are skipped; if every result
// is nil the combined frame is empty.
//
// When each result carries exactly its group's labels the call acts as a
// transform: results are put back in original row order and no key levels
// are added. Otherwise results are stacked in group order and, with
// GroupKeys, the group keys are prepended as index levels.
func (gb *GroupBy) ApplyFrame(fn func(key Key, group *DataFrame) (*DataFrame, error)) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	f := gb.frame()
	var results []*DataFrame
	var owners []int
	transformLike := true
	for gi, rows := range gb.groups() {
		if len(rows) == 0 {
			continue
		}
		sub := f.Take(rows)
		res, err := fn(gb.key(gi), sub)
		if err != nil {
			return nil, fmt.Errorf("apply group %s: %w", gb.key(gi), err)
		}
		if res == nil {
			continue
		}
		if !res.Index().Equal(sub.Index()) {
			transformLike = false
		}
		results = append(results, res)
		owners = append(owners, gi)
	}
	if len(results) == 0 {
		return NewEmptyDataFrame(), nil
	}

	combined, err := Concat(results...)
	if err != nil {
		return nil, err
	}

	if transformLike {
		var srcRows []int
		for _, gi := range owners {
			srcRows = append(srcRows, gb.groups()[gi]...)
		}
		perm := seqInts(len(srcRows))
		sortStable(perm, func(a, b int) bool { return srcRows[a] < srcRows[b] })
		sorted := make([]int, len(perm))
		for i, p := range perm {
			sorted[i] = srcRows[p]
		}
		var idx *Index
		if f.index != nil || len(sorted) != gb.n {
			idx = f.Index().Take(sorted)
		}
		return combined.takeRows(perm, idx), nil
	}

	if !gb.opts.GroupKeys {
		return combined, nil
	}
	var reps []int
	for i, res := range results {
		for k := 0; k < res.Height(); k++ {
			reps = append(reps, owners[i])
		}
	}
	levels := make([]*Series, 0, len(gb.info.keys)+combined.Index().NLevels())
	for l, k := range gb.info.keys {
		levels = append(levels, k.take(reps).Rename(gb.keyNames[l]))
	}
	levels = append(levels, combined.Index().Levels()...)
	idx, err := NewIndex(levels...)
	if err != nil {
		return nil, err
	}
	combined.index = idx
	return combined, nil
}

// ApplySeries calls fn with every group's rows and turns each returned
// Series into one result row. Result columns are the union of the returned
// labels in order of first appearance; nil results are skipped. The column
// axis is named after the returned series when they all share a name.
func (gb *GroupBy) ApplySeries(fn func(key Key, group *DataFrame) (*Series, error)) (*DataFrame, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	f := gb.frame()
	var labels []string
	seen := make(map[string]int)
	var rows []map[string]interface{}
	var kept []int
	axisName, axisSet := "", false
	for gi, pos := range gb.groups() {
		if len(pos) == 0 {
			continue
		}
		res, err := fn(gb.key(gi), f.Take(pos))
		if err != nil {
			return nil, fmt.Errorf("apply group %s: %w", gb.key(gi), err)
		}
		if res == nil {
			continue
		}
		if !axisSet {
			axisName, axisSet = res.name, true
		} else if axisName != res.name {
			axisName = ""
		}
		row := make(map[string]interface{}, res.Len())
		idx := res.Index()
		for i := 0; i < res.Len(); i++ {
			label := formatLabel(idx.Label(i))
			if _, ok := seen[label]; !ok {
				seen[label] = len(labels)
				labels = append(labels, label)
			}
			row[label] = res.Get(i)
		}
		rows = append(rows, row)
		kept = append(kept, gi)
	}
	if len(rows) == 0 {
		return NewEmptyDataFrame(), nil
	}
	cols := make([]*Series, len(labels))
	for c, label := range labels {
		vals := make([]interface{}, len(rows))
		for r, row := range rows {
			vals[r] = row[label]
		}
		cols[c] = NewSeriesFromValues(label, vals)
	}
	out := gb.resultRows(kept, cols)
	out.columnsName = axisName
	return out, nil
}

// ApplyScalar reduces every group's rows to one value with fn. The result is
// indexed by the group keys; nil results are missing.
func (gb *GroupBy) ApplyScalar(fn func(key Key, group *DataFrame) (interface{}, error)) (*Series, error) {
	if gb.err != nil {
		return nil, gb.err
	}
	f := gb.frame()
	vals := make([]interface{}, gb.info.ngroups)
	for gi, pos := range gb.groups() {
		v, err := fn(gb.key(gi), f.Take(pos))
		if err != nil {
			return nil, fmt.Errorf("apply group %s: %w", gb.key(gi), err)
		}
		if !isScalar(v) {
			return nil, fmtNotReduced("", v)
		}
		vals[gi] = v
	}
	out := NewSeriesFromValues("", vals)
	out.index = gb.keyIndex()
	return out, nil
}
