package skiff

import (
	"math"
	"sort"
)

// levelFactors is the factorization of one grouping key: a dense code per
// row and the distinct key values in code order.
type levelFactors struct {
	codes   []int // -1 marks an excluded row
	uniques *Series
}

func (f levelFactors) size() int {
	return f.uniques.Len()
}

// hashCodes assigns codes in order of first appearance.
func hashCodes[T comparable](data []T, isNull func(int) bool) (codes []int, firsts []int) {
	codes = make([]int, len(data))
	lookup := make(map[T]int, 64)
	for i, v := range data {
		if isNull(i) {
			codes[i] = -1
			continue
		}
		code, ok := lookup[v]
		if !ok {
			code = len(firsts)
			lookup[v] = code
			firsts = append(firsts, i)
		}
		codes[i] = code
	}
	return codes, firsts
}

// factorizeLevel computes dense codes for the values of s. With sortKeys the
// codes follow value order (category order for categoricals), otherwise
// first appearance. Missing values are excluded unless dropNA is false, in
// which case they form the last code. Unless observed, a categorical key
// yields every category, including those with no rows.
func factorizeLevel(s *Series, sortKeys, dropNA, observed bool) levelFactors {
	var codes, firsts []int

	if s.dtype == Categorical && !observed {
		raw := s.data.([]int32)
		codes = make([]int, len(raw))
		for i, c := range raw {
			codes[i] = int(c)
		}
		cats := make([]int32, len(s.categories))
		for i := range cats {
			cats[i] = int32(i)
		}
		uniques := &Series{name: s.name, dtype: Categorical, data: cats, categories: s.categories}
		return withMissingCode(s, levelFactors{codes: codes, uniques: uniques}, dropNA)
	}

	switch d := s.data.(type) {
	case []float64:
		codes, firsts = hashCodes(d, s.IsNull)
	case []float32:
		codes, firsts = hashCodes(d, s.IsNull)
	case []int64:
		codes, firsts = hashCodes(d, s.IsNull)
	case []int32:
		codes, firsts = hashCodes(d, s.IsNull)
	case []int16:
		codes, firsts = hashCodes(d, s.IsNull)
	case []int8:
		codes, firsts = hashCodes(d, s.IsNull)
	case []bool:
		codes, firsts = hashCodes(d, s.IsNull)
	case []string:
		codes, firsts = hashCodes(d, s.IsNull)
	default:
		codes = make([]int, s.Len())
		for i := range codes {
			codes[i] = -1
		}
	}

	if sortKeys && len(firsts) > 1 {
		order := seqInts(len(firsts))
		sort.SliceStable(order, func(a, b int) bool {
			return s.compare(firsts[order[a]], firsts[order[b]]) < 0
		})
		remap := make([]int, len(order))
		sorted := make([]int, len(order))
		for rank, old := range order {
			remap[old] = rank
			sorted[rank] = firsts[old]
		}
		for i, c := range codes {
			if c >= 0 {
				codes[i] = remap[c]
			}
		}
		firsts = sorted
	}

	uniques := s.take(firsts)
	if firsts == nil {
		uniques = s.take([]int{})
	}
	uniques.index = nil
	return withMissingCode(s, levelFactors{codes: codes, uniques: uniques}, dropNA)
}

// withMissingCode turns excluded rows into a trailing missing-value code
// when missing keys are kept.
func withMissingCode(s *Series, f levelFactors, dropNA bool) levelFactors {
	if dropNA {
		return f
	}
	missing := f.size()
	found := false
	for i, c := range f.codes {
		if c < 0 {
			f.codes[i] = missing
			found = true
		}
	}
	if found {
		pos := seqInts(missing + 1)
		pos[missing] = -1
		f.uniques = f.uniques.take(pos)
	}
	return f
}

// groupInfo maps every row to a dense group id.
type groupInfo struct {
	ids       []int // -1 for rows excluded by a missing key
	ngroups   int
	positions [][]int   // rows per group in original order
	keys      []*Series // one per key level, one value per group
}

// buildGroups factorizes the key levels and combines them into group ids.
// Composite codes are built with a mixed radix; whenever the radix would
// overflow int64 the partial codes are compressed to dense ids first.
func buildGroups(levels []*Series, sortKeys, dropNA, observed bool) *groupInfo {
	n := 0
	if len(levels) > 0 {
		n = levels[0].Len()
	}
	factors := make([]levelFactors, len(levels))
	cartesian := false
	for l, s := range levels {
		factors[l] = factorizeLevel(s, sortKeys, dropNA, observed)
		if s.dtype == Categorical && !observed {
			cartesian = true
		}
	}

	comp := getInt64Slice(n)
	defer comp.Release()
	ids := comp.Data
	for i := range ids {
		ids[i] = 0
	}

	radix := int64(1)
	compressed := false
	for _, f := range factors {
		k := int64(f.size())
		if k == 0 {
			k = 1
		}
		if radix > math.MaxInt64/k {
			radix = densify(ids, sortKeys)
			compressed = true
			cartesian = false
		}
		for i, c := range f.codes {
			if ids[i] < 0 {
				continue
			}
			if c < 0 {
				ids[i] = -1
				continue
			}
			ids[i] = ids[i]*k + int64(c)
		}
		radix *= k
	}

	info := &groupInfo{ids: make([]int, n)}
	if cartesian {
		info.ngroups = int(radix)
		for i, id := range ids {
			info.ids[i] = int(id)
		}
		info.keys = decodeKeys(factors, info.ngroups)
	} else {
		info.ngroups = int(densify(ids, sortKeys))
		first := make([]int, info.ngroups)
		for g := range first {
			first[g] = -1
		}
		for i, id := range ids {
			info.ids[i] = int(id)
			if id >= 0 && first[id] < 0 {
				first[id] = i
			}
		}
		info.keys = make([]*Series, len(factors))
		for l, f := range factors {
			codes := make([]int, info.ngroups)
			for g, r := range first {
				codes[g] = f.codes[r]
			}
			info.keys[l] = f.uniques.take(codes)
		}
	}
	info.positions = groupPositions(info.ids, info.ngroups)

	logDebug().
		Int("rows", n).
		Int("levels", len(levels)).
		Int("groups", info.ngroups).
		Bool("compressed", compressed).
		Bool("cartesian", cartesian).
		Msg("factorized group keys")
	return info
}

// densify replaces non-negative codes with dense ids, ordered by code value
// when sortKeys is set and by first appearance otherwise. It returns the
// number of distinct ids.
func densify(codes []int64, sortKeys bool) int64 {
	lookup := make(map[int64]int64, 64)
	if sortKeys {
		distinct := make([]int64, 0, 64)
		for _, c := range codes {
			if c < 0 {
				continue
			}
			if _, ok := lookup[c]; !ok {
				lookup[c] = 0
				distinct = append(distinct, c)
			}
		}
		sort.Slice(distinct, func(a, b int) bool { return distinct[a] < distinct[b] })
		for rank, c := range distinct {
			lookup[c] = int64(rank)
		}
	} else {
		for _, c := range codes {
			if c < 0 {
				continue
			}
			if _, ok := lookup[c]; !ok {
				lookup[c] = int64(len(lookup))
			}
		}
	}
	for i, c := range codes {
		if c >= 0 {
			codes[i] = lookup[c]
		}
	}
	return int64(len(lookup))
}

// decodeKeys expands mixed-radix group ids back to per-level key values.
func decodeKeys(factors []levelFactors, ngroups int) []*Series {
	keys := make([]*Series, len(factors))
	for l := len(factors) - 1; l >= 0; l-- {
		stride := 1
		for _, f := range factors[l+1:] {
			stride *= max(f.size(), 1)
		}
		k := max(factors[l].size(), 1)
		codes := make([]int, ngroups)
		for g := range codes {
			codes[g] = (g / stride) % k
			if codes[g] >= factors[l].size() {
				codes[g] = -1
			}
		}
		keys[l] = factors[l].uniques.take(codes)
	}
	return keys
}

func groupPositions(ids []int, ngroups int) [][]int {
	counts := make([]int, ngroups)
	for _, id := range ids {
		if id >= 0 {
			counts[id]++
		}
	}
	backing := make([]int, 0, len(ids))
	positions := make([][]int, ngroups)
	for g, c := range counts {
		start := len(backing)
		backing = backing[:start+c]
		positions[g] = backing[start : start : start+c]
	}
	for i, id := range ids {
		if id >= 0 {
			positions[id] = append(positions[id], i)
		}
	}
	return positions
}
