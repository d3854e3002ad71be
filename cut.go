package skiff

import (
	"fmt"
	"sort"
	"strconv"
)

// Cut bins numeric values into right-closed intervals between consecutive
// edges. The result is Categorical with one category per interval, labelled
// "(a, b]", in edge order. Values outside the edges and missing values are
// missing. Empty bins stay in the categories, so grouping by the result with
// Observed=false reports them.
func Cut(s *Series, edges []float64) (*Series, error) {
	if !s.dtype.IsNumeric() {
		return nil, &DTypeError{Column: s.name, DType: s.dtype, Op: "cut"}
	}
	if len(edges) < 2 {
		return nil, fmt.Errorf("%w: cut needs at least two edges, got %d", ErrInvalidArgument, len(edges))
	}
	if !sort.Float64sAreSorted(edges) {
		return nil, fmt.Errorf("%w: cut edges must increase", ErrInvalidArgument)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			return nil, fmt.Errorf("%w: duplicate cut edge %v", ErrInvalidArgument, edges[i])
		}
	}

	cats := make([]string, len(edges)-1)
	for i := range cats {
		cats[i] = "(" + formatEdge(edges[i]) + ", " + formatEdge(edges[i+1]) + "]"
	}

	vals := s.float64s()
	codes := make([]int32, len(vals))
	for i, v := range vals {
		codes[i] = -1
		if v != v || s.IsNull(i) || v <= edges[0] || v > edges[len(edges)-1] {
			continue
		}
		// first edge >= v closes the interval
		j := sort.SearchFloat64s(edges, v)
		codes[i] = int32(j - 1)
	}
	return &Series{
		name:       s.name,
		dtype:      Categorical,
		data:       codes,
		categories: cats,
		index:      s.index,
	}, nil
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
