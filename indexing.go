package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a half-open interval [Start, Stop) of indices along one dimension
type Range struct {
	Start int
	Stop  int
}

// Len is the number of indices in r
func (r Range) Len() int {
	if r.Stop < r.Start {
		return 0
	}
	return r.Stop - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d", r.Start, r.Stop)
}

// A Slice describes one block of a diced array. It holds no data and can be
// applied to any array with the shape it was planned for.
type Slice struct {
	// Position of the block in the grid, one index per dimension.
	Coords []int
	// Region of the source array covered by the block, one range per dimension.
	Ranges []Range
}

// Shape of the block the slice selects
func (s Slice) Shape() []int {
	shape := make([]int, len(s.Ranges))
	for i, r := range s.Ranges {
		shape[i] = r.Len()
	}
	return shape
}

func (s Slice) String() string {
	strs := make([]string, len(s.Ranges))
	for i, r := range s.Ranges {
		strs[i] = r.String()
	}
	return "[" + strings.Join(strs, ", ") + "]"
}

// origin is the slice of the same shape as s anchored at index zero
func (s Slice) origin() []Range {
	rs := make([]Range, len(s.Ranges))
	for i, r := range s.Ranges {
		rs[i] = Range{Stop: r.Len()}
	}
	return rs
}

// ChunkKey builds the store key of the chunk at coords, e.g. "1.4" for
// coords [1 4] and separator ".". Rank-0 arrays have a single chunk "0".
func ChunkKey(coords []int, sep string) string {
	if len(coords) == 0 {
		return "0"
	}
	strs := make([]string, len(coords))
	for i, c := range coords {
		strs[i] = strconv.Itoa(c)
	}
	return strings.Join(strs, sep)
}
