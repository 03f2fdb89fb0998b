package dice

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arange returns an array of the given shape holding 0, 1, 2... in row-major order
func arange(shape ...int) *NDArray[int] {
	a := New[int](shape...)
	for i := range a.data {
		a.data[i] = i
	}
	return a
}

func shapes[A Array[A]](blocks []A) [][]int {
	out := make([][]int, len(blocks))
	for i, b := range blocks {
		out[i] = b.Shape()
	}
	return out
}

func TestDiceQuadrants(t *testing.T) {
	blocks, err := Dice(arange(4, 4), Scalar(2))
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	assert.Equal(t, [][]int{{2, 2}, {2, 2}, {2, 2}, {2, 2}}, shapes(blocks))
	assert.Equal(t, []int{0, 1, 4, 5}, blocks[0].Values())
	assert.Equal(t, []int{2, 3, 6, 7}, blocks[1].Values())
	assert.Equal(t, []int{8, 9, 12, 13}, blocks[2].Values())
	assert.Equal(t, []int{10, 11, 14, 15}, blocks[3].Values())
}

func TestDiceShortTrailingBlock(t *testing.T) {
	blocks, err := Dice(arange(5), Scalar(2))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{2}, {2}, {1}}, shapes(blocks))
	assert.Equal(t, []int{4}, blocks[2].Values())
}

func TestDicePerAxisLength(t *testing.T) {
	blocks, err := Dice(arange(3, 6), PerAxis(1, 3), Dims(PerAxis(0, 1)))
	require.NoError(t, err)
	require.Len(t, blocks, 6)
	for _, b := range blocks {
		assert.Equal(t, []int{1, 3}, b.Shape())
	}
	assert.Equal(t, []int{3, 4, 5}, blocks[1].Values())
	assert.Equal(t, []int{6, 7, 8}, blocks[2].Values())
}

func TestDiceSubsetOfAxes(t *testing.T) {
	blocks, err := Dice(arange(4, 4), Scalar(2), Dims(Scalar(1)))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{4, 2}, {4, 2}}, shapes(blocks))
	assert.Equal(t, []int{0, 1, 4, 5, 8, 9, 12, 13}, blocks[0].Values())
}

func TestDiceCardinalityMismatch(t *testing.T) {
	_, err := Dice(arange(4, 4), PerAxis(2, 2, 2), Dims(PerAxis(0, 1)))
	assert.ErrorIs(t, err, ErrCardinalityMismatch)
}

func TestPlanErrors(t *testing.T) {
	cases := []struct {
		name   string
		shape  []int
		length IntSeq
		opts   []Option
		err    error
	}{
		{"negative dim", []int{4, 4}, Scalar(2), []Option{Dims(Scalar(-1))}, ErrDimensionOutOfRange},
		{"dim past rank", []int{4, 4}, Scalar(2), []Option{Dims(PerAxis(0, 2))}, ErrDimensionOutOfRange},
		{"duplicate dim", []int{4, 4}, Scalar(2), []Option{Dims(PerAxis(1, 1))}, ErrDuplicateAxis},
		{"empty dims", []int{4, 4}, Scalar(2), []Option{Dims(PerAxis())}, ErrInvalidInput},
		{"zero length", []int{4, 4}, Scalar(0), nil, ErrInvalidLength},
		{"negative length", []int{4, 4}, PerAxis(2, -1), nil, ErrInvalidLength},
		{"no length", []int{4, 4}, PerAxis(), nil, ErrInvalidInput},
		{"negative extent", []int{4, -1}, Scalar(2), nil, ErrInvalidInput},
		{"too few lengths", []int{4, 4, 4}, PerAxis(2, 2), nil, ErrCardinalityMismatch},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Plan(c.shape, c.length, c.opts...)
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestPartitionCoversEveryCellOnce(t *testing.T) {
	cases := []struct {
		shape  []int
		length IntSeq
		opts   []Option
	}{
		{[]int{7}, Scalar(3), nil},
		{[]int{4, 5}, Scalar(2), nil},
		{[]int{5, 3, 4}, PerAxis(2, 2, 3), nil},
		{[]int{5, 3, 4}, Scalar(4), []Option{Dims(PerAxis(2, 0))}},
		{[]int{6, 1}, Scalar(10), nil},
	}
	for _, c := range cases {
		t.Run(fmt.Sprint(c.shape, c.length), func(t *testing.T) {
			slices, err := Slices(c.shape, c.length, c.opts...)
			require.NoError(t, err)

			hits := New[int](c.shape...)
			for _, s := range slices {
				v, err := hits.View(s.Ranges...)
				require.NoError(t, err)
				v.each(func(off int) { v.data[off]++ })
			}
			for _, n := range hits.Values() {
				require.Equal(t, 1, n)
			}
		})
	}
}

func TestBlockCountIsCeilingDivision(t *testing.T) {
	for size := 1; size <= 20; size++ {
		for l := 1; l <= 7; l++ {
			g, err := Plan([]int{size}, Scalar(l))
			require.NoError(t, err)
			count := (size + l - 1) / l
			require.Equal(t, count, g.Counts[0])
			require.Len(t, g.Boundaries[0], count)

			last := g.Boundaries[0][count-1]
			require.Equal(t, size-l*(count-1), last.Len())
			require.Greater(t, last.Len(), 0)
			require.LessOrEqual(t, last.Len(), l)
			require.Equal(t, size, last.Stop)
		}
	}

	g, err := Plan([]int{2, math.MaxInt}, PerAxis(math.MaxInt, math.MaxInt-1))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, g.Counts)
	assert.Equal(t, []Range{{0, 2}}, g.Boundaries[0])
	assert.Equal(t, []Range{{0, math.MaxInt - 1}, {math.MaxInt - 1, math.MaxInt}}, g.Boundaries[1])
}

func TestScalarLengthBroadcasts(t *testing.T) {
	g, err := Plan([]int{4, 5, 6}, Scalar(2), Dims(PerAxis(0, 2)))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 2}, g.Lengths)
	assert.Equal(t, []int{2, 1, 3}, g.Counts)
	assert.Equal(t, 6, g.Len())
}

func TestLengthsPairWithDimsInOrder(t *testing.T) {
	g, err := Plan([]int{4, 4}, PerAxis(1, 2), Dims(PerAxis(1, 0)))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, g.Lengths)
}

func TestDimsOrderSetsEnumerationOrder(t *testing.T) {
	coords := func(opts ...Option) [][]int {
		ss, err := Slices([]int{4, 4}, Scalar(2), opts...)
		require.NoError(t, err)
		out := make([][]int, len(ss))
		for i, s := range ss {
			out[i] = s.Coords
		}
		return out
	}

	rowMajor := coords()
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, rowMajor)
	assert.Equal(t, rowMajor, coords(Dims(PerAxis(0, 1))))
	assert.Equal(t, [][]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, coords(Dims(PerAxis(1, 0))))
}

func TestSlicesReproduceBlocks(t *testing.T) {
	a := arange(5, 7)
	opts := []Option{Dims(PerAxis(1, 0))}
	blocks, err := Dice(a, PerAxis(3, 2), opts...)
	require.NoError(t, err)
	slices, err := Slices(a.Shape(), PerAxis(3, 2), opts...)
	require.NoError(t, err)
	require.Len(t, slices, len(blocks))

	for i, s := range slices {
		v, err := a.View(s.Ranges...)
		require.NoError(t, err)
		assert.Equal(t, blocks[i].Shape(), v.Shape())
		assert.Equal(t, blocks[i].Values(), v.Values())
	}
}

func TestCloneIndependence(t *testing.T) {
	a := arange(4, 4)
	blocks, err := Dice(a, Scalar(2))
	require.NoError(t, err)
	blocks[0].Set(100, 1, 1)
	assert.Equal(t, 5, a.At(1, 1))
	assert.Equal(t, 100, blocks[0].At(1, 1))

	views, err := Dice(a, Scalar(2), NoClone())
	require.NoError(t, err)
	views[3].Set(-1, 0, 0)
	assert.Equal(t, -1, a.At(2, 2))
	assert.Equal(t, []int{0, 1, 4, 5}, views[0].Values())
}

func TestDiceEmptyAxis(t *testing.T) {
	g, err := Plan([]int{0, 3}, Scalar(2))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())

	blocks, err := Dice(New[int](3, 0), Scalar(2), Dims(Scalar(0)))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestDiceRankZero(t *testing.T) {
	blocks, err := Dice(ScalarOf(7), Scalar(3))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 7, blocks[0].At())
}

func TestGridAllStopsEarly(t *testing.T) {
	g, err := Plan([]int{10, 10}, Scalar(1))
	require.NoError(t, err)
	seen := 0
	for i := range g.All() {
		if i == 4 {
			break
		}
		seen++
	}
	assert.Equal(t, 4, seen)
}

func TestSliceString(t *testing.T) {
	ss, err := Slices([]int{4, 4}, Scalar(2))
	require.NoError(t, err)
	assert.Equal(t, "[0:2, 2:4]", ss[1].String())
	assert.Equal(t, []int{2, 2}, ss[1].Shape())
	assert.Equal(t, "1.0", ChunkKey(ss[2].Coords, "."))
	assert.Equal(t, "0", ChunkKey(nil, "."))
}
