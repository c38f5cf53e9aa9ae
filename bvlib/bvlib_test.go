package bvlib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBVMkOccupiedWidth(t *testing.T) {
	v := BVMk(8, 12)
	require.Equal(t, Bitvector{Width: 8, OccupiedWidth: 4, Bits: 12}, v)

	v = BVMk(8, 255)
	require.Equal(t, Bitvector{Width: 8, OccupiedWidth: 8, Bits: 255}, v)
}

func TestBVAddOverflow(t *testing.T) {
	v := BVAdd(BVMk(8, 255), BVMk(8, 1))
	require.Equal(t, Bitvector{Width: 8, OccupiedWidth: 8, Bits: 0}, v)

	v = BVAdd(BVMk(8, 255), BVMk(8, 2))
	require.Equal(t, Bitvector{Width: 8, OccupiedWidth: 8, Bits: 1}, v)
}

func TestBVSlt(t *testing.T) {
	require.Equal(t, 1, BVSlt(BVMk(8, 253), BVMk(8, 0)))
	require.Equal(t, 0, BVSlt(BVMk(8, 0), BVMk(8, 253)))
	require.Equal(t, 1, BVSlt(BVMk(8, 253), BVMk(8, 255)))
}

func TestBVConcatThenExtract(t *testing.T) {
	c := BVConcat(BVMk(2, 3), BVMk(2, 2))
	require.Equal(t, Bitvector{Width: 4, OccupiedWidth: 4, Bits: 11}, c)

	lo := BVExtract(c, 0, 1)
	require.Equal(t, Bitvector{Width: 2, OccupiedWidth: 2, Bits: 3}, lo)

	hi := BVExtract(c, 2, 3)
	require.Equal(t, Bitvector{Width: 2, OccupiedWidth: 2, Bits: 2}, hi)
}

func TestBVSext(t *testing.T) {
	v := BVSext(BVMk(8, 255), 16)
	require.Equal(t, Bitvector{Width: 16, OccupiedWidth: 16, Bits: 65535}, v)

	v = BVSext(BVMk(8, 127), 16)
	require.Equal(t, Bitvector{Width: 16, OccupiedWidth: 7, Bits: 127}, v)
}

func TestBVZext(t *testing.T) {
	v := BVZext(BVMk(8, 12), 16)
	require.Equal(t, Bitvector{Width: 16, OccupiedWidth: 4, Bits: 12}, v)
}

func TestConcatExtractRoundTrip(t *testing.T) {
	for _, tc := range []struct{ aw, bw Width; av, bv Word }{
		{3, 5, 5, 17},
		{1, 1, 1, 0},
		{8, 8, 200, 3},
	} {
		a := BVMk(tc.aw, tc.av)
		b := BVMk(tc.bw, tc.bv)
		c := BVConcat(a, b)
		require.Equal(t, a.Width+b.Width, c.Width)

		gotA := BVExtract(c, 0, a.Width-1)
		require.Equal(t, a.Bits, gotA.Bits)
		require.Equal(t, a.Width, gotA.Width)

		gotB := BVExtract(c, a.Width, a.Width+b.Width-1)
		require.Equal(t, b.Bits, gotB.Bits)
		require.Equal(t, b.Width, gotB.Width)
	}
}

func TestSextThenTruncateRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		w, ext Width
		n      Word
	}{
		{8, 16, 255},
		{8, 16, 127},
		{4, 32, 9},
	} {
		n := BVMk(tc.w, tc.n)
		sext := BVSext(n, tc.ext)
		back := BVExtract(sext, 0, tc.w-1)
		require.Equal(t, n.Bits, back.Bits)
	}
}

func TestZextThenTruncateRoundTrip(t *testing.T) {
	n := BVMk(6, 41)
	zext := BVZext(n, 32)
	back := BVExtract(zext, 0, 5)
	require.Equal(t, n.Bits, back.Bits)
}

func TestArithmeticModularInvariant(t *testing.T) {
	for _, av := range []Word{0, 1, 17, 254, 255} {
		for _, bv := range []Word{0, 1, 2, 128, 255} {
			a := BVMk(8, av)
			b := BVMk(8, bv)

			add := BVAdd(a, b)
			require.Equal(t, (av+bv)%256, add.Bits)
			require.LessOrEqual(t, add.OccupiedWidth, add.Width)

			mul := BVMul(a, b)
			require.Equal(t, (av*bv)%256, mul.Bits)
			require.LessOrEqual(t, mul.OccupiedWidth, mul.Width)
		}
	}
}

func TestComparePredicates(t *testing.T) {
	for _, av := range []Word{0, 1, 100, 127, 128, 200, 255} {
		for _, bv := range []Word{0, 1, 100, 127, 128, 200, 255} {
			a := BVMk(8, av)
			b := BVMk(8, bv)

			wantEq := 0
			if av == bv {
				wantEq = 1
			}
			require.Equal(t, wantEq, BVEq(a, b))

			wantUlt := 0
			if av < bv {
				wantUlt = 1
			}
			require.Equal(t, wantUlt, BVUlt(a, b))

			sa := int8(av)
			sb := int8(bv)
			wantSlt := 0
			if sa < sb {
				wantSlt = 1
			}
			require.Equal(t, wantSlt, BVSlt(a, b))
		}
	}
}

func TestBvaSelectSaturates(t *testing.T) {
	arena := NewArena()
	defer arena.Teardown()

	arr := arena.BvaMkInit(8, 3, []Word{10, 20, 30})
	require.Equal(t, Word(10), BvaSelect(arr, BVMk(32, 0)).Bits)
	require.Equal(t, Word(20), BvaSelect(arr, BVMk(32, 1)).Bits)
	require.Equal(t, Word(30), BvaSelect(arr, BVMk(32, 2)).Bits)

	// Out of range: saturates to the sentinel zero slot at index len.
	require.Equal(t, Word(0), BvaSelect(arr, BVMk(32, 3)).Bits)
	require.Equal(t, Word(0), BvaSelect(arr, BVMk(32, 1000)).Bits)
}

func TestBvaMkZeroed(t *testing.T) {
	arena := NewArena()
	defer arena.Teardown()

	arr := arena.BvaMk(8, 4)
	require.Equal(t, Word(4), arr.Len)
	for i := Word(0); i <= arr.Len; i++ {
		require.Equal(t, Word(0), arr.Values[i].Bits)
		require.Equal(t, Width(8), arr.Values[i].Width)
	}
}

func TestArenaResetRewindsBumpPointer(t *testing.T) {
	arena := NewArena()
	defer arena.Teardown()

	arena.BvaMk(8, 10)
	used := arena.next
	require.Greater(t, used, 0)

	arena.Reset()
	require.Equal(t, 0, arena.next)

	arena.BvaMk(8, 10)
	require.Equal(t, used, arena.next)
}

func TestArenaExhaustionPanics(t *testing.T) {
	arena := &Arena{mem: make([]Word, 4), next: 0}
	require.Panics(t, func() {
		arena.BvaMk(8, 1000)
	})
}
