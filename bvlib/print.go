package bvlib

import (
	"fmt"
	"io"
	"os"
)

// FprintBV writes v's diagnostic representation to w:
// {w: W, ow: OW, n: N, [b0, b1, ...]}.
func FprintBV(w io.Writer, v Bitvector) {
	fmt.Fprintf(w, "{w: %d, ow: %d, n: %d, [", v.Width, v.OccupiedWidth, v.Bits)

	n := v.Bits
	for i := Width(0); i != v.OccupiedWidth; i++ {
		bit := '0'
		if n&(1<<i) != 0 {
			bit = '1'
		}
		if i+1 == v.OccupiedWidth {
			fmt.Fprintf(w, "%c", bit)
		} else {
			fmt.Fprintf(w, "%c, ", bit)
		}
	}
	for i := Width(0); i != v.Width-v.OccupiedWidth; i++ {
		fmt.Fprint(w, ", 0")
	}
	fmt.Fprint(w, "]}")
}

// PrintBV writes v's diagnostic representation to stdout.
func PrintBV(v Bitvector) { FprintBV(os.Stdout, v) }

// FprintArray writes arr's diagnostic representation to w:
// (arr.len: L) [ ... ].
func FprintArray(w io.Writer, arr *Array) {
	assert(arr != nil, "bva_fprint: nil array")
	fmt.Fprintf(w, "(arr.len: %d) [", arr.Len)
	for i := Word(0); i != arr.Len; i++ {
		FprintBV(w, arr.Values[i])
		if i+1 != arr.Len {
			fmt.Fprint(w, ", ")
		}
	}
	fmt.Fprint(w, "]")
}

// PrintArray writes arr's diagnostic representation to stdout.
func PrintArray(arr *Array) { FprintArray(os.Stdout, arr) }
