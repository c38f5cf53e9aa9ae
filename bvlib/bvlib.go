// Package bvlib is the concrete bit-vector and bit-vector-array runtime.
//
// Every value here mirrors the two-word C-ABI layout the JIT-emitted code
// relies on: a Bitvector is {Width, OccupiedWidth uint32; Bits uint64}, laid
// out so that a JIT backend unpacking it into scalar call arguments and this
// package's own arithmetic agree bit-for-bit. Only the single in-scope
// fragment is supported: widths in [1, 64], results that fit in one machine
// word.
package bvlib

import "fmt"

// Word is a 64-bit unsigned machine word.
type Word = uint64

// Width is a bit-vector width in bits.
type Width = uint32

// WordBits is the number of bits in a Word.
const WordBits Width = 64

// Bitvector is a fixed-width unsigned value together with its declared width
// and an advisory upper bound on its highest set bit.
type Bitvector struct {
	Width         Width
	OccupiedWidth Width
	Bits          Word
}

func min(a, b Width) Width {
	if a < b {
		return a
	}
	return b
}

func max(a, b Width) Width {
	if a > b {
		return a
	}
	return b
}

// maskOverflow zeroes every bit of n at position >= width.
func maskOverflow(n Word, width Width) Word {
	if width >= WordBits {
		return n
	}
	shift := WordBits - width
	return (n << shift) >> shift
}

// maskLowerBits zeroes every bit of n at position < width, leaving the high
// bits (here, all-ones in practice) untouched.
func maskLowerBits(n Word, width Width) Word {
	if width >= WordBits {
		return 0
	}
	return (n >> width) << width
}

// numBitsNeeded returns the index of the highest set bit of n plus one, or 0
// if n is zero.
func numBitsNeeded(n Word) Width {
	var res Width
	for i := Width(0); i != WordBits; i++ {
		if n != 0 {
			res++
		}
		n >>= 1
	}
	return res
}

// BVZero returns the canonical 1-bit false value.
func BVZero() Bitvector { return Bitvector{Width: 1, OccupiedWidth: 0, Bits: 0} }

// BVOne returns the canonical 1-bit true value.
func BVOne() Bitvector { return Bitvector{Width: 1, OccupiedWidth: 1, Bits: 1} }

// BVBool lowers a Go boolean-ish int (0 is false, anything else is true) to a
// 1-bit bitvector.
func BVBool(b int) Bitvector {
	if b == 0 {
		return BVZero()
	}
	return BVOne()
}

// BVMk constructs a bit-vector of the given width from a literal value,
// masking it to fit. Precondition: width >= 1 and the masked result fits in
// one machine word (always true here, since width <= 64).
func BVMk(width Width, n Word) Bitvector {
	bits := maskOverflow(n, width)
	return Bitvector{Width: width, OccupiedWidth: numBitsNeeded(bits), Bits: bits}
}

// BVAdd computes (a + b) mod 2^W. Precondition: a.Width == b.Width.
func BVAdd(a, b Bitvector) Bitvector {
	assert(a.Width == b.Width, "bv_add: width mismatch")
	occ := min(max(a.OccupiedWidth, b.OccupiedWidth)+1, a.Width)
	bits := maskOverflow(a.Bits+b.Bits, a.Width)
	return Bitvector{Width: a.Width, OccupiedWidth: occ, Bits: bits}
}

// BVMul computes (a * b) mod 2^W. Precondition: a.Width == b.Width.
func BVMul(a, b Bitvector) Bitvector {
	assert(a.Width == b.Width, "bv_mul: width mismatch")
	occ := min(a.OccupiedWidth+b.OccupiedWidth, a.Width)
	bits := maskOverflow(a.Bits*b.Bits, a.Width)
	return Bitvector{Width: a.Width, OccupiedWidth: occ, Bits: bits}
}

// BVUlt reports whether a < b as unsigned integers. Precondition:
// a.Width == b.Width.
func BVUlt(a, b Bitvector) int {
	assert(a.Width == b.Width, "bv_ult: width mismatch")
	if a.Bits < b.Bits {
		return 1
	}
	return 0
}

// BVSlt reports whether a < b under two's-complement signed interpretation.
// Precondition: a.Width == b.Width.
func BVSlt(a, b Bitvector) int {
	assert(a.Width == b.Width, "bv_slt: width mismatch")
	signA := a.Bits >> (a.Width - 1)
	signB := b.Bits >> (b.Width - 1)
	cmp := a.Bits < b.Bits
	if signA != signB {
		cmp = !cmp
	}
	if cmp {
		return 1
	}
	return 0
}

// BVEq reports whether a and b carry the same value. Precondition:
// a.Width == b.Width.
func BVEq(a, b Bitvector) int {
	assert(a.Width == b.Width, "bv_eq: width mismatch")
	if a.Bits == b.Bits {
		return 1
	}
	return 0
}

// BVAnd computes the bitwise AND of a and b. Precondition: a.Width == b.Width.
func BVAnd(a, b Bitvector) Bitvector {
	assert(a.Width == b.Width, "bv_and: width mismatch")
	occ := min(a.OccupiedWidth, b.OccupiedWidth)
	return Bitvector{Width: a.Width, OccupiedWidth: occ, Bits: a.Bits & b.Bits}
}

// BVOr computes the bitwise OR of a and b. Precondition: a.Width == b.Width.
func BVOr(a, b Bitvector) Bitvector {
	assert(a.Width == b.Width, "bv_or: width mismatch")
	occ := max(a.OccupiedWidth, b.OccupiedWidth)
	return Bitvector{Width: a.Width, OccupiedWidth: occ, Bits: a.Bits | b.Bits}
}

// BVConcat produces a value of width a.Width+b.Width whose low bits are a and
// whose high bits are b.
func BVConcat(a, b Bitvector) Bitvector {
	occ := a.Width
	if b.Bits != 0 {
		occ = a.Width + b.OccupiedWidth
	} else {
		occ = a.OccupiedWidth
	}
	bits := (b.Bits << a.Width) | a.Bits
	return Bitvector{Width: a.Width + b.Width, OccupiedWidth: occ, Bits: bits}
}

// BVExtract returns bits [from, to] of a (inclusive), right-aligned to width
// to-from+1.
func BVExtract(a Bitvector, from, to Width) Bitvector {
	assert(from <= to, "bv_extract: from > to")
	newWidth := to - from + 1
	occ := min(newWidth, max(a.OccupiedWidth, from)-from)

	lsh := WordBits - to - 1
	rsh := lsh + from
	bits := (a.Bits << lsh) >> rsh

	return Bitvector{Width: newWidth, OccupiedWidth: occ, Bits: bits}
}

// BVZext widens n to width w, leaving the value and occupied bound unchanged.
// Precondition: n.Width <= w.
func BVZext(n Bitvector, w Width) Bitvector {
	assert(n.Width <= w, "bv_zext: narrowing width")
	return Bitvector{Width: w, OccupiedWidth: n.OccupiedWidth, Bits: n.Bits}
}

// BVSext sign-extends n to width w. Precondition: w <= WordBits whenever n's
// sign bit is set.
func BVSext(n Bitvector, w Width) Bitvector {
	signBit := n.Bits >> (n.Width - 1)
	if signBit == 0 {
		return BVZext(n, w)
	}
	assert(w <= WordBits, "bv_sext: result exceeds one word")
	mask := maskLowerBits(^Word(0), n.Width)
	bits := maskOverflow(n.Bits|mask, w)
	return Bitvector{Width: w, OccupiedWidth: w, Bits: bits}
}

// String renders a Bitvector the way bvlib's diagnostic fprint does:
// {w: W, ow: OW, n: N, [b0, b1, ...]}.
func (v Bitvector) String() string {
	return fmt.Sprintf("{w: %d, ow: %d, n: %d}", v.Width, v.OccupiedWidth, v.Bits)
}
