// Package jitcodegen is the native-code backend: it compiles a lowered
// smtir.Module straight to amd64 machine code and exposes the dispatcher
// as a callable function pointer, turning the IR into native code executed
// via mmap'd buffers (internal/asm, internal/asm/golang_asm,
// internal/platform).
//
// Every bit-vector width in this fragment's grammar is a compile-time
// literal (smtlower already resolved them), so compiled code only ever
// carries the 64-bit Bits payload through registers and spill slots; Width
// and OccupiedWidth stay a bvlib-level, interpreter-side concern and are
// never materialized in generated instructions. See DESIGN.md.
package jitcodegen

// ArrayDescriptor is the native-ABI view of one bv_array argument: a raw
// pointer to the first element of its backing []bvlib.Bitvector slice and
// its declared length (excluding the sentinel slot). Compiled code reads an
// array parameter's ArrayDescriptor out of the frame table, clamps an index
// against Len, and loads the Bitvector at Base+clampedIndex*BitvectorSize —
// the native-code form of bvlib.BvaSelect's saturating lookup.
//
// This replaces the literal `bv_array**` double-indirection with a flat
// descriptor table: simpler to build from Go (no need to alias a
// Go-managed struct's memory into the arena) and the load sequence
// compileSelect emits. Documented as a deliberate ABI simplification.
type ArrayDescriptor struct {
	Base uintptr
	Len  uint64
}

// BitvectorSize is sizeof(bvlib.Bitvector) in bytes: two uint32 fields plus
// one uint64 field, naturally aligned to 8 bytes — matches the two-word
// runtime layout.
const BitvectorSize = 16

// descriptorSize is sizeof(ArrayDescriptor) in bytes.
const descriptorSize = 16
