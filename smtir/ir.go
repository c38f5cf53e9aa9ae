// Package smtir is the intermediate representation the lowerer emits and
// the JIT backend consumes. There is no separate IR type for the
// bv-runtime's own primitives: every bvlib operation this fragment supports
// is small enough to always-inline, so each becomes one Instr here and a
// fixed native-code template in jitcodegen, never a call. The shape — a
// flat, ordered instruction list per function rather than a tree — mirrors
// wazeroir.CompilationResult: a linear op stream a later pass can walk
// without re-deriving structure from a tree.
package smtir

import "github.com/kuhar/smt-jit/bvlib"

// Op identifies a primitive operation lowered from the SMT expression tree.
type Op int

const (
	OpBVMk Op = iota
	OpBVAdd
	OpBVMul
	OpBVAnd
	OpBVOr
	OpBVEq
	OpBVUlt
	OpBVSlt
	OpBVConcat
	OpBVExtract
	OpBVZext
	OpBVSext
	OpArraySelect
	OpI32And
	OpIntEqZext // integer `=`: compare-equal, result zero-extended to i32
)

func (op Op) String() string {
	switch op {
	case OpBVMk:
		return "bv_mk"
	case OpBVAdd:
		return "bv_add"
	case OpBVMul:
		return "bv_mul"
	case OpBVAnd:
		return "bv_and"
	case OpBVOr:
		return "bv_or"
	case OpBVEq:
		return "bv_eq"
	case OpBVUlt:
		return "bv_ult"
	case OpBVSlt:
		return "bv_slt"
	case OpBVConcat:
		return "bv_concat"
	case OpBVExtract:
		return "bv_extract"
	case OpBVZext:
		return "bv_zext"
	case OpBVSext:
		return "bv_sext"
	case OpArraySelect:
		return "bva_select"
	case OpI32And:
		return "and"
	case OpIntEqZext:
		return "int_eq_zext"
	default:
		return "?"
	}
}

// IsI32 reports whether op produces a plain i32 rather than a bitvector.
func (op Op) IsI32() bool {
	switch op {
	case OpBVEq, OpBVUlt, OpBVSlt, OpI32And, OpIntEqZext:
		return true
	default:
		return false
	}
}

// ValueKind discriminates what an operand references.
type ValueKind int

const (
	// ValConst is a compile-time-known literal.
	ValConst ValueKind = iota
	// ValTemp refers to the result of a previous Instr in the same
	// Function, by index.
	ValTemp
	// ValArrayParam refers to one of the function's bv_array* parameters.
	ValArrayParam
)

// Value is one IR operand: either a literal, a previously computed
// temporary, or a function's array-pointer parameter.
type Value struct {
	Kind  ValueKind
	Width bvlib.Width // meaningful for ValConst and bitvector-typed ValTemp
	Bits  bvlib.Word  // meaningful for ValConst
	Temp  int         // meaningful for ValTemp: index into Function.Instrs
	Param int         // meaningful for ValArrayParam: index into Function.Params
}

// ConstValue constructs a literal bitvector operand.
func ConstValue(width bvlib.Width, bits bvlib.Word) Value {
	return Value{Kind: ValConst, Width: width, Bits: bits}
}

// TempValue constructs an operand referring to a prior instruction's
// result.
func TempValue(idx int, width bvlib.Width) Value {
	return Value{Kind: ValTemp, Temp: idx, Width: width}
}

// ArrayParamValue constructs an operand referring to an array-pointer
// function parameter.
func ArrayParamValue(idx int) Value {
	return Value{Kind: ValArrayParam, Param: idx}
}

// Instr is one IR instruction: apply Op to Args, producing a value other
// instructions can reference as a ValTemp.
type Instr struct {
	Op   Op
	Args []Value

	// ResultWidth is the width of the produced bitvector; ignored when
	// Op.IsI32() (the result is then an i32 0/1).
	ResultWidth bvlib.Width

	// MkWidth, ExtractFrom, ExtractTo, ExtWidth carry operation-specific
	// immediates that the lowerer resolves statically (every width in
	// this fragment's grammar is a literal, never a runtime value).
	MkWidth     bvlib.Width
	ExtractFrom bvlib.Width
	ExtractTo   bvlib.Width
	ExtWidth    bvlib.Width
}

// Param is one function parameter: a bv_array* for the array the assertion
// references by name.
type Param struct {
	Name string
}

// Function is one per-assertion body: assert_i(arr_1, ..., arr_A) -> i32.
type Function struct {
	Name         string
	Params       []Param
	Instrs       []Instr
	Result       Value // the value `assert` popped and returned; always i32
	AlwaysInline bool
}

// InstrCount returns the number of instructions in the function body, the
// quantity the inlining policy thresholds against.
func (f *Function) InstrCount() int { return len(f.Instrs) }

// Emit appends instr to f and returns a Value referencing its result.
func (f *Function) Emit(instr Instr) Value {
	idx := len(f.Instrs)
	f.Instrs = append(f.Instrs, instr)
	width := instr.ResultWidth
	return TempValue(idx, width)
}

// AssertionInlineThreshold is the instruction-count bound under which a
// per-assertion function is tagged always-inline.
const AssertionInlineThreshold = 64

// PrimitiveInlineThreshold is the instruction-count bound under which a
// runtime primitive template is tagged always-inline; every bvlib
// primitive template in jitcodegen satisfies it trivially (see DESIGN.md).
const PrimitiveInlineThreshold = 28

// Dispatcher is the per-formula top-level function: smt_N(arrays) -> i32.
// It is never always-inline and is the only externally-resolved symbol.
type Dispatcher struct {
	Name         string
	NumArrays    int
	Assertions   []*Function // in declaration order; Assertions[i] is "assertion i+1"
	ArrayNames   []string    // ArrayNames[i] is the name bound to parameter i
}

// Module is one formula's complete compiled unit: the dispatcher plus the
// assertion bodies it calls, in order.
type Module struct {
	Dispatcher *Dispatcher
}
