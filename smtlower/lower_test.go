package smtlower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuhar/smt-jit/smtir"
	"github.com/kuhar/smt-jit/smtlib"
)

func parseProgram(t *testing.T, src string) *smtlib.Program {
	t.Helper()
	prog, err := smtlib.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return prog
}

func TestLowerSimpleEquality(t *testing.T) {
	prog := parseProgram(t, `(declare-fun arg00 () (Array (_ BitVec 32) (_ BitVec 8)))
(assert (= (_ bv1 8) (select arg00 (_ bv0 32))))
`)
	require.Len(t, prog.Assertions, 1)

	fn, err := LowerAssertion("assert_1", prog.Assertions[0], prog.Arrays)
	require.NoError(t, err)

	require.Equal(t, smtir.ValTemp, fn.Result.Kind)
	last := fn.Instrs[fn.Result.Temp]
	require.Equal(t, smtir.OpBVEq, last.Op)
	require.Len(t, last.Args, 2)

	// lhs: (_ bv1 8) lowers to a bv_mk(8, 1) instruction.
	require.Equal(t, smtir.ValTemp, last.Args[0].Kind)
	mk := fn.Instrs[last.Args[0].Temp]
	require.Equal(t, smtir.OpBVMk, mk.Op)
	require.Equal(t, bvlibWidth(8), mk.MkWidth)
	require.Equal(t, uint64(1), mk.Args[0].Bits)

	// rhs: (select arg00 (_ bv0 32)) lowers to a bva_select over parameter 0.
	require.Equal(t, smtir.ValTemp, last.Args[1].Kind)
	sel := fn.Instrs[last.Args[1].Temp]
	require.Equal(t, smtir.OpArraySelect, sel.Op)
	require.Equal(t, smtir.ValArrayParam, sel.Args[0].Kind)
	require.Equal(t, 0, sel.Args[0].Param)
}

func TestLowerLetBinding(t *testing.T) {
	prog := parseProgram(t, `(declare-fun arg00 () (Array (_ BitVec 32) (_ BitVec 8)))
(assert (let ((?x (select arg00 (_ bv0 32)))) (= ?x (_ bv2 8))))
`)
	fn, err := LowerAssertion("assert_1", prog.Assertions[0], prog.Arrays)
	require.NoError(t, err)

	last := fn.Instrs[fn.Result.Temp]
	require.Equal(t, smtir.OpBVEq, last.Op)
	// ?x is bound to the select result, so the first operand of bv_eq
	// should reference the select instruction directly, not a copy.
	sel := fn.Instrs[last.Args[0].Temp]
	require.Equal(t, smtir.OpArraySelect, sel.Op)
}

func TestLowerArithmeticAndExtract(t *testing.T) {
	prog := parseProgram(t, `(declare-fun arg00 () (Array (_ BitVec 32) (_ BitVec 8)))
(assert (bvult ((_ extract 7 4) (bvadd (_ bv1 8) (select arg00 (_ bv0 32)))) (_ bv8 4)))
`)
	fn, err := LowerAssertion("assert_1", prog.Assertions[0], prog.Arrays)
	require.NoError(t, err)

	ult := fn.Instrs[fn.Result.Temp]
	require.Equal(t, smtir.OpBVUlt, ult.Op)

	ext := fn.Instrs[ult.Args[0].Temp]
	require.Equal(t, smtir.OpBVExtract, ext.Op)
	require.Equal(t, bvlibWidth(4), ext.ExtractFrom)
	require.Equal(t, bvlibWidth(7), ext.ExtractTo)

	add := fn.Instrs[ext.Args[0].Temp]
	require.Equal(t, smtir.OpBVAdd, add.Op)
}

// bvlibWidth narrows a literal to bvlib.Width without importing bvlib just
// for the type name in tests.
func bvlibWidth(w uint32) uint32 { return w }
