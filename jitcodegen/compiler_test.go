package jitcodegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuhar/smt-jit/bvlib"
	"github.com/kuhar/smt-jit/smtir"
)

// These tests exercise Compile's bookkeeping (frame-slot layout, dispatcher
// short-circuit sequencing) without running the emitted machine code — this
// package's author has no way to execute amd64 bytes in this environment.
// See DESIGN.md for the confidence caveat that covers compiler_amd64.go.

func trivialModule() *smtir.Module {
	fn := &smtir.Function{Name: "assert_1"}
	lhs := fn.Emit(smtir.Instr{Op: smtir.OpBVMk, MkWidth: 8, ResultWidth: 8, Args: []smtir.Value{smtir.ConstValue(8, 1)}})
	rhs := fn.Emit(smtir.Instr{Op: smtir.OpBVMk, MkWidth: 8, ResultWidth: 8, Args: []smtir.Value{smtir.ConstValue(8, 1)}})
	result := fn.Emit(smtir.Instr{Op: smtir.OpBVEq, Args: []smtir.Value{lhs, rhs}})
	fn.Result = result

	return &smtir.Module{Dispatcher: &smtir.Dispatcher{
		Name:       "smt_0",
		Assertions: []*smtir.Function{fn},
	}}
}

func TestCompileProducesNonEmptyCode(t *testing.T) {
	code, err := Compile(trivialModule())
	require.NoError(t, err)
	require.NotEmpty(t, code)
}

func TestCompileSelectReferencesArrayParam(t *testing.T) {
	fn := &smtir.Function{Name: "assert_1", Params: []smtir.Param{{Name: "arg00"}}}
	idx := fn.Emit(smtir.Instr{Op: smtir.OpBVMk, MkWidth: 32, ResultWidth: 32, Args: []smtir.Value{smtir.ConstValue(32, 0)}})
	sel := fn.Emit(smtir.Instr{Op: smtir.OpArraySelect, ResultWidth: 8, Args: []smtir.Value{smtir.ArrayParamValue(0), idx}})
	want := fn.Emit(smtir.Instr{Op: smtir.OpBVMk, MkWidth: 8, ResultWidth: 8, Args: []smtir.Value{smtir.ConstValue(8, 1)}})
	fn.Result = fn.Emit(smtir.Instr{Op: smtir.OpBVEq, Args: []smtir.Value{sel, want}})

	mod := &smtir.Module{Dispatcher: &smtir.Dispatcher{
		Name:       "smt_1",
		NumArrays:  1,
		Assertions: []*smtir.Function{fn},
		ArrayNames: []string{"arg00"},
	}}

	code, err := Compile(mod)
	require.NoError(t, err)
	require.NotEmpty(t, code)
}

func TestArrayDescriptorLayout(t *testing.T) {
	// The frame table the driver builds is a flat []ArrayDescriptor; compiled
	// code computes arg i's descriptor address as frame + i*descriptorSize.
	// Compile must agree with that stride, so pin it here against the
	// exported BitvectorSize used throughout compileSelect.
	require.EqualValues(t, 16, descriptorSize)
	require.EqualValues(t, 16, BitvectorSize)
	_ = bvlib.Bitvector{}
}
