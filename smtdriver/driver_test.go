package smtdriver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuhar/smt-jit/smtlib"
)

func TestValidateMissingVariable(t *testing.T) {
	prog := &smtlib.Program{Arrays: []smtlib.ArrayDecl{{Name: "arg00", ElementWidth: 8, IsBitvector: true}}}
	assignment := smtlib.Assignment{Variables: map[string][]smtlib.AssignmentValue{"other": {1}}}
	err := validate(prog, assignment)
	require.Error(t, err)
}

func TestValidateVariableCountMismatch(t *testing.T) {
	prog := &smtlib.Program{Arrays: []smtlib.ArrayDecl{{Name: "arg00", ElementWidth: 8, IsBitvector: true}}}
	assignment := smtlib.Assignment{Variables: map[string][]smtlib.AssignmentValue{
		"arg00": {1},
		"extra": {2},
	}}
	err := validate(prog, assignment)
	require.Error(t, err)
}

func TestValidateAccepts(t *testing.T) {
	prog := &smtlib.Program{Arrays: []smtlib.ArrayDecl{{Name: "arg00", ElementWidth: 8, IsBitvector: true}}}
	assignment := smtlib.Assignment{Variables: map[string][]smtlib.AssignmentValue{"arg00": {1, 2, 3}}}
	require.NoError(t, validate(prog, assignment))
}

// TestRunEndToEnd exercises the full pipeline — parse, lower, compile to
// native code, mmap, call — against the same single-assertion formula
// shim_test.go's parser tests use. Of everything in this repo, the native
// codegen path (jitcodegen) carries the least test-time confidence: it is
// exercised here and in jitcodegen's own tests, but its correctness rests on
// the amd64 encoding wiring in compiler_amd64.go, which this project's
// author has not been able to run end to end. See DESIGN.md.
func TestRunEndToEnd(t *testing.T) {
	src := `(declare-fun arg00 () (Array (_ BitVec 32) (_ BitVec 8)))
(assert (= (_ bv1 8) (select arg00 (_ bv0 32))))
; { "arg00": [1, 2, 3] }
; { "arg00": [9] }
`
	d := New(Options{})
	defer d.Close()

	results, err := d.Run(strings.NewReader(src), "inline")
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.True(t, results[0].Models)
	require.False(t, results[1].Models)
	require.Equal(t, 1, results[1].FailingAssertion)
}
