package smtlib

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAssignmentsAndArrayDecl(t *testing.T) {
	src := `; Assignments
; { "a": [1,2,3], "b": [4,5] }
; { "c": [6,7], "b": [8] }
(declare-fun arg00 () (Array (_ BitVec 32) (_ BitVec 8)))
`
	prog, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	require.Equal(t, "; Assignments", prog.Header)
	require.Len(t, prog.Assignments, 2)

	require.Equal(t, []AssignmentValue{1, 2, 3}, prog.Assignments[0].Variables["a"])
	require.Equal(t, []AssignmentValue{4, 5}, prog.Assignments[0].Variables["b"])
	require.Equal(t, []AssignmentValue{6, 7}, prog.Assignments[1].Variables["c"])
	require.Equal(t, []AssignmentValue{8}, prog.Assignments[1].Variables["b"])

	require.Len(t, prog.Arrays, 1)
	require.Equal(t, ArrayDecl{Name: "arg00", ElementWidth: 8, IsBitvector: true}, prog.Arrays[0])
}

func TestParseEmptyAssignmentArray(t *testing.T) {
	src := `; { "arg00": [] }
(declare-fun arg00 () (Array (_ BitVec 32) (_ BitVec 8)))
`
	prog, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, prog.Assignments, 1)
	require.Empty(t, prog.Assignments[0].Variables["arg00"])
	require.True(t, prog.Assignments[0].HasVariable("arg00"))
}

func TestParseRejectsNon32BitIndexSort(t *testing.T) {
	src := `(declare-fun arg00 () (Array (_ BitVec 16) (_ BitVec 8)))`
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
}

func TestParseAssertionsPreserveOrder(t *testing.T) {
	src := `(declare-fun arg00 () (Array (_ BitVec 32) (_ BitVec 8)))
(assert (= (_ bv1 8) (select arg00 (_ bv0 32))))
(assert (= (_ bv2 8) (select arg00 (_ bv1 32))))
`
	prog, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, prog.Assertions, 2)
	require.Equal(t, "assert", prog.Assertions[0].Head())
	require.Contains(t, prog.Assertions[0].String(), "bv1 8")
	require.Contains(t, prog.Assertions[1].String(), "bv2 8")
}
