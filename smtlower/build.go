package smtlower

import (
	"fmt"
	"sync/atomic"

	"github.com/kuhar/smt-jit/smtir"
	"github.com/kuhar/smt-jit/smtlib"
)

// formulaCounter backs the `smt_N` dispatcher-naming counter (the static
// `cnt` in the reference emitSmtFormula this module-builder generalizes). A
// real multi-formula driver run allocates one name per input file from this
// single counter, so names stay unique across an entire process even if a
// caller builds modules from more than one Driver concurrently.
var formulaCounter uint64

// NextFormulaName returns the next "smt_N" dispatcher name and advances the
// counter.
func NextFormulaName() string {
	n := atomic.AddUint64(&formulaCounter, 1) - 1
	return fmt.Sprintf("smt_%d", n)
}

// BuildModule lowers every assertion in prog into its own assert_i
// function, assembles the smt_N dispatcher, and tags always-inline
// candidates (a module-preparer step folded into this single-module
// design — see smtir.Prepare's doc comment).
func BuildModule(prog *smtlib.Program) (*smtir.Module, error) {
	assertions := make([]*smtir.Function, len(prog.Assertions))
	for i, a := range prog.Assertions {
		fn, err := LowerAssertion(fmt.Sprintf("assert_%d", i+1), a, prog.Arrays)
		if err != nil {
			return nil, err
		}
		assertions[i] = fn
	}

	arrayNames := make([]string, len(prog.Arrays))
	for i, decl := range prog.Arrays {
		arrayNames[i] = decl.Name
	}

	mod := &smtir.Module{
		Dispatcher: &smtir.Dispatcher{
			Name:       NextFormulaName(),
			NumArrays:  len(prog.Arrays),
			Assertions: assertions,
			ArrayNames: arrayNames,
		},
	}

	smtir.Prepare(mod)
	return mod, nil
}
