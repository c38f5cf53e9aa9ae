// Package smtdriver is the per-file driver loop: parse, lower, compile,
// resolve, then evaluate every candidate assignment against the compiled
// dispatcher.
package smtdriver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/kuhar/smt-jit/bvlib"
	"github.com/kuhar/smt-jit/jitcodegen"
	"github.com/kuhar/smt-jit/smtir"
	"github.com/kuhar/smt-jit/smtlib"
	"github.com/kuhar/smt-jit/smtlower"
)

// Driver owns one JIT engine and one bvlib arena across however many
// formulas it processes in a run: a single long-lived engine rather than
// one per input.
type Driver struct {
	opts   Options
	engine *jitcodegen.Engine
	arena  *bvlib.Arena
}

// New constructs a Driver. Call Close when done to release mapped code and
// the arena.
func New(opts Options) *Driver {
	arena := bvlib.NewArena()
	arena.Init()
	return &Driver{opts: opts, engine: jitcodegen.Create(), arena: arena}
}

// Close tears down the arena (bvlib.Arena.Teardown) and releases every
// mapped code segment.
func (d *Driver) Close() {
	d.arena.Teardown()
	d.engine.Close()
}

// Run executes the per-file driver loop against the SMT-LIB2 source read
// from r: parse, lower, compile, resolve, evaluate every assignment. name
// identifies the input for -save-temps artifact naming; an empty name is
// fine when that option is off.
func (d *Driver) Run(r io.Reader, name string) ([]AssignmentResult, error) {
	prog, err := smtlib.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("smtdriver: %w", err)
	}

	mod, err := smtlower.BuildModule(prog)
	if err != nil {
		return nil, fmt.Errorf("smtdriver: %w", err)
	}

	if !d.opts.NoOpt {
		optimizeModule(mod)
	}

	if d.opts.SaveTemps {
		if err := d.saveTemps(mod, name); err != nil {
			return nil, fmt.Errorf("smtdriver: %w", err)
		}
	}

	if err := d.engine.AddModule(mod); err != nil {
		return nil, fmt.Errorf("smtdriver: %w", err)
	}
	dispatch, err := d.engine.Lookup(mod.Dispatcher.Name)
	if err != nil {
		return nil, fmt.Errorf("smtdriver: %w", err)
	}

	passes := 1
	if d.opts.Benchmark && d.opts.Iterations > passes {
		passes = d.opts.Iterations
	}

	results := make([]AssignmentResult, len(prog.Assignments))
	for pass := 0; pass < passes; pass++ {
		for i, assignment := range prog.Assignments {
			results[i] = d.evaluate(i, prog, assignment, dispatch)
			if d.opts.Benchmark {
				d.arena.Reset()
			}
		}
	}
	if !d.opts.Benchmark {
		d.arena.Reset()
	}
	return results, nil
}

// saveTemps writes mod's IR listing to TempDir/<name>.ir per the
// `-save-temps`/`-temp-dir` options.
func (d *Driver) saveTemps(mod *smtir.Module, name string) error {
	if name == "" {
		name = mod.Dispatcher.Name
	}
	dir := d.opts.TempDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save-temps: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name)+".ir")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save-temps: %w", err)
	}
	defer f.Close()
	smtir.Fprint(f, mod)
	return nil
}

// optimizeModule applies the optimization pipeline: the module-level
// always-inliner already ran in smtlower.BuildModule (via smtir.Prepare);
// what's left per added module is running instruction-combining/GVN/
// dead-code elimination on every `smt_`-named function, i.e. every
// assertion body smtir.Optimize covers.
func optimizeModule(mod *smtir.Module) {
	for _, fn := range mod.Dispatcher.Assertions {
		smtir.Optimize(fn)
	}
}

// evaluate validates one assignment and, if it passes, materializes its
// arrays and calls the compiled dispatcher.
func (d *Driver) evaluate(idx int, prog *smtlib.Program, assignment smtlib.Assignment, dispatch func([]jitcodegen.ArrayDescriptor) int32) AssignmentResult {
	if err := validate(prog, assignment); err != nil {
		return AssignmentResult{Index: idx, Rejected: err}
	}

	frame := make([]jitcodegen.ArrayDescriptor, len(prog.Arrays))
	arrays := make([]*bvlib.Array, len(prog.Arrays))
	for i, decl := range prog.Arrays {
		values := assignment.Variables[decl.Name]
		if values == nil {
			values = []bvlib.Word{} // BvaMkInit rejects a nil slice even for a 0-length array
		}
		arr := d.arena.BvaMkInit(decl.ElementWidth, uint64(len(values)), values)
		arrays[i] = arr
		frame[i] = jitcodegen.ArrayDescriptor{
			Base: uintptr(unsafe.Pointer(&arr.Values[0])),
			Len:  arr.Len,
		}
	}

	code := dispatch(frame)
	// arrays holds the only other live reference to each Values backing
	// slice; frame carries just the raw addresses the native code read,
	// which the garbage collector doesn't know keep arr alive.
	runtime.KeepAlive(arrays)

	switch code {
	case 0:
		return AssignmentResult{Index: idx, Models: true}
	default:
		return AssignmentResult{Index: idx, FailingAssertion: int(code)}
	}
}

// validate enforces the precondition check: every declared array must have
// a value in the assignment, and the assignment must not carry extra
// variables the formula never declared. Per-assertion operand-width
// equality needs no runtime check here: every width in this fragment's
// grammar is a literal the lowerer already resolved, so it can never vary
// by assignment (see smtlower's doc comment).
func validate(prog *smtlib.Program, assignment smtlib.Assignment) error {
	if assignment.NumVariables() != len(prog.Arrays) {
		return fmt.Errorf("assignment declares %d variables, formula has %d arrays", assignment.NumVariables(), len(prog.Arrays))
	}
	for _, decl := range prog.Arrays {
		if !assignment.HasVariable(decl.Name) {
			return fmt.Errorf("assignment missing value for array %q", decl.Name)
		}
	}
	return nil
}
