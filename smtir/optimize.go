package smtir

import "github.com/kuhar/smt-jit/bvlib"

// Optimize runs the module-level optimization pipeline against fn in
// classic LLVM-pass terms (instruction-combining, global-value numbering,
// CFG simplification), applied to every assertion body and the dispatcher
// that calls them. It is a no-op-safe, idempotent rewrite: it never
// changes what fn computes, only how many instructions it takes.
//
// The three passes below are the concrete, from-scratch stand-ins for
// LLVM's pipeline:
//   - foldConstants is instruction-combining's constant-folding core.
//   - commonSubexpressionElimination is global-value numbering restricted
//     to one basic block (this IR has no control flow inside a
//     function, so GVN and local CSE coincide).
//   - eliminateDeadInstructions is CFG-simplification's dead-code half
//     (there is no CFG to simplify here, since a Function is one
//     straight-line block; removing unused instructions is what survives
//     of that pass in a branch-free IR).
func Optimize(fn *Function) {
	foldConstants(fn)
	commonSubexpressionElimination(fn)
	eliminateDeadInstructions(fn)
}

// resolve follows v through the renumbering map built by a rewrite pass.
func resolve(v Value, remap []Value) Value {
	if v.Kind == ValTemp {
		return remap[v.Temp]
	}
	return v
}

// foldConstants replaces any instruction whose operands are all literals
// with the literal it computes, short-circuiting the rest of the pipeline
// for code like (bvadd (_ bv1 8) (_ bv2 8)).
func foldConstants(fn *Function) {
	remap := make([]Value, len(fn.Instrs))
	var kept []Instr

	for i, instr := range fn.Instrs {
		args := make([]Value, len(instr.Args))
		for j, a := range instr.Args {
			args[j] = resolve(a, remap)
		}
		instr.Args = args

		if folded, ok := tryFold(instr); ok {
			remap[i] = folded
			continue
		}

		newIdx := len(kept)
		kept = append(kept, instr)
		remap[i] = TempValue(newIdx, instr.ResultWidth)
	}

	fn.Instrs = kept
	fn.Result = resolve(fn.Result, remap)
}

func tryFold(instr Instr) (Value, bool) {
	for _, a := range instr.Args {
		if a.Kind != ValConst {
			return Value{}, false
		}
	}

	bv := func(i int) bvlib.Bitvector {
		a := instr.Args[i]
		return bvlib.Bitvector{Width: a.Width, Bits: a.Bits}
	}

	switch instr.Op {
	case OpBVMk:
		r := bvlib.BVMk(instr.MkWidth, instr.Args[0].Bits)
		return ConstValue(r.Width, r.Bits), true
	case OpBVAdd:
		r := bvlib.BVAdd(bv(0), bv(1))
		return ConstValue(r.Width, r.Bits), true
	case OpBVMul:
		r := bvlib.BVMul(bv(0), bv(1))
		return ConstValue(r.Width, r.Bits), true
	case OpBVAnd:
		r := bvlib.BVAnd(bv(0), bv(1))
		return ConstValue(r.Width, r.Bits), true
	case OpBVOr:
		r := bvlib.BVOr(bv(0), bv(1))
		return ConstValue(r.Width, r.Bits), true
	case OpBVConcat:
		r := bvlib.BVConcat(bv(0), bv(1))
		return ConstValue(r.Width, r.Bits), true
	case OpBVExtract:
		r := bvlib.BVExtract(bv(0), instr.ExtractFrom, instr.ExtractTo)
		return ConstValue(r.Width, r.Bits), true
	case OpBVZext:
		r := bvlib.BVZext(bv(0), instr.ExtWidth)
		return ConstValue(r.Width, r.Bits), true
	case OpBVSext:
		r := bvlib.BVSext(bv(0), instr.ExtWidth)
		return ConstValue(r.Width, r.Bits), true
	case OpBVEq:
		return ConstValue(32, uint64(bvlib.BVEq(bv(0), bv(1)))), true
	case OpBVUlt:
		return ConstValue(32, uint64(bvlib.BVUlt(bv(0), bv(1)))), true
	case OpBVSlt:
		return ConstValue(32, uint64(bvlib.BVSlt(bv(0), bv(1)))), true
	case OpIntEqZext:
		eq := uint64(0)
		if instr.Args[0].Bits == instr.Args[1].Bits {
			eq = 1
		}
		return ConstValue(32, eq), true
	case OpI32And:
		return ConstValue(32, instr.Args[0].Bits&instr.Args[1].Bits), true
	case OpArraySelect:
		return Value{}, false // array contents are never compile-time constant
	default:
		return Value{}, false
	}
}

// instrKey is a structural hash key for common-subexpression elimination:
// two instructions with the same key compute the same value.
type instrKey struct {
	op                     Op
	a0, a1                 Value
	mkW, extFrom, extTo, extW bvlib.Width
}

func keyOf(instr Instr) instrKey {
	k := instrKey{op: instr.Op, mkW: instr.MkWidth, extFrom: instr.ExtractFrom, extTo: instr.ExtractTo, extW: instr.ExtWidth}
	if len(instr.Args) > 0 {
		k.a0 = instr.Args[0]
	}
	if len(instr.Args) > 1 {
		k.a1 = instr.Args[1]
	}
	return k
}

// commonSubexpressionElimination merges repeated identical instructions
// (e.g. two `(select arg00 idx)` nodes over the same index reached via
// different let-bindings) into a single computation.
func commonSubexpressionElimination(fn *Function) {
	seen := make(map[instrKey]Value)
	remap := make([]Value, len(fn.Instrs))
	var kept []Instr

	for i, instr := range fn.Instrs {
		args := make([]Value, len(instr.Args))
		for j, a := range instr.Args {
			args[j] = resolve(a, remap)
		}
		instr.Args = args

		k := keyOf(instr)
		if v, ok := seen[k]; ok {
			remap[i] = v
			continue
		}

		newIdx := len(kept)
		kept = append(kept, instr)
		v := TempValue(newIdx, instr.ResultWidth)
		remap[i] = v
		seen[k] = v
	}

	fn.Instrs = kept
	fn.Result = resolve(fn.Result, remap)
}

// eliminateDeadInstructions drops instructions whose results are never
// read, then compacts the remaining ones, renumbering references.
func eliminateDeadInstructions(fn *Function) {
	live := make([]bool, len(fn.Instrs))
	if fn.Result.Kind == ValTemp {
		live[fn.Result.Temp] = true
	}
	for i := len(fn.Instrs) - 1; i >= 0; i-- {
		if !live[i] {
			continue
		}
		for _, a := range fn.Instrs[i].Args {
			if a.Kind == ValTemp {
				live[a.Temp] = true
			}
		}
	}

	remap := make([]Value, len(fn.Instrs))
	var kept []Instr
	for i, instr := range fn.Instrs {
		if !live[i] {
			continue
		}
		args := make([]Value, len(instr.Args))
		for j, a := range instr.Args {
			args[j] = resolve(a, remap)
		}
		instr.Args = args

		newIdx := len(kept)
		kept = append(kept, instr)
		remap[i] = TempValue(newIdx, instr.ResultWidth)
	}

	fn.Instrs = kept
	fn.Result = resolve(fn.Result, remap)
}
