// Package smtlower is the expression lowerer: it walks a parsed assertion's
// s-expression tree and emits smtir instructions for it.
package smtlower

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kuhar/smt-jit/bvlib"
	"github.com/kuhar/smt-jit/smtir"
	"github.com/kuhar/smt-jit/smtlib"
)

// arrayInfo is per-array-declaration context the lowerer needs while walking
// an assertion: which parameter index a name resolves to, and its element
// width (the width `select` results carry).
type arrayInfo struct {
	index       int
	elemWidth   bvlib.Width
}

// LowerAssertion lowers one `(assert ...)` form into a private per-assertion
// function assert_i(arr_1, ..., arr_A) -> i32. name is the function's name
// (e.g. "assert_1").
//
// Rather than maintaining a single generic operand stack of IR values, with
// plain numeric literals pushed as i64 constants, this lowerer walks the
// tree recursively and resolves every literal width,
// extract bound, and zero/sign-extend target directly from its enclosing
// `_`-form as a plain Go integer immediate, never materializing it as an IR
// value. The two are equivalent for this grammar: every bare numeric token
// in the accepted fragment is consumed exclusively by its lexical parent
// (bv_mk's width, extract's bounds, zero_extend/sign_extend's target width),
// so there is never a need to push one onto a stack only to have the very
// next step pop it back off. See DESIGN.md.
func LowerAssertion(name string, assertion smtlib.SExpr, arrays []smtlib.ArrayDecl) (*smtir.Function, error) {
	if assertion.IsAtom() || assertion.Head() != "assert" || len(assertion.Children) != 2 {
		return nil, fmt.Errorf("smtlower: %s: expected (assert <expr>), got %s", name, assertion)
	}

	params := make([]smtir.Param, len(arrays))
	infoByName := make(map[string]arrayInfo, len(arrays))
	for i, a := range arrays {
		params[i] = smtir.Param{Name: a.Name}
		infoByName[a.Name] = arrayInfo{index: i, elemWidth: a.ElementWidth}
	}

	fn := &smtir.Function{Name: name, Params: params}
	lets := map[string]lowered{}

	result, err := lowerExpr(fn, assertion.Children[1], infoByName, lets)
	if err != nil {
		return nil, fmt.Errorf("smtlower: %s: %w", name, err)
	}
	fn.Result = result.value
	return fn, nil
}

// lowered pairs the IR value an expression produced with whether it is
// bitvector-typed (as opposed to the fragment's untyped integer literals,
// which are never bitvector-typed until wrapped in a `(_ bvN W)` form). The
// distinction decides how `=` lowers: if integer-typed, emit integer
// compare-equal zero-extended to i32; else emit bv_eq.
type lowered struct {
	value      smtir.Value
	bitvector  bool
}

func lowerExpr(fn *smtir.Function, node smtlib.SExpr, arrays map[string]arrayInfo, lets map[string]lowered) (lowered, error) {
	if node.IsAtom() {
		return lowerAtom(node.Atom, arrays, lets)
	}
	if len(node.Children) == 0 {
		return lowered{}, fmt.Errorf("empty list")
	}

	head := node.Children[0]

	if head.IsAtom() && head.Atom == "_" {
		return lowerIndexedConst(fn, node)
	}
	if !head.IsAtom() && head.Head() == "_" {
		return lowerIndexedApp(fn, head, node, arrays, lets)
	}
	if !head.IsAtom() {
		return lowered{}, fmt.Errorf("unsupported list head: %s", node)
	}

	switch head.Atom {
	case "let":
		return lowerLet(fn, node, arrays, lets)
	case "and":
		return lowerBinary(fn, node, arrays, lets, smtir.OpI32And, func(a, b lowered) bvlib.Width { return 32 })
	case "=":
		return lowerEq(fn, node, arrays, lets)
	case "select":
		return lowerSelect(fn, node, arrays, lets)
	case "bvadd":
		return lowerBinary(fn, node, arrays, lets, smtir.OpBVAdd, widthOfFirst)
	case "bvmul":
		return lowerBinary(fn, node, arrays, lets, smtir.OpBVMul, widthOfFirst)
	case "bvand":
		return lowerBinary(fn, node, arrays, lets, smtir.OpBVAnd, widthOfFirst)
	case "bvor":
		return lowerBinary(fn, node, arrays, lets, smtir.OpBVOr, widthOfFirst)
	case "concat":
		return lowerBinary(fn, node, arrays, lets, smtir.OpBVConcat, widthSum)
	case "bvult":
		return lowerBinary(fn, node, arrays, lets, smtir.OpBVUlt, func(a, b lowered) bvlib.Width { return 32 })
	case "bvslt":
		return lowerBinary(fn, node, arrays, lets, smtir.OpBVSlt, func(a, b lowered) bvlib.Width { return 32 })
	default:
		return lowered{}, fmt.Errorf("unsupported operator %q in %s", head.Atom, node)
	}
}

func widthOfFirst(a, b lowered) bvlib.Width { return a.value.Width }
func widthSum(a, b lowered) bvlib.Width     { return a.value.Width + b.value.Width }

func lowerAtom(atom string, arrays map[string]arrayInfo, lets map[string]lowered) (lowered, error) {
	if atom == "false" {
		return lowered{value: smtir.ConstValue(32, 0)}, nil
	}
	if v, ok := lets[atom]; ok {
		return v, nil
	}
	if info, ok := arrays[atom]; ok {
		return lowered{value: smtir.ArrayParamValue(info.index)}, nil
	}
	if n, err := strconv.ParseUint(atom, 10, 64); err == nil {
		return lowered{value: smtir.ConstValue(64, n)}, nil
	}
	if strings.HasPrefix(atom, "bv") {
		if n, err := strconv.ParseUint(atom[2:], 10, 64); err == nil {
			return lowered{value: smtir.ConstValue(64, n)}, nil
		}
	}
	return lowered{}, fmt.Errorf("unbound name %q", atom)
}

// lowerIndexedConst lowers `(_ bvN W)`: pop width, pop constant, emit bv_mk.
func lowerIndexedConst(fn *smtir.Function, node smtlib.SExpr) (lowered, error) {
	if len(node.Children) != 3 {
		return lowered{}, fmt.Errorf("malformed indexed constant: %s", node)
	}
	tok := node.Children[1].Atom
	if !strings.HasPrefix(tok, "bv") {
		return lowered{}, fmt.Errorf("expected (_ bvN W), got %s", node)
	}
	n, err := strconv.ParseUint(tok[2:], 10, 64)
	if err != nil {
		return lowered{}, fmt.Errorf("bad bv constant %q: %w", tok, err)
	}
	w, err := strconv.ParseUint(node.Children[2].Atom, 10, 32)
	if err != nil {
		return lowered{}, fmt.Errorf("bad bv width %q: %w", node.Children[2].Atom, err)
	}

	width := bvlib.Width(w)
	v := fn.Emit(smtir.Instr{
		Op:          smtir.OpBVMk,
		Args:        []smtir.Value{smtir.ConstValue(64, n)},
		ResultWidth: width,
		MkWidth:     width,
	})
	return lowered{value: v, bitvector: true}, nil
}

// lowerIndexedApp lowers `((_ extract i j) bv)`, `((_ zero_extend k) bv)` and
// `((_ sign_extend k) bv)`.
func lowerIndexedApp(fn *smtir.Function, head smtlib.SExpr, node smtlib.SExpr, arrays map[string]arrayInfo, lets map[string]lowered) (lowered, error) {
	if len(node.Children) != 2 || len(head.Children) < 2 {
		return lowered{}, fmt.Errorf("malformed indexed application: %s", node)
	}
	arg, err := lowerExpr(fn, node.Children[1], arrays, lets)
	if err != nil {
		return lowered{}, err
	}

	switch head.Children[1].Atom {
	case "extract":
		if len(head.Children) != 4 {
			return lowered{}, fmt.Errorf("malformed extract: %s", head)
		}
		hi, err := strconv.ParseUint(head.Children[2].Atom, 10, 32)
		if err != nil {
			return lowered{}, fmt.Errorf("bad extract bound %q: %w", head.Children[2].Atom, err)
		}
		lo, err := strconv.ParseUint(head.Children[3].Atom, 10, 32)
		if err != nil {
			return lowered{}, fmt.Errorf("bad extract bound %q: %w", head.Children[3].Atom, err)
		}
		from, to := bvlib.Width(lo), bvlib.Width(hi)
		v := fn.Emit(smtir.Instr{
			Op:          smtir.OpBVExtract,
			Args:        []smtir.Value{arg.value},
			ResultWidth: to - from + 1,
			ExtractFrom: from,
			ExtractTo:   to,
		})
		return lowered{value: v, bitvector: true}, nil

	case "zero_extend", "sign_extend":
		if len(head.Children) != 3 {
			return lowered{}, fmt.Errorf("malformed %s: %s", head.Children[1].Atom, head)
		}
		k, err := strconv.ParseUint(head.Children[2].Atom, 10, 32)
		if err != nil {
			return lowered{}, fmt.Errorf("bad extend width %q: %w", head.Children[2].Atom, err)
		}
		newWidth := arg.value.Width + bvlib.Width(k)
		op := smtir.OpBVZext
		if head.Children[1].Atom == "sign_extend" {
			op = smtir.OpBVSext
		}
		v := fn.Emit(smtir.Instr{
			Op:          op,
			Args:        []smtir.Value{arg.value},
			ResultWidth: newWidth,
			ExtWidth:    newWidth,
		})
		return lowered{value: v, bitvector: true}, nil

	default:
		return lowered{}, fmt.Errorf("unsupported indexed operator %q", head.Children[1].Atom)
	}
}

// lowerLet lowers `(let ((?x e1) (?y e2) ...) body)`: evaluate each binding
// in order, extend the let-map, then lower body — `let` itself is a no-op,
// since the stack (here, the return value) already holds body's value.
func lowerLet(fn *smtir.Function, node smtlib.SExpr, arrays map[string]arrayInfo, lets map[string]lowered) (lowered, error) {
	if len(node.Children) != 3 {
		return lowered{}, fmt.Errorf("malformed let: %s", node)
	}
	bindings := node.Children[1]
	if bindings.IsAtom() {
		return lowered{}, fmt.Errorf("malformed let bindings: %s", node)
	}

	inner := make(map[string]lowered, len(lets)+len(bindings.Children))
	for k, v := range lets {
		inner[k] = v
	}
	for _, b := range bindings.Children {
		if b.IsAtom() || len(b.Children) != 2 {
			return lowered{}, fmt.Errorf("malformed let binding: %s", b)
		}
		name := b.Children[0].Atom
		if !strings.HasPrefix(name, `\?`) && !strings.HasPrefix(name, "?") {
			return lowered{}, fmt.Errorf("let binding name %q missing ?-prefix", name)
		}
		val, err := lowerExpr(fn, b.Children[1], arrays, inner)
		if err != nil {
			return lowered{}, err
		}
		inner[name] = val
	}

	return lowerExpr(fn, node.Children[2], arrays, inner)
}

func lowerBinary(fn *smtir.Function, node smtlib.SExpr, arrays map[string]arrayInfo, lets map[string]lowered, op smtir.Op, width func(a, b lowered) bvlib.Width) (lowered, error) {
	if len(node.Children) != 3 {
		return lowered{}, fmt.Errorf("malformed %s: %s", node.Children[0].Atom, node)
	}
	a, err := lowerExpr(fn, node.Children[1], arrays, lets)
	if err != nil {
		return lowered{}, err
	}
	b, err := lowerExpr(fn, node.Children[2], arrays, lets)
	if err != nil {
		return lowered{}, err
	}
	v := fn.Emit(smtir.Instr{Op: op, Args: []smtir.Value{a.value, b.value}, ResultWidth: width(a, b)})
	return lowered{value: v, bitvector: !op.IsI32()}, nil
}

func lowerEq(fn *smtir.Function, node smtlib.SExpr, arrays map[string]arrayInfo, lets map[string]lowered) (lowered, error) {
	if len(node.Children) != 3 {
		return lowered{}, fmt.Errorf("malformed =: %s", node)
	}
	a, err := lowerExpr(fn, node.Children[1], arrays, lets)
	if err != nil {
		return lowered{}, err
	}
	b, err := lowerExpr(fn, node.Children[2], arrays, lets)
	if err != nil {
		return lowered{}, err
	}

	op := smtir.OpBVEq
	if !a.bitvector && !b.bitvector {
		op = smtir.OpIntEqZext
	}
	v := fn.Emit(smtir.Instr{Op: op, Args: []smtir.Value{a.value, b.value}, ResultWidth: 32})
	return lowered{value: v, bitvector: false}, nil
}

func lowerSelect(fn *smtir.Function, node smtlib.SExpr, arrays map[string]arrayInfo, lets map[string]lowered) (lowered, error) {
	if len(node.Children) != 3 || !node.Children[1].IsAtom() {
		return lowered{}, fmt.Errorf("malformed select: %s", node)
	}
	name := node.Children[1].Atom
	info, ok := arrays[name]
	if !ok {
		return lowered{}, fmt.Errorf("select: %q is not a declared array", name)
	}
	idx, err := lowerExpr(fn, node.Children[2], arrays, lets)
	if err != nil {
		return lowered{}, err
	}
	v := fn.Emit(smtir.Instr{
		Op:          smtir.OpArraySelect,
		Args:        []smtir.Value{smtir.ArrayParamValue(info.index), idx.value},
		ResultWidth: info.elemWidth,
	})
	return lowered{value: v, bitvector: true}, nil
}
