package jitcodegen

import (
	"fmt"

	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/kuhar/smt-jit/internal/asm/golang_asm"
	"github.com/kuhar/smt-jit/smtir"
)

// compiler walks one smtir.Module's dispatcher and emits its body as a
// single flat amd64 routine: every assertion function is spliced inline
// (the always-inline policy decides which bodies the dispatcher may fold
// in; this backend currently inlines every assertion regardless of that
// tag — see DESIGN.md for the scope note), with a short-circuiting return
// the moment one evaluates false.
//
// Register allocation is deliberately the simplest correct scheme: every
// instruction's result gets its own 8-byte slot in the stack frame, and
// every operand is reloaded from its slot before use. This is the
// degenerate case of wazero's valueLocationStack spill mechanism — always
// spill, never keep a value live in a register across instructions — traded
// for certainty of correctness over speed, appropriate for a JIT compiling
// small, straight-line assertion bodies.
type compiler struct {
	base *golang_asm.GolangAsmBaseAssembler

	frameSize int64 // stack frame size in bytes, fixed once slots are counted
	nextSlot  int64 // next free slot offset, counting up from 0

	slots map[slotKey]int64 // (assertion index, instr index) -> frame offset
}

type slotKey struct {
	assertion int
	instr     int
}

// Compile emits mod's dispatcher as amd64 machine code and returns the
// assembled bytes. The generated function has signature
// func(frame uintptr) int32, called exactly the way
// internal/asmentry's trampoline invokes it: frame points at a contiguous
// []ArrayDescriptor, one entry per array parameter, in declaration order.
func Compile(mod *smtir.Module) ([]byte, error) {
	base, err := golang_asm.NewGolangAsmBaseAssembler("amd64")
	if err != nil {
		return nil, fmt.Errorf("jitcodegen: %w", err)
	}
	c := &compiler{base: base, slots: map[slotKey]int64{}}

	for ai, fn := range mod.Dispatcher.Assertions {
		for ii := range fn.Instrs {
			c.slots[slotKey{ai, ii}] = c.allocSlot()
		}
	}
	// Round the frame up to a 16-byte boundary, matching the amd64 SysV
	// stack-alignment convention our trampoline also respects.
	c.frameSize = (c.nextSlot + 15) &^ 15
	if c.frameSize == 0 {
		c.frameSize = 16
	}

	c.emit(x86.ASUBQ, constOperand(c.frameSize), regOperand(x86.REG_SP))

	var pendingJumps []*obj.Prog // conditional "keep going" jumps, target = next assertion's first instruction or the all-pass epilogue
	var failJumps []*obj.Prog    // unconditional jumps to the epilogue, AX already holds the failing index

	for ai, fn := range mod.Dispatcher.Assertions {
		first := c.compileFunction(ai, fn)
		for _, p := range pendingJumps {
			p.To.SetTarget(first)
		}
		pendingJumps = nil

		resultSlot := c.resultSlot(ai, fn)
		c.emit(x86.AMOVQ, memOperand(x86.REG_SP, resultSlot), regOperand(x86.REG_AX))
		c.emit(x86.ACMPQ, constOperand(0), regOperand(x86.REG_AX))
		jne := c.emitBranch(x86.AJNE)
		pendingJumps = append(pendingJumps, jne)

		// Falls through here only when the assertion evaluated false:
		// AX already holds 0; overwrite with the 1-based failing index.
		c.emit(x86.AMOVQ, constOperand(int64(ai+1)), regOperand(x86.REG_AX))
		jmp := c.emitBranch(x86.AJMP)
		failJumps = append(failJumps, jmp)
	}

	allPass := c.emit(x86.AMOVQ, constOperand(0), regOperand(x86.REG_AX))
	for _, p := range pendingJumps {
		p.To.SetTarget(allPass)
	}

	epilogue := c.emit(x86.AADDQ, constOperand(c.frameSize), regOperand(x86.REG_SP))
	for _, p := range failJumps {
		p.To.SetTarget(epilogue)
	}
	c.emit(x86.ARET)

	return c.base.Assemble()
}

func (c *compiler) allocSlot() int64 {
	s := c.nextSlot
	c.nextSlot += 8
	return s
}

func (c *compiler) resultSlot(assertionIdx int, fn *smtir.Function) int64 {
	return c.valueOffset(assertionIdx, fn.Result)
}

// compileFunction emits fn's instructions in order and returns the first
// emitted Prog, the jump target a caller wires a preceding branch to.
func (c *compiler) compileFunction(assertionIdx int, fn *smtir.Function) *obj.Prog {
	var first *obj.Prog
	for ii, instr := range fn.Instrs {
		p := c.compileInstr(assertionIdx, ii, instr)
		if first == nil {
			first = p
		}
	}
	if first == nil {
		// An empty body (constant-folded to nothing meaningful) still
		// needs a landing pad; a NOP-equivalent zero-offset add does.
		first = c.emit(x86.ANOP)
	}
	return first
}

// valueOffset resolves a smtir.Value to its stack-frame byte offset,
// materializing constants and array parameters into a slot is not needed:
// callers load constants directly and resolve ValArrayParam specially.
func (c *compiler) valueOffset(assertionIdx int, v smtir.Value) int64 {
	return c.slots[slotKey{assertionIdx, v.Temp}]
}

// loadOperand emits code loading v into dst, handling every Value kind.
func (c *compiler) loadOperand(assertionIdx int, v smtir.Value, dst int16) {
	switch v.Kind {
	case smtir.ValConst:
		c.emit(x86.AMOVQ, constOperand(int64(v.Bits)), regOperand(dst))
	case smtir.ValTemp:
		c.emit(x86.AMOVQ, memOperand(x86.REG_SP, c.valueOffset(assertionIdx, v)), regOperand(dst))
	case smtir.ValArrayParam:
		// frame pointer (in DI, set by the caller prologue) + param index * descriptorSize.
		c.emit(x86.AMOVQ, regOperand(x86.REG_DI), regOperand(dst))
		if v.Param != 0 {
			c.emit(x86.AADDQ, constOperand(int64(v.Param)*descriptorSize), regOperand(dst))
		}
	}
}

func (c *compiler) storeResult(assertionIdx, instrIdx int, src int16) {
	c.emit(x86.AMOVQ, regOperand(src), memOperand(x86.REG_SP, c.slots[slotKey{assertionIdx, instrIdx}]))
}

func (c *compiler) compileInstr(assertionIdx, instrIdx int, instr smtir.Instr) *obj.Prog {
	switch instr.Op {
	case smtir.OpBVMk:
		return c.compileUnaryPassthrough(assertionIdx, instrIdx, instr, instr.MkWidth)
	case smtir.OpBVAdd:
		return c.compileBinaryALU(assertionIdx, instrIdx, instr, x86.AADDQ, instr.ResultWidth)
	case smtir.OpBVMul:
		return c.compileBinaryALU(assertionIdx, instrIdx, instr, x86.AIMULQ, instr.ResultWidth)
	case smtir.OpBVAnd, smtir.OpI32And:
		return c.compileBinaryALU(assertionIdx, instrIdx, instr, x86.AANDQ, instr.ResultWidth)
	case smtir.OpBVOr:
		return c.compileBinaryALU(assertionIdx, instrIdx, instr, x86.AORQ, instr.ResultWidth)
	case smtir.OpBVEq:
		return c.compileCompare(assertionIdx, instrIdx, instr, x86.ASETEQ)
	case smtir.OpIntEqZext:
		return c.compileCompare(assertionIdx, instrIdx, instr, x86.ASETEQ)
	case smtir.OpBVUlt:
		return c.compileCompare(assertionIdx, instrIdx, instr, x86.ASETCS)
	case smtir.OpBVSlt:
		return c.compileSignedLess(assertionIdx, instrIdx, instr)
	case smtir.OpBVConcat:
		return c.compileConcat(assertionIdx, instrIdx, instr)
	case smtir.OpBVExtract:
		return c.compileExtract(assertionIdx, instrIdx, instr)
	case smtir.OpBVZext:
		return c.compileUnaryPassthrough(assertionIdx, instrIdx, instr, instr.ExtWidth)
	case smtir.OpBVSext:
		return c.compileSext(assertionIdx, instrIdx, instr)
	case smtir.OpArraySelect:
		return c.compileSelect(assertionIdx, instrIdx, instr)
	default:
		panic(fmt.Sprintf("jitcodegen: unhandled op %s", instr.Op))
	}
}

// compileUnaryPassthrough handles bv_mk and zero_extend: the bit pattern is
// unchanged (both are width bookkeeping only once widths are compile-time
// literals), so the template is a bare load-then-store.
func (c *compiler) compileUnaryPassthrough(assertionIdx, instrIdx int, instr smtir.Instr, width uint32) *obj.Prog {
	first := true
	var firstProg *obj.Prog
	track := func(p *obj.Prog) {
		if first {
			firstProg, first = p, false
		}
	}
	track(c.loadOperandTracked(assertionIdx, instr.Args[0], x86.REG_AX))
	if width < 64 {
		mask := int64((uint64(1) << width) - 1)
		track(c.emit(x86.AANDQ, constOperand(mask), regOperand(x86.REG_AX)))
	}
	track(c.emit(x86.AMOVQ, regOperand(x86.REG_AX), memOperand(x86.REG_SP, c.slots[slotKey{assertionIdx, instrIdx}])))
	return firstProg
}

// loadOperandTracked is loadOperand but returns the first emitted Prog, used
// where callers need a jump-target handle to the very start of a template.
func (c *compiler) loadOperandTracked(assertionIdx int, v smtir.Value, dst int16) *obj.Prog {
	switch v.Kind {
	case smtir.ValConst:
		return c.emit(x86.AMOVQ, constOperand(int64(v.Bits)), regOperand(dst))
	case smtir.ValTemp:
		return c.emit(x86.AMOVQ, memOperand(x86.REG_SP, c.valueOffset(assertionIdx, v)), regOperand(dst))
	case smtir.ValArrayParam:
		p := c.emit(x86.AMOVQ, regOperand(x86.REG_DI), regOperand(dst))
		if v.Param != 0 {
			c.emit(x86.AADDQ, constOperand(int64(v.Param)*descriptorSize), regOperand(dst))
		}
		return p
	}
	panic("unreachable")
}

func (c *compiler) compileBinaryALU(assertionIdx, instrIdx int, instr smtir.Instr, op obj.As, width uint32) *obj.Prog {
	first := c.loadOperandTracked(assertionIdx, instr.Args[0], x86.REG_AX)
	c.loadOperand(assertionIdx, instr.Args[1], x86.REG_BX)
	c.emit(op, regOperand(x86.REG_BX), regOperand(x86.REG_AX))
	if width < 64 {
		mask := int64((uint64(1) << width) - 1)
		c.emit(x86.AANDQ, constOperand(mask), regOperand(x86.REG_AX))
	}
	c.storeResult(assertionIdx, instrIdx, x86.REG_AX)
	return first
}

// compileCompare handles bv_eq, int_eq_zext and bv_ult: an unsigned CMP
// followed by the matching SETcc, zero-extended into a full register.
func (c *compiler) compileCompare(assertionIdx, instrIdx int, instr smtir.Instr, setOp obj.As) *obj.Prog {
	first := c.loadOperandTracked(assertionIdx, instr.Args[0], x86.REG_AX)
	c.loadOperand(assertionIdx, instr.Args[1], x86.REG_BX)
	c.emit(x86.ACMPQ, regOperand(x86.REG_BX), regOperand(x86.REG_AX))
	c.emit(x86.AXORQ, regOperand(x86.REG_AX), regOperand(x86.REG_AX))
	c.emit(setOp, noOperand(), regOperand8(x86.REG_AX))
	c.storeResult(assertionIdx, instrIdx, x86.REG_AX)
	return first
}

// compileSignedLess implements bv_slt the way bvlib.BVSlt does: an unsigned
// compare whose sense flips when the operands' sign bits differ.
func (c *compiler) compileSignedLess(assertionIdx, instrIdx int, instr smtir.Instr) *obj.Prog {
	width := operandWidth(instr.Args[0])
	first := c.loadOperandTracked(assertionIdx, instr.Args[0], x86.REG_AX)
	c.loadOperand(assertionIdx, instr.Args[1], x86.REG_BX)

	// CX := sign(a) XOR sign(b); if set, the unsigned comparison's sense
	// must be inverted (mirrors bvlib.BVSlt's Go implementation exactly).
	c.emit(x86.AMOVQ, regOperand(x86.REG_AX), regOperand(x86.REG_CX))
	c.emit(x86.AXORQ, regOperand(x86.REG_DX), regOperand(x86.REG_DX))
	c.emit(x86.AMOVQ, regOperand(x86.REG_BX), regOperand(x86.REG_DX))
	shift := int64(width - 1)
	c.emit(x86.ASHRQ, constOperand(shift), regOperand(x86.REG_CX))
	c.emit(x86.ASHRQ, constOperand(shift), regOperand(x86.REG_DX))
	c.emit(x86.AXORQ, regOperand(x86.REG_DX), regOperand(x86.REG_CX)) // CX low bit: signs differ

	c.emit(x86.ACMPQ, regOperand(x86.REG_BX), regOperand(x86.REG_AX))
	c.emit(x86.AXORQ, regOperand(x86.REG_DX), regOperand(x86.REG_DX))
	c.emit(x86.ASETCS, noOperand(), regOperand8(x86.REG_DX)) // DX := unsigned a < b

	c.emit(x86.AANDQ, constOperand(1), regOperand(x86.REG_CX))
	c.emit(x86.AXORQ, regOperand(x86.REG_CX), regOperand(x86.REG_DX)) // flip if signs differed

	c.storeResult(assertionIdx, instrIdx, x86.REG_DX)
	return first
}

func (c *compiler) compileConcat(assertionIdx, instrIdx int, instr smtir.Instr) *obj.Prog {
	lowWidth := operandWidth(instr.Args[0])
	first := c.loadOperandTracked(assertionIdx, instr.Args[1], x86.REG_BX) // upper half
	c.loadOperand(assertionIdx, instr.Args[0], x86.REG_AX)                 // lower half
	c.emit(x86.ASHLQ, constOperand(int64(lowWidth)), regOperand(x86.REG_BX))
	c.emit(x86.AORQ, regOperand(x86.REG_BX), regOperand(x86.REG_AX))
	if instr.ResultWidth < 64 {
		mask := int64((uint64(1) << instr.ResultWidth) - 1)
		c.emit(x86.AANDQ, constOperand(mask), regOperand(x86.REG_AX))
	}
	c.storeResult(assertionIdx, instrIdx, x86.REG_AX)
	return first
}

func (c *compiler) compileExtract(assertionIdx, instrIdx int, instr smtir.Instr) *obj.Prog {
	first := c.loadOperandTracked(assertionIdx, instr.Args[0], x86.REG_AX)
	if instr.ExtractFrom > 0 {
		c.emit(x86.ASHRQ, constOperand(int64(instr.ExtractFrom)), regOperand(x86.REG_AX))
	}
	width := instr.ExtractTo - instr.ExtractFrom + 1
	if width < 64 {
		mask := int64((uint64(1) << width) - 1)
		c.emit(x86.AANDQ, constOperand(mask), regOperand(x86.REG_AX))
	}
	c.storeResult(assertionIdx, instrIdx, x86.REG_AX)
	return first
}

// compileSext mirrors bvlib.BVSext: zero-extend unless the sign bit is set,
// in which case OR in the high-bits mask before truncating to the new width.
func (c *compiler) compileSext(assertionIdx, instrIdx int, instr smtir.Instr) *obj.Prog {
	srcWidth := operandWidth(instr.Args[0])
	first := c.loadOperandTracked(assertionIdx, instr.Args[0], x86.REG_AX)

	// BX := (AX >> (srcWidth-1)) & 1 (sign bit), then BX := -BX (all-ones if
	// set, zero otherwise) so it can be used directly as an OR mask shifted
	// into place.
	c.emit(x86.AMOVQ, regOperand(x86.REG_AX), regOperand(x86.REG_BX))
	c.emit(x86.ASHRQ, constOperand(int64(srcWidth-1)), regOperand(x86.REG_BX))
	c.emit(x86.AANDQ, constOperand(1), regOperand(x86.REG_BX))
	c.emit(x86.ANEGQ, noOperand(), regOperand(x86.REG_BX))

	// Mask in the bits at position >= srcWidth only: shift the all-ones (or
	// all-zero) pattern left by srcWidth.
	if srcWidth < 64 {
		c.emit(x86.ASHLQ, constOperand(int64(srcWidth)), regOperand(x86.REG_BX))
		c.emit(x86.AORQ, regOperand(x86.REG_BX), regOperand(x86.REG_AX))
	}
	if instr.ExtWidth < 64 {
		mask := int64((uint64(1) << instr.ExtWidth) - 1)
		c.emit(x86.AANDQ, constOperand(mask), regOperand(x86.REG_AX))
	}
	c.storeResult(assertionIdx, instrIdx, x86.REG_AX)
	return first
}

// compileSelect is the native form of bvlib.BvaSelect: load the array's
// descriptor, clamp the index against Len with a conditional move (never a
// branch — the saturation is unconditional data flow, matching the Go
// implementation's `min`), then load the Bitvector at the clamped offset.
func (c *compiler) compileSelect(assertionIdx, instrIdx int, instr smtir.Instr) *obj.Prog {
	descAddr := instr.Args[0] // ValArrayParam
	idx := instr.Args[1]

	first := c.loadOperandTracked(assertionIdx, descAddr, x86.REG_R8) // R8 := &descriptor
	c.loadOperand(assertionIdx, idx, x86.REG_AX)                      // AX := requested index

	c.emit(x86.AMOVQ, memOperand(x86.REG_R8, 0), regOperand(x86.REG_R9))      // R9 := Base
	c.emit(x86.AMOVQ, memOperand(x86.REG_R8, 8), regOperand(x86.REG_R10))     // R10 := Len
	c.emit(x86.ACMPQ, regOperand(x86.REG_R10), regOperand(x86.REG_AX))
	c.emit(x86.ACMOVQCS, regOperand(x86.REG_AX), regOperand(x86.REG_BX)) // BX := AX if AX < Len ...
	c.emit(x86.ACMOVQCC, regOperand(x86.REG_R10), regOperand(x86.REG_BX)) // ... else Len (saturate)

	c.emit(x86.AIMULQ, constOperand(BitvectorSize), regOperand(x86.REG_BX))
	c.emit(x86.AADDQ, regOperand(x86.REG_BX), regOperand(x86.REG_R9))
	// The Bitvector's Bits field is the third machine word (offset 8):
	// {Width uint32, OccupiedWidth uint32, Bits uint64}.
	c.emit(x86.AMOVQ, memOperand(x86.REG_R9, 8), regOperand(x86.REG_AX))

	c.storeResult(assertionIdx, instrIdx, x86.REG_AX)
	return first
}

func operandWidth(v smtir.Value) uint32 {
	if v.Width == 0 {
		return 64
	}
	return v.Width
}

// --- obj.Addr / emit helpers -------------------------------------------------

func regOperand(r int16) obj.Addr { return obj.Addr{Type: obj.TYPE_REG, Reg: r} }

// byteReg maps a word/qword register constant to its 8-bit sub-register,
// the class SETcc's destination operand requires.
func byteReg(r int16) int16 {
	switch r {
	case x86.REG_AX:
		return x86.REG_AL
	case x86.REG_BX:
		return x86.REG_BL
	case x86.REG_CX:
		return x86.REG_CL
	case x86.REG_DX:
		return x86.REG_DL
	default:
		panic(fmt.Sprintf("jitcodegen: no byte-class register for %v", r))
	}
}

func regOperand8(r int16) obj.Addr { return obj.Addr{Type: obj.TYPE_REG, Reg: byteReg(r)} }
func constOperand(v int64) obj.Addr {
	return obj.Addr{Type: obj.TYPE_CONST, Offset: v}
}
func memOperand(base int16, offset int64) obj.Addr {
	return obj.Addr{Type: obj.TYPE_MEM, Reg: base, Offset: offset}
}
func noOperand() obj.Addr { return obj.Addr{Type: obj.TYPE_NONE} }

// emit appends a two-operand instruction and returns its Prog.
func (c *compiler) emit(as obj.As, args ...obj.Addr) *obj.Prog {
	p := c.base.NewProg()
	p.As = as
	switch len(args) {
	case 0:
	case 1:
		p.To = args[0]
	case 2:
		p.From = args[0]
		p.To = args[1]
	default:
		panic("jitcodegen: emit takes at most 2 operands")
	}
	c.base.AddInstruction(p)
	return p
}

// emitBranch emits a control-flow instruction whose target is resolved
// later via Prog.To.SetTarget once the destination instruction exists.
func (c *compiler) emitBranch(as obj.As) *obj.Prog {
	p := c.base.NewProg()
	p.As = as
	p.To = obj.Addr{Type: obj.TYPE_BRANCH}
	c.base.AddInstruction(p)
	return p
}
