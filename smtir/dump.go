package smtir

import (
	"fmt"
	"io"
)

// Fprint writes mod's dispatcher and every assertion body as a readable
// text listing, the artifact `-save-temps` produces. The format is
// diagnostic only; nothing parses it back.
func Fprint(w io.Writer, mod *Module) {
	d := mod.Dispatcher
	fmt.Fprintf(w, "dispatcher %s(", d.Name)
	for i, name := range d.ArrayNames {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "%s: arr%d", name, i)
	}
	fmt.Fprintln(w, ") -> i32")
	for i, fn := range d.Assertions {
		fmt.Fprintf(w, "\n; assertion %d\n", i+1)
		FprintFunction(w, fn)
	}
}

// FprintFunction writes one assertion body as a sequence of `%N = op args`
// lines followed by its result value.
func FprintFunction(w io.Writer, fn *Function) {
	fmt.Fprintf(w, "func %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "%s", p.Name)
	}
	inline := ""
	if fn.AlwaysInline {
		inline = " [always_inline]"
	}
	fmt.Fprintf(w, ") -> i32%s\n", inline)

	for i, instr := range fn.Instrs {
		fmt.Fprintf(w, "  %%%d = %s", i, instr.Op)
		switch instr.Op {
		case OpBVMk:
			fmt.Fprintf(w, " w%d %d", instr.MkWidth, instr.Args[0].Bits)
		case OpBVExtract:
			fmt.Fprintf(w, " %s [%d:%d]", fprintValue(instr.Args[0]), instr.ExtractFrom, instr.ExtractTo)
		case OpBVZext, OpBVSext:
			fmt.Fprintf(w, " %s -> w%d", fprintValue(instr.Args[0]), instr.ExtWidth)
		default:
			for j, a := range instr.Args {
				if j > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, " %s", fprintValue(a))
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  ret %s\n", fprintValue(fn.Result))
}

func fprintValue(v Value) string {
	switch v.Kind {
	case ValConst:
		return fmt.Sprintf("(bv%d w%d)", v.Bits, v.Width)
	case ValArrayParam:
		return fmt.Sprintf("arr%d", v.Param)
	default:
		return fmt.Sprintf("%%%d", v.Temp)
	}
}
