package smtir

// Prepare tags every assertion function in mod always-inline against the
// instruction-count threshold, playing the role of a module preparer for
// this repo's shape: there is no separate "runtime IR module" to clone
// bodies out of here, because every bvlib primitive this fragment supports
// is small enough to always-inline (see jitcodegen's template table, which
// plays the role of the prepared template module: its entries ship only
// the fixed instruction sequence a call site needs, the native-code
// equivalent of "declaration with an inlinable body"). Prepare is still
// the one place that decides which assertion bodies the dispatcher may
// splice inline versus call.
func Prepare(mod *Module) {
	for _, fn := range mod.Dispatcher.Assertions {
		fn.AlwaysInline = fn.InstrCount() <= AssertionInlineThreshold
	}
}

// Clone deep-copies fn, the way a module preparer clones function bodies
// into a per-formula template before the lowerer appends to it. Used by
// jitcodegen when splicing an always-inline assertion body into the
// dispatcher without mutating the original.
func (f *Function) Clone() *Function {
	clone := &Function{
		Name:         f.Name,
		Params:       append([]Param(nil), f.Params...),
		Instrs:       append([]Instr(nil), f.Instrs...),
		Result:       f.Result,
		AlwaysInline: f.AlwaysInline,
	}
	for i, instr := range clone.Instrs {
		clone.Instrs[i].Args = append([]Value(nil), instr.Args...)
	}
	return clone
}
