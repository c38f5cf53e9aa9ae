//go:build amd64

// Package asmentry is the hand-written entrypoint that crosses from Go into
// mmap'd native code and back, the same role wazero's nativecall function
// plays for its compiler engine: Go can't CALL into an arbitrary code
// address directly, so a small assembly stub loads the two arguments into
// the registers the JIT-compiled function expects and issues the call.
package asmentry

// CallSMTFunc invokes the compiled smt_N dispatcher at entry, passing
// framePtr (a pointer to a contiguous []jitcodegen.ArrayDescriptor) the way
// jitcodegen.Compile's prologue expects it: in DI. Implemented in
// nativecall_amd64.s.
func CallSMTFunc(entry uintptr, framePtr uintptr) int32
