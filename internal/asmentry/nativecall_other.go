//go:build !amd64

package asmentry

// CallSMTFunc has no implementation outside amd64: jitcodegen.Compile only
// targets amd64, so there is nothing a non-amd64 build could call into.
func CallSMTFunc(entry uintptr, framePtr uintptr) int32 {
	panic("asmentry: native JIT calls are only supported on amd64")
}
