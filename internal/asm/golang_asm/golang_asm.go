// Package golang_asm wraps github.com/twitchyliquid64/golang-asm's Builder
// with the narrow slice of its API jitcodegen actually drives: allocate a
// Prog, append it, assemble the final bytes. jitcodegen resolves branch
// targets directly on *obj.Prog (Prog.To.SetTarget), so this wrapper carries
// no Node/jump-table abstraction of its own.
package golang_asm

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
)

// GolangAsmBaseAssembler is a thin handle on a golang-asm Builder.
type GolangAsmBaseAssembler struct {
	b *goasm.Builder
}

func NewGolangAsmBaseAssembler(arch string) (*GolangAsmBaseAssembler, error) {
	b, err := goasm.NewBuilder(arch, 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &GolangAsmBaseAssembler{b: b}, nil
}

// Assemble produces the final binary for the assembled operations.
func (a *GolangAsmBaseAssembler) Assemble() ([]byte, error) {
	return a.b.Assemble(), nil
}

// AddInstruction appends prog to the instruction stream.
func (a *GolangAsmBaseAssembler) AddInstruction(prog *obj.Prog) {
	a.b.AddInstruction(prog)
}

// NewProg allocates a fresh, unattached instruction.
func (a *GolangAsmBaseAssembler) NewProg() *obj.Prog {
	return a.b.NewProg()
}
