package jitcodegen

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/kuhar/smt-jit/internal/asm"
	"github.com/kuhar/smt-jit/internal/asmentry"
	"github.com/kuhar/smt-jit/internal/platform"
	"github.com/kuhar/smt-jit/smtir"
)

// Engine is the JIT driver: create(), add_module(), lookup(). It owns one
// mmap'd asm.CodeSegment per added module (one executable mapping per
// compiled unit, released on Close).
type Engine struct {
	mu      sync.Mutex
	modules map[string]*compiledModule
}

type compiledModule struct {
	segment *asm.CodeSegment
	entry   uintptr
}

// Create initializes a JIT engine. There is no separate "native target /
// data layout" step here; this backend is amd64-only and that choice is
// made at compile time by the build's GOARCH, so Create has nothing left
// to configure beyond allocating the module table.
func Create() *Engine {
	return &Engine{modules: map[string]*compiledModule{}}
}

// AddModule compiles mod to native code, maps it executable, and registers
// its dispatcher under mod.Dispatcher.Name for Lookup.
func (e *Engine) AddModule(mod *smtir.Module) error {
	code, err := Compile(mod)
	if err != nil {
		return fmt.Errorf("jitcodegen: compiling %s: %w", mod.Dispatcher.Name, err)
	}

	seg := &asm.CodeSegment{}
	buf := seg.Next()
	if _, err := buf.Write(code); err != nil {
		return fmt.Errorf("jitcodegen: writing code segment: %w", err)
	}

	if err := platform.MprotectExec(seg.Bytes()); err != nil {
		seg.Unmap()
		return fmt.Errorf("jitcodegen: marking code executable: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.modules[mod.Dispatcher.Name] = &compiledModule{segment: seg, entry: seg.Addr()}
	return nil
}

// Lookup resolves name (an smt_N dispatcher) to a callable function.
func (e *Engine) Lookup(name string) (func(frame []ArrayDescriptor) int32, error) {
	e.mu.Lock()
	m, ok := e.modules[name]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("jitcodegen: no module named %q", name)
	}
	entry := m.entry
	return func(frame []ArrayDescriptor) int32 {
		var framePtr uintptr
		if len(frame) > 0 {
			framePtr = uintptr(unsafe.Pointer(&frame[0]))
		}
		return asmentry.CallSMTFunc(entry, framePtr)
	}, nil
}

// Close releases every mapped code segment. The driver calls this once per
// run, mirroring bvlib's arena Teardown — native code pages are a resource
// just like the arena's backing array.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	for name, m := range e.modules {
		if err := m.segment.Unmap(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("jitcodegen: unmapping %s: %w", name, err)
		}
	}
	e.modules = map[string]*compiledModule{}
	return firstErr
}
