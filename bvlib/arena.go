package bvlib

import "fmt"

// poolBytes is the arena's fixed 24-bit byte capacity (16 MiB), per the
// fragment's arena sizing contract.
const poolBytes = 1 << 24
const wordBytes = 8

// Arena is a single-threaded bump allocator backing bv_array storage.
// Concurrent use of one Arena from multiple goroutines is undefined, same as
// bvlib's process-global BVContext.
type Arena struct {
	mem  []Word
	next int
}

// NewArena allocates and zeroes a fresh 16 MiB arena.
func NewArena() *Arena {
	a := &Arena{}
	a.Init()
	return a
}

// Init (re)allocates the arena's backing pool and rewinds the bump pointer
// to the start, mirroring bv_init_context.
func (a *Arena) Init() {
	a.mem = make([]Word, poolBytes/wordBytes)
	a.next = 0
}

// Reset zeroes only the used prefix and rewinds the bump pointer, mirroring
// bv_reset_context. Memory beyond the prior high-water mark is left as-is
// (it was already zero and nothing wrote past it).
func (a *Arena) Reset() {
	for i := 0; i < a.next; i++ {
		a.mem[i] = 0
	}
	a.next = 0
}

// Teardown releases the arena's backing storage, mirroring
// bv_teardown_context.
func (a *Arena) Teardown() {
	a.mem = nil
	a.next = 0
}

// remainingWords is the number of Word-sized slots left before exhaustion.
func (a *Arena) remainingWords() int {
	return len(a.mem) - a.next
}

// allocWords bumps the arena by n words and returns them as a zeroed slice
// view into the pool. Arena exhaustion is a precondition violation (fatal),
// per the fragment's error policy.
func (a *Arena) allocWords(n int) []Word {
	if a.remainingWords() < n {
		if !AssertionsEnabled {
			return a.mem[a.next:a.next] // undefined behavior region, release build
		}
		panic(fmt.Sprintf("bvlib: arena exhausted: requested %d words, %d remaining", n, a.remainingWords()))
	}
	start := a.next
	a.next += n
	return a.mem[start:a.next:a.next]
}

// DefaultArena is the package-level arena used by callers that want the
// spec's literal "process-global" arena semantics instead of threading one
// explicitly. It starts uninitialized; call Init before use.
var DefaultArena = &Arena{}
