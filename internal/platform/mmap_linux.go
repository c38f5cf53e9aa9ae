//go:build linux

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapCodeSegment allocates an anonymous, executable memory mapping large
// enough to hold size bytes of native code. The mapping starts writable so
// the JIT backend can fill it in, then must be made executable by the
// caller once code generation is done (see Mprotect).
func MmapCodeSegment(size int) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("mmap: zero-sized code segment requested")
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return b, nil
}

// MunmapCodeSegment releases a mapping previously returned by
// MmapCodeSegment.
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		return nil
	}
	if err := unix.Munmap(code); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// RemapCodeSegment grows (or shrinks) an existing code-segment mapping to
// newSize bytes, preserving its contents.
func RemapCodeSegment(code []byte, newSize int) ([]byte, error) {
	if code == nil {
		return MmapCodeSegment(newSize)
	}
	b, err := unix.Mremap(code, newSize, unix.MREMAP_MAYMOVE)
	if err != nil {
		return nil, fmt.Errorf("mremap: %w", err)
	}
	return b, nil
}

// MprotectExec flips a code segment previously written to by the JIT
// backend from read-write to read-execute, as required before any native
// call into it.
func MprotectExec(code []byte) error {
	if len(code) == 0 {
		return nil
	}
	if err := unix.Mprotect(code, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("mprotect: %w", err)
	}
	return nil
}
