//go:build !linux

package platform

import "fmt"

// MmapCodeSegment is unsupported outside Linux: the JIT backend is amd64/Linux
// only (the fragment this system targets never needs portability beyond the
// benchmarking host).
func MmapCodeSegment(size int) ([]byte, error) {
	return nil, fmt.Errorf("mmap: unsupported platform")
}

func MunmapCodeSegment(code []byte) error {
	return fmt.Errorf("munmap: unsupported platform")
}

func RemapCodeSegment(code []byte, newSize int) ([]byte, error) {
	return nil, fmt.Errorf("mremap: unsupported platform")
}

func MprotectExec(code []byte) error {
	return fmt.Errorf("mprotect: unsupported platform")
}
