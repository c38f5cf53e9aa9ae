package smtdriver

// Options configures one driver run: the per-file driver loop plus its
// `--no-opt` optimization-pipeline switch and the benchmark-mode
// arena-reset knob.
type Options struct {
	// NoOpt skips smtir.Optimize for every compiled assertion, matching
	// the JIT driver's `--no-opt` flag.
	NoOpt bool

	// SaveTemps, when set, writes the lowered-and-optimized IR for each
	// input to TempDir as "<basename>.ir" before compiling it.
	SaveTemps bool

	// TempDir is where SaveTemps writes its artifacts; ignored otherwise.
	TempDir string

	// Benchmark resets the arena between assignments instead of tearing it
	// down, so repeated runs over the same formula don't re-pay allocation
	// cost.
	Benchmark bool

	// Iterations repeats evaluation of every assignment this many times in
	// Benchmark mode; ignored otherwise. Zero means one pass.
	Iterations int
}
