// Command smtjit parses QF_AUFBV SMT-LIB2 formulas, JIT-compiles each one to
// native amd64 code, and evaluates its candidate assignments against the
// compiled dispatcher.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kuhar/smt-jit/smtdriver"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "Prints usage.")

	var noOpt bool
	flag.BoolVar(&noOpt, "no-opt", false, "Skips the instruction-combining/CSE/dead-code optimization pipeline.")

	var saveTemps bool
	flag.BoolVar(&saveTemps, "save-temps", false, "Writes each input's lowered IR to -temp-dir as <name>.ir.")

	var tempDir string
	flag.StringVar(&tempDir, "temp-dir", ".", "Directory -save-temps writes IR listings to.")

	var benchmark bool
	flag.BoolVar(&benchmark, "benchmark", false, "Runs every assignment -iterations times and reports elapsed time instead of printing per-assignment results.")

	var iterations int
	flag.IntVar(&iterations, "iterations", 1, "Number of benchmark passes per input; ignored unless -benchmark is set.")

	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		return 0
	}

	opts := smtdriver.Options{
		NoOpt:      noOpt,
		SaveTemps:  saveTemps,
		TempDir:    tempDir,
		Benchmark:  benchmark,
		Iterations: iterations,
	}

	rc := 0
	for _, path := range flag.Args() {
		if code := runFile(opts, path, stdOut, stdErr); code != 0 {
			rc = code
		}
	}
	return rc
}

func runFile(opts smtdriver.Options, path string, stdOut, stdErr io.Writer) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stdErr, "%s: error opening input: %v\n", path, err)
		return 1
	}
	defer f.Close()

	d := smtdriver.New(opts)
	defer d.Close()

	start := time.Now()
	results, err := d.Run(f, path)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(stdErr, "%s: %v\n", path, err)
		return 2
	}

	if opts.Benchmark {
		iterations := opts.Iterations
		if iterations < 1 {
			iterations = 1
		}
		fmt.Fprintf(stdOut, "%s: %d assignment(s) x %d iteration(s) in %s\n", path, len(results), iterations, elapsed)
		return 0
	}

	for _, r := range results {
		printResult(stdOut, path, r)
	}
	return 0
}

func printResult(w io.Writer, path string, r smtdriver.AssignmentResult) {
	switch {
	case r.Rejected != nil:
		fmt.Fprintf(w, "%s: assignment %d: rejected: %v\n", path, r.Index, r.Rejected)
	case r.Models:
		fmt.Fprintf(w, "%s: assignment %d: models\n", path, r.Index)
	default:
		fmt.Fprintf(w, "%s: assignment %d: fails assertion %d\n", path, r.Index, r.FailingAssertion)
	}
}

func printUsage(stdErr io.Writer) {
	fmt.Fprintln(stdErr, "smtjit CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  smtjit <options> <path to smt2 file> [more paths...]")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flag.PrintDefaults()
}
