package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixture = `(declare-fun arg00 () (Array (_ BitVec 32) (_ BitVec 8)))
(assert (= (_ bv1 8) (select arg00 (_ bv0 32))))
; { "arg00": [1, 2, 3] }
; { "arg00": [9] }
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "formula.smt2")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

func TestDoMainNoArgsPrintsUsage(t *testing.T) {
	resetFlags()
	var stdOut, stdErr bytes.Buffer
	os.Args = []string{"smtjit"}
	rc := doMain(&stdOut, &stdErr)
	require.Equal(t, 0, rc)
	require.Contains(t, stdErr.String(), "Usage")
}

func TestDoMainMissingFile(t *testing.T) {
	resetFlags()
	var stdOut, stdErr bytes.Buffer
	os.Args = []string{"smtjit", filepath.Join(t.TempDir(), "missing.smt2")}
	rc := doMain(&stdOut, &stdErr)
	require.Equal(t, 1, rc)
}

func TestDoMainEndToEnd(t *testing.T) {
	resetFlags()
	path := writeFixture(t)

	var stdOut, stdErr bytes.Buffer
	os.Args = []string{"smtjit", path}
	rc := doMain(&stdOut, &stdErr)
	require.Equal(t, 0, rc)
	require.Empty(t, stdErr.String())
	require.Contains(t, stdOut.String(), "assignment 0: models")
	require.Contains(t, stdOut.String(), "assignment 1: fails assertion 1")
}

func TestDoMainSaveTemps(t *testing.T) {
	resetFlags()
	path := writeFixture(t)
	tempDir := t.TempDir()

	var stdOut, stdErr bytes.Buffer
	os.Args = []string{"smtjit", "-save-temps", "-temp-dir", tempDir, path}
	rc := doMain(&stdOut, &stdErr)
	require.Equal(t, 0, rc)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// resetFlags undoes flag.Parse's effect between subtests sharing the
// package-global flag.CommandLine, so each subtest can re-parse its own
// argv from a clean flag set.
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
}
