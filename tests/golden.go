// Package tests holds helpers shared by the tests of several packages.
package tests

import (
	"bytes"
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

var updateGolden = flag.Bool("update", false, "update golden files")

// Golden compares got with the content of the golden file at path. With
// -update, the golden file is written instead. Tests are skipped when the
// golden file doesn't exist yet.
func Golden(tb testing.TB, path string, got []byte) {
	tb.Helper()

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			tb.Fatal(err)
		}
		if err := os.WriteFile(path, got, 0644); err != nil {
			tb.Fatal(err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		tb.Skipf("golden file %s not found, run with -update to create it", path)
	}
	if err != nil {
		tb.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		tb.Fatalf("output differs from golden file %s (run with -update to accept it)", path)
	}
}
