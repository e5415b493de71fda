// Package testutil provides golden-file helpers for tests of generated text.
package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden controls whether golden files should be updated.
// Use: go test ./internal/diagram -run Golden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// CompareGolden compares got against the golden file at path, failing with a
// diff on mismatch. Line endings are normalized before comparison.
// If -update flag is set, updates the golden file instead of comparing.
func CompareGolden(t *testing.T, path string, got []byte) {
	t.Helper()

	got = normalizeNewlines(got)
	if *updateGolden {
		UpdateGolden(t, path, got)
		t.Logf("Updated golden: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				path, string(got), t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if expected = normalizeNewlines(expected); !bytes.Equal(got, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\nRun with -update to refresh:\n  go test ./... -run %s -update",
			filepath.Base(path), firstDifference(string(expected), string(got)), t.Name())
	}
}

// UpdateGolden writes data to the golden file.
// Creates parent directories if they don't exist.
func UpdateGolden(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create golden directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write golden file: %v", err)
	}
}

func normalizeNewlines(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
}

// contextLines is how many matching lines surround the first difference.
const contextLines = 2

// firstDifference renders the region around the first line where expected and
// got diverge, marking expected lines with "-" and got lines with "+".
func firstDifference(expected, got string) string {
	want := strings.Split(expected, "\n")
	have := strings.Split(got, "\n")

	line := 0
	for line < len(want) && line < len(have) && want[line] == have[line] {
		line++
	}
	if line == len(want) && line == len(have) {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "first difference at line %d\n", line+1)
	for i := max(0, line-contextLines); i < line; i++ {
		fmt.Fprintf(&b, "  %s\n", want[i])
	}
	for i := line; i < min(len(want), line+contextLines+1); i++ {
		fmt.Fprintf(&b, "- %s\n", want[i])
	}
	for i := line; i < min(len(have), line+contextLines+1); i++ {
		fmt.Fprintf(&b, "+ %s\n", have[i])
	}
	return b.String()
}
