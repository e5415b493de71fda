package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "diagrams", "class.puml")
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("@startuml"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Canonicalize(file, root)
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	if got != "diagrams/class.puml" {
		t.Errorf("Canonicalize() = %q, want diagrams/class.puml", got)
	}

	missing, err := Canonicalize(filepath.Join(root, "nope.csv"), root)
	if err != nil {
		t.Fatalf("Canonicalize(missing) error = %v", err)
	}
	if missing != "nope.csv" {
		t.Errorf("Canonicalize(missing) = %q", missing)
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a.json"), true},
		{filepath.Join(root, "sub", "b.csv"), true},
		{root, true},
		{filepath.Join(root, "..", "escape.txt"), false},
		{filepath.Join(root, "..", filepath.Base(root)+"x", "f"), false},
		{filepath.Join(root, "..file"), true},
	}
	for _, tt := range tests {
		if got := IsWithin(tt.path, root); got != tt.want {
			t.Errorf("IsWithin(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRunDirAndEnsure(t *testing.T) {
	root := t.TempDir()
	dir := RunDir(root, "0f1e")
	if dir != filepath.Join(root, "0f1e") {
		t.Errorf("RunDir() = %q", dir)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("run dir not created: %v", err)
	}
}
