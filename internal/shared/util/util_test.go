package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./src/Main.java  ", expected: "src/Main.java"},
		{name: "Relative", input: "src/../lib/a.py", expected: "lib/a.py"},
		{name: "Backslashes", input: `src\main\App.java`, expected: "src/main/App.java"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePatternPath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestRelativePatternPath(t *testing.T) {
	root := filepath.Join("project")
	if got := RelativePatternPath(root, filepath.Join("project", "src", "A.java")); got != "src/A.java" {
		t.Fatalf("expected src/A.java, got %q", got)
	}
	if got := RelativePatternPath(root, filepath.Join("other", "b.py")); got != "other/b.py" {
		t.Fatalf("expected other/b.py, got %q", got)
	}
}

func TestContainsPathSeparator(t *testing.T) {
	if ContainsPathSeparator("*.java") {
		t.Fatal("basename pattern reported as path pattern")
	}
	if !ContainsPathSeparator("gen/*.java") || !ContainsPathSeparator(`gen\*.java`) {
		t.Fatal("path pattern not detected")
	}
}

func TestSortedStringKeys(t *testing.T) {
	got := SortedStringKeys(map[string]int{"python": 1, "java": 2})
	if len(got) != 2 || got[0] != "java" || got[1] != "python" {
		t.Fatalf("unexpected key order %v", got)
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("class A {}"))
	if a != ContentHash([]byte("class A {}")) {
		t.Fatal("hash is not stable")
	}
	if a == ContentHash([]byte("class B {}")) {
		t.Fatal("different content produced the same hash")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
}

func TestWriteStringWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "A.java.txt")

	if err := WriteStringWithDirs(path, "class A {\n}\n", 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "class A {\n}\n" {
		t.Fatalf("unexpected content %q", string(got))
	}
}
