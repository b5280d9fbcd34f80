package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		relPath  string
		want     bool
	}{
		{name: "base name glob in root", patterns: []string{"*.tmp"}, relPath: "x.tmp", want: true},
		{name: "base name glob in subdirectory", patterns: []string{"*.tmp"}, relPath: "h-1/x.tmp", want: true},
		{name: "different extension", patterns: []string{"*.tmp"}, relPath: "h-1/photo.jpg", want: false},
		{name: "built-in ignore file", patterns: nil, relPath: ".archiveignore", want: true},
		{name: "built-in OS litter", patterns: nil, relPath: "h-1/.DS_Store", want: true},
		{name: "built-in partial upload", patterns: nil, relPath: "h-1/photo.jpg.part", want: true},
		{name: "path pattern", patterns: []string{"h-1/raw.jpg"}, relPath: "h-1/raw.jpg", want: true},
		{name: "path pattern wrong dir", patterns: []string{"h-1/raw.jpg"}, relPath: "h-2/raw.jpg", want: false},
		{name: "anchored pattern", patterns: []string{"/notes.txt"}, relPath: "notes.txt", want: true},
		{name: "anchored pattern nested", patterns: []string{"/notes.txt"}, relPath: "h-1/notes.txt", want: false},
		{name: "dir pattern does not match file", patterns: []string{"thumbs/"}, relPath: "thumbs", want: false},
		{name: "comment and blank", patterns: []string{"# *.jpg", ""}, relPath: "a.jpg", want: false},
		{name: "malformed pattern never matches", patterns: []string{"[abc"}, relPath: "a", want: false},
		{name: "empty path", patterns: []string{"*"}, relPath: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.relPath); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

func TestIgnoreMatcher_MatchDir(t *testing.T) {
	t.Parallel()
	m := NewIgnoreMatcher([]string{"thumbs/", "cache"})

	for _, dir := range []string{"thumbs", "h-1/thumbs", "cache"} {
		if !m.MatchDir(dir) {
			t.Errorf("MatchDir(%q) = false, want true", dir)
		}
	}
	if m.MatchDir("h-1") {
		t.Error("MatchDir(h-1) = true, want false")
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads raw lines", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), IgnoreFileName)
		if err := os.WriteFile(p, []byte("*.raw\n# originals\n\nthumbs/\n"), 0644); err != nil {
			t.Fatal(err)
		}

		lines, err := ParseIgnoreFile(p)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if len(lines) != 4 {
			t.Fatalf("got %d lines, want 4", len(lines))
		}
		m := NewIgnoreMatcher(lines)
		if len(m.rules) != len(builtinIgnores)+2 {
			t.Errorf("got %d rules, want %d", len(m.rules), len(builtinIgnores)+2)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		lines, err := ParseIgnoreFile(filepath.Join(t.TempDir(), "nope"))
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if lines != nil {
			t.Errorf("ParseIgnoreFile() = %v, want nil", lines)
		}
	})
}
