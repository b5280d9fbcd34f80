package fs

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// IgnoreFileName is read from the root of the asset tree. Its patterns are
// added to the configured archive_ignore list.
const IgnoreFileName = ".archiveignore"

// builtinIgnores keep editor and OS litter, and the ignore file itself, out
// of image archives.
var builtinIgnores = []string{IgnoreFileName, ".DS_Store", "Thumbs.db", "*.part"}

type ignoreRule struct {
	glob     string
	fullPath bool // match the whole relative path rather than the base name
	dirOnly  bool // pattern ended in '/': skip the directory and everything below it
}

// IgnoreMatcher decides which asset files are left out of an image archive.
//
// A pattern without '/' is matched against the base name. A pattern
// containing '/' is matched against the slash-separated path relative to the
// tree root. A trailing '/' restricts the pattern to directories.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher compiles raw patterns plus the built-in ones. Blank lines
// and '#' comments are skipped.
func NewIgnoreMatcher(raw []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range append(append([]string{}, builtinIgnores...), raw...) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r := ignoreRule{}
		if strings.HasSuffix(line, "/") {
			r.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		r.glob = strings.TrimPrefix(line, "/")
		r.fullPath = strings.Contains(r.glob, "/") || strings.HasPrefix(line, "/")
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether the file at relPath is ignored.
func (m *IgnoreMatcher) Match(relPath string) bool {
	return m.match(relPath, false)
}

// MatchDir reports whether the directory at relPath is ignored entirely.
func (m *IgnoreMatcher) MatchDir(relPath string) bool {
	return m.match(relPath, true)
}

func (m *IgnoreMatcher) match(relPath string, isDir bool) bool {
	if relPath == "" {
		return false
	}
	base := path.Base(relPath)
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		target := base
		if r.fullPath {
			target = relPath
		}
		// path.Match only fails on malformed patterns; those never match.
		if ok, err := path.Match(r.glob, target); err == nil && ok {
			return true
		}
	}
	return false
}

// ParseIgnoreFile returns the raw lines of an ignore file, or nil if the
// file does not exist.
func ParseIgnoreFile(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
