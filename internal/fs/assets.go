package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"hydrantmap/internal/hydrant"
)

// OSAssetTree enumerates the photo uploads directory for image archives.
type OSAssetTree struct {
	root     string
	patterns []string
	logger   hydrant.Logger
}

// NewOSAssetTree creates an asset tree rooted at root. patterns are the
// configured archive_ignore entries.
func NewOSAssetTree(root string, patterns []string, logger hydrant.Logger) *OSAssetTree {
	return &OSAssetTree{root: root, patterns: patterns, logger: logger}
}

// Root returns the uploads directory.
func (t *OSAssetTree) Root() string {
	return t.root
}

// Walk calls fn for every regular, non-ignored file in lexical path order.
// Symlinks and special files are skipped. A missing root is an empty tree.
// The ignore file is re-read on every walk.
func (t *OSAssetTree) Walk(fn func(relPath string, size int64, modTime time.Time, r io.Reader) error) error {
	if _, err := os.Stat(t.root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	extra, err := ParseIgnoreFile(filepath.Join(t.root, IgnoreFileName))
	if err != nil {
		return err
	}
	matcher := NewIgnoreMatcher(append(append([]string{}, t.patterns...), extra...))

	skipped := 0
	err = filepath.WalkDir(t.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == t.root {
			return nil
		}
		rel, err := filepath.Rel(t.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || matcher.Match(rel) {
			skipped++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", rel, err)
		}
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("opening %s: %w", rel, err)
		}
		defer f.Close()
		return fn(rel, info.Size(), info.ModTime(), f)
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", t.root, err)
	}
	if skipped > 0 {
		t.logger.Debug("asset files skipped", "root", t.root, "count", skipped)
	}
	return nil
}

// Compile-time check that OSAssetTree implements hydrant.AssetTree interface
var _ hydrant.AssetTree = (*OSAssetTree)(nil)
