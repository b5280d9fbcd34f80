package testutil

import (
	"bytes"
	"io"
	"sort"
	"sync"
	"time"

	"hydrantmap/internal/hydrant"
)

// MockAssetTree is an in-memory photo-asset tree.
type MockAssetTree struct {
	mu    sync.Mutex
	files map[string][]byte
	mtime time.Time
	err   error
}

// NewMockAssetTree creates an empty asset tree.
func NewMockAssetTree() *MockAssetTree {
	return &MockAssetTree{
		files: make(map[string][]byte),
		mtime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddFile adds a file at the slash-separated relPath.
func (m *MockAssetTree) AddFile(relPath string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[relPath] = content
}

// FailWith makes every subsequent Walk return err.
func (m *MockAssetTree) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockAssetTree) Walk(fn func(relPath string, size int64, modTime time.Time, r io.Reader) error) error {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return m.err
	}
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	files := make(map[string][]byte, len(m.files))
	for p, c := range m.files {
		files[p] = c
	}
	m.mu.Unlock()

	sort.Strings(paths)
	for _, p := range paths {
		content := files[p]
		if err := fn(p, int64(len(content)), m.mtime, bytes.NewReader(content)); err != nil {
			return err
		}
	}
	return nil
}

// Compile-time check
var _ hydrant.AssetTree = (*MockAssetTree)(nil)
