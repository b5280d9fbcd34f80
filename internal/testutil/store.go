package testutil

import (
	"errors"
	"io"
	"strings"
	"sync"

	"hydrantmap/internal/docstore"
	"hydrantmap/internal/hydrant"
)

// ErrInjected is the cause wrapped by every failure a FailingStore injects.
var ErrInjected = errors.New("injected failure")

// NewTestStore creates an in-memory document store whose modification
// times come from clock.
func NewTestStore(clock hydrant.Clock) *docstore.MemoryDocumentStore {
	return docstore.NewMemoryDocumentStore(clock)
}

// FailingStore wraps a DocumentStore and fails writes or removals of
// documents whose name starts with one of the configured prefixes.
type FailingStore struct {
	hydrant.DocumentStore

	mu           sync.Mutex
	failWrites   []string
	failRemovals []string
	writes       []string
}

// NewFailingStore wraps inner. Until a prefix is registered every call is
// passed through.
func NewFailingStore(inner hydrant.DocumentStore) *FailingStore {
	return &FailingStore{DocumentStore: inner}
}

// FailWrites makes Write and WriteStream fail for names with prefix.
func (s *FailingStore) FailWrites(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = append(s.failWrites, prefix)
}

// FailRemovals makes Remove fail for names with prefix.
func (s *FailingStore) FailRemovals(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRemovals = append(s.failRemovals, prefix)
}

// Writes returns the names of all successful writes, in order.
func (s *FailingStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *FailingStore) matches(prefixes []string, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (s *FailingStore) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, name)
}

func (s *FailingStore) Write(name string, v any) error {
	if s.matches(s.failWrites, name) {
		return &hydrant.IOError{Op: "write", Name: name, Err: ErrInjected}
	}
	if err := s.DocumentStore.Write(name, v); err != nil {
		return err
	}
	s.record(name)
	return nil
}

func (s *FailingStore) WriteStream(name string, fn func(w io.Writer) error) error {
	if s.matches(s.failWrites, name) {
		return &hydrant.IOError{Op: "write", Name: name, Err: ErrInjected}
	}
	if err := s.DocumentStore.WriteStream(name, fn); err != nil {
		return err
	}
	s.record(name)
	return nil
}

func (s *FailingStore) Remove(name string) error {
	if s.matches(s.failRemovals, name) {
		return &hydrant.IOError{Op: "remove", Name: name, Err: ErrInjected}
	}
	return s.DocumentStore.Remove(name)
}

// Compile-time check
var _ hydrant.DocumentStore = (*FailingStore)(nil)
