package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"hydrantmap/internal/hydrant"
)

type memoryDoc struct {
	data    []byte
	modTime time.Time
}

// MemoryDocumentStore keeps documents in a map, making it useful for tests.
// This implementation is safe for concurrent use.
type MemoryDocumentStore struct {
	mu    sync.RWMutex
	docs  map[string]memoryDoc
	clock hydrant.Clock
}

// NewMemoryDocumentStore creates an empty in-memory store. Modification
// times come from clock; nil means the real clock.
func NewMemoryDocumentStore(clock hydrant.Clock) *MemoryDocumentStore {
	if clock == nil {
		clock = hydrant.RealClock{}
	}
	return &MemoryDocumentStore{
		docs:  make(map[string]memoryDoc),
		clock: clock,
	}
}

func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// PutRaw stores bytes under name as is, bypassing JSON encoding. Tests use
// it to plant corrupt documents.
func (s *MemoryDocumentStore) PutRaw(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[cleanName(name)] = memoryDoc{data: bytes.Clone(data), modTime: s.clock.Now()}
}

// Raw returns the stored bytes of a document.
func (s *MemoryDocumentStore) Raw(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[cleanName(name)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(doc.data), true
}

func (s *MemoryDocumentStore) Read(name string, v any) error {
	data, ok := s.Raw(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, hydrant.ErrNotFound)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &hydrant.DecodeError{Name: name, Err: err}
	}
	return nil
}

func (s *MemoryDocumentStore) Write(name string, v any) error {
	data, err := encode(v)
	if err != nil {
		return &hydrant.IOError{Op: "encode", Name: name, Err: err}
	}
	key := cleanName(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.docs[key]; ok {
		s.docs[key+hydrant.BackupSuffix] = prev
	}
	s.docs[key] = memoryDoc{data: data, modTime: s.clock.Now()}
	return nil
}

func (s *MemoryDocumentStore) Open(name string) (io.ReadCloser, error) {
	data, ok := s.Raw(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, hydrant.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryDocumentStore) WriteStream(name string, fn func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return &hydrant.IOError{Op: "write", Name: name, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[cleanName(name)] = memoryDoc{data: buf.Bytes(), modTime: s.clock.Now()}
	return nil
}

func (s *MemoryDocumentStore) Stat(name string) (*hydrant.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[cleanName(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, hydrant.ErrNotFound)
	}
	return &hydrant.DocumentInfo{Name: name, Size: int64(len(doc.data)), ModTime: doc.modTime}, nil
}

func (s *MemoryDocumentStore) List(dir string) ([]*hydrant.DocumentInfo, error) {
	dir = cleanName(dir)
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := []*hydrant.DocumentInfo{}
	for key, doc := range s.docs {
		if path.Dir(key) != dir && !(dir == "" && path.Dir(key) == ".") {
			continue
		}
		infos = append(infos, &hydrant.DocumentInfo{Name: key, Size: int64(len(doc.data)), ModTime: doc.modTime})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Remove deletes a document together with its .backup sibling, if any.
func (s *MemoryDocumentStore) Remove(name string) error {
	key := cleanName(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; !ok {
		return fmt.Errorf("%s: %w", name, hydrant.ErrNotFound)
	}
	delete(s.docs, key)
	delete(s.docs, key+hydrant.BackupSuffix)
	return nil
}

// Len returns the number of stored documents, backups included.
func (s *MemoryDocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Compile-time check that MemoryDocumentStore implements hydrant.DocumentStore
var _ hydrant.DocumentStore = (*MemoryDocumentStore)(nil)
