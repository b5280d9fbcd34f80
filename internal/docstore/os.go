package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"hydrantmap/internal/hydrant"
)

// tempPrefix starts the name of every in-flight temporary file. Listings
// skip anything beginning with it.
const tempPrefix = "."

// OSDocumentStore stores documents as files below a root directory:
//
//	<root>/
//	  hydrants.json
//	  hydrants.json.backup
//	  config.json
//	  snapshots/
//	    hydrants_2024-01-10.json
//	    images_2024-01-10.zip
//
// It is the only component that touches real paths.
type OSDocumentStore struct {
	root   string
	logger hydrant.Logger
}

// NewOSDocumentStore creates a store rooted at root, creating the directory
// if needed.
func NewOSDocumentStore(root string, logger hydrant.Logger) (*OSDocumentStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &OSDocumentStore{root: root, logger: logger}, nil
}

// Root returns the data directory.
func (s *OSDocumentStore) Root() string {
	return s.root
}

// resolve maps a slash-separated document name to a path below root.
func (s *OSDocumentStore) resolve(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

func (s *OSDocumentStore) Read(name string, v any) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, hydrant.ErrNotFound)
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &hydrant.DecodeError{Name: name, Err: err}
	}
	return nil
}

func (s *OSDocumentStore) Write(name string, v any) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	data, err := encode(v)
	if err != nil {
		return &hydrant.IOError{Op: "encode", Name: name, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &hydrant.IOError{Op: "write", Name: name, Err: err}
	}

	s.backup(name, p)

	return s.writeAtomic(name, p, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// backup copies the current version of a document to its .backup sibling.
// Failure is logged only.
func (s *OSDocumentStore) backup(name, p string) {
	src, err := os.Open(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("backup copy skipped", "document", name, "error", err)
		}
		return
	}
	defer src.Close()

	err = s.writeAtomic(name+hydrant.BackupSuffix, p+hydrant.BackupSuffix, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
	if err != nil {
		s.logger.Warn("backup copy failed", "document", name, "error", err)
	}
}

func (s *OSDocumentStore) Open(name string) (io.ReadCloser, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, hydrant.ErrNotFound)
		}
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

func (s *OSDocumentStore) WriteStream(name string, fn func(w io.Writer) error) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &hydrant.IOError{Op: "write", Name: name, Err: err}
	}
	return s.writeAtomic(name, p, fn)
}

// writeAtomic writes to a temp file in the target's directory, syncs it and
// renames it over the target. The temp file is removed on any failure.
func (s *OSDocumentStore) writeAtomic(name, p string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(p)
	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(p)+".tmp-*")
	if err != nil {
		return &hydrant.IOError{Op: "create temp", Name: name, Err: err}
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := fn(tmp); err != nil {
		tmp.Close()
		return &hydrant.IOError{Op: "write", Name: name, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &hydrant.IOError{Op: "sync", Name: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &hydrant.IOError{Op: "close", Name: name, Err: err}
	}
	if err := os.Rename(tmpPath, p); err != nil {
		return &hydrant.IOError{Op: "rename", Name: name, Err: err}
	}
	success = true

	syncDir(dir)
	return nil
}

// syncDir flushes a directory entry after a rename. Not every platform
// supports syncing a directory, so errors are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}

func (s *OSDocumentStore) Stat(name string) (*hydrant.DocumentInfo, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, hydrant.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", name, hydrant.ErrNotFound)
	}
	return &hydrant.DocumentInfo{Name: name, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (s *OSDocumentStore) List(dir string) ([]*hydrant.DocumentInfo, error) {
	p, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*hydrant.DocumentInfo{}, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	infos := make([]*hydrant.DocumentInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		infos = append(infos, &hydrant.DocumentInfo{
			Name:    path.Join(dir, e.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Remove deletes a document together with its .backup sibling, if any.
func (s *OSDocumentStore) Remove(name string) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, hydrant.ErrNotFound)
		}
		return &hydrant.IOError{Op: "remove", Name: name, Err: err}
	}
	if err := os.Remove(p + hydrant.BackupSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("removing backup copy failed", "document", name, "error", err)
	}
	return nil
}

// encode renders v as indented JSON without HTML escaping, so that titles
// and descriptions stay readable in the files.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compile-time check that OSDocumentStore implements hydrant.DocumentStore
var _ hydrant.DocumentStore = (*OSDocumentStore)(nil)
