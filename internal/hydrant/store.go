package hydrant

import (
	"io"
	"time"
)

// Document names used by the service. Names are slash-separated paths
// relative to the data directory.
const (
	DocHydrants    = "hydrants.json"
	DocConfig      = "config.json"
	DocUsers       = "users.json"
	DocMarkerTypes = "marker_types.json"
	SnapshotsDir   = "snapshots"
)

// BackupSuffix is appended to a document's name for the previous-version copy
// taken before every Write.
const BackupSuffix = ".backup"

// DocumentInfo is the filesystem metadata of a stored document.
type DocumentInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// DocumentStore reads and writes whole JSON documents.
//
// Every write is atomic: a concurrent reader observes either the complete
// previous version or the complete new version, never a torn file. The store
// never retries; retry policy belongs to the caller.
type DocumentStore interface {
	// Read decodes the named document into v.
	// Returns ErrNotFound if it does not exist and *DecodeError if the
	// bytes are not valid JSON.
	Read(name string, v any) error

	// Write encodes v and atomically replaces the named document.
	// If a previous version exists it is first copied to name+BackupSuffix;
	// a failed copy is logged and does not abort the write.
	// Returns *IOError on failure, in which case the document is unchanged.
	Write(name string, v any) error

	// Open returns the raw bytes of a document. Returns ErrNotFound if absent.
	Open(name string) (io.ReadCloser, error)

	// WriteStream atomically replaces the named file with whatever fn writes.
	// If fn returns an error nothing is replaced. No backup copy is taken.
	WriteStream(name string, fn func(w io.Writer) error) error

	// Stat returns metadata for a document. Returns ErrNotFound if absent.
	Stat(name string) (*DocumentInfo, error)

	// List returns the documents directly inside dir, sorted by name.
	// In-flight temporary files are never listed. A missing dir yields an
	// empty list.
	List(dir string) ([]*DocumentInfo, error)

	// Remove deletes a document. Returns ErrNotFound if absent.
	Remove(name string) error
}

// AssetTree enumerates the photo-asset tree for image archives.
type AssetTree interface {
	// Walk calls fn for every regular file below the tree root in a stable
	// order. relPath is slash-separated. A missing root is an empty tree.
	Walk(fn func(relPath string, size int64, modTime time.Time, r io.Reader) error) error
}
