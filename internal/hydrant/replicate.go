package hydrant

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// encryptedSuffix marks vault objects that were encrypted before upload.
const encryptedSuffix = ".age"

// ErrSnapshotExists is returned by Pull when the local snapshot for the
// requested date already exists.
var ErrSnapshotExists = errors.New("snapshot already exists locally")

// Replicator copies snapshots and their image archives to and from an
// off-site Vault.
type Replicator struct {
	store     DocumentStore
	vault     Vault
	encryptor Encryptor
	logger    Logger
}

// NewReplicator creates a Replicator. encryptor may be nil, in which case
// objects are uploaded in plaintext.
func NewReplicator(store DocumentStore, vault Vault, encryptor Encryptor, logger Logger) *Replicator {
	return &Replicator{
		store:     store,
		vault:     vault,
		encryptor: encryptor,
		logger:    logger,
	}
}

func (r *Replicator) key(filename string) string {
	key := path.Join(SnapshotsDir, filename)
	if r.encryptor != nil {
		key += encryptedSuffix
	}
	return key
}

// Push uploads the snapshot for date and, if present, its image archive.
// It returns the vault keys written.
func (r *Replicator) Push(date string) ([]string, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	if _, err := r.store.Stat(snapshotName(date)); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", date, err)
	}
	files := []string{SnapshotFilename(date)}
	if _, err := r.store.Stat(archiveName(date)); err == nil {
		files = append(files, ArchiveFilename(date))
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking image archive %s: %w", date, err)
	}

	var keys []string
	for _, filename := range files {
		key := r.key(filename)
		if err := r.pushFile(path.Join(SnapshotsDir, filename), key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	r.logger.Info("snapshot pushed off-site", "date", date, "objects", len(keys), "encrypted", r.encryptor != nil)
	return keys, nil
}

func (r *Replicator) pushFile(name, key string) error {
	src, err := r.store.Open(name)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer src.Close()

	// The vault needs the object size up front, and ciphertext size is only
	// known after encrypting.
	var buf bytes.Buffer
	if r.encryptor != nil {
		if err := r.encryptor.Encrypt(src, &buf); err != nil {
			return fmt.Errorf("encrypting %s: %w", name, err)
		}
	} else if _, err := io.Copy(&buf, src); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}

	size := int64(buf.Len())
	if err := r.vault.Put(key, &buf, size); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// Pull downloads the snapshot for date, and its image archive if the vault
// has one, into the local snapshots directory. dec is required when the
// objects were encrypted. An existing local snapshot is never overwritten.
func (r *Replicator) Pull(date string, dec DecryptionContext) ([]string, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	if _, err := r.store.Stat(snapshotName(date)); err == nil {
		return nil, fmt.Errorf("pulling %s: %w", date, ErrSnapshotExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking snapshot %s: %w", date, err)
	}

	keys, err := r.vault.List(SnapshotsDir + "/")
	if err != nil {
		return nil, fmt.Errorf("listing vault: %w", err)
	}

	snapKey, ok := findKey(keys, SnapshotFilename(date))
	if !ok {
		return nil, fmt.Errorf("snapshot %s in vault: %w", date, ErrNotFound)
	}
	pulled := []string{snapKey}
	if archiveKey, ok := findKey(keys, ArchiveFilename(date)); ok {
		pulled = append([]string{archiveKey}, pulled...)
	}

	// Archive first so that a pulled snapshot never claims images that are
	// not on disk yet.
	for _, key := range pulled {
		if err := r.pullFile(key, dec); err != nil {
			return nil, err
		}
	}
	r.logger.Info("snapshot pulled from off-site", "date", date, "objects", len(pulled))
	return pulled, nil
}

func findKey(keys []string, filename string) (string, bool) {
	plain := path.Join(SnapshotsDir, filename)
	return lo.Find(keys, func(k string) bool {
		return k == plain || k == plain+encryptedSuffix
	})
}

func (r *Replicator) pullFile(key string, dec DecryptionContext) error {
	var buf bytes.Buffer
	if err := r.vault.Get(key, &buf); err != nil {
		return fmt.Errorf("downloading %s: %w", key, err)
	}

	encrypted := strings.HasSuffix(key, encryptedSuffix)
	if encrypted && dec == nil {
		return fmt.Errorf("%s is encrypted and no decryption key was unlocked", key)
	}

	name := strings.TrimSuffix(key, encryptedSuffix)
	err := r.store.WriteStream(name, func(w io.Writer) error {
		if encrypted {
			return dec.Decrypt(&buf, w)
		}
		_, err := io.Copy(w, &buf)
		return err
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Remote returns the snapshot dates available in the vault, newest first.
func (r *Replicator) Remote() ([]string, error) {
	keys, err := r.vault.List(SnapshotsDir + "/")
	if err != nil {
		return nil, fmt.Errorf("listing vault: %w", err)
	}
	dates := lo.Uniq(lo.FilterMap(keys, func(k string, _ int) (string, bool) {
		return snapshotDate(strings.TrimSuffix(path.Base(k), encryptedSuffix))
	}))
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}
