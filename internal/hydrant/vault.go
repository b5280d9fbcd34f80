package hydrant

import "io"

// Vault is an off-site object store that receives copies of snapshots.
// Objects are addressed by slash-separated keys such as
// "snapshots/hydrants_2024-01-10.json".
type Vault interface {
	// Put stores the object under key, replacing any previous object.
	// size is the number of bytes that will be read from r.
	Put(key string, r io.Reader, size int64) error

	// Get writes the object stored under key to w.
	// Returns ErrNotFound if no such object exists.
	Get(key string, w io.Writer) error

	// List returns all keys with the given prefix, sorted.
	List(prefix string) ([]string, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup() error
}

// Encryptor encrypts off-site copies. Encryption needs only the public key;
// decryption needs the passphrase that protects the private key.
type Encryptor interface {
	// Setup generates a key pair and protects the private key with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a session DecryptionContext.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
