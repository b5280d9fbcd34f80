package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied by NewConfig and by the accessors when a field is empty.
const (
	DefaultListen             = "127.0.0.1:8080"
	DefaultTokenTTL           = 12 * time.Hour
	DefaultLoginRatePerMinute = 10
)

// Config represents the process configuration for hydrantmap.
// Runtime snapshot settings live in the config.json document instead,
// because administrators change them through the API.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	DataDir    string           `toml:"data_dir"`
	UploadsDir string           `toml:"uploads_dir"`
	LogDir     string           `toml:"log_dir"`
	Timezone   string           `toml:"timezone,omitempty"` // IANA name; empty means the host's local zone
	Store      StoreConfig      `toml:"store"`
	Server     ServerConfig     `toml:"server"`
	Offsite    OffsiteConfig    `toml:"offsite"`
	Encryption EncryptionConfig `toml:"encryption"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// StoreConfig selects the document store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "filesystem" (default) or "memory"
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Listen             string `toml:"listen"`
	JWTSecret          string `toml:"jwt_secret"`
	TokenTTL           string `toml:"token_ttl,omitempty"` // Go duration, e.g. "12h"
	LoginRatePerMinute int    `toml:"login_rate_per_minute,omitempty"`
}

// OffsiteConfig controls replication of snapshots to a vault.
type OffsiteConfig struct {
	Enabled bool        `toml:"enabled"`
	Encrypt bool        `toml:"encrypt"`
	Vault   VaultConfig `toml:"vault"`
}

// EncryptionConfig holds paths to the age key pair used for off-site copies.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// FilesystemConfig holds settings for the photo-asset tree.
type FilesystemConfig struct {
	// ArchiveIgnore lists patterns excluded from image archives.
	ArchiveIgnore []string `toml:"archive_ignore"`
}

// VaultConfig represents configuration for an off-site vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // for S3-compatible services

	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// NewConfig creates a new Config with directories below baseDir and default
// server settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:    baseDir,
		DataDir:    filepath.Join(baseDir, "data"),
		UploadsDir: filepath.Join(baseDir, "uploads"),
		LogDir:     filepath.Join(baseDir, "log"),
		Store:      StoreConfig{Type: "filesystem"},
		Server: ServerConfig{
			Listen:             DefaultListen,
			TokenTTL:           DefaultTokenTTL.String(),
			LoginRatePerMinute: DefaultLoginRatePerMinute,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "hydrantmap.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "hydrantmap.key"),
		},
	}
}

// Location returns the time zone whose calendar defines snapshot dates.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TokenLifetime returns the lifetime of issued admin tokens.
func (s ServerConfig) TokenLifetime() (time.Duration, error) {
	if s.TokenTTL == "" {
		return DefaultTokenTTL, nil
	}
	d, err := time.ParseDuration(s.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid token_ttl %q: %w", s.TokenTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("token_ttl must be positive, got %s", s.TokenTTL)
	}
	return d, nil
}

// LoginRate returns the allowed login attempts per minute per client.
func (s ServerConfig) LoginRate() int {
	if s.LoginRatePerMinute <= 0 {
		return DefaultLoginRatePerMinute
	}
	return s.LoginRatePerMinute
}

// ListenAddr returns the address the HTTP server binds to.
func (s ServerConfig) ListenAddr() string {
	if s.Listen == "" {
		return DefaultListen
	}
	return s.Listen
}

// Validate checks settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if c.DataDir == "" && c.Store.Type != "memory" {
		return fmt.Errorf("data_dir must be set")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Server.TokenLifetime(); err != nil {
		return err
	}
	if c.Offsite.Enabled && c.Offsite.Vault.Type == "" {
		return fmt.Errorf("offsite is enabled but no vault type is set")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to path with owner-only permissions, since it
// carries the JWT secret.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file at path. It refuses to overwrite an
// existing one.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
