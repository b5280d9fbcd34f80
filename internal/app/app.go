package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"hydrantmap/internal/auth"
	"hydrantmap/internal/config"
	"hydrantmap/internal/docstore"
	"hydrantmap/internal/encryption"
	"hydrantmap/internal/fs"
	"hydrantmap/internal/httpapi"
	"hydrantmap/internal/hydrant"
	"hydrantmap/internal/vault"
)

// App is the application layer between the CLI and the hydrant service.
// It constructs all dependencies from config and exposes the operations the
// CLI and the HTTP server need. The caller must call Close when done.
type App struct {
	cfg        *config.Config
	clock      hydrant.Clock
	store      hydrant.DocumentStore
	service    *hydrant.Service
	encryptor  hydrant.Encryptor
	vault      hydrant.Vault
	replicator *hydrant.Replicator
	users      *auth.Users
	op         *Operation
	logger     hydrant.Logger
	logFile    *os.File
}

// Option customizes NewApp.
type Option func(*options)

type options struct {
	clock   hydrant.Clock
	console io.Writer
	level   slog.Level
}

// WithClock replaces the real clock.
func WithClock(c hydrant.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithConsole sets where log lines are mirrored besides the log file.
// nil disables mirroring.
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// WithLogLevel sets the minimum level written to the log.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "SnapshotCreate", "Serve").
func NewApp(cfg *config.Config, operation string, opts ...Option) (*App, error) {
	o := options{clock: hydrant.RealClock{}, console: os.Stderr, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	op := NewOperation(operation, o.clock.Now())
	sl, logFile, err := newLogger(cfg.LogDir, op.ID, o.level, o.console)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	store, err := docstore.NewDocumentStoreFromConfig(cfg, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating document store: %w", err)
	}

	var assets hydrant.AssetTree
	if cfg.UploadsDir != "" {
		assets = fs.NewOSAssetTree(cfg.UploadsDir, cfg.Filesystem.ArchiveIgnore, logger)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	a := &App{
		cfg:       cfg,
		clock:     o.clock,
		store:     store,
		service:   hydrant.NewService(store, assets, logger, o.clock, hydrant.UUIDGenerator{}, loc),
		encryptor: enc,
		users:     auth.NewUsers(store, o.clock),
		op:        op,
		logger:    logger,
		logFile:   logFile,
	}

	if cfg.Offsite.Enabled {
		v, err := vault.NewVaultFromConfig(context.Background(), cfg.Offsite.Vault)
		if err != nil {
			logFile.Close()
			return nil, fmt.Errorf("creating off-site vault: %w", err)
		}
		var pushEnc hydrant.Encryptor
		if cfg.Offsite.Encrypt {
			pushEnc = enc
		}
		a.vault = v
		a.replicator = hydrant.NewReplicator(store, v, pushEnc, logger)
	}

	logger.Debug("operation started", "operation", operation)
	return a, nil
}

// Service returns the wired hydrant service.
func (a *App) Service() *hydrant.Service {
	return a.service
}

// Operation returns the operation this App was created for.
func (a *App) Operation() *Operation {
	return a.op
}

// CreateSnapshot takes a manual snapshot. A nil backupImages uses the
// configured default. When off-site replication is enabled the new snapshot
// is pushed; a failed push is logged and does not fail the call.
func (a *App) CreateSnapshot(actor string, backupImages *bool) (*hydrant.SnapshotInfo, error) {
	var images bool
	if backupImages != nil {
		images = *backupImages
	} else {
		settings, err := a.service.SnapshotSettings()
		if err != nil {
			return nil, err
		}
		images = settings.BackupImages
	}

	info, err := a.service.CreateSnapshot(actor, images)
	if err != nil {
		return nil, err
	}
	a.pushBestEffort(info)
	return info, nil
}

func (a *App) pushBestEffort(info *hydrant.SnapshotInfo) {
	if a.replicator == nil {
		return
	}
	if _, err := a.replicator.Push(info.Date); err != nil {
		a.logger.Warn("off-site push failed", "date", info.Date, "error", err)
	}
}

// RestoreSnapshot restores the snapshot for date as actor.
func (a *App) RestoreSnapshot(date, actor string) (*hydrant.RestoreResult, error) {
	return a.service.RestoreSnapshot(date, actor)
}

var errOffsiteDisabled = errors.New("off-site replication is not enabled in the config")

// OffsitePush uploads the snapshot for date to the vault.
func (a *App) OffsitePush(date string) ([]string, error) {
	if a.replicator == nil {
		return nil, errOffsiteDisabled
	}
	return a.replicator.Push(date)
}

// OffsitePull downloads the snapshot for date from the vault. passphrase
// unlocks the private key and is only needed for encrypted copies.
func (a *App) OffsitePull(date, passphrase string) ([]string, error) {
	if a.replicator == nil {
		return nil, errOffsiteDisabled
	}
	var dec hydrant.DecryptionContext
	if passphrase != "" {
		d, err := a.encryptor.Unlock(passphrase)
		if err != nil {
			return nil, fmt.Errorf("unlocking private key: %w", err)
		}
		dec = d
	}
	return a.replicator.Pull(date, dec)
}

// OffsiteList returns the snapshot dates available in the vault.
func (a *App) OffsiteList() ([]string, error) {
	if a.replicator == nil {
		return nil, errOffsiteDisabled
	}
	return a.replicator.Remote()
}

// OffsiteEncrypted reports whether pushed copies are encrypted.
func (a *App) OffsiteEncrypted() bool {
	return a.cfg.Offsite.Enabled && a.cfg.Offsite.Encrypt
}

// ValidateOffsite checks that the configured vault is reachable.
func (a *App) ValidateOffsite() error {
	if a.vault == nil {
		return errOffsiteDisabled
	}
	return a.vault.ValidateSetup()
}

// InitKeys generates the age key pair used for off-site copies.
func (a *App) InitKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return err
	}
	a.logger.Info("encryption keys created", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// AddUser creates an administrator account.
func (a *App) AddUser(username, password string) error {
	if _, err := a.users.Add(username, password, auth.RoleAdmin); err != nil {
		return err
	}
	a.logger.Info("user added", "username", username)
	return nil
}

// Handler builds the HTTP API handler.
func (a *App) Handler() (http.Handler, error) {
	ttl, err := a.cfg.Server.TokenLifetime()
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager(a.cfg.Server.JWTSecret, ttl, a.clock)
	if err != nil {
		return nil, fmt.Errorf("server.jwt_secret: %w", err)
	}
	srv := httpapi.NewServer(a.service, a.users, tokens, a.logger, httpapi.Options{
		LoginRatePerMinute: a.cfg.Server.LoginRate(),
		AfterSnapshot:      a.pushBestEffort,
	})
	return srv.Handler(), nil
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// Finish records the outcome of the operation in the log.
func (a *App) Finish(err error) {
	a.op.Finish(err)
	elapsed := a.clock.Now().Sub(a.op.Started)
	if err != nil {
		a.logger.Error("operation failed", "operation", a.op.Name, "elapsed", elapsed, "error", err)
		return
	}
	a.logger.Debug("operation finished", "operation", a.op.Name, "elapsed", elapsed)
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
