package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hydrantmap/internal/app"
	"hydrantmap/internal/config"
)

func main() {
	if err := app.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must call
// finish with the command's result.
// operation identifies the CLI command being run (e.g. "SnapshotCreate", "Serve").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// finish logs the outcome of a command and closes the app.
func finish(a *app.App, err error) error {
	a.Finish(err)
	a.Close()
	return err
}

var rootCmd = &cobra.Command{
	Use:          "hydrantmap",
	Short:        "Fire hydrant inventory with dated snapshots",
	SilenceUsage: true,
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Serve")
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return finish(a, a.Serve(ctx))
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generating token secret: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		cfg.Server.JWTSecret = hex.EncodeToString(secret)

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Data Dir:    %s\n", cfg.DataDir)
		fmt.Printf("Uploads Dir: %s\n", cfg.UploadsDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		tz := cfg.Timezone
		if tz == "" {
			tz = "local"
		}
		offsite := "disabled"
		if cfg.Offsite.Enabled {
			offsite = cfg.Offsite.Vault.Type
			if cfg.Offsite.Encrypt {
				offsite += " (encrypted)"
			}
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Data Dir:    %s\n", cfg.DataDir)
		fmt.Printf("Uploads Dir: %s\n", cfg.UploadsDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Timezone:    %s\n", tz)
		fmt.Printf("Listen:      %s\n", cfg.Server.ListenAddr())
		fmt.Printf("Off-site:    %s\n", offsite)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys for off-site copies",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("KeysInit")
		if err != nil {
			return err
		}

		passphrase, err := promptNewPassword("Passphrase for the private key")
		if err != nil {
			return finish(a, err)
		}
		if err := a.InitKeys(passphrase); err != nil {
			return finish(a, fmt.Errorf("creating keys: %w", err))
		}
		fmt.Println("Encryption keys created. Keep the passphrase safe: it is needed to pull off-site copies.")
		return finish(a, nil)
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage administrator accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Add an administrator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserAdd")
		if err != nil {
			return err
		}

		password, err := promptNewPassword("Password for " + args[0])
		if err != nil {
			return finish(a, err)
		}
		if err := a.AddUser(args[0], password); err != nil {
			return finish(a, fmt.Errorf("adding user: %w", err))
		}
		fmt.Printf("User %s added\n", args[0])
		return finish(a, nil)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)
	userCmd.AddCommand(userAddCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(offsiteCmd)
}
