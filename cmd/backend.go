package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsdeck/opsdeck/internal/config"
)

var backendCmd = &cobra.Command{
	Use:   "backend <file|sqlite>",
	Short: "Switch the storage backend",
	Long: `Switch the storage backend and persist the choice to the config file.

The file backend keeps the whole collection in a single JSON document and
supports auto-refresh when another process changes it. The sqlite backend
stores one row per workflow, which avoids one process overwriting another's
concurrent edit.

Existing records are not migrated between backends.

Examples:
  opsdeck backend sqlite
  opsdeck backend file`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.BackendFile, config.BackendSQLite},
	RunE:      runBackend,
}

func runBackend(cmd *cobra.Command, args []string) error {
	backend := args[0]
	if backend != config.BackendFile && backend != config.BackendSQLite {
		return fmt.Errorf("unknown backend %q (expected %q or %q)",
			backend, config.BackendFile, config.BackendSQLite)
	}

	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("no config file in use and no home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "opsdeck", "config.yaml")
		if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	storage := cfg.Storage
	storage.Backend = backend
	if err := config.SaveStorage(configPath, storage); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "storage backend set to %s (%s)\n", backend, configPath)
	return nil
}

func init() {
	rootCmd.AddCommand(backendCmd)
}
