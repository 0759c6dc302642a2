package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsdeck/opsdeck/internal/app"
	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/log"
	"github.com/opsdeck/opsdeck/internal/tracing"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

var (
	version   = "dev"
	cfgFile   string
	debugMode bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "opsdeck",
	Short:   "A terminal workflow board for 3PL operations",
	Long:    `A terminal board for tracking operational workflows created from AI insights: restocks, order escalations, carrier reviews, and supplier follow-ups, moving through todo, in progress, and completed.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/opsdeck/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"write a debug log to ~/.opsdeck/debug.log")
	rootCmd.Flags().Bool("no-auto-refresh", false,
		"disable automatic board refresh when the store changes")
	rootCmd.PersistentFlags().String("store-dir", "",
		"directory holding the workflow store (default: ~/.opsdeck)")

	_ = viper.BindPFlag("storage.dir", rootCmd.PersistentFlags().Lookup("store-dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("storage.backend", defaults.Storage.Backend)
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("auto_refresh_debounce", defaults.AutoRefreshDebounce)
	viper.SetDefault("ui.show_counts", defaults.UI.ShowCounts)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("insights.cache_ttl", defaults.Insights.CacheTTL)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .opsdeck/config.yaml (current directory)
		// 2. ~/.config/opsdeck/config.yaml (user config)
		if _, err := os.Stat(".opsdeck/config.yaml"); err == nil {
			viper.SetConfigFile(".opsdeck/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "opsdeck"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create a default user config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "opsdeck", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setupLogging enables the debug log when requested via flag or env.
// Returns a cleanup function, never an error: a failed log setup should not
// keep the board from starting.
func setupLogging() func() {
	if !debugMode && os.Getenv("OPSDECK_DEBUG") == "" {
		return func() {}
	}
	dir := cfg.Storage.Dir
	if dir == "" {
		dir = config.DefaultStoreDir()
	}
	if dir == "" {
		return func() {}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return func() {}
	}
	cleanup, err := log.Init(filepath.Join(dir, "debug.log"))
	if err != nil {
		return func() {}
	}
	return cleanup
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCleanup := setupLogging()
	defer logCleanup()

	tracer, err := tracing.Setup(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer tracer.Shutdown()

	if noAutoRefresh, _ := cmd.Flags().GetBool("no-auto-refresh"); noAutoRefresh {
		cfg.AutoRefresh = false
	}

	svc, svcCleanup := app.NewLifecycle(cfg)
	defer svcCleanup()

	model := app.NewWithConfig(cfg, svc)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)

	_, err = p.Run()

	// Clean up watcher and listener resources
	model.Shutdown()

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// newLifecycle builds the configured workflow service for one-shot
// subcommands that run without the board.
func newLifecycle() (workflow.Lifecycle, func()) {
	return app.NewLifecycle(cfg)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
