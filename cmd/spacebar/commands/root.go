package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/bryanchriswhite/spacebar/internal/config"
	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/bryanchriswhite/spacebar/internal/session"
	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "spacebar",
		Short: "spacebar - Workspace state for status bars",
		Long: `spacebar aggregates the spaces and windows of a tiling window manager
(yabai or AeroSpace) into a single snapshot that status bars and other
tools can read, stream and act on.

Features:
  • Auto-detects yabai and AeroSpace
  • Push updates from yabai signals, polling otherwise
  • Hides windows of accessory applications
  • Focus a space and land on a window
  • REST and WebSocket API, MCP server and terminal bar`,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/spacebar/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 7788)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("backend", "", "window manager backend (auto, yabai, aerospace)")

	// Bind flags to viper
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig opens the config file and initializes logging. Command-line
// overrides are applied to the returned copy only, never saved.
func loadConfig() (*config.Manager, *config.Config, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := applyOverrides(configMgr.Get())
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger.Init(cfg.LogLevel, true)

	return configMgr, cfg, nil
}

// applyOverrides copies flag values bound through viper onto cfg
func applyOverrides(cfg *config.Config) *config.Config {
	if port := viper.GetInt("server_port"); viper.IsSet("server_port") && port > 0 {
		cfg.ServerPort = port
	}
	if level := viper.GetString("log_level"); viper.IsSet("log_level") && level != "" {
		cfg.LogLevel = level
	}
	if backend := viper.GetString("backend"); viper.IsSet("backend") && backend != "" {
		cfg.Backend = backend
	}
	return cfg
}

// newRunner returns the process runner every backend shares
func newRunner(cfg *config.Config) window.Runner {
	return window.NewExecRunner(cfg.ExecTimeout.Std())
}

// selectProvider probes the configured backends and returns the first
// reachable one
func selectProvider(ctx context.Context, cfg *config.Config, runner window.Runner) (*window.Provider, error) {
	var accessory window.AccessorySource = window.NoAccessories{}
	if cfg.AccessoryFilter {
		accessory = session.AccessorySource{Session: session.NewOSAScriptSession(runner)}
	}

	candidates, err := window.Candidates(cfg, runner, accessory)
	if err != nil {
		return nil, err
	}
	return window.Select(ctx, candidates...)
}
