package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/spacebar/internal/api"
	"github.com/bryanchriswhite/spacebar/internal/appicon"
	"github.com/bryanchriswhite/spacebar/internal/config"
	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/bryanchriswhite/spacebar/internal/notify"
	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thejerf/suture/v4"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the spacebar server",
	Long: `Start the update scheduler and the HTTP server.

The server exposes the current workspace snapshot over REST, streams every
new snapshot over a WebSocket and accepts focus requests, change signals
and sleep/wake notifications.`,
	Example: `  # Start server on default port (7788)
  spacebar serve

  # Start server on custom port
  spacebar serve --port 9090

  # Force the AeroSpace backend
  spacebar serve --backend aerospace

  # Start with debug logging
  spacebar serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithComponent("serve")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	signals := notify.NewHub()
	power := notify.NewPowerHub()

	runner := newRunner(cfg)
	provider, err := selectProvider(ctx, cfg, runner)
	if err != nil {
		if !errors.Is(err, window.ErrNoProvider) {
			return err
		}
		log.Warn().Err(err).Msg("No window manager found, waiting for a configuration change")
	}

	windowMgr := window.NewManager(provider, window.ManagerOptions{
		PollInterval:      cfg.PollInterval.Std(),
		FocusRecheckDelay: cfg.FocusRecheckDelay.Std(),
		Bus:               signals,
		Power:             power,
	})

	server := api.NewServer(windowMgr, configMgr, api.Options{
		Signals: signals,
		Power:   power,
		Icons:   appicon.NewCache(appicon.MDFindResolver{Runner: runner}),
	})
	server.SetPort(cfg.ServerPort)

	supervisor := suture.New("spacebar", suture.Spec{
		EventHook: func(e suture.Event) {
			logger.WithComponent("supervisor").Warn().
				Fields(e.Map()).
				Msg(e.String())
		},
	})
	supervisor.Add(windowMgr)
	supervisor.Add(server)

	if cfg.DBusSignals {
		bridge, err := notify.NewDBusBridge(signals)
		if err != nil {
			log.Warn().Err(err).Msg("D-Bus signal bridge unavailable")
		} else {
			defer bridge.Close()
			supervisor.Add(bridge)
		}
	}
	if cfg.LogindPower {
		logind, err := notify.NewLogindPower(power)
		if err != nil {
			log.Warn().Err(err).Msg("logind sleep notifications unavailable")
		} else {
			defer logind.Close()
			supervisor.Add(logind)
		}
	}

	watchConfig(ctx, configMgr, cfg, windowMgr)

	fmt.Println("spacebar - workspace state for status bars")
	fmt.Println("==========================================")
	log.Info().
		Str("config", configMgr.GetConfigPath()).
		Int("port", cfg.ServerPort).
		Str("state", windowMgr.State().String()).
		Msg("spacebar is running")
	fmt.Printf("   - API: http://localhost:%d/api\n", cfg.ServerPort)
	fmt.Printf("   - Stream: ws://localhost:%d/api/stream\n", cfg.ServerPort)
	fmt.Println("   - Press Ctrl+C to stop")

	err = supervisor.Serve(ctx)
	log.Info().Msg("Shutting down gracefully...")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchConfig reselects the provider whenever the config file changes.
// Settings read at startup (port, intervals) need a restart.
func watchConfig(ctx context.Context, configMgr *config.Manager, initial *config.Config, windowMgr *window.Manager) {
	log := logger.WithComponent("config-watch")

	viper.SetConfigFile(configMgr.GetConfigPath())
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := configMgr.Reload(); err != nil {
			log.Warn().Err(err).Msg("Ignoring invalid config change")
			return
		}

		cfg := applyOverrides(configMgr.Get())
		logger.Init(cfg.LogLevel, true)
		if cfg.PollInterval != initial.PollInterval || cfg.ServerPort != initial.ServerPort {
			log.Warn().Msg("poll_interval and server_port changes apply after a restart")
		}

		provider, err := selectProvider(ctx, cfg, newRunner(cfg))
		if err != nil {
			log.Warn().Err(err).Msg("Provider reselection found no window manager")
		}
		windowMgr.SetProvider(provider)
	})
	viper.WatchConfig()
}
