package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/NorthPierLabs/weathernow/internal/audio"
	"github.com/NorthPierLabs/weathernow/internal/config"
	"github.com/NorthPierLabs/weathernow/internal/kiosk"
	"github.com/NorthPierLabs/weathernow/internal/logging"
	"github.com/NorthPierLabs/weathernow/internal/narrate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weathernow-kiosk",
		Short: "Headless WeatherNow signage agent",
		Long: "Polls the announcement API and delivers banners, popups, chimes " +
			"and narration on a display device without a browser.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("server-url", defaults.GetString("server.url"), "Announcement server base URL")
	cmd.PersistentFlags().String("admin-password", defaults.GetString("admin.password"), "Secret used for dismissal calls")
	cmd.PersistentFlags().Duration("poll-interval", defaults.GetDuration("poll.interval"), "Interval between message polls")
	cmd.PersistentFlags().Duration("poll-max-interval", defaults.GetDuration("poll.max_interval"), "Backoff cap after failed polls")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "server.url", "server-url")
	bindFlag(cmd, "admin.password", "admin-password")
	bindFlag(cmd, "poll.interval", "poll-interval")
	bindFlag(cmd, "poll.max_interval", "poll-max-interval")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runAgent(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client, err := kiosk.NewClient(kiosk.ClientConfig{
		BaseURL:       appConfig.ServerURL,
		AdminPassword: appConfig.AdminPassword,
	})
	if err != nil {
		return err
	}

	// The headless agent has no background music player to duck; the
	// coordinator degrades to a no-op without one.
	ducker := audio.NewDuckCoordinator(audio.DuckCoordinatorConfig{})
	narrator := narrate.NewNarrator(narrate.Config{
		Engine: narrate.LogEngine{Logger: logger},
		Ducker: ducker,
		Logger: logger,
	})

	pipeline, err := kiosk.NewPipeline(kiosk.PipelineConfig{
		Renderer:  kiosk.NewLogRenderer(logger),
		Chimer:    audio.NopChimer{},
		Narrator:  narrator,
		Dismisser: client,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer pipeline.Stop()

	poller, err := kiosk.NewPoller(kiosk.PollerConfig{
		Source:      client,
		Sink:        pipeline,
		Logger:      logger,
		Interval:    appConfig.PollInterval,
		MaxInterval: appConfig.PollMaxInterval,
	})
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("kiosk agent starting",
		zap.String("server_url", appConfig.ServerURL),
		zap.Duration("poll_interval", appConfig.PollInterval))
	poller.Run(signalCtx)
	logger.Info("kiosk agent stopped")
	return nil
}
