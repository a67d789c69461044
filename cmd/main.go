package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/okian/kairosync/internal/app"
	"github.com/okian/kairosync/internal/config"
	"github.com/okian/kairosync/internal/domain/cities"
	"github.com/okian/kairosync/internal/domain/dedupe"
	"github.com/okian/kairosync/internal/domain/gesture"
	"github.com/okian/kairosync/pkg/logger"
	"github.com/okian/kairosync/pkg/metrics"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "kairosync",
	Short: "Two clocks, one golden window",
	Long: `kairosync keeps two people's clocks side by side, finds the minutes when
both are awake and free, and keeps a small shared calendar of meetings,
reminders and deadlines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")
	rootCmd.Version = version
}

func main() {
	if err := run(); err != nil {
		printError(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// setupLogger initializes the global logger from cfg and returns it.
func setupLogger(cfg *config.Config, w io.Writer) (logger.Logger, error) {
	if err := logger.Init(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithWriter(w),
	); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger.Get(), nil
}

// setupMetrics rebuilds the global collectors from cfg.
func setupMetrics(cfg *config.Config) {
	opts := []metrics.Option{
		metrics.WithEnabled(cfg.Metrics.Enabled),
		metrics.WithNamespace(cfg.Metrics.Namespace),
	}
	if cfg.Metrics.Instance != "" {
		opts = append(opts, metrics.WithConstLabels(map[string]string{"instance": cfg.Metrics.Instance}))
	}
	metrics.Init(opts...)
}

// buildService wires the container from configuration.
func buildService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	table := cities.Default()
	if cfg.CitiesFile != "" {
		loaded, err := cities.Load(cfg.CitiesFile)
		if err != nil {
			return nil, fmt.Errorf("load cities: %w", err)
		}
		table = loaded
	}
	return service.New(
		service.WithLogger(log),
		service.WithCities(table),
		service.WithLedger(dedupe.NewInMemoryLedger(dedupe.WithMaxSize(cfg.DraftLedgerSize))),
		service.WithUsers(cfg.Users.Local, cfg.Users.Remote),
		service.WithMaxDayOffset(cfg.MaxDayOffset),
		service.WithGestureOptions(
			gesture.WithStepHeight(cfg.StepHeight),
			gesture.WithSnapMinutes(cfg.SnapMinutes),
		),
	), nil
}

// loadOffline loads config and builds a service whose logs are discarded,
// for the one-shot commands.
func loadOffline(cmd *cobra.Command) (*service.Service, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	return buildService(cfg, logger.Discard())
}
