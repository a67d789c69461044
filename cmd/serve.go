package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/kairosync/internal/adapters/clock"
	"github.com/okian/kairosync/internal/adapters/http/api"
	"github.com/okian/kairosync/internal/adapters/http/swagger"
	"github.com/okian/kairosync/internal/adapters/mcptools"
	service "github.com/okian/kairosync/internal/app"
	"github.com/okian/kairosync/internal/config"
	"github.com/okian/kairosync/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var (
	serveAddr string
	serveMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the live clock",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio with the live clock",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		log, err := setupLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		setupMetrics(cfg)
		svc, err := buildService(cfg, log)
		if err != nil {
			return err
		}
		runCtx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(runCtx)
		if err := startClock(ctx, g, cfg, svc, log); err != nil {
			return err
		}
		// The clock stops once the client closes stdin.
		g.Go(func() error {
			defer cancel()
			return serveStdio(ctx, svc, log, os.Stdin, os.Stdout)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP tools on stdio")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	// stdout belongs to the MCP transport when it is enabled.
	var logOut io.Writer = os.Stdout
	if serveMCP {
		logOut = os.Stderr
	}
	log, err := setupLogger(cfg, logOut)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	setupMetrics(cfg)
	svc, err := buildService(cfg, log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	if err := startClock(ctx, g, cfg, svc, log); err != nil {
		return err
	}

	r := chi.NewRouter()
	// api installs router middleware, so it registers before any route.
	api.NewServer(svc, api.WithLogger(log.Named("http"))).Register(ctx, r)
	swagger.Register(ctx, r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	g.Go(func() error {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info(context.Background(), "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
			return fmt.Errorf("http shutdown: %w", err)
		}
		log.Info(shutdownCtx, "server stopped")
		return nil
	})

	if serveMCP {
		g.Go(func() error { return serveStdio(ctx, svc, log, os.Stdin, os.Stdout) })
	}

	return g.Wait()
}

// startClock runs the live clock in g until ctx ends.
func startClock(ctx context.Context, g *errgroup.Group, cfg *config.Config, svc *service.Service, log logger.Logger) error {
	runner, err := clock.New(
		clock.TickerFunc(svc.Tick),
		clock.WithSpec(cfg.TickSpec),
		clock.WithLogger(log.Named("clock")),
	)
	if err != nil {
		return fmt.Errorf("live clock: %w", err)
	}
	g.Go(func() error { return runner.Run(ctx) })
	return nil
}

// serveStdio exposes the MCP tools over in and out until ctx ends.
func serveStdio(ctx context.Context, svc *service.Service, log logger.Logger, in io.Reader, out io.Writer) error {
	s := mcptools.NewServer(svc, log.Named("mcp"), version)
	log.Info(ctx, "starting MCP stdio server")
	if err := server.NewStdioServer(s).Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}
