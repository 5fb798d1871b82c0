package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/autoagenda/internal/config"
	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/logging"
	"github.com/teemow/autoagenda/internal/server"
	"github.com/teemow/autoagenda/internal/tools/booking_tools"
)

func newServeCmd(cfg *config.Config, base server.Options) *cobra.Command {
	var debugMode bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide appointment
scheduling tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Tools:
  schedule_find_free_slots   free slots of a day inside business hours
  schedule_commit_booking    book a slot (hidden with --read-only)
  schedule_vehicle_history   latest bookings of a vehicle

The HTTP transport also serves /healthz, /readyz and /healthz/detailed.
Set --auth-token (or MCP_AUTH_TOKEN) to require a bearer token on /mcp.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debugMode {
				cfg.LogLevel = "debug"
			}
			return runServe(cmd.Context(), cfg, base)
		},
	}

	cfg.BindServeFlags(cmd.Flags())
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, base server.Options) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol on stdio, so logs always go to stderr.
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	opts := base
	opts.Config = cfg
	opts.Logger = logger
	if provider.Enabled() {
		opts.Metrics = provider.Metrics()
		opts.AuditLogger = instrumentation.NewAuditLogger(logging.WithComponent(logger, "audit"), instrConfig.AuditLogging)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, opts)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("autoagenda", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := booking_tools.RegisterBookingTools(mcpSrv, serverContext, cfg.Serve.ReadOnly); err != nil {
		return fmt.Errorf("failed to register booking tools: %w", err)
	}
	if cfg.Serve.ReadOnly {
		logger.Info("starting server in READ-ONLY mode, booking is disabled")
	}

	healthChecker := server.NewHealthChecker(serverContext)

	if cfg.Serve.MetricsEnabled && provider.PrometheusEnabled() {
		metricsServer, err := startMetricsServer(cfg.Serve.MetricsAddr, provider, healthChecker, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	logger.Info("starting autoagenda MCP server",
		slog.String("transport", cfg.Serve.Transport),
		slog.String("calendar", serverContext.CalendarID("")),
		slog.String("policy", serverContext.Policy().String()),
		slog.String("store", cfg.Store.Backend),
		slog.String("lock", cfg.Lock.Backend))

	switch cfg.Serve.Transport {
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, healthChecker, cfg.Serve)
	default:
		return runStdioServer(shutdownCtx, mcpSrv)
	}
}

// startMetricsServer binds the metrics port before returning so a taken
// port fails the command instead of a background goroutine.
func startMetricsServer(addr string, provider *instrumentation.Provider, health *server.HealthChecker, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Health:                  health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}
	if err := metricsServer.Listen(); err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}

	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, health *server.HealthChecker, settings config.ServeSettings) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, serverContext, server.HTTPServerConfig{
		Addr:        settings.HTTPAddr,
		BearerToken: settings.AuthToken,
		Health:      health,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if err := httpServer.Listen(); err != nil {
		return err
	}

	logger := serverContext.Logger()
	if settings.AuthToken == "" {
		logger.Warn("HTTP transport runs without authentication, set --auth-token to require a bearer token")
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
