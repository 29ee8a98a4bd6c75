package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/effective-security/xlog"
	"github.com/fastertools/signals-mcp/internal/mcp"
	"github.com/fastertools/signals-mcp/internal/telemetry"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/fastertools/signals-mcp/internal", "cli")

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout that exposes the
get_features tool to AI clients such as Claude Desktop. Logs go to stderr.`,
		Example: `  # Run the server against a Signals deployment
  SIGNALS_API_URL=https://example.svc.snplow.net signals-mcp serve

  # Expose Prometheus metrics while serving
  signals-mcp serve --api-url https://example.svc.snplow.net --metrics-addr 127.0.0.1:9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}

	cmd.Flags().String("metrics-addr", "", "address for the Prometheus /metrics listener (disabled when empty)")
	cmd.Flags().String("otel-endpoint", "", "OTLP/HTTP collector host:port for traces (disabled when empty)")
	bindFlag(cmd, "metrics_addr", "metrics-addr")
	bindFlag(cmd, "otel_endpoint", "otel-endpoint")

	return cmd
}

// Allow overriding for tests
var runServe = runServeImpl

func runServeImpl(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	adapter, err := newAdapter(cfg)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:    "signals-mcp",
		ServiceVersion: version,
		Endpoint:       cfg.OTelEndpoint,
		SamplingRate:   cfg.OTelSampling,
		Insecure:       true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize tracing")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.KV(xlog.WARNING, "reason", "tracer_shutdown", "err", err.Error())
		}
	}()

	if cfg.MetricsAddr != "" {
		if err := telemetry.ServeMetrics(ctx, cfg.MetricsAddr); err != nil {
			return err
		}
	}

	server, err := mcp.NewServer(adapter, version)
	if err != nil {
		return err
	}

	logger.KV(xlog.NOTICE,
		"status", "starting",
		"api_url", cfg.APIURL,
		"view", adapter.View().Ref(),
		"features", len(adapter.View().Features),
	)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "MCP server stopped")
	}
	return nil
}
