package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/weval-org/dtef/internal/aggregation"
	"github.com/weval-org/dtef/internal/source"
	"github.com/weval-org/dtef/internal/webapi"
	"github.com/weval-org/dtef/internal/webserver"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		overrides      sourceOverrides
		host           string
		port           int
		cacheTTLSecs   int
		allowedOrigins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the aggregation over HTTP",
		Long: `Start an HTTP server exposing the demographic aggregation.

Endpoints:
  GET /api/health                   Health check
  GET /api/aggregation              Full aggregation (?refresh=true reloads)
  GET /api/aggregation/fairness     Fairness concerns (?minGap=0.1)
  GET /api/aggregation/top-models   Best models (?limit=10, 0 for all)
  GET /metrics                      Prometheus metrics

The aggregation is cached for server.cache_ttl_seconds (default 60).
The server binds to 127.0.0.1 unless --host is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadProjectConfig(root.dir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("cache-ttl") {
				cfg.Server.CacheTTLSeconds = &cacheTTLSecs
			}

			aggOpts, err := aggregationOptions(cfg)
			if err != nil {
				return err
			}
			src, err := source.New(sourceOptions(cfg, root.dir, overrides))
			if err != nil {
				return fmt.Errorf("creating record source: %w", err)
			}

			logger := slog.Default()
			svc := webapi.NewService(webapi.ServiceConfig{
				Source:     src,
				Aggregator: aggregation.New(aggOpts),
				CacheTTL:   cacheTTL(cfg),
				Logger:     logger,
			})
			srv, err := webserver.New(webserver.Config{
				Host:           host,
				Port:           cfg.Server.Port,
				Service:        svc,
				AllowedOrigins: allowedOrigins,
				Logger:         logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "DTEF API listening on http://%s\n", srv.Addr()) //nolint:errcheck
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&overrides.results, "results", "", "Results directory (overrides .dtef.yaml)")
	cmd.Flags().BoolVar(&overrides.strict, "strict", false, "Skip files that fail schema validation")
	cmd.Flags().StringVar(&host, "host", "", "Interface to bind (default 127.0.0.1)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from .dtef.yaml, else 3000)")
	cmd.Flags().IntVar(&cacheTTLSecs, "cache-ttl", 0, "Seconds to cache the aggregation (0 reloads on every request)")
	cmd.Flags().StringSliceVar(&allowedOrigins, "allow-origin", nil, "Origins allowed to call the API from a browser")

	return cmd
}
