package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/davetashner/checkview/internal/config"
	"github.com/davetashner/checkview/internal/gateway"
	"github.com/davetashner/checkview/internal/httpapi"
	"github.com/davetashner/checkview/internal/issuetable"
	"github.com/davetashner/checkview/internal/messages"
	"github.com/davetashner/checkview/internal/pipeline"
)

var serveAddr string

// serveCmd exposes the views over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the views as JSON over HTTP",
	Long: `Start an HTTP server with the issue table, results and overview views.

Message catalogs load in the background; /healthz reports 503 until they
are ready, and issue tables wait for them.

Routes:
  GET /organisations/:lpa
  GET /organisations/:lpa/:dataset/:issue_type/:issue_field[/:page]
  GET /results/:id[/:page]
  GET /healthz`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, "+config.DefaultAddr+")")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // closed on shutdown

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := messages.NewResolver()
	if field, entity, ok := messageSources(cfg); ok {
		go func() { _ = resolver.Load(ctx, field, entity) }()
	} else {
		slog.Warn("no message catalogs configured; issue tables will fail")
		resolver.Fail(messages.ErrNoCatalogs)
	}

	srv := &httpapi.Server{
		Engine: pipeline.NewEngine(store, nil),
		Deps:   issuetable.Deps{Messages: resolver, PageSize: cfg.PageSize, Paginator: paginator(cfg)},
		Logger: slog.Default(),
	}
	if cfg.API.URL != "" {
		srv.Results = gateway.NewClient(cfg.API.URL, cfg.APITimeout())
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if err := srv.Serve(ctx, addr); err != nil {
		return exitError(ExitFailure, "checkview: serve: %v", err)
	}
	return nil
}

