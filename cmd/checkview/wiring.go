package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/davetashner/checkview/internal/config"
	"github.com/davetashner/checkview/internal/datastore"
	"github.com/davetashner/checkview/internal/gateway"
	checkviewlog "github.com/davetashner/checkview/internal/log"
	"github.com/davetashner/checkview/internal/messages"
	"github.com/davetashner/checkview/internal/output"
	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/redact"
)

// loadConfig resolves the effective config from the global file, the
// --config file or the one in the working directory, and the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(".", configPath)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "checkview: %v", err)
	}
	if logFormat == "" && cfg.Log.Format != checkviewlog.FormatText {
		checkviewlog.Setup(checkviewlog.Options{Verbose: verbose, Quiet: quiet, Format: cfg.Log.Format})
	}
	return cfg, nil
}

// openStore opens the configured database and attaches the named ones.
func openStore(cfg *config.Config) (*datastore.Store, error) {
	if cfg.Database.DSN == "" {
		return nil, exitError(ExitInvalidArgs, "checkview: database.dsn is not set (config file or %s)", config.EnvDatabaseDSN)
	}
	redact.RegisterDSN(cfg.Database.DSN)
	for _, dsn := range cfg.Database.Attach {
		redact.RegisterDSN(dsn)
	}
	store, err := datastore.Open(datastore.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return nil, exitError(ExitFailure, "checkview: %s", redact.String(err.Error()))
	}
	for name, dsn := range cfg.Database.Attach {
		if err := store.Attach(name, datastore.Config{Driver: cfg.Database.Driver, DSN: dsn}); err != nil {
			_ = store.Close()
			return nil, exitError(ExitFailure, "checkview: attach %s: %s", name, redact.String(err.Error()))
		}
	}
	slog.Debug("datastore open", "driver", cfg.Database.Driver, "attached", len(cfg.Database.Attach))
	return store, nil
}

// messageSources returns the configured catalog sources, or ok=false when
// either catalog is not configured.
func messageSources(cfg *config.Config) (field, entity messages.Source, ok bool) {
	if cfg.Messages.Field == "" || cfg.Messages.Entity == "" {
		return nil, nil, false
	}
	return messages.FileSource{Path: cfg.Messages.Field, Charset: cfg.Messages.Charset},
		messages.FileSource{Path: cfg.Messages.Entity, Charset: cfg.Messages.Charset}, true
}

// loadMessages loads the catalogs synchronously. It returns a nil resolver
// when no catalogs are configured.
func loadMessages(ctx context.Context, cfg *config.Config) (*messages.Resolver, error) {
	field, entity, ok := messageSources(cfg)
	if !ok {
		slog.Debug("no message catalogs configured")
		return nil, nil
	}
	r := messages.NewResolver()
	if err := r.Load(ctx, field, entity); err != nil {
		return nil, exitError(ExitFailure, "checkview: %s", redact.String(err.Error()))
	}
	return r, nil
}

func apiClient(cfg *config.Config) (*gateway.Client, error) {
	if cfg.API.URL == "" {
		return nil, exitError(ExitInvalidArgs, "checkview: api.url is not set (config file or %s)", config.EnvAPIURL)
	}
	return gateway.NewClient(cfg.API.URL, cfg.APITimeout()), nil
}

func paginator(cfg *config.Config) *pagination.Paginator {
	return &pagination.Paginator{Radius: cfg.Radius()}
}

// writeDoc formats doc with the named formatter, falling back to the
// configured default format.
func writeDoc(w io.Writer, cfg *config.Config, format string, doc output.Document) error {
	if format == "" {
		format = cfg.OutputFormat
	}
	f, err := output.GetFormatter(format)
	if err != nil {
		return exitError(ExitInvalidArgs, "checkview: %v", err)
	}
	if err := f.Format(doc, w); err != nil {
		return exitError(ExitFailure, "checkview: %s output: %v", format, err)
	}
	return nil
}

const formatFlagUsage = "output format: json or table (default from config)"
