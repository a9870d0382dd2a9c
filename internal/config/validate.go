package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/davetashner/checkview/internal/datastore"
	"github.com/davetashner/checkview/internal/output"
)

// Validate checks all fields in the config and returns all errors at once.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.Database.Driver {
	case "", datastore.DriverSQLite, datastore.DriverPostgres:
	default:
		errs = append(errs, fmt.Sprintf("database.driver: invalid value %q (must be %s or %s)",
			cfg.Database.Driver, datastore.DriverSQLite, datastore.DriverPostgres))
	}
	for name, dsn := range cfg.Database.Attach {
		if name == "" {
			errs = append(errs, "database.attach: empty database name")
		}
		if dsn == "" {
			errs = append(errs, fmt.Sprintf("database.attach.%s: empty dsn", name))
		}
	}

	if cfg.API.URL != "" {
		u, err := url.Parse(cfg.API.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("api.url: must be an absolute URL, got %q", cfg.API.URL))
		}
	}
	if cfg.API.Timeout != "" {
		if d, err := time.ParseDuration(cfg.API.Timeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("api.timeout: must be a positive duration, got %q", cfg.API.Timeout))
		}
	}

	if cfg.OutputFormat != "" {
		if _, err := output.GetFormatter(cfg.OutputFormat); err != nil {
			errs = append(errs, fmt.Sprintf("output_format: %v", err))
		}
	}

	if cfg.PageSize < 0 {
		errs = append(errs, fmt.Sprintf("page_size: must be non-negative, got %d", cfg.PageSize))
	}
	if r := cfg.PaginationRadius; r != nil && (*r < 0 || *r > 10) {
		errs = append(errs, fmt.Sprintf("pagination_radius: must be between 0 and 10, got %d", *r))
	}

	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format: invalid value %q (must be text or json)", cfg.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
