// Package config handles .checkview.yaml and .checkview.toml configuration
// files.
package config

import "time"

// Config represents the contents of a checkview config file.
type Config struct {
	Database         DatabaseConfig `yaml:"database,omitempty" toml:"database,omitempty"`
	API              APIConfig      `yaml:"api,omitempty" toml:"api,omitempty"`
	Messages         MessagesConfig `yaml:"messages,omitempty" toml:"messages,omitempty"`
	Server           ServerConfig   `yaml:"server,omitempty" toml:"server,omitempty"`
	Log              LogConfig      `yaml:"log,omitempty" toml:"log,omitempty"`
	OutputFormat     string         `yaml:"output_format,omitempty" toml:"output_format,omitempty"`
	PageSize         int            `yaml:"page_size,omitempty" toml:"page_size,omitempty"`
	// PaginationRadius is nil when unset; 0 is a valid radius.
	PaginationRadius *int `yaml:"pagination_radius,omitempty" toml:"pagination_radius,omitempty"`
}

// DatabaseConfig locates the digital-land database and any per-dataset or
// performance databases attached beside it.
type DatabaseConfig struct {
	Driver string `yaml:"driver,omitempty" toml:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty" toml:"dsn,omitempty"`
	// Attach maps a database name to its DSN, using the same driver.
	Attach map[string]string `yaml:"attach,omitempty" toml:"attach,omitempty"`
}

// APIConfig points at the validation request API.
type APIConfig struct {
	URL     string `yaml:"url,omitempty" toml:"url,omitempty"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// MessagesConfig names the two CSV catalogs of issue messages.
type MessagesConfig struct {
	Field   string `yaml:"field,omitempty" toml:"field,omitempty"`
	Entity  string `yaml:"entity,omitempty" toml:"entity,omitempty"`
	Charset string `yaml:"charset,omitempty" toml:"charset,omitempty"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Format string `yaml:"format,omitempty" toml:"format,omitempty"`
}

// File names searched in a directory, in order.
const (
	FileName     = ".checkview.yaml"
	TOMLFileName = ".checkview.toml"
)

// Default values applied by WithDefaults.
const (
	DefaultDriver           = "sqlite"
	DefaultOutputFormat     = "table"
	DefaultPageSize         = 50
	DefaultPaginationRadius = 2
	DefaultAPITimeout       = 30 * time.Second
	DefaultAddr             = ":8080"
	DefaultLogFormat        = "text"
)

// WithDefaults returns a copy of cfg with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PaginationRadius == nil {
		r := DefaultPaginationRadius
		c.PaginationRadius = &r
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultAPITimeout.String()
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	return c
}

// Radius returns the pagination radius, DefaultPaginationRadius when unset.
func (c *Config) Radius() int {
	if c.PaginationRadius == nil {
		return DefaultPaginationRadius
	}
	return *c.PaginationRadius
}

// APITimeout parses API.Timeout, falling back to DefaultAPITimeout when it is
// empty or invalid. Validate reports invalid values.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return DefaultAPITimeout
	}
	return d
}
