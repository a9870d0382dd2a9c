// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
)

// GlobalConfigDir returns the directory for global checkview configuration.
// It uses $XDG_CONFIG_HOME/checkview if set, otherwise ~/.config/checkview.
func GlobalConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "checkview")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "checkview")
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.yaml")
}

// LoadGlobal loads the global config file.
// If the file does not exist, it returns a zero-value Config and nil error.
func LoadGlobal() (*Config, error) {
	return loadIfExists(GlobalConfigPath())
}

// Merge overlays local onto global: any field set in local wins. Attach maps
// are combined with local entries taking precedence.
func Merge(global, local *Config) *Config {
	out := *global
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.Database.Driver, local.Database.Driver)
	pick(&out.Database.DSN, local.Database.DSN)
	pick(&out.API.URL, local.API.URL)
	pick(&out.API.Timeout, local.API.Timeout)
	pick(&out.Messages.Field, local.Messages.Field)
	pick(&out.Messages.Entity, local.Messages.Entity)
	pick(&out.Messages.Charset, local.Messages.Charset)
	pick(&out.Server.Addr, local.Server.Addr)
	pick(&out.Log.Format, local.Log.Format)
	pick(&out.OutputFormat, local.OutputFormat)
	if local.PageSize != 0 {
		out.PageSize = local.PageSize
	}
	if local.PaginationRadius != nil {
		out.PaginationRadius = local.PaginationRadius
	}

	if len(global.Database.Attach)+len(local.Database.Attach) > 0 {
		out.Database.Attach = make(map[string]string, len(global.Database.Attach)+len(local.Database.Attach))
		for k, v := range global.Database.Attach {
			out.Database.Attach[k] = v
		}
		for k, v := range local.Database.Attach {
			out.Database.Attach[k] = v
		}
	}
	return &out
}
