// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDatabaseDSN = "CHECKVIEW_DATABASE_DSN"
	EnvAPIURL      = "CHECKVIEW_API_URL"
	EnvPageSize    = "CHECKVIEW_PAGE_SIZE"
)

// Load reads .checkview.yaml, or failing that .checkview.toml, from dir.
// If neither exists, it returns a zero-value Config and nil error.
func Load(dir string) (*Config, error) {
	for _, name := range []string{FileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		return LoadFile(path)
	}
	return &Config{}, nil
}

// LoadFile reads an explicit config file. The format follows the extension:
// .toml is TOML, anything else YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-specified config path
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Ext(path) == ".toml")
}

// Parse decodes config data as TOML or YAML.
func Parse(data []byte, isTOML bool) (*Config, error) {
	var cfg Config
	if isTOML {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
		return &cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return &cfg, nil
}

func loadIfExists(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Write marshals cfg as YAML and writes it to dir/.checkview.yaml.
func Write(dir string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0o600)
}

// Marshal encodes cfg as two-space indented YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return encodeYAML(cfg)
}

func encodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// ApplyEnv overrides cfg fields from CHECKVIEW_* environment variables.
// lookup is os.LookupEnv outside tests.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDatabaseDSN); ok && v != "" {
		cfg.Database.DSN = v
	}
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.API.URL = v
	}
	if v, ok := lookup(EnvPageSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		cfg.PageSize = n
	}
	return nil
}

// Resolve loads the effective configuration: global file, then the file at
// path (or the one found in dir when path is empty), then environment
// overrides, then defaults.
func Resolve(dir, path string) (*Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("global config: %w", err)
	}
	var local *Config
	if path != "" {
		local, err = LoadFile(path)
	} else {
		local, err = Load(dir)
	}
	if err != nil {
		return nil, err
	}
	merged := Merge(global, local)
	if err := ApplyEnv(merged, os.LookupEnv); err != nil {
		return nil, err
	}
	out := merged.WithDefaults()
	if err := Validate(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadRaw reads a YAML config file into a generic map, keeping keys the
// Config struct would drop. A missing file yields an empty map.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// WriteFile writes a raw map as YAML to path, creating parent directories.
func WriteFile(path string, data map[string]any) error {
	out, err := encodeYAML(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
