// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package datastore reads the analytical store that backs the organisation
// views. It runs raw parameterised SQL through gorm and hands back records
// keyed by column name.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/davetashner/checkview/internal/pipeline"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDatabase is returned for a query naming a database that was
// never attached.
var ErrUnknownDatabase = errors.New("unknown database")

// Config selects a driver and connection string.
type Config struct {
	Driver string
	DSN    string
}

// Rows is the ordered result of one query.
type Rows struct {
	Columns []string
	Records []pipeline.Record
}

// Store is a set of named connections. The unnamed connection serves
// queries whose Database is empty.
type Store struct {
	mu  sync.RWMutex
	dbs map[string]*gorm.DB
}

var _ pipeline.Fetcher = (*Store)(nil)

// Open connects the default database.
func Open(cfg Config) (*Store, error) {
	db, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{dbs: map[string]*gorm.DB{"": db}}, nil
}

// Attach connects an additional named database.
func (s *Store) Attach(name string, cfg Config) error {
	db, err := dial(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dbs[name] = db
	return nil
}

func dial(cfg Config) (*gorm.DB, error) {
	var d gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		d = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		d = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	db, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", cfg.Driver, pipeline.ErrUpstream, err)
	}
	return db, nil
}

// DB returns the named connection, for setup and tests.
func (s *Store) DB(name string) (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, ok := s.dbs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatabase, name)
	}
	return db, nil
}

// Query runs sql with positional args on the named database.
func (s *Store) Query(ctx context.Context, database, sql string, args ...any) (*Rows, error) {
	db, err := s.DB(database)
	if err != nil {
		return nil, err
	}

	rows, err := db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("query: %w: %w", pipeline.ErrUpstream, err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w: %w", pipeline.ErrUpstream, err)
	}

	out := &Rows{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w: %w", pipeline.ErrUpstream, err)
		}
		rec := make(pipeline.Record, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = vals[i]
		}
		out.Records = append(out.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w: %w", pipeline.ErrUpstream, err)
	}

	slog.Debug("datastore query", "database", database, "rows", len(out.Records))
	return out, nil
}

// Fetch implements pipeline.Fetcher.
func (s *Store) Fetch(ctx context.Context, q pipeline.Query) ([]pipeline.Record, error) {
	rows, err := s.Query(ctx, q.Database, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	return rows.Records, nil
}

// Close releases every connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for name, db := range s.dbs {
		sqlDB, err := db.DB()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
