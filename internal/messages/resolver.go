package messages

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNotReady is returned by non-blocking lookups before the catalog has
// been published.
var ErrNotReady = errors.New("message catalog not loaded")

// ErrNoCatalogs reports that no catalog sources were configured.
var ErrNoCatalogs = errors.New("no message catalogs configured")

// Resolver gates access to a Catalog behind a one-time readiness signal.
// Lookups never observe a partially loaded catalog.
type Resolver struct {
	once    sync.Once
	ready   chan struct{}
	catalog *Catalog
	err     error
}

// NewResolver returns a Resolver that is not yet ready.
func NewResolver() *Resolver {
	return &Resolver{ready: make(chan struct{})}
}

// NewReadyResolver returns a Resolver already published with c.
func NewReadyResolver(c *Catalog) *Resolver {
	r := NewResolver()
	r.Publish(c)
	return r
}

// Publish makes c visible to lookups. Only the first Publish or Fail call
// has any effect.
func (r *Resolver) Publish(c *Catalog) {
	r.once.Do(func() {
		r.catalog = c
		close(r.ready)
	})
}

// Fail marks loading as failed; lookups return err from then on.
func (r *Resolver) Fail(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.ready)
	})
}

// Load reads both sources and publishes the result, or records the failure.
func (r *Resolver) Load(ctx context.Context, field, entity Source) error {
	c, err := LoadCatalog(ctx, field, entity)
	if err != nil {
		slog.Error("message catalog load failed", "field", field.Name(), "entity", entity.Name(), "error", err)
		r.Fail(err)
		return err
	}
	slog.Debug("message catalog loaded", "issue_types", c.Len())
	r.Publish(c)
	return nil
}

// Ready is closed once the catalog is published or loading has failed.
func (r *Resolver) Ready() <-chan struct{} { return r.ready }

// IsReady reports whether a catalog has been published successfully.
func (r *Resolver) IsReady() bool {
	select {
	case <-r.ready:
		return r.err == nil
	default:
		return false
	}
}

// Catalog waits for readiness and returns the catalog.
func (r *Resolver) Catalog(ctx context.Context) (*Catalog, error) {
	select {
	case <-r.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.catalog, nil
}

// Message waits for readiness and renders the message for issueType.
func (r *Resolver) Message(ctx context.Context, issueType string, count int, entityLevel bool) (string, error) {
	c, err := r.Catalog(ctx)
	if err != nil {
		return "", err
	}
	return c.Message(issueType, count, entityLevel)
}

// TryMessage is Message without waiting: it returns ErrNotReady when the
// catalog has not been published yet.
func (r *Resolver) TryMessage(issueType string, count int, entityLevel bool) (string, error) {
	select {
	case <-r.ready:
	default:
		return "", ErrNotReady
	}
	if r.err != nil {
		return "", r.err
	}
	return r.catalog.Message(issueType, count, entityLevel)
}
