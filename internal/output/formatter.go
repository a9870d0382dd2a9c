// Package output defines the Formatter interface for writing view-models
// in various formats.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Document kinds.
const (
	KindErrors   = "errors"
	KindIssues   = "issues"
	KindResults  = "results"
	KindMessage  = "message"
	KindOverview = "overview"
)

// Document is one view-model ready for output.
type Document struct {
	Kind      string
	RequestID string
	View      any
}

// Formatter writes a document to the given writer in a specific format.
type Formatter interface {
	// Name returns the format name (e.g., "json", "table").
	Name() string

	// Format writes doc to w.
	Format(doc Document, w io.Writer) error
}

var (
	fmtMu       sync.RWMutex
	fmtRegistry = make(map[string]Formatter)
)

// RegisterFormatter adds a formatter to the global registry.
func RegisterFormatter(f Formatter) {
	fmtMu.Lock()
	defer fmtMu.Unlock()
	fmtRegistry[f.Name()] = f
}

// GetFormatter returns the formatter with the given name, or an error if not found.
func GetFormatter(name string) (Formatter, error) {
	fmtMu.RLock()
	defer fmtMu.RUnlock()
	f, ok := fmtRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown format: %q (available: %s)", name, formatNames())
	}
	return f, nil
}

// FormatNames returns the registered format names, sorted.
func FormatNames() []string {
	fmtMu.RLock()
	defer fmtMu.RUnlock()
	names := make([]string, 0, len(fmtRegistry))
	for name := range fmtRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatNames() string {
	names := make([]string, 0, len(fmtRegistry))
	for name := range fmtRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// resetFmtForTesting clears the formatter registry. Only for use in tests.
func resetFmtForTesting() {
	fmtMu.Lock()
	defer fmtMu.Unlock()
	fmtRegistry = make(map[string]Formatter)
}
