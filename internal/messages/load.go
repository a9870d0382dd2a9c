package messages

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Required CSV columns of a catalog source.
const (
	ColIssueType = "issue_type"
	ColSingular  = "singular_message"
	ColPlural    = "plural_message"
)

// Source supplies one catalog table.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Open returns the table contents as UTF-8 CSV.
	Open() (io.ReadCloser, error)
}

// FileSource reads a CSV file, decoding it from Charset when set.
type FileSource struct {
	Path    string
	Charset string
}

// Name returns the file path.
func (s FileSource) Name() string { return s.Path }

// Open opens the file and wraps it in a charset decoder if needed.
func (s FileSource) Open() (io.ReadCloser, error) {
	enc, err := lookupCharset(s.Charset)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path) //nolint:gosec // configured catalog path
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return f, nil
	}
	return readCloser{Reader: transform.NewReader(f, enc.NewDecoder()), Closer: f}, nil
}

// BytesSource serves an in-memory table, mainly for tests and embedding.
type BytesSource struct {
	Label string
	Data  []byte
}

// Name returns the label.
func (s BytesSource) Name() string { return s.Label }

// Open returns a reader over Data.
func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func lookupCharset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
}

// row is one parsed catalog line.
type row struct {
	issueType string
	singular  string
	plural    string
}

// LoadCatalog reads the field-level and entity-level sources concurrently and
// merges them once both are complete. A type present only in the entity
// source has no field-level templates, and vice versa.
func LoadCatalog(ctx context.Context, field, entity Source) (*Catalog, error) {
	var fieldRows, entityRows []row

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := readSource(ctx, field)
		fieldRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := readSource(ctx, entity)
		entityRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make(map[string]Templates, len(fieldRows))
	for _, r := range fieldRows {
		t := entries[r.issueType]
		t.Singular = normalizePlaceholder(r.singular)
		t.Plural = normalizePlaceholder(r.plural)
		entries[r.issueType] = t
	}
	for _, r := range entityRows {
		t := entries[r.issueType]
		t.EntitiesSingular = normalizePlaceholder(r.singular)
		t.EntitiesPlural = normalizePlaceholder(r.plural)
		entries[r.issueType] = t
	}
	return &Catalog{entries: entries}, nil
}

func readSource(ctx context.Context, src Source) ([]row, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open message source %s: %w", src.Name(), err)
	}
	defer rc.Close() //nolint:errcheck // read-only source

	rows, err := parseRows(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("read message source %s: %w", src.Name(), err)
	}
	return rows, nil
}

func parseRows(ctx context.Context, r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty table")
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, want := range []string{ColIssueType, ColSingular, ColPlural} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}

	get := func(rec []string, col string) string {
		if i := cols[col]; i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var rows []row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		issueType := strings.TrimSpace(get(rec, ColIssueType))
		if issueType == "" {
			continue
		}
		rows = append(rows, row{
			issueType: issueType,
			singular:  get(rec, ColSingular),
			plural:    get(rec, ColPlural),
		})
	}
	return rows, nil
}
