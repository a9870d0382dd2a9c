package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

func init() {
	RegisterFormatter(NewJSONFormatter())
}

// JSONEnvelope wraps a view-model with metadata.
type JSONEnvelope struct {
	Kind     string       `json:"kind"`
	View     any          `json:"view"`
	Metadata JSONMetadata `json:"metadata"`
}

// JSONMetadata describes the run that produced the view.
type JSONMetadata struct {
	RequestID   string `json:"request_id,omitempty"`
	GeneratedAt string `json:"generated_at"`
}

// JSONFormatter writes a document as a JSON object with a metadata envelope.
type JSONFormatter struct {
	// Compact forces single-line output. When false, output is pretty on a
	// terminal and compact on pipes.
	Compact bool

	// nowFunc is used for testing to override the current time.
	nowFunc func() time.Time
}

// Compile-time interface check.
var _ Formatter = (*JSONFormatter)(nil)

// NewJSONFormatter returns a new JSONFormatter with default settings.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format writes doc wrapped in a JSONEnvelope.
func (f *JSONFormatter) Format(doc Document, w io.Writer) error {
	now := time.Now()
	if f.nowFunc != nil {
		now = f.nowFunc()
	}

	envelope := JSONEnvelope{
		Kind: doc.Kind,
		View: doc.View,
		Metadata: JSONMetadata{
			RequestID:   doc.RequestID,
			GeneratedAt: now.UTC().Format(time.RFC3339),
		},
	}

	var data []byte
	var err error
	if f.shouldCompact(w) {
		data, err = json.Marshal(envelope)
	} else {
		data, err = json.MarshalIndent(envelope, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// shouldCompact reports whether to write single-line output: always when
// Compact is set, otherwise only when w is a file that is not a terminal.
func (f *JSONFormatter) shouldCompact(w io.Writer) bool {
	if f.Compact {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := file.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}
