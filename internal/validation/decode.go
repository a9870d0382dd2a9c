package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMalformed marks upstream payloads that cannot be interpreted.
var ErrMalformed = errors.New("malformed validation report")

// DecodeReport reads a validation report from r.
func DecodeReport(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rep.ConvertedCSV == nil && len(rep.IssueLog) > 0 {
		return nil, fmt.Errorf("%w: issue-log present without converted-csv", ErrMalformed)
	}
	return &rep, nil
}

// LoadReport reads a validation report from the file at path.
func LoadReport(path string) (*Report, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided report path
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	rep, err := DecodeReport(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}
