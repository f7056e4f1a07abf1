package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\uFEFF"

// Row is one data record of a CSV file.
type Row struct {
	// Number is the 1-based index among data rows; blank and comment lines do not count.
	Number int
	// Line is the file line the record starts on.
	Line int
	// Values maps lower-cased header names to trimmed cell values.
	Values map[string]string
}

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(column string) string {
	return r.Values[strings.ToLower(strings.TrimSpace(column))]
}

// RowError reports a record that could not be turned into a Row.
// Reading may continue after it.
type RowError struct {
	Number int
	Line   int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ErrRaggedRow is wrapped by RowError when a record's field count differs from the header's.
var ErrRaggedRow = errors.New("wrong number of fields")

// ReaderOptions configures a RowReader.
type ReaderOptions struct {
	Delimiter rune
	// Comment starts a comment line when it is the first character. Zero disables comments.
	Comment rune
}

// RowReader yields header-keyed rows from a CSV stream.
type RowReader struct {
	csv    *csv.Reader
	header []string
	count  int
}

// NewRowReader reads the header record and returns a reader positioned at the first data row.
func NewRowReader(r io.Reader, opts ReaderOptions) (*RowReader, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.Comment = opts.Comment
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	var header []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: missing header row")
		}
		if err != nil {
			return nil, fmt.Errorf("csv header: %w", err)
		}
		if isBlank(rec) {
			continue
		}
		header = rec
		break
	}

	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && seen[h] {
			return nil, fmt.Errorf("csv header: duplicate column %q", h)
		}
		seen[h] = true
		header[i] = h
	}

	return &RowReader{csv: cr, header: header}, nil
}

// Header returns the normalized column names in file order.
func (r *RowReader) Header() []string {
	return r.header
}

// HasColumn reports whether the header contains the column.
func (r *RowReader) HasColumn(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, h := range r.header {
		if h == name {
			return true
		}
	}
	return false
}

// Next returns the next data row. It returns io.EOF at the end of input and
// a *RowError for a malformed record; callers may keep calling Next after a RowError.
func (r *RowReader) Next() (Row, error) {
	for {
		rec, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}

		var pe *csv.ParseError
		if errors.As(err, &pe) {
			r.count++
			return Row{}, &RowError{Number: r.count, Line: pe.StartLine, Err: pe.Err}
		}
		if err != nil {
			return Row{}, fmt.Errorf("csv: %w", err)
		}
		if isBlank(rec) {
			continue
		}

		r.count++
		line, _ := r.csv.FieldPos(0)
		if len(rec) != len(r.header) {
			return Row{}, &RowError{
				Number: r.count,
				Line:   line,
				Err:    fmt.Errorf("%w: got %d, header has %d", ErrRaggedRow, len(rec), len(r.header)),
			}
		}

		values := make(map[string]string, len(rec))
		for i, v := range rec {
			if r.header[i] == "" {
				continue
			}
			values[r.header[i]] = strings.TrimSpace(v)
		}
		return Row{Number: r.count, Line: line, Values: values}, nil
	}
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
