// Package tabular reads and writes delimited files for the batch matching
// flow: pull one named column out, append the mapped column, write the file
// back with the row count unchanged.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// Table is an in-memory delimited file with a header row.
type Table struct {
	Header    []string
	Rows      [][]string
	Separator rune
}

// Read parses a delimited stream.  Rows may be ragged; short rows read as
// empty cells and are padded on write.
func Read(r io.Reader, separator rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = separator
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to parse delimited input")
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "input has no header row")
	}

	return &Table{
		Header:    records[0],
		Rows:      records[1:],
		Separator: separator,
	}, nil
}

// ReadFile reads a delimited file from disk.
func ReadFile(path string, separator rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation,
			fmt.Sprintf("cannot open input file %q", path))
	}
	defer f.Close()
	return Read(f, separator)
}

// ColumnIndex returns the position of the named header column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return 0, errors.Newf(errors.ErrCodeValidation, "column %q not found in header", name)
}

// Column returns the cell values of the named column, one per row.  Rows too
// short to reach the column yield empty strings, keeping the slice aligned
// with Rows.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values, nil
}

// AppendColumn adds a new column with one value per row.  The value count
// must equal the row count so the output stays aligned with the input.
func (t *Table) AppendColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return errors.Newf(errors.ErrCodeValidation,
			"column has %d values for %d rows", len(values), len(t.Rows))
	}

	width := len(t.Header)
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		for len(t.Rows[i]) < width {
			t.Rows[i] = append(t.Rows[i], "")
		}
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// Write emits the table as a delimited stream.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = t.Separator

	if err := writer.Write(t.Header); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write header")
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to flush output")
	}
	return nil
}

// WriteFile writes the table to disk.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation,
			fmt.Sprintf("cannot create output file %q", path))
	}
	defer f.Close()
	return t.Write(f)
}
