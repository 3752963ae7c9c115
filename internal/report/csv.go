package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingColumn is returned by ReadCSV when a required column is absent.
var ErrMissingColumn = errors.New("missing CSV column")

// CSVWriter writes rows of T as CSV, with the header written once before
// the first row.
type CSVWriter[T any] struct {
	w           *csv.Writer
	headers     []string
	record      func(T) []string
	wroteHeader bool
}

// NewCSVWriter creates a CSVWriter. record converts a row into fields in
// header order.
func NewCSVWriter[T any](output io.Writer, headers []string, record func(T) []string) *CSVWriter[T] {
	return &CSVWriter[T]{
		w:       csv.NewWriter(output),
		headers: headers,
		record:  record,
	}
}

// WriteHeader writes the header if it has not been written yet.
func (c *CSVWriter[T]) WriteHeader() error {
	if c.wroteHeader {
		return nil
	}
	c.wroteHeader = true
	return c.w.Write(c.headers)
}

// Write appends rows.
func (c *CSVWriter[T]) Write(rows ...T) error {
	if err := c.WriteHeader(); err != nil {
		return err
	}
	for _, row := range rows {
		fields := c.record(row)
		if len(fields) != len(c.headers) {
			return fmt.Errorf("csv row has %d fields, want %d", len(fields), len(c.headers))
		}
		if err := c.w.Write(fields); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered rows to the output.
func (c *CSVWriter[T]) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// ReadCSV reads a CSV file with a header row into one map per row, keyed
// by column name. Header names are trimmed and a UTF-8 byte order mark is
// dropped. Every required column must be present.
func ReadCSV(r io.Reader, required ...string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		headers[i] = h
		index[h] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var rows []map[string]string
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("read CSV line %d: %w", line, err)
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		rows = append(rows, row)
	}
}
