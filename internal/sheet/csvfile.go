package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// CSVFile is a Source backed by a local CSV export of the signup sheet.
//
// Every write rereads the file, applies the change and replaces the file
// atomically, so an interrupted run never leaves a half-written sheet.
type CSVFile struct {
	path string
}

// NewCSVFile returns a CSVFile source for path. The file must exist.
func NewCSVFile(path string) (*CSVFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open csv source: %w", err)
	}
	return &CSVFile{path: path}, nil
}

// Rows reads the whole file.
func (c *CSVFile) Rows(ctx context.Context) ([][]string, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("read csv source: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Exports drop trailing empty cells on some rows.
	r.FieldsPerRecord = -1
	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv source %s: %w", c.path, err)
	}
	return grid, nil
}

// AppendHeaderColumn appends name to the header row and rewrites the file.
func (c *CSVFile) AppendHeaderColumn(ctx context.Context, name string) error {
	return c.update(ctx, func(m *Memory) error {
		return m.AppendHeaderColumn(ctx, name)
	})
}

// WriteCell sets one cell and rewrites the file.
func (c *CSVFile) WriteCell(ctx context.Context, row, col int, value string) error {
	return c.update(ctx, func(m *Memory) error {
		return m.WriteCell(ctx, row, col, value)
	})
}

func (c *CSVFile) update(ctx context.Context, fn func(*Memory) error) error {
	grid, err := c.Rows(ctx)
	if err != nil {
		return err
	}
	m := NewMemory(grid)
	if err := fn(m); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(m.grid); err != nil {
		return fmt.Errorf("encode csv source: %w", err)
	}
	if err := atomic.WriteFile(c.path, &buf); err != nil {
		return fmt.Errorf("write csv source %s: %w", c.path, err)
	}
	return nil
}
