package sheet

import (
	"context"
	"fmt"
)

// CellWrite records one WriteCell call.
type CellWrite struct {
	Row   int
	Col   int
	Value string
}

// Memory is an in-memory Source.
// It records every write so tests can assert on marker writes.
//
// Not safe for concurrent use; the reconciler is single-threaded.
type Memory struct {
	grid   [][]string
	Writes []CellWrite

	// FailWrites makes WriteCell return an error, for failure-path tests.
	FailWrites bool
}

// NewMemory creates a Memory source over a copy of grid.
func NewMemory(grid [][]string) *Memory {
	return &Memory{grid: copyGrid(grid)}
}

// Rows returns a copy of the grid.
func (m *Memory) Rows(ctx context.Context) ([][]string, error) {
	return copyGrid(m.grid), nil
}

// AppendHeaderColumn appends name to the header row.
func (m *Memory) AppendHeaderColumn(ctx context.Context, name string) error {
	if len(m.grid) == 0 {
		m.grid = [][]string{{name}}
		return nil
	}
	m.grid[0] = append(m.grid[0], name)
	return nil
}

// WriteCell sets a cell, growing the grid as needed.
func (m *Memory) WriteCell(ctx context.Context, row, col int, value string) error {
	if m.FailWrites {
		return fmt.Errorf("write %s: memory source is read-only", CellRef(row, col))
	}
	if row < 1 || col < 0 {
		return fmt.Errorf("write cell: invalid position row=%d col=%d", row, col)
	}
	for len(m.grid) < row {
		m.grid = append(m.grid, nil)
	}
	r := m.grid[row-1]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = value
	m.grid[row-1] = r
	m.Writes = append(m.Writes, CellWrite{Row: row, Col: col, Value: value})
	return nil
}

// Cell returns the value at a 1-based row and 0-based column, or "".
func (m *Memory) Cell(row, col int) string {
	if row < 1 || row > len(m.grid) {
		return ""
	}
	return Row{Cells: m.grid[row-1]}.Cell(col)
}

// Header returns a copy of the header row.
func (m *Memory) Header() []string {
	if len(m.grid) == 0 {
		return nil
	}
	return append([]string(nil), m.grid[0]...)
}

func copyGrid(grid [][]string) [][]string {
	out := make([][]string, len(grid))
	for i, r := range grid {
		out[i] = append([]string(nil), r...)
	}
	return out
}
