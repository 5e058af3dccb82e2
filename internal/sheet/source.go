package sheet

import (
	"context"
	"fmt"
)

// Source is the row source consumed by the reconciler.
//
// Row numbers are 1-based sheet rows (the header is row 1). Column numbers
// are 0-based indices into the header slice.
type Source interface {
	// Rows returns the full grid, header row first. Trailing empty cells may
	// be omitted, so rows can be shorter than the header.
	Rows(ctx context.Context) ([][]string, error)

	// AppendHeaderColumn adds a new column named name after the last header.
	AppendHeaderColumn(ctx context.Context, name string) error

	// WriteCell sets a single cell.
	WriteCell(ctx context.Context, row, col int, value string) error
}

// Row is one data row with its sheet position.
type Row struct {
	// Index is the 1-based sheet row. The first data row is 2.
	Index int
	Cells []string
}

// Cell returns the raw value at col, or "" when the row is
// shorter than col.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return r.Cells[col]
}

// DataRows converts a grid into data rows, dropping the header.
func DataRows(grid [][]string) []Row {
	if len(grid) < 2 {
		return nil
	}
	rows := make([]Row, 0, len(grid)-1)
	for i, cells := range grid[1:] {
		rows = append(rows, Row{Index: i + 2, Cells: cells})
	}
	return rows
}

// ColumnLetter converts a 0-based column index to A1 letters (0 → "A", 26 → "AA").
func ColumnLetter(col int) string {
	if col < 0 {
		panic(fmt.Sprintf("sheet: negative column %d", col))
	}
	var buf []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}
	return string(buf)
}

// CellRef returns the A1 reference for a 1-based row and 0-based column.
func CellRef(row, col int) string {
	return fmt.Sprintf("%s%d", ColumnLetter(col), row)
}
