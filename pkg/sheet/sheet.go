// pkg/sheet/sheet.go
package sheet

import "strings"

// RawSheet is a named 2-D grid of cell values as produced by the file
// decoder. Values are string, float64 or nil; the pipeline treats the grid
// as immutable input.
type RawSheet struct {
	Name string
	Rows [][]any
}

// Cell returns the value at (row, col), or nil when the address falls
// outside the ragged grid.
func (s *RawSheet) Cell(row, col int) any {
	if row < 0 || row >= len(s.Rows) {
		return nil
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

// RowCount returns the number of rows in the grid.
func (s *RawSheet) RowCount() int {
	return len(s.Rows)
}

// IsEmptyCell reports whether a raw cell value carries no content.
func IsEmptyCell(v any) bool {
	if v == nil {
		return true
	}
	if str, ok := v.(string); ok {
		return strings.TrimSpace(str) == ""
	}
	return false
}

// IsEmptyRow reports whether every cell in the row is empty.
func IsEmptyRow(row []any) bool {
	for _, v := range row {
		if !IsEmptyCell(v) {
			return false
		}
	}
	return true
}
