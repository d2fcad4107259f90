// pkg/sheet/decode.go
package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Decode reads an uploaded report file and returns its sheets as raw grids.
// Workbooks (.xlsx) yield one RawSheet per worksheet; delimited files (.csv)
// yield a single RawSheet named after the file's base name. A file that
// cannot be decoded fails the whole import call; no store mutation happens
// on that path.
func Decode(path string) ([]*RawSheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return decodeWorkbook(path)
	case ".csv":
		return decodeDelimited(path)
	default:
		return nil, fmt.Errorf("unsupported report format %q", filepath.Ext(path))
	}
}

func decodeWorkbook(path string) ([]*RawSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook %s contains no sheets", filepath.Base(path))
	}

	sheets := make([]*RawSheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		sheets = append(sheets, &RawSheet{Name: name, Rows: gridFromStrings(rows)})
	}
	return sheets, nil
}

func decodeDelimited(path string) ([]*RawSheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // field-submitted files have ragged rows
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []*RawSheet{{Name: name, Rows: gridFromStrings(records)}}, nil
}

// gridFromStrings converts decoder output into the grid representation,
// mapping blank cells to nil so emptiness checks are uniform downstream.
func gridFromStrings(rows [][]string) [][]any {
	grid := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if strings.TrimSpace(v) == "" {
				cells[j] = nil
			} else {
				cells[j] = v
			}
		}
		grid[i] = cells
	}
	return grid
}
