package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func row(values ...any) []any {
	return values
}

func TestDetectHeaderRowPicksDensestRow(t *testing.T) {
	s := &RawSheet{
		Name: "Region - Nashik Data",
		Rows: [][]any{
			row("Water Supply Rollout", nil, nil, "2025", nil, "Q2", nil, nil, nil, nil, nil, nil, nil, nil),
			row("Circle", "Division", nil, "Block", "Scheme", "Villages", nil, "ESR", "FM", nil, nil, nil, nil, nil),
			row("Sr No", "Region", "Circle", "Division", "Sub Division", "Block", "Scheme ID", "Scheme Name",
				"Total Villages", "Villages Integrated", "Total ESR", "ESR Integrated", "Flow Meters Connected", "Status"),
			row("1", "Nashik", "Nashik", "Nashik", "Sinnar", "Sinnar", "20019176", "Sinnar RR WSS",
				"12", "8", "6", "4", "5", "In Progress"),
		},
	}

	assert.Equal(t, 2, DetectHeaderRow(s, DefaultScanDepth))
}

func TestDetectHeaderRowTieBreaksEarliest(t *testing.T) {
	s := &RawSheet{
		Rows: [][]any{
			row("a", "b", "c"),
			row("d", "e", "f"),
		},
	}
	assert.Equal(t, 0, DetectHeaderRow(s, DefaultScanDepth))
}

func TestDetectHeaderRowEmptySheet(t *testing.T) {
	s := &RawSheet{}
	assert.Equal(t, 0, DetectHeaderRow(s, DefaultScanDepth))
}

func TestDetectHeaderRowRespectsScanDepth(t *testing.T) {
	s := &RawSheet{
		Rows: [][]any{
			row("only", nil),
			row("a", "b"),
			row("w", "x", "y", "z"), // densest but beyond the window
		},
	}
	assert.Equal(t, 1, DetectHeaderRow(s, 2))
}

func TestDetectHeaderRowIgnoresWhitespaceCells(t *testing.T) {
	s := &RawSheet{
		Rows: [][]any{
			row("  ", "", nil, "   "),
			row("Scheme ID", "Scheme Name"),
		},
	}
	assert.Equal(t, 1, DetectHeaderRow(s, DefaultScanDepth))
}

func TestIsEmptyRow(t *testing.T) {
	assert.True(t, IsEmptyRow(row(nil, "", "  ")))
	assert.False(t, IsEmptyRow(row(nil, "x")))
	assert.False(t, IsEmptyRow(row(float64(0))))
}
