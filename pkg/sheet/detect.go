// pkg/sheet/detect.go
package sheet

// DefaultScanDepth bounds how far into a sheet the header search looks.
// Headers in the field-submitted workbooks sit within the first handful of
// rows; anything deeper is data.
const DefaultScanDepth = 20

// DetectHeaderRow returns the index of the most plausible header row: the
// row with the maximum count of non-empty cells within the scan window.
// Ties prefer the earliest row. An empty sheet yields 0.
//
// The heuristic assumes the header is the densest row near the top. A sheet
// whose header is sparser than a data row will be misdetected; tightening
// scanDepth for known layouts narrows that exposure.
func DetectHeaderRow(s *RawSheet, scanDepth int) int {
	if scanDepth <= 0 {
		scanDepth = DefaultScanDepth
	}
	limit := scanDepth
	if limit > len(s.Rows) {
		limit = len(s.Rows)
	}

	bestRow := 0
	bestCount := -1
	for i := 0; i < limit; i++ {
		count := 0
		for _, v := range s.Rows[i] {
			if !IsEmptyCell(v) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			bestRow = i
		}
	}
	return bestRow
}
