// pkg/mapping/mapper.go
package mapping

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnMapping is the resolved header layout for one sheet: which canonical
// field each column holds, and what each literal header text resolved to.
// A header maps to at most one field and a field is claimed by at most one
// column (first claim wins).
type ColumnMapping struct {
	Fields  map[int]string    // column index -> canonical field
	Headers map[string]string // literal header text -> canonical field
}

// ColumnFor returns the column index holding the given canonical field, or
// -1 when no header resolved to it.
func (m *ColumnMapping) ColumnFor(field string) int {
	for col, f := range m.Fields {
		if f == field {
			return col
		}
	}
	return -1
}

// HasField reports whether any column resolved to the given field.
func (m *ColumnMapping) HasField(field string) bool {
	return m.ColumnFor(field) >= 0
}

// MapColumns resolves a header row against the dictionary. Each header cell
// is tried against the alias rules in three tiers of decreasing strictness:
// exact equality, case-insensitive equality, then case-insensitive substring
// containment of the alias in the header text. Within a tier, dictionary
// rule order decides which field wins.
//
// Columns still unmapped afterwards are filled from the positional fallback
// table; the fallback never overrides a pattern-based match, and never
// claims a field some header already resolved to.
func (d *Dictionary) MapColumns(header []any) *ColumnMapping {
	m := &ColumnMapping{
		Fields:  make(map[int]string),
		Headers: make(map[string]string),
	}
	claimed := make(map[string]bool)

	for col, cell := range header {
		text := headerText(cell)
		if text == "" {
			continue
		}
		field, ok := d.matchHeader(text)
		if !ok || claimed[field] {
			continue
		}
		claimed[field] = true
		m.Fields[col] = field
		m.Headers[text] = field
	}

	cols := make([]int, 0, len(d.Positions))
	for col := range d.Positions {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	for _, col := range cols {
		field := d.Positions[col]
		if col >= len(header) {
			continue
		}
		if _, mapped := m.Fields[col]; mapped || claimed[field] {
			continue
		}
		claimed[field] = true
		m.Fields[col] = field
		if text := headerText(header[col]); text != "" {
			if _, seen := m.Headers[text]; !seen {
				m.Headers[text] = field
			}
		}
	}

	return m
}

// matchHeader runs the three matching tiers for one header text.
func (d *Dictionary) matchHeader(text string) (string, bool) {
	for _, rule := range d.Rules {
		for _, alias := range rule.Aliases {
			if text == alias {
				return rule.Field, true
			}
		}
	}

	lower := strings.ToLower(text)
	for _, rule := range d.Rules {
		for _, alias := range rule.Aliases {
			if lower == strings.ToLower(alias) {
				return rule.Field, true
			}
		}
	}

	for _, rule := range d.Rules {
		for _, alias := range rule.Aliases {
			if strings.Contains(lower, strings.ToLower(alias)) {
				return rule.Field, true
			}
		}
	}

	return "", false
}

func headerText(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
