// pkg/coerce/values.go
package coerce

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jalsetu/scheme-ingress/pkg/model"
)

// FieldClass describes how a canonical field's raw values are coerced.
type FieldClass int

const (
	// ClassText trims whitespace; nil passes through as nil.
	ClassText FieldClass = iota
	// ClassIdentifier is text that must never be numerically coerced, even
	// when the cell looks numeric.
	ClassIdentifier
	// ClassCount parses to a non-negative integer, defaulting to 0 on
	// failure or absence.
	ClassCount
	// ClassSerial is a serial-number placeholder: parse failure or absence
	// yields nil, not 0.
	ClassSerial
	// ClassStatus canonicalizes through the status normalizer.
	ClassStatus
)

var fieldClasses = map[string]FieldClass{
	model.FieldSerialNo:    ClassSerial,
	model.FieldSchemeID:    ClassIdentifier,
	model.FieldSchemeName:  ClassText,
	model.FieldRegion:      ClassText,
	model.FieldCircle:      ClassText,
	model.FieldDivision:    ClassText,
	model.FieldSubDivision: ClassText,
	model.FieldBlock:       ClassText,

	model.FieldTotalVillages:          ClassCount,
	model.FieldVillagesIntegrated:     ClassCount,
	model.FieldFunctionalVillages:     ClassCount,
	model.FieldPartialVillages:        ClassCount,
	model.FieldNonFunctionalVillages:  ClassCount,
	model.FieldFullyCompletedVillages: ClassCount,

	model.FieldTotalESR:          ClassCount,
	model.FieldESRIntegrated:     ClassCount,
	model.FieldFullyCompletedESR: ClassCount,
	model.FieldBalanceESR:        ClassCount,

	model.FieldFlowMetersConnected:           ClassCount,
	model.FieldPressureTransmittersConnected: ClassCount,
	model.FieldResidualChlorineConnected:     ClassCount,

	model.FieldStatus:           ClassStatus,
	model.FieldFunctionalStatus: ClassStatus,
}

// ClassOf returns the coercion class for a canonical field. Unknown fields
// are treated as plain text.
func ClassOf(field string) FieldClass {
	if class, ok := fieldClasses[field]; ok {
		return class
	}
	return ClassText
}

// nonNumeric strips everything that cannot appear in a number: commas,
// currency symbols, stray units.
var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// ToIdentifier converts a raw cell into a trimmed identifier string. Numeric
// cells are rendered without a decimal tail so a spreadsheet's 20019176.0
// round-trips as "20019176".
func ToIdentifier(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// ToCount parses a raw cell as a non-negative integer count. Non-numeric
// characters are stripped before parsing; parse failure, absence, or a
// negative result all yield 0. Counts are never null.
func ToCount(value any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		if v < 0 {
			return 0
		}
		return int(math.Round(v))
	case int:
		if v < 0 {
			return 0
		}
		return v
	case string:
		cleaned := nonNumeric.ReplaceAllString(v, "")
		if cleaned == "" || cleaned == "-" || cleaned == "." {
			return 0
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || parsed < 0 {
			return 0
		}
		return int(math.Round(parsed))
	default:
		return 0
	}
}

// ToSerial parses a serial-number placeholder. Unlike counts, an unparseable
// or absent serial is nil rather than 0.
func ToSerial(value any) *int {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		n := int(math.Round(v))
		return &n
	case int:
		n := v
		return &n
	case string:
		cleaned := nonNumeric.ReplaceAllString(v, "")
		if cleaned == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		n := int(math.Round(parsed))
		return &n
	default:
		return nil
	}
}

// ToText trims whitespace from a raw cell; nil passes through as empty.
func ToText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
