// pkg/ingest/candidate.go
package ingest

import (
	"github.com/jalsetu/scheme-ingress/pkg/coerce"
	"github.com/jalsetu/scheme-ingress/pkg/mapping"
	"github.com/jalsetu/scheme-ingress/pkg/model"
	"github.com/jalsetu/scheme-ingress/pkg/region"
)

// BuildCandidate coerces one raw data row into a canonical record candidate
// using the sheet's resolved column mapping. The sheet's region is the
// default; a non-empty region cell on the row itself wins after
// canonicalization.
func BuildCandidate(m *mapping.ColumnMapping, row []any, sheetRegion string, resolver *region.Resolver) *model.CanonicalRecord {
	rec := &model.CanonicalRecord{Region: sheetRegion}

	for col, field := range m.Fields {
		var value any
		if col < len(row) {
			value = row[col]
		}

		switch field {
		case model.FieldSchemeID:
			rec.SchemeID = coerce.ToIdentifier(value)
		case model.FieldSchemeName:
			rec.SchemeName = coerce.ToText(value)
		case model.FieldRegion:
			if text := coerce.ToText(value); text != "" && resolver != nil {
				if canonical, ok := resolver.FromValue(text); ok {
					rec.Region = canonical
				}
			}
		case model.FieldCircle:
			rec.Circle = coerce.ToText(value)
		case model.FieldDivision:
			rec.Division = coerce.ToText(value)
		case model.FieldSubDivision:
			rec.SubDivision = coerce.ToText(value)
		case model.FieldBlock:
			rec.Block = coerce.ToText(value)

		case model.FieldTotalVillages:
			rec.TotalVillages = coerce.ToCount(value)
		case model.FieldVillagesIntegrated:
			rec.VillagesIntegrated = coerce.ToCount(value)
		case model.FieldFunctionalVillages:
			rec.FunctionalVillages = coerce.ToCount(value)
		case model.FieldPartialVillages:
			rec.PartialVillages = coerce.ToCount(value)
		case model.FieldNonFunctionalVillages:
			rec.NonFunctionalVillages = coerce.ToCount(value)
		case model.FieldFullyCompletedVillages:
			rec.FullyCompletedVillages = coerce.ToCount(value)

		case model.FieldTotalESR:
			rec.TotalESR = coerce.ToCount(value)
		case model.FieldESRIntegrated:
			rec.ESRIntegrated = coerce.ToCount(value)
		case model.FieldFullyCompletedESR:
			rec.FullyCompletedESR = coerce.ToCount(value)
		case model.FieldBalanceESR:
			rec.BalanceESR = coerce.ToCount(value)

		case model.FieldFlowMetersConnected:
			rec.FlowMetersConnected = coerce.ToCount(value)
		case model.FieldPressureTransmittersConnected:
			rec.PressureTransmittersConnected = coerce.ToCount(value)
		case model.FieldResidualChlorineConnected:
			rec.ResidualChlorineConnected = coerce.ToCount(value)

		case model.FieldStatus:
			rec.Status = coerce.NormalizeStatus(coerce.ToText(value))
		case model.FieldFunctionalStatus:
			rec.FunctionalStatus = coerce.NormalizeStatus(coerce.ToText(value))

		case model.FieldSerialNo:
			// Serial placeholders carry no canonical content.
		}
	}

	return rec
}
