// pkg/mapping/dictionary.go
package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jalsetu/scheme-ingress/pkg/model"
)

// Rule binds one canonical field to the ordered list of header aliases that
// may name it in an uploaded sheet. Rule order is the tie-break when more
// than one field could claim a header.
type Rule struct {
	Field   string   `yaml:"field"`
	Aliases []string `yaml:"aliases"`
}

// Dictionary is the full mapping configuration: the ordered alias rules plus
// the positional fallback table describing the standard template layout.
type Dictionary struct {
	Rules     []Rule         `yaml:"fields"`
	Positions map[int]string `yaml:"positions"`
}

// DefaultDictionary returns the compiled-in dictionary for the standard
// rollout-report template. Deployments with local templates can override it
// via LoadDictionary.
func DefaultDictionary() *Dictionary {
	return &Dictionary{
		Rules: []Rule{
			{model.FieldSchemeID, []string{"Scheme ID", "Scheme Id", "SchemeID", "Scheme Code", "Scheme No"}},
			{model.FieldSchemeName, []string{"Scheme Name", "Name of Scheme", "Name of the Scheme"}},
			{model.FieldSerialNo, []string{"Sr No", "Sr. No.", "Sr.No", "S.No", "Serial No"}},
			{model.FieldRegion, []string{"Region", "Region Name"}},
			{model.FieldCircle, []string{"Circle", "Circle Name"}},
			{model.FieldDivision, []string{"Division", "Division Name"}},
			{model.FieldSubDivision, []string{"Sub Division", "Sub-Division", "SubDivision"}},
			{model.FieldBlock, []string{"Block", "Taluka"}},
			{model.FieldVillagesIntegrated, []string{"Villages Integrated", "No. of Villages Integrated", "Integrated Villages"}},
			{model.FieldTotalVillages, []string{"Total Villages", "No of Villages", "Villages Total"}},
			{model.FieldFunctionalVillages, []string{"Functional Villages"}},
			{model.FieldPartialVillages, []string{"Partial Villages", "Partially Functional Villages"}},
			{model.FieldNonFunctionalVillages, []string{"Non Functional Villages", "Non-Functional Villages"}},
			{model.FieldFullyCompletedVillages, []string{"Fully Completed Villages", "Villages Fully Completed"}},
			{model.FieldESRIntegrated, []string{"ESR Integrated", "Integrated ESR", "No. of ESR Integrated"}},
			{model.FieldTotalESR, []string{"Total ESR", "No of ESR", "ESR Total"}},
			{model.FieldFullyCompletedESR, []string{"Fully Completed ESR", "ESR Fully Completed"}},
			{model.FieldBalanceESR, []string{"Balance ESR", "ESR Balance"}},
			{model.FieldFlowMetersConnected, []string{"Flow Meters Connected", "Flow Meter Connected", "FM Connected", "No of FM"}},
			{model.FieldPressureTransmittersConnected, []string{"Pressure Transmitters Connected", "Pressure Transmitter Connected", "PT Connected"}},
			{model.FieldResidualChlorineConnected, []string{"RCA Connected", "Residual Chlorine Analyser Connected", "Residual Chlorine Analyzers Connected", "Residual Chlorine"}},
			{model.FieldFunctionalStatus, []string{"Functional Status", "Functionality Status"}},
			{model.FieldStatus, []string{"Status", "Scheme Status", "Overall Status"}},
		},
		Positions: map[int]string{
			0:  model.FieldSerialNo,
			1:  model.FieldRegion,
			2:  model.FieldCircle,
			3:  model.FieldDivision,
			4:  model.FieldSubDivision,
			5:  model.FieldBlock,
			6:  model.FieldSchemeID,
			7:  model.FieldSchemeName,
			8:  model.FieldTotalVillages,
			9:  model.FieldVillagesIntegrated,
			10: model.FieldFullyCompletedVillages,
			11: model.FieldTotalESR,
			12: model.FieldESRIntegrated,
			13: model.FieldFullyCompletedESR,
			14: model.FieldFlowMetersConnected,
			15: model.FieldResidualChlorineConnected,
			16: model.FieldPressureTransmittersConnected,
			17: model.FieldStatus,
		},
	}
}

// LoadDictionary reads a YAML dictionary override. Omitted sections fall
// back to the compiled-in defaults so a site can replace just the aliases or
// just the positional table.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping dictionary: %w", err)
	}

	var loaded Dictionary
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse mapping dictionary: %w", err)
	}

	dict := DefaultDictionary()
	if len(loaded.Rules) > 0 {
		dict.Rules = loaded.Rules
	}
	if len(loaded.Positions) > 0 {
		dict.Positions = loaded.Positions
	}
	return dict, nil
}

// IsAlias reports whether text matches any known header alias, exactly or
// case-insensitively. The reconciler uses this to reject rows whose
// identifier or name cell is a repeated header label left behind by merged
// cells.
func (d *Dictionary) IsAlias(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, rule := range d.Rules {
		for _, alias := range rule.Aliases {
			if strings.EqualFold(trimmed, alias) {
				return true
			}
		}
	}
	return false
}
