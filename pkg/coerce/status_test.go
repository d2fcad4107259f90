package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jalsetu/scheme-ingress/pkg/model"
)

func TestNormalizeStatusExactVariants(t *testing.T) {
	cases := map[string]string{
		"completed":        model.StatusFullyCompleted,
		"Fully Completed":  model.StatusFullyCompleted,
		"FULLY-COMPLETED":  model.StatusFullyCompleted,
		"in progress":      model.StatusInProgress,
		"Partial":          model.StatusInProgress,
		"not connected":    model.StatusNotConnected,
		"Not-Connected":    model.StatusNotConnected,
		"non functional":   model.StatusNonFunctional,
		"  Functional   ":  model.StatusFunctional,
		"non-functional  ": model.StatusNonFunctional,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeStatus(in), "input %q", in)
	}
}

func TestNormalizeStatusSubstringHeuristics(t *testing.T) {
	assert.Equal(t, model.StatusFullyCompleted, NormalizeStatus("Work Completed (100%)"))
	assert.Equal(t, model.StatusInProgress, NormalizeStatus("work in progress - 60%"))
	assert.Equal(t, model.StatusInProgress, NormalizeStatus("partially commissioned"))
	assert.Equal(t, model.StatusNonFunctional, NormalizeStatus("scheme not functioning"))
	assert.Equal(t, model.StatusNonFunctional, NormalizeStatus("non functional since June"))
}

func TestNormalizeStatusFallbackCapitalizesWords(t *testing.T) {
	assert.Equal(t, "Pending Approval", NormalizeStatus("pending approval"))
	assert.Equal(t, "Handed Over", NormalizeStatus("HANDED OVER"))
}

func TestNormalizeStatusEmpty(t *testing.T) {
	assert.Equal(t, "", NormalizeStatus(""))
	assert.Equal(t, "", NormalizeStatus("   "))
}

func TestNormalizeStatusIdempotent(t *testing.T) {
	inputs := []string{
		"completed", "Fully Completed", "in progress", "partial",
		"not connected", "non functional", "functional",
		"Work Completed (100%)", "pending approval", "HANDED OVER",
		"scheme not functioning", "", "   ",
	}
	for _, in := range inputs {
		once := NormalizeStatus(in)
		twice := NormalizeStatus(once)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}
