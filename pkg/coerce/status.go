// pkg/coerce/status.go
package coerce

import (
	"strings"

	"github.com/jalsetu/scheme-ingress/pkg/model"
)

// canonicalStatuses maps lowercased, trimmed status variants onto the closed
// vocabulary. Field reports spell the same state a dozen ways.
var canonicalStatuses = map[string]string{
	"completed":       model.StatusFullyCompleted,
	"complete":        model.StatusFullyCompleted,
	"fully completed": model.StatusFullyCompleted,
	"fully-completed": model.StatusFullyCompleted,
	"in progress":     model.StatusInProgress,
	"in-progress":     model.StatusInProgress,
	"partial":         model.StatusInProgress,
	"not connected":   model.StatusNotConnected,
	"not-connected":   model.StatusNotConnected,
	"non functional":  model.StatusNonFunctional,
	"non-functional":  model.StatusNonFunctional,
	"functional":      model.StatusFunctional,
}

// NormalizeStatus canonicalizes a free-text status string. Exact matches
// against the variant table come first, then substring heuristics, and a
// string nothing recognizes is returned with each word capitalized.
// Normalizing an already-canonical value returns it unchanged.
func NormalizeStatus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	lower := strings.ToLower(trimmed)
	if canonical, ok := canonicalStatuses[lower]; ok {
		return canonical
	}

	switch {
	case strings.Contains(lower, "complet"):
		return model.StatusFullyCompleted
	case strings.Contains(lower, "progress"), strings.Contains(lower, "partial"):
		return model.StatusInProgress
	case (strings.Contains(lower, "non") || strings.Contains(lower, "not")) &&
		strings.Contains(lower, "function"):
		return model.StatusNonFunctional
	}

	return capitalizeWords(trimmed)
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
