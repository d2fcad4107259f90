// pkg/region/resolver.go
package region

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultRegions is the ordered list of geographic regions the resolver
// recognizes. Order matters: the first pattern matching a sheet name wins.
var DefaultRegions = []string{
	"Amravati",
	"Chhatrapati Sambhajinagar",
	"Aurangabad",
	"Konkan",
	"Nagpur",
	"Nashik",
	"Pune",
	"Thane",
}

// Resolver determines the region a sheet belongs to, first from the sheet
// name, then from a designated region column in the first data row. A sheet
// for which neither yields a region is rejected, never silently attributed
// to a default.
type Resolver struct {
	patterns []pattern
	logger   *zap.Logger
}

type pattern struct {
	name string
	re   *regexp.Regexp
}

// NewResolver builds a resolver over an ordered region list. Each region
// becomes a case-insensitive, word-boundary-anchored pattern.
func NewResolver(regions []string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	patterns := make([]pattern, 0, len(regions))
	for _, name := range regions {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		patterns = append(patterns, pattern{name: name, re: re})
	}
	return &Resolver{patterns: patterns, logger: logger}
}

// regionsFile mirrors the YAML override layout.
type regionsFile struct {
	Regions []string `yaml:"regions"`
}

// LoadRegions reads a YAML region-list override.
func LoadRegions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read region list: %w", err)
	}
	var loaded regionsFile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse region list: %w", err)
	}
	if len(loaded.Regions) == 0 {
		return nil, fmt.Errorf("region list %s is empty", path)
	}
	return loaded.Regions, nil
}

// FromSheetName matches the sheet name against the region patterns and
// returns the first hit.
func (r *Resolver) FromSheetName(sheetName string) (string, bool) {
	for _, p := range r.patterns {
		if p.re.MatchString(sheetName) {
			return p.name, true
		}
	}
	return "", false
}

// FromValue canonicalizes a region column value: a pattern hit yields the
// canonical region name, otherwise the trimmed text itself is taken as the
// region.
func (r *Resolver) FromValue(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	for _, p := range r.patterns {
		if p.re.MatchString(trimmed) {
			return p.name, true
		}
	}
	return trimmed, true
}

// Resolve determines a sheet's region from its name, falling back to the
// region column value of the first data row. An empty result means the
// sheet must be skipped.
func (r *Resolver) Resolve(sheetName, firstRowRegion string) (string, error) {
	if name, ok := r.FromSheetName(sheetName); ok {
		return name, nil
	}
	if name, ok := r.FromValue(firstRowRegion); ok {
		r.logger.Debug("Region resolved from column value",
			zap.String("sheet", sheetName),
			zap.String("region", name))
		return name, nil
	}
	return "", fmt.Errorf("no region resolvable for sheet %q", sheetName)
}
