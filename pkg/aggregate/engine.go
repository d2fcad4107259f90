// pkg/aggregate/engine.go
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jalsetu/scheme-ingress/pkg/model"
	"github.com/jalsetu/scheme-ingress/pkg/store"
)

// Engine recomputes region summaries from the full set of live canonical
// records. Summaries are always rebuilt from ground truth and replaced
// wholesale; adding batch deltas to the previous summary would double-count
// whenever a later import corrects a record downward.
type Engine struct {
	store  store.Store
	logger *zap.Logger
}

// NewEngine creates an aggregation engine
func NewEngine(s store.Store, logger *zap.Logger) (*Engine, error) {
	if s == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Engine{store: s, logger: logger}, nil
}

// RecomputeAll rebuilds the summary for every region present in the store
// and returns the list of regions whose summary was replaced.
func (e *Engine) RecomputeAll(ctx context.Context) ([]string, error) {
	regions, err := e.store.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	for _, region := range regions {
		if _, err := e.RecomputeRegion(ctx, region); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Recomputed region summaries", zap.Int("regions", len(regions)))
	return regions, nil
}

// RecomputeRegion rebuilds one region's summary from its live records and
// replaces the stored row.
func (e *Engine) RecomputeRegion(ctx context.Context, region string) (*model.RegionSummary, error) {
	records, err := e.store.ListByRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for region %s: %w", region, err)
	}

	summary := &model.RegionSummary{Region: region}
	for i := range records {
		summary.Add(&records[i])
	}

	if err := e.store.ReplaceSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to replace summary for region %s: %w", region, err)
	}

	e.logger.Debug("Replaced region summary",
		zap.String("region", region),
		zap.Int("schemes", summary.TotalSchemes),
		zap.Int("villages_integrated", summary.VillagesIntegrated),
		zap.Int("esr_integrated", summary.ESRIntegrated))

	return summary, nil
}
