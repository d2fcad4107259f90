// pkg/ingest/importer.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jalsetu/scheme-ingress/pkg/aggregate"
	"github.com/jalsetu/scheme-ingress/pkg/feed"
	"github.com/jalsetu/scheme-ingress/pkg/mapping"
	"github.com/jalsetu/scheme-ingress/pkg/model"
	"github.com/jalsetu/scheme-ingress/pkg/region"
	"github.com/jalsetu/scheme-ingress/pkg/sheet"
	"github.com/jalsetu/scheme-ingress/pkg/store"
)

// Importer orchestrates one uploaded file through the pipeline: header
// detection, column mapping, region resolution, per-row reconciliation and
// the final summary recompute. Rows are processed in sheet order then row
// order; change events are appended in that same order.
type Importer struct {
	store     store.Store
	feed      *feed.ChangeFeed
	dict      *mapping.Dictionary
	resolver  *region.Resolver
	engine    *aggregate.Engine
	logger    *zap.Logger
	scanDepth int
	lockTable string
}

// NewImporter creates an importer
func NewImporter(
	s store.Store,
	f *feed.ChangeFeed,
	dict *mapping.Dictionary,
	resolver *region.Resolver,
	engine *aggregate.Engine,
	scanDepth int,
	lockTable string,
	logger *zap.Logger,
) (*Importer, error) {
	if s == nil {
		return nil, errors.New("store cannot be nil")
	}
	if f == nil {
		return nil, errors.New("change feed cannot be nil")
	}
	if dict == nil {
		return nil, errors.New("mapping dictionary cannot be nil")
	}
	if resolver == nil {
		return nil, errors.New("region resolver cannot be nil")
	}
	if engine == nil {
		return nil, errors.New("aggregation engine cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if lockTable == "" {
		return nil, errors.New("lock table name cannot be empty")
	}
	if scanDepth <= 0 {
		scanDepth = sheet.DefaultScanDepth
	}

	return &Importer{
		store:     s,
		feed:      f,
		dict:      dict,
		resolver:  resolver,
		engine:    engine,
		logger:    logger,
		scanDepth: scanDepth,
		lockTable: lockTable,
	}, nil
}

// ImportFile decodes one uploaded report file and imports its sheets. A file
// that cannot be decoded fails the whole call before any store mutation.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	decodeStart := time.Now()
	sheets, err := sheet.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	metrics := NewImportMetrics(imp.logger)
	metrics.AddPhase("decode", time.Since(decodeStart))

	return imp.importSheets(ctx, sheets, metrics)
}

// ImportSheets imports already-decoded sheets, for callers that receive raw
// grids from elsewhere.
func (imp *Importer) ImportSheets(ctx context.Context, sheets []*sheet.RawSheet) (*Report, error) {
	return imp.importSheets(ctx, sheets, NewImportMetrics(imp.logger))
}

func (imp *Importer) importSheets(ctx context.Context, sheets []*sheet.RawSheet, metrics *ImportMetrics) (*Report, error) {
	unlock, err := imp.store.AcquireImportLock(ctx, imp.lockTable)
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := NewReport()
	imp.logger.Info("Import batch started",
		zap.String("batch_id", report.BatchID),
		zap.Int("sheets", len(sheets)))

	reconciler, err := NewReconciler(imp.store, imp.feed, imp.dict, imp.logger)
	if err != nil {
		return nil, err
	}

	reconcileStart := time.Now()
	for _, s := range sheets {
		imp.processSheet(ctx, s, reconciler, report, metrics)
	}
	metrics.AddPhase("reconcile", time.Since(reconcileStart))

	aggregateStart := time.Now()
	regions, err := imp.engine.RecomputeAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute region summaries: %w", err)
	}
	metrics.AddPhase("aggregate", time.Since(aggregateStart))
	report.RegionsRecomputed = regions

	report.Finish()
	metrics.LogSummary()
	imp.logger.Info("Import batch finished",
		zap.String("batch_id", report.BatchID),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
		zap.Strings("regions_recomputed", report.RegionsRecomputed))

	return report, nil
}

// processSheet runs one sheet through mapping and reconciliation. Sheet-level
// failures skip the sheet with a logged reason; other sheets in the file are
// still processed.
func (imp *Importer) processSheet(ctx context.Context, s *sheet.RawSheet, reconciler *Reconciler, report *Report, metrics *ImportMetrics) {
	if s.RowCount() == 0 {
		imp.logger.Warn("Skipping empty sheet", zap.String("sheet", s.Name))
		report.SheetsSkipped++
		return
	}

	metrics.StartSheet(s.Name)
	defer metrics.EndSheet(s.Name)

	headerIdx := sheet.DetectHeaderRow(s, imp.scanDepth)
	colMap := imp.dict.MapColumns(s.Rows[headerIdx])

	if !colMap.HasField(model.FieldSchemeID) && !colMap.HasField(model.FieldSchemeName) {
		imp.logger.Warn("Skipping sheet: no identifier-capable column found",
			zap.String("sheet", s.Name),
			zap.Int("header_row", headerIdx))
		report.SheetsSkipped++
		return
	}

	regionName, err := imp.resolver.Resolve(s.Name, imp.firstRegionValue(s, headerIdx, colMap))
	if err != nil {
		imp.logger.Warn("Skipping sheet: no region resolvable",
			zap.String("sheet", s.Name),
			zap.Error(err))
		report.SheetsSkipped++
		return
	}

	imp.logger.Debug("Processing sheet",
		zap.String("sheet", s.Name),
		zap.String("region", regionName),
		zap.Int("header_row", headerIdx),
		zap.Int("mapped_columns", len(colMap.Fields)))

	for i := headerIdx + 1; i < s.RowCount(); i++ {
		row := s.Rows[i]
		if sheet.IsEmptyRow(row) {
			continue
		}

		cand := BuildCandidate(colMap, row, regionName, imp.resolver)
		outcome := reconciler.Reconcile(ctx, cand, s.Name, i)
		report.Record(outcome)
		metrics.RecordOutcome(outcome)

		if outcome.Kind == OutcomeSkipped {
			imp.logger.Debug("Row skipped",
				zap.String("sheet", s.Name),
				zap.Int("row", i),
				zap.String("reason", outcome.Reason))
		}
		if outcome.Kind == OutcomeFailed {
			imp.logger.Error("Row failed",
				zap.String("sheet", s.Name),
				zap.Int("row", i),
				zap.Error(outcome.Err))
		}
	}

	report.SheetsProcessed++
}

// firstRegionValue reads the region column of the first non-empty data row,
// the fallback when the sheet name carries no region hint.
func (imp *Importer) firstRegionValue(s *sheet.RawSheet, headerIdx int, colMap *mapping.ColumnMapping) string {
	col := colMap.ColumnFor(model.FieldRegion)
	if col < 0 {
		return ""
	}
	for i := headerIdx + 1; i < s.RowCount(); i++ {
		if sheet.IsEmptyRow(s.Rows[i]) {
			continue
		}
		if v := s.Cell(i, col); v != nil {
			if text, ok := v.(string); ok {
				return text
			}
			return fmt.Sprintf("%v", v)
		}
		return ""
	}
	return ""
}
