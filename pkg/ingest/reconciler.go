// pkg/ingest/reconciler.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jalsetu/scheme-ingress/pkg/feed"
	"github.com/jalsetu/scheme-ingress/pkg/mapping"
	"github.com/jalsetu/scheme-ingress/pkg/model"
	"github.com/jalsetu/scheme-ingress/pkg/store"
)

// trackedMetrics are the count fields whose strictly positive increases are
// reported to the change feed. Zero or negative deltas are absorbed into the
// overwritten record without an event.
var trackedMetrics = []struct {
	metric model.MetricType
	value  func(*model.CanonicalRecord) int
}{
	{model.MetricVillage, func(r *model.CanonicalRecord) int { return r.VillagesIntegrated }},
	{model.MetricESR, func(r *model.CanonicalRecord) int { return r.ESRIntegrated }},
	{model.MetricFlowMeter, func(r *model.CanonicalRecord) int { return r.FlowMetersConnected }},
	{model.MetricRCA, func(r *model.CanonicalRecord) int { return r.ResidualChlorineConnected }},
	{model.MetricPressureTransmitter, func(r *model.CanonicalRecord) int { return r.PressureTransmittersConnected }},
}

// Reconciler matches candidate records against the store, computes
// per-metric deltas, performs full-replace upserts and emits change events.
// One Reconciler instance serves one batch: it carries the batch's duplicate
// set and the cached identifier high-water mark.
type Reconciler struct {
	store  store.Store
	feed   *feed.ChangeFeed
	dict   *mapping.Dictionary
	logger *zap.Logger
	now    func() time.Time

	seen      map[string]bool
	nextID    int64
	idsLoaded bool
}

// NewReconciler creates a reconciler for one import batch
func NewReconciler(s store.Store, f *feed.ChangeFeed, dict *mapping.Dictionary, logger *zap.Logger) (*Reconciler, error) {
	if s == nil {
		return nil, errors.New("store cannot be nil")
	}
	if f == nil {
		return nil, errors.New("change feed cannot be nil")
	}
	if dict == nil {
		return nil, errors.New("mapping dictionary cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Reconciler{
		store:  s,
		feed:   f,
		dict:   dict,
		logger: logger,
		now:    time.Now,
		seen:   make(map[string]bool),
	}, nil
}

// Reconcile applies one candidate record and returns the row's outcome.
// Rows whose identifier or name echoes a header label, and identifiers
// already seen in this batch, are skipped; the first occurrence wins.
func (r *Reconciler) Reconcile(ctx context.Context, cand *model.CanonicalRecord, sheetName string, rowIdx int) RowOutcome {
	if cand.SchemeID == "" && cand.SchemeName == "" {
		return Skipped(sheetName, rowIdx, ReasonNoIdentifier)
	}

	// Merged-cell and multi-header artifacts surface as data rows repeating
	// the header text.
	if r.dict.IsAlias(cand.SchemeID) || r.dict.IsAlias(cand.SchemeName) {
		return Skipped(sheetName, rowIdx, ReasonHeaderEcho)
	}

	if cand.SchemeID == "" {
		id, err := r.generateID(ctx, cand.Region, sheetName, rowIdx)
		if err != nil {
			return Failed(sheetName, rowIdx, err)
		}
		cand.SchemeID = id
		r.logger.Debug("Generated scheme identifier",
			zap.String("sheet", sheetName),
			zap.Int("row", rowIdx),
			zap.String("scheme_id", id))
	}

	key := cand.Key()
	if r.seen[key] {
		return Skipped(sheetName, rowIdx, ReasonDuplicateInBatch)
	}

	existing, err := r.store.GetByID(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Failed(sheetName, rowIdx, fmt.Errorf("store lookup failed: %w", err))
	}

	var events []model.ChangeEvent
	created := existing == nil
	if created {
		events = append(events, model.ChangeEvent{
			MetricType: model.MetricScheme,
			DeltaCount: 1,
			Status:     model.EventStatusNew,
			Region:     cand.Region,
			Scheme:     schemeLabel(cand),
			Timestamp:  r.now(),
		})
	} else {
		for _, tm := range trackedMetrics {
			delta := tm.value(cand) - tm.value(existing)
			if delta <= 0 {
				continue
			}
			events = append(events, model.ChangeEvent{
				MetricType: tm.metric,
				DeltaCount: delta,
				Status:     model.EventStatusNew,
				Region:     cand.Region,
				Scheme:     schemeLabel(cand),
				Timestamp:  r.now(),
			})
		}
	}

	// Full replace, never a field-level merge: the stored record becomes
	// exactly the newly parsed values.
	if _, err := r.store.Upsert(ctx, cand); err != nil {
		return Failed(sheetName, rowIdx, fmt.Errorf("store upsert failed: %w", err))
	}
	// Mark the key only once the write landed; a failed row must not turn a
	// later same-key row into a duplicate skip.
	r.seen[key] = true

	r.feed.Append(events...)
	return Accepted(sheetName, rowIdx, cand, created, events)
}

// generateID mints an identifier for a row that arrived without one. When
// the store carries a numeric id space the next monotonic value is used;
// otherwise a composite derived from region, sheet and row position keeps
// the id stable across a re-run of the same upload.
func (r *Reconciler) generateID(ctx context.Context, region, sheetName string, rowIdx int) (string, error) {
	if !r.idsLoaded {
		max, err := r.store.MaxNumericID(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to determine identifier high-water mark: %w", err)
		}
		r.nextID = max
		r.idsLoaded = true
	}

	if r.nextID > 0 {
		r.nextID++
		return strconv.FormatInt(r.nextID, 10), nil
	}

	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%d", sheetName, rowIdx)
	return fmt.Sprintf("GEN-%s-%08x", region, h.Sum32()), nil
}

func schemeLabel(rec *model.CanonicalRecord) string {
	if rec.SchemeName != "" {
		return rec.SchemeName
	}
	return rec.SchemeID
}
