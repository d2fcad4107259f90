package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jalsetu/scheme-ingress/pkg/feed"
	"github.com/jalsetu/scheme-ingress/pkg/mapping"
	"github.com/jalsetu/scheme-ingress/pkg/model"
	"github.com/jalsetu/scheme-ingress/pkg/store"
)

func newTestReconciler(t *testing.T, st store.Store) (*Reconciler, *feed.ChangeFeed) {
	t.Helper()
	f := feed.NewChangeFeed(100)
	r, err := NewReconciler(st, f, mapping.DefaultDictionary(), zap.NewNop())
	require.NoError(t, err)
	return r, f
}

func candidate(id string, mutate func(*model.CanonicalRecord)) *model.CanonicalRecord {
	rec := &model.CanonicalRecord{
		SchemeID:   id,
		SchemeName: "Sinnar RR WSS",
		Region:     "Nashik",
	}
	if mutate != nil {
		mutate(rec)
	}
	return rec
}

func TestReconcileNewSchemeEmitsSchemeEvent(t *testing.T) {
	st := store.NewMemStore()
	r, f := newTestReconciler(t, st)

	outcome := r.Reconcile(context.Background(), candidate("20019176", nil), "Region - Nashik Data", 3)

	require.Equal(t, OutcomeAccepted, outcome.Kind)
	assert.True(t, outcome.Created)

	events := f.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.MetricScheme, events[0].MetricType)
	assert.Equal(t, 1, events[0].DeltaCount)
	assert.Equal(t, model.EventStatusNew, events[0].Status)
	assert.Equal(t, "Nashik", events[0].Region)

	stored, err := st.GetByID(context.Background(), "20019176")
	require.NoError(t, err)
	assert.Equal(t, "Sinnar RR WSS", stored.SchemeName)
}

func TestReconcilePositiveDeltaEmitsOneEventPerMetric(t *testing.T) {
	st := store.NewMemStore()
	_, err := st.Upsert(context.Background(), candidate("20019176", func(r *model.CanonicalRecord) {
		r.FlowMetersConnected = 3
		r.VillagesIntegrated = 5
	}))
	require.NoError(t, err)

	r, f := newTestReconciler(t, st)
	outcome := r.Reconcile(context.Background(), candidate("20019176", func(r *model.CanonicalRecord) {
		r.FlowMetersConnected = 7
		r.VillagesIntegrated = 5
	}), "Region - Nashik Data", 3)

	require.Equal(t, OutcomeAccepted, outcome.Kind)
	assert.False(t, outcome.Created)

	events := f.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.MetricFlowMeter, events[0].MetricType)
	assert.Equal(t, 4, events[0].DeltaCount)
}

func TestReconcileDecreaseEmitsNoEventButReplacesRecord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	_, err := st.Upsert(ctx, candidate("20019176", func(r *model.CanonicalRecord) {
		r.FlowMetersConnected = 7
	}))
	require.NoError(t, err)

	r, f := newTestReconciler(t, st)
	outcome := r.Reconcile(ctx, candidate("20019176", func(r *model.CanonicalRecord) {
		r.FlowMetersConnected = 3
	}), "sheet", 2)

	require.Equal(t, OutcomeAccepted, outcome.Kind)
	assert.Empty(t, f.Snapshot(), "decreases are absorbed silently")

	stored, err := st.GetByID(ctx, "20019176")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FlowMetersConnected, "record is still fully replaced")
}

func TestReconcileReimportUnchangedIsNoOpUpdate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	_, err := st.Upsert(ctx, candidate("20019176", func(r *model.CanonicalRecord) {
		r.FlowMetersConnected = 5
	}))
	require.NoError(t, err)

	r, f := newTestReconciler(t, st)
	outcome := r.Reconcile(ctx, candidate("20019176", func(r *model.CanonicalRecord) {
		r.FlowMetersConnected = 5
	}), "sheet", 2)

	require.Equal(t, OutcomeAccepted, outcome.Kind)
	assert.False(t, outcome.Created, "re-import counts as updated, not created")
	assert.Empty(t, f.Snapshot(), "re-import of an unchanged record emits no events")
}

func TestReconcileFullReplaceNotMerge(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	_, err := st.Upsert(ctx, candidate("20019176", func(r *model.CanonicalRecord) {
		r.Circle = "Nashik Circle"
		r.TotalESR = 9
	}))
	require.NoError(t, err)

	r, _ := newTestReconciler(t, st)
	// The new candidate omits circle and total_esr; the stored record must
	// not retain the old values.
	outcome := r.Reconcile(ctx, candidate("20019176", nil), "sheet", 2)
	require.Equal(t, OutcomeAccepted, outcome.Kind)

	stored, err := st.GetByID(ctx, "20019176")
	require.NoError(t, err)
	assert.Equal(t, "", stored.Circle)
	assert.Equal(t, 0, stored.TotalESR)
}

func TestReconcileDuplicateInBatchFirstSeenWins(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	r, f := newTestReconciler(t, st)

	first := r.Reconcile(ctx, candidate("20019176", func(r *model.CanonicalRecord) {
		r.FlowMetersConnected = 5
	}), "sheet", 2)
	second := r.Reconcile(ctx, candidate("20019176", func(r *model.CanonicalRecord) {
		r.FlowMetersConnected = 9
	}), "sheet", 3)

	assert.Equal(t, OutcomeAccepted, first.Kind)
	require.Equal(t, OutcomeSkipped, second.Kind)
	assert.Equal(t, ReasonDuplicateInBatch, second.Reason)

	stored, err := st.GetByID(ctx, "20019176")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FlowMetersConnected)
	assert.Len(t, f.Snapshot(), 1)
}

func TestReconcileHeaderEchoRowSkipped(t *testing.T) {
	st := store.NewMemStore()
	r, _ := newTestReconciler(t, st)

	outcome := r.Reconcile(context.Background(), candidate("Scheme ID", func(r *model.CanonicalRecord) {
		r.SchemeName = "Scheme Name"
	}), "sheet", 1)

	require.Equal(t, OutcomeSkipped, outcome.Kind)
	assert.Equal(t, ReasonHeaderEcho, outcome.Reason)
}

func TestReconcileNoIdentifierSkipped(t *testing.T) {
	st := store.NewMemStore()
	r, _ := newTestReconciler(t, st)

	outcome := r.Reconcile(context.Background(), &model.CanonicalRecord{Region: "Nashik"}, "sheet", 4)

	require.Equal(t, OutcomeSkipped, outcome.Kind)
	assert.Equal(t, ReasonNoIdentifier, outcome.Reason)
}

func TestReconcileGeneratesMonotonicNumericID(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	_, err := st.Upsert(ctx, candidate("20019176", nil))
	require.NoError(t, err)

	r, _ := newTestReconciler(t, st)
	outcome := r.Reconcile(ctx, candidate("", func(r *model.CanonicalRecord) {
		r.SchemeName = "Yeola WSS"
	}), "sheet", 5)

	require.Equal(t, OutcomeAccepted, outcome.Kind)
	assert.Equal(t, "20019177", outcome.Record.SchemeID)
}

func TestReconcileGeneratesStableCompositeID(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	r, _ := newTestReconciler(t, st)

	outcome := r.Reconcile(ctx, candidate("", func(r *model.CanonicalRecord) {
		r.SchemeName = "Yeola WSS"
	}), "Region - Nashik Data", 5)
	require.Equal(t, OutcomeAccepted, outcome.Kind)
	firstID := outcome.Record.SchemeID
	assert.Contains(t, firstID, "GEN-Nashik-")

	// A re-run of the same upload mints the same identifier, so an aborted
	// batch can be retried without creating a second scheme.
	r2, _ := newTestReconciler(t, st)
	outcome2 := r2.Reconcile(ctx, candidate("", func(r *model.CanonicalRecord) {
		r.SchemeName = "Yeola WSS"
	}), "Region - Nashik Data", 5)
	require.Equal(t, OutcomeAccepted, outcome2.Kind)
	assert.Equal(t, firstID, outcome2.Record.SchemeID)
	assert.False(t, outcome2.Created)
}

func TestReconcileBlockQualifiesKey(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	r, _ := newTestReconciler(t, st)

	a := r.Reconcile(ctx, candidate("20019176", func(r *model.CanonicalRecord) { r.Block = "Sinnar" }), "sheet", 2)
	b := r.Reconcile(ctx, candidate("20019176", func(r *model.CanonicalRecord) { r.Block = "Yeola" }), "sheet", 3)

	assert.Equal(t, OutcomeAccepted, a.Kind)
	assert.Equal(t, OutcomeAccepted, b.Kind)
	assert.True(t, a.Created)
	assert.True(t, b.Created, "same scheme split across blocks keys separately")
}

// flakyStore fails a configured number of upserts before delegating.
type flakyStore struct {
	store.Store
	failures int
}

func (f *flakyStore) Upsert(ctx context.Context, rec *model.CanonicalRecord) (*model.CanonicalRecord, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset by peer")
	}
	return f.Store.Upsert(ctx, rec)
}

func TestReconcileFailedUpsertDoesNotPoisonDuplicateSet(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Store: store.NewMemStore(), failures: 1}
	r, _ := newTestReconciler(t, st)

	first := r.Reconcile(ctx, candidate("20019176", nil), "sheet", 2)
	require.Equal(t, OutcomeFailed, first.Kind)

	// A later row with the same key is a retry, not a duplicate.
	second := r.Reconcile(ctx, candidate("20019176", nil), "sheet", 3)
	require.Equal(t, OutcomeAccepted, second.Kind)
	assert.True(t, second.Created)

	stored, err := st.GetByID(ctx, "20019176")
	require.NoError(t, err)
	assert.Equal(t, "Sinnar RR WSS", stored.SchemeName)
}
