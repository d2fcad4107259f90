// pkg/watch/watcher_test.go
package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jalsetu/scheme-ingress/pkg/aggregate"
	"github.com/jalsetu/scheme-ingress/pkg/feed"
	"github.com/jalsetu/scheme-ingress/pkg/ingest"
	"github.com/jalsetu/scheme-ingress/pkg/mapping"
	"github.com/jalsetu/scheme-ingress/pkg/region"
	"github.com/jalsetu/scheme-ingress/pkg/sheet"
	"github.com/jalsetu/scheme-ingress/pkg/store"
)

func newTestWatcher(t *testing.T, st store.Store, dir string) *Watcher {
	t.Helper()
	logger := zap.NewNop()
	f := feed.NewChangeFeed(100)
	engine, err := aggregate.NewEngine(st, logger)
	require.NoError(t, err)
	imp, err := ingest.NewImporter(
		st,
		f,
		mapping.DefaultDictionary(),
		region.NewResolver(region.DefaultRegions, logger),
		engine,
		sheet.DefaultScanDepth,
		"schemes",
		logger,
	)
	require.NoError(t, err)

	w, err := NewWatcher(dir, imp, Options{
		Debounce:      10 * time.Millisecond,
		MoveProcessed: true,
	}, logger)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(w.processed, 0o755))
	require.NoError(t, os.MkdirAll(w.failed, 0o755))
	return w
}

func TestLockContentionReschedulesInsteadOfQuarantining(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := store.NewMemStore()
	w := newTestWatcher(t, st, dir)

	path := filepath.Join(dir, "nashik.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("Scheme ID,Scheme Name\n100,Sinnar WSS\n"), 0o644))

	unlock, err := st.AcquireImportLock(ctx, "schemes")
	require.NoError(t, err)

	w.importOne(ctx, path)

	// A valid file blocked by a concurrent batch stays in the inbox.
	_, err = os.Stat(path)
	require.NoError(t, err)
	entries, err := os.ReadDir(w.failed)
	require.NoError(t, err)
	assert.Empty(t, entries, "lock contention must not quarantine the file")

	unlock()

	// The rescheduled attempt imports the file once the lock is free.
	assert.Eventually(t, func() bool {
		_, err := st.GetByID(ctx, "100")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(w.processed)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUndecodableFileMovedToFailed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := store.NewMemStore()
	w := newTestWatcher(t, st, dir)

	path := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	w.importOne(ctx, path)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "undecodable file leaves the inbox")
	entries, err := os.ReadDir(w.failed)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
