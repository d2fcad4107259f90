// pkg/store/postgres_test.go
package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalsetu/scheme-ingress/pkg/config"
)

// Exercises the session-scoped advisory lock against a live database. The
// release must be visible to other sessions immediately, not only after the
// pool recycles the connection that acquired it.
func TestPostgresImportLockSessionScoped(t *testing.T) {
	if os.Getenv("POSTGRES_USER") == "" {
		t.Skip("requires a PostgreSQL instance; set POSTGRES_* to run")
	}

	ctx := context.Background()
	cfg, err := config.LoadPostgresConfig()
	require.NoError(t, err)
	// A small pool makes pooled lock/unlock mismatches show up immediately.
	cfg.MaxOpenConns = 2

	st, err := NewPostgresStore(ctx, cfg)
	require.NoError(t, err)
	defer st.Close()

	unlock, err := st.AcquireImportLock(ctx, "schemes_lock_test")
	require.NoError(t, err)

	// Churn the pool while the lock is held; the lock must survive it.
	for i := 0; i < 5; i++ {
		_, err := st.ListRegions(ctx)
		require.NoError(t, err)
	}

	_, err = st.AcquireImportLock(ctx, "schemes_lock_test")
	assert.ErrorIs(t, err, ErrImportLocked)

	unlock()

	unlock2, err := st.AcquireImportLock(ctx, "schemes_lock_test")
	require.NoError(t, err, "release must take effect on the acquiring session")
	unlock2()
}
