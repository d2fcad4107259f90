// pkg/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/jalsetu/scheme-ingress/pkg/model"
)

// ErrNotFound is returned when no record or summary exists for a key.
var ErrNotFound = errors.New("record not found")

// ErrImportLocked is returned when another import holds the batch lock for
// the same canonical table.
var ErrImportLocked = errors.New("another import is in progress")

// UnlockFunc releases a previously acquired import lock.
type UnlockFunc func()

// Store is the storage collaborator consumed by the reconciler and the
// aggregation engine. Every write is a full-record replace; the pipeline
// never issues partial-field updates.
type Store interface {
	// GetByID returns the live canonical record for a key, or ErrNotFound.
	GetByID(ctx context.Context, key string) (*model.CanonicalRecord, error)

	// Upsert inserts or fully replaces the record stored under its key.
	Upsert(ctx context.Context, rec *model.CanonicalRecord) (*model.CanonicalRecord, error)

	// ListByRegion returns all live records tagged with a region.
	ListByRegion(ctx context.Context, region string) ([]model.CanonicalRecord, error)

	// ListRegions returns every region present in the store.
	ListRegions(ctx context.Context) ([]string, error)

	// MaxNumericID returns the highest purely numeric scheme id, or 0 when
	// none exists. Used to mint monotonic identifiers for rows without one.
	MaxNumericID(ctx context.Context) (int64, error)

	// ReplaceSummary atomically replaces a region's summary row.
	ReplaceSummary(ctx context.Context, summary *model.RegionSummary) error

	// GetSummary returns a region's current summary, or ErrNotFound.
	GetSummary(ctx context.Context, region string) (*model.RegionSummary, error)

	// AcquireImportLock takes the advisory lock that keeps concurrent
	// imports of the same canonical table mutually exclusive. Returns
	// ErrImportLocked without blocking when the lock is already held.
	AcquireImportLock(ctx context.Context, table string) (UnlockFunc, error)

	// Close releases the store's resources.
	Close() error
}
