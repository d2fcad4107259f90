// pkg/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jalsetu/scheme-ingress/pkg/config"
	"github.com/jalsetu/scheme-ingress/pkg/model"
)

// PostgresStore implements the Store interface over PostgreSQL
type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresStore creates and initializes a new PostgreSQL-backed store
func NewPostgresStore(ctx context.Context, cfg *config.PostgresConfig) (*PostgresStore, error) {
	logger := zap.L().Named("postgres-store")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	applyConnectionSettings(db, cfg)

	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	if err := pingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	s := &PostgresStore{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	if err := s.setupTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup canonical tables: %w", err)
	}

	return s, nil
}

// setupTables ensures the canonical record and summary tables exist
func (s *PostgresStore) setupTables(ctx context.Context) error {
	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createSQL := `
		CREATE TABLE IF NOT EXISTS public.schemes (
			record_key TEXT PRIMARY KEY,
			scheme_id TEXT NOT NULL,
			block TEXT NOT NULL DEFAULT '',
			scheme_name TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL,
			circle TEXT NOT NULL DEFAULT '',
			division TEXT NOT NULL DEFAULT '',
			sub_division TEXT NOT NULL DEFAULT '',
			total_villages INTEGER NOT NULL DEFAULT 0,
			villages_integrated INTEGER NOT NULL DEFAULT 0,
			functional_villages INTEGER NOT NULL DEFAULT 0,
			partial_villages INTEGER NOT NULL DEFAULT 0,
			non_functional_villages INTEGER NOT NULL DEFAULT 0,
			fully_completed_villages INTEGER NOT NULL DEFAULT 0,
			total_esr INTEGER NOT NULL DEFAULT 0,
			esr_integrated INTEGER NOT NULL DEFAULT 0,
			fully_completed_esr INTEGER NOT NULL DEFAULT 0,
			balance_esr INTEGER NOT NULL DEFAULT 0,
			flow_meters_connected INTEGER NOT NULL DEFAULT 0,
			pressure_transmitters_connected INTEGER NOT NULL DEFAULT 0,
			residual_chlorine_connected INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT '',
			functional_status TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_schemes_region ON public.schemes (region);

		CREATE TABLE IF NOT EXISTS public.region_summaries (
			region TEXT PRIMARY KEY,
			total_schemes INTEGER NOT NULL DEFAULT 0,
			fully_completed_schemes INTEGER NOT NULL DEFAULT 0,
			total_villages INTEGER NOT NULL DEFAULT 0,
			villages_integrated INTEGER NOT NULL DEFAULT 0,
			fully_completed_villages INTEGER NOT NULL DEFAULT 0,
			total_esr INTEGER NOT NULL DEFAULT 0,
			esr_integrated INTEGER NOT NULL DEFAULT 0,
			fully_completed_esr INTEGER NOT NULL DEFAULT 0,
			flow_meters_connected INTEGER NOT NULL DEFAULT 0,
			pressure_transmitters_connected INTEGER NOT NULL DEFAULT 0,
			residual_chlorine_connected INTEGER NOT NULL DEFAULT 0,
			computed_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(setupCtx, createSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	s.logger.Info("Ensured canonical tables exist")
	return nil
}

// GetByID returns the live canonical record for a key
func (s *PostgresStore) GetByID(ctx context.Context, key string) (*model.CanonicalRecord, error) {
	var rec model.CanonicalRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT scheme_id, block, scheme_name, region, circle, division, sub_division,
		        total_villages, villages_integrated, functional_villages, partial_villages,
		        non_functional_villages, fully_completed_villages,
		        total_esr, esr_integrated, fully_completed_esr, balance_esr,
		        flow_meters_connected, pressure_transmitters_connected, residual_chlorine_connected,
		        status, functional_status, updated_at
		 FROM public.schemes WHERE record_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record %s: %w", key, err)
	}
	return &rec, nil
}

// Upsert inserts or fully replaces the record stored under its key
func (s *PostgresStore) Upsert(ctx context.Context, rec *model.CanonicalRecord) (*model.CanonicalRecord, error) {
	if rec == nil {
		return nil, errors.New("record cannot be nil")
	}
	rec.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO public.schemes (
			record_key, scheme_id, block, scheme_name, region, circle, division, sub_division,
			total_villages, villages_integrated, functional_villages, partial_villages,
			non_functional_villages, fully_completed_villages,
			total_esr, esr_integrated, fully_completed_esr, balance_esr,
			flow_meters_connected, pressure_transmitters_connected, residual_chlorine_connected,
			status, functional_status, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21,
			$22, $23, $24
		)
		ON CONFLICT (record_key) DO UPDATE SET
			scheme_id = EXCLUDED.scheme_id,
			block = EXCLUDED.block,
			scheme_name = EXCLUDED.scheme_name,
			region = EXCLUDED.region,
			circle = EXCLUDED.circle,
			division = EXCLUDED.division,
			sub_division = EXCLUDED.sub_division,
			total_villages = EXCLUDED.total_villages,
			villages_integrated = EXCLUDED.villages_integrated,
			functional_villages = EXCLUDED.functional_villages,
			partial_villages = EXCLUDED.partial_villages,
			non_functional_villages = EXCLUDED.non_functional_villages,
			fully_completed_villages = EXCLUDED.fully_completed_villages,
			total_esr = EXCLUDED.total_esr,
			esr_integrated = EXCLUDED.esr_integrated,
			fully_completed_esr = EXCLUDED.fully_completed_esr,
			balance_esr = EXCLUDED.balance_esr,
			flow_meters_connected = EXCLUDED.flow_meters_connected,
			pressure_transmitters_connected = EXCLUDED.pressure_transmitters_connected,
			residual_chlorine_connected = EXCLUDED.residual_chlorine_connected,
			status = EXCLUDED.status,
			functional_status = EXCLUDED.functional_status,
			updated_at = EXCLUDED.updated_at`,
		rec.Key(), rec.SchemeID, rec.Block, rec.SchemeName, rec.Region, rec.Circle,
		rec.Division, rec.SubDivision,
		rec.TotalVillages, rec.VillagesIntegrated, rec.FunctionalVillages, rec.PartialVillages,
		rec.NonFunctionalVillages, rec.FullyCompletedVillages,
		rec.TotalESR, rec.ESRIntegrated, rec.FullyCompletedESR, rec.BalanceESR,
		rec.FlowMetersConnected, rec.PressureTransmittersConnected, rec.ResidualChlorineConnected,
		rec.Status, rec.FunctionalStatus, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert record %s: %w", rec.Key(), err)
	}
	return rec, nil
}

// ListByRegion returns all live records tagged with a region
func (s *PostgresStore) ListByRegion(ctx context.Context, region string) ([]model.CanonicalRecord, error) {
	var recs []model.CanonicalRecord
	err := s.db.SelectContext(ctx, &recs,
		`SELECT scheme_id, block, scheme_name, region, circle, division, sub_division,
		        total_villages, villages_integrated, functional_villages, partial_villages,
		        non_functional_villages, fully_completed_villages,
		        total_esr, esr_integrated, fully_completed_esr, balance_esr,
		        flow_meters_connected, pressure_transmitters_connected, residual_chlorine_connected,
		        status, functional_status, updated_at
		 FROM public.schemes WHERE region = $1 ORDER BY scheme_id`, region)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for region %s: %w", region, err)
	}
	return recs, nil
}

// ListRegions returns every region present in the store
func (s *PostgresStore) ListRegions(ctx context.Context) ([]string, error) {
	var regions []string
	err := s.db.SelectContext(ctx, &regions,
		`SELECT DISTINCT region FROM public.schemes ORDER BY region`)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	return regions, nil
}

// MaxNumericID returns the highest purely numeric scheme id, or 0
func (s *PostgresStore) MaxNumericID(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := s.db.GetContext(ctx, &max,
		`SELECT MAX(scheme_id::bigint) FROM public.schemes WHERE scheme_id ~ '^[0-9]+$'`)
	if err != nil {
		return 0, fmt.Errorf("failed to query max numeric id: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// ReplaceSummary atomically replaces a region's summary row
func (s *PostgresStore) ReplaceSummary(ctx context.Context, summary *model.RegionSummary) error {
	if summary == nil {
		return errors.New("summary cannot be nil")
	}
	summary.ComputedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO public.region_summaries (
			region, total_schemes, fully_completed_schemes,
			total_villages, villages_integrated, fully_completed_villages,
			total_esr, esr_integrated, fully_completed_esr,
			flow_meters_connected, pressure_transmitters_connected, residual_chlorine_connected,
			computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (region) DO UPDATE SET
			total_schemes = EXCLUDED.total_schemes,
			fully_completed_schemes = EXCLUDED.fully_completed_schemes,
			total_villages = EXCLUDED.total_villages,
			villages_integrated = EXCLUDED.villages_integrated,
			fully_completed_villages = EXCLUDED.fully_completed_villages,
			total_esr = EXCLUDED.total_esr,
			esr_integrated = EXCLUDED.esr_integrated,
			fully_completed_esr = EXCLUDED.fully_completed_esr,
			flow_meters_connected = EXCLUDED.flow_meters_connected,
			pressure_transmitters_connected = EXCLUDED.pressure_transmitters_connected,
			residual_chlorine_connected = EXCLUDED.residual_chlorine_connected,
			computed_at = EXCLUDED.computed_at`,
		summary.Region, summary.TotalSchemes, summary.FullyCompletedSchemes,
		summary.TotalVillages, summary.VillagesIntegrated, summary.FullyCompletedVillages,
		summary.TotalESR, summary.ESRIntegrated, summary.FullyCompletedESR,
		summary.FlowMetersConnected, summary.PressureTransmittersConnected,
		summary.ResidualChlorineConnected, summary.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to replace summary for region %s: %w", summary.Region, err)
	}
	return nil
}

// GetSummary returns a region's current summary
func (s *PostgresStore) GetSummary(ctx context.Context, region string) (*model.RegionSummary, error) {
	var summary model.RegionSummary
	err := s.db.GetContext(ctx, &summary,
		`SELECT region, total_schemes, fully_completed_schemes,
		        total_villages, villages_integrated, fully_completed_villages,
		        total_esr, esr_integrated, fully_completed_esr,
		        flow_meters_connected, pressure_transmitters_connected, residual_chlorine_connected,
		        computed_at
		 FROM public.region_summaries WHERE region = $1`, region)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query summary for region %s: %w", region, err)
	}
	return &summary, nil
}

// AcquireImportLock takes the advisory lock guarding batch imports.
// Advisory locks are session-scoped, so the lock is pinned to a dedicated
// connection held open for the duration of the batch; releasing through the
// pool could land the unlock on a different session and leak the lock.
func (s *PostgresStore) AcquireImportLock(ctx context.Context, table string) (UnlockFunc, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock connection: %w", err)
	}

	var acquired bool
	err = conn.QueryRowxContext(ctx,
		`SELECT pg_try_advisory_lock(hashtext($1))`, table).Scan(&acquired)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return nil, ErrImportLocked
	}

	return func() {
		var released bool
		err := conn.QueryRowxContext(context.Background(),
			`SELECT pg_advisory_unlock(hashtext($1))`, table).Scan(&released)
		if err != nil {
			s.logger.Error("Failed to release import lock",
				zap.String("table", table),
				zap.Error(err))
		} else if !released {
			s.logger.Error("Import lock was not held by this session",
				zap.String("table", table))
		}
		if err := conn.Close(); err != nil {
			s.logger.Warn("Failed to close lock connection",
				zap.String("table", table),
				zap.Error(err))
		}
	}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// pingWithTimeout attempts to ping the database with a timeout
func pingWithTimeout(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.PingContext(pingCtx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-pingCtx.Done():
		return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
	}
}

// applyConnectionSettings configures the connection pool
func applyConnectionSettings(db *sqlx.DB, cfg *config.PostgresConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
