package setup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const migrationsSource = "file://../../../internal/database/migrations"

// ResourceManager owns the containers of one integration test package. Postgres is started
// lazily on first use and every test works inside its own rolled back transaction.
type ResourceManager struct {
	mu     sync.Mutex
	logger *zap.Logger

	docker   *dockertest.Pool
	postgres *pgxpool.Pool
	stop     []func()
}

func NewResourceManager(logger *zap.Logger) (*ResourceManager, error) {
	docker, err := dockertest.NewPool("")
	if err != nil {
		return nil, err
	}

	return &ResourceManager{
		docker: docker,
		logger: logger,
	}, nil
}

func (r *ResourceManager) ensurePostgres() (*pgxpool.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.postgres != nil {
		return r.postgres, nil
	}

	dbPool, stop, err := startMigratedPostgres(r.docker, r.logger, migrationsSource)
	if err != nil {
		return nil, err
	}

	r.postgres = dbPool
	r.stop = append(r.stop, stop)
	return dbPool, nil
}

// SetupPostgres begins a transaction on the migrated chatbot database. The returned
// function rolls it back.
//
//	tx, rollback, err := rm.SetupPostgres()
//	defer rollback()
func (r *ResourceManager) SetupPostgres() (pgx.Tx, func(), error) {
	dbPool, err := r.ensurePostgres()
	if err != nil {
		return nil, nil, err
	}

	tx, err := dbPool.Begin(context.Background())
	if err != nil {
		return nil, nil, err
	}

	rollback := func() {
		err := tx.Rollback(context.Background())
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", zap.Error(err))
		}
	}

	return tx, rollback, nil
}

// WithPostgresTx runs fn inside a transaction that is always rolled back.
//
//	rm.WithPostgresTx(t, func(tx pgx.Tx) {
//	    _, err := tx.Exec(ctx, `INSERT INTO chat_sessions (id) VALUES ($1)`, "s-1")
//	    require.NoError(t, err)
//	})
func (r *ResourceManager) WithPostgresTx(t *testing.T, fn func(tx pgx.Tx)) {
	t.Helper()

	tx, rollback, err := r.SetupPostgres()
	require.NoError(t, err)
	defer rollback()

	fn(tx)
}

// Cleanup stops every container. A later SetupPostgres starts a fresh database, so each test
// in a package may defer Cleanup.
func (r *ResourceManager) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stop := range r.stop {
		stop()
	}

	r.postgres = nil
	r.stop = nil
}
