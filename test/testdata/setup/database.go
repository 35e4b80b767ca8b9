package setup

import (
	"context"
	"fmt"
	"time"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/zap"
)

const (
	postgresImage    = "postgres"
	postgresTag      = "16-alpine"
	postgresDatabase = "chatbot"
	postgresPassword = "password"

	readyTimeout = 120 * time.Second
)

func postgresRunOptions() *dockertest.RunOptions {
	return &dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=" + postgresPassword,
			"POSTGRES_DB=" + postgresDatabase,
		},
	}
}

func disposable(config *docker.HostConfig) {
	config.AutoRemove = true
	config.RestartPolicy = docker.RestartPolicy{Name: "no"}
}

// startPostgres runs a throwaway chatbot database and returns a pgx pool that has
// already answered a ping.
func startPostgres(pool *dockertest.Pool, logger *zap.Logger) (*pgxpool.Pool, string, func(), error) {
	resource, err := pool.RunWithOptions(postgresRunOptions(), disposable)
	if err != nil {
		return nil, "", nil, fmt.Errorf("start postgres container: %w", err)
	}

	purge := func() {
		if err := pool.Purge(resource); err != nil {
			logger.Error("Failed to purge postgres container", zap.Error(err))
			return
		}
		logger.Info("Purged postgres container", zap.String("container", resource.Container.ID))
	}

	databaseURL := fmt.Sprintf("postgres://postgres:%s@%s/%s?sslmode=disable",
		postgresPassword, resource.GetHostPort("5432/tcp"), postgresDatabase)
	logger.Info("Launching Postgres", zap.String("url", databaseURL))

	dbPool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		purge()
		return nil, "", nil, fmt.Errorf("create pgx pool: %w", err)
	}

	attempt := 0
	pool.MaxWait = readyTimeout
	err = pool.Retry(func() error {
		attempt++
		pingErr := dbPool.Ping(context.Background())
		if pingErr != nil {
			logger.Debug("Postgres not ready yet", zap.Int("attempt", attempt), zap.Error(pingErr))
		}
		return pingErr
	})
	if err != nil {
		dbPool.Close()
		purge()
		return nil, "", nil, fmt.Errorf("wait for postgres: %w", err)
	}

	cleanup := func() {
		dbPool.Close()
		purge()
	}

	return dbPool, databaseURL, cleanup, nil
}

// startMigratedPostgres is startPostgres followed by the service migrations found at sourceURL.
func startMigratedPostgres(pool *dockertest.Pool, logger *zap.Logger, sourceURL string) (*pgxpool.Pool, func(), error) {
	dbPool, databaseURL, cleanup, err := startPostgres(pool, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := databaseutil.MigrationUp(sourceURL, databaseURL, logger); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	return dbPool, cleanup, nil
}
