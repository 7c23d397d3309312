// Package containers starts throwaway infrastructure for integration tests.
package containers

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/testutil"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
)

const (
	postgresImage = "postgres:16-alpine"
	databaseName  = "fern"
)

// Postgres starts a Postgres container, applies the migrations under db/pg
// and returns a connection. The test is skipped under -short.
func Postgres(t *testing.T) database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(databaseName),
		postgres.WithUsername("fern"),
		postgres.WithPassword("fern"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	logger := testutil.Logger()
	db, err := database.Connect(ctx, database.ConnectionConfig{
		Driver:   "postgres",
		Host:     host,
		Port:     port.Port(),
		UserName: "fern",
		Password: "fern",
		Name:     databaseName,
		SSLMode:  "disable",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: migrationFolder(),
		DatabaseName:        databaseName,
	})
	require.NoError(t, migrations.Migrate(db))

	return db
}

func migrationFolder() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "db", "pg")
}
