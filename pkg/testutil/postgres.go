package testutil

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgutil "github.com/bibbank/collections-service/pkg/postgres"
)

const (
	postgresImage = "postgres:16-alpine"
	testDatabase  = "collections_test"
)

// PostgresDB is a migrated database inside a throwaway container.
type PostgresDB struct {
	Container *postgres.PostgresContainer
	DSN       string
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts PostgreSQL, applies the migrations under dir
// and registers teardown with t.
func NewPostgresContainer(ctx context.Context, t *testing.T, migrations fs.FS, dir string) *PostgresDB {
	t.Helper()

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername("collections"),
		postgres.WithPassword("collections"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(45*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	db := &PostgresDB{Container: container}
	t.Cleanup(func() { db.teardown(t) })

	if db.DSN, err = container.ConnectionString(ctx, "sslmode=disable"); err != nil {
		t.Fatalf("failed to read postgres dsn: %v", err)
	}

	status, err := pgutil.RunMigrations(db.DSN, migrations, dir)
	if err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	if status.Dirty {
		t.Fatalf("schema left dirty at version %d", status.Version)
	}

	if db.Pool, err = pgxpool.New(ctx, db.DSN); err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	if err := pgutil.HealthCheck(ctx, db.Pool); err != nil {
		t.Fatalf("postgres not reachable: %v", err)
	}
	return db
}

func (db *PostgresDB) teardown(t *testing.T) {
	if db.Pool != nil {
		db.Pool.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Container.Terminate(ctx); err != nil {
		t.Logf("warning: failed to terminate postgres container: %v", err)
	}
}
