// Package testutil starts a throwaway PostgreSQL for repository tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/photocard/photocard-api/internal/pkg/database"
)

// SetupTestDatabase returns a migrated database. TEST_DATABASE_URL points the
// tests at an existing server; otherwise a postgres container is started.
// The test is skipped in -short mode or when no container runtime is available.
func SetupTestDatabase(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()
	url := os.Getenv("TEST_DATABASE_URL")

	if url == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)

		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("photocard_test"),
			postgres.WithUsername("test_user"),
			postgres.WithPassword("test_password"),
			postgres.BasicWaitStrategies(),
			testcontainers.WithLabels(map[string]string{
				"test":      "photocard-repository",
				"test-name": t.Name(),
			}),
		)
		require.NoError(t, err)

		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := container.Terminate(ctx); err != nil {
				t.Logf("terminate postgres container: %v", err)
			}
		})

		url, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	require.NoError(t, database.MigrateUp(url))

	db, err := database.NewPostgres(ctx, url, database.PoolConfig{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.ClosePostgres(db) })

	Truncate(t, db)
	return db
}

// Truncate empties every application table
func Truncate(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE listings, user_cards, photo_cards, notifications,
		point_box_draws, point_history, refresh_tokens, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// CreateUser inserts a user with the given starting balance and returns its id
func CreateUser(t *testing.T, db *sqlx.DB, points int64) int64 {
	t.Helper()
	var id int64
	suffix := time.Now().UnixNano()
	err := db.QueryRowx(`
		INSERT INTO users (email, nickname, password_hash, points)
		VALUES ($1, $2, NULL, $3)
		RETURNING id
	`, fmt.Sprintf("user%d@test.local", suffix), fmt.Sprintf("user%d", suffix), points).Scan(&id)
	require.NoError(t, err)
	return id
}
