package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/store"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) *PostgresRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("telhawk_kpi_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func TestPostgresRepository(t *testing.T) {
	repo := setupTestDatabase(t)
	ctx := context.Background()

	t.Run("default source is seeded", func(t *testing.T) {
		def, err := repo.Get(ctx, DefaultID)
		require.NoError(t, err)
		assert.Equal(t, DefaultIndices, def.Indices)
		assert.Equal(t, store.FieldMap{}, def.Fields)
	})

	t.Run("upsert and get", func(t *testing.T) {
		s := &Source{
			ID:      "zeek",
			Name:    "Zeek sensors",
			Indices: []string{"zeek-conn-*", "zeek-ssh-*"},
			Fields:  store.FieldMap{HostName: "observer.name"},
		}
		require.NoError(t, repo.Upsert(ctx, s))
		assert.False(t, s.CreatedAt.IsZero())

		got, err := repo.Get(ctx, "zeek")
		require.NoError(t, err)
		assert.Equal(t, s.Indices, got.Indices)
		assert.Equal(t, "observer.name", got.Fields.HostName)

		s.Name = "Zeek"
		require.NoError(t, repo.Upsert(ctx, s))
		got, err = repo.Get(ctx, "zeek")
		require.NoError(t, err)
		assert.Equal(t, "Zeek", got.Name)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("list", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, DefaultID, list[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, DefaultID), ErrSourceProtected)
		require.NoError(t, repo.Delete(ctx, "zeek"))
		assert.ErrorIs(t, repo.Delete(ctx, "zeek"), ErrSourceNotFound)
		_, err := repo.Get(ctx, "zeek")
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("invalid", func(t *testing.T) {
		assert.ErrorIs(t, repo.Upsert(ctx, &Source{ID: "x"}), ErrSourceInvalid)
	})
}
