//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/meganoshop/backend/internal/domains/users/domain"
	"github.com/meganoshop/backend/internal/domains/users/ports"
	"github.com/meganoshop/backend/internal/platform/migrations"
)

func setupUsersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestRepository_CreateAndGetByUsername(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	user, err := domain.NewUser("alice", "secret")
	require.NoError(t, err)

	created, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	fetched, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.True(t, fetched.CheckPassword("secret"))
}

func TestRepository_CreateDuplicateUsername(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	first, err := domain.NewUser("alice", "secret")
	require.NoError(t, err)
	_, err = repo.Create(ctx, first)
	require.NoError(t, err)

	second, err := domain.NewUser("alice", "other")
	require.NoError(t, err)
	_, err = repo.Create(ctx, second)
	require.ErrorIs(t, err, ports.ErrUsernameTaken)
}

func TestRepository_UpdateEmailAndGetByEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	user, err := domain.NewUser("bob", "secret")
	require.NoError(t, err)
	created, err := repo.Create(ctx, user)
	require.NoError(t, err)

	require.NoError(t, created.SetEmail("bob@example.com"))
	require.NoError(t, repo.Update(ctx, created))

	fetched, err := repo.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_BindResolvePurge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	store := NewSessionStore(db, time.Hour)
	ctx := context.Background()

	userID, err := store.Resolve(ctx, "unknown")
	require.NoError(t, err)
	assert.Zero(t, userID)

	require.NoError(t, store.Bind(ctx, "tok", 7))
	userID, err = store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	// Rebinding the same token to another account refreshes the row.
	require.NoError(t, store.Bind(ctx, "tok", 8))
	userID, err = store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(8), userID)

	require.NoError(t, store.Unbind(ctx, "tok"))
	userID, err = store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.Zero(t, userID)

	require.NoError(t, store.PurgeExpired(ctx))
}
