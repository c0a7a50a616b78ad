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

	"github.com/meganoshop/backend/internal/domains/basket/domain"
	"github.com/meganoshop/backend/internal/domains/basket/ports"
	"github.com/meganoshop/backend/internal/platform/migrations"
)

func setupBasketPostgresContainer(t *testing.T) (*gorm.DB, func()) {
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

func TestRepository_SaveUpsertsLine(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupBasketPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	line := &domain.Line{UserID: 1, ProductID: 10, Count: 2}
	require.NoError(t, repo.Save(ctx, line))
	assert.NotZero(t, line.ID)

	// Saving the same (user, product) pair again must update in place.
	line.Count = 5
	require.NoError(t, repo.Save(ctx, line))

	lines, err := repo.LinesByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Count)
}

func TestRepository_LineAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupBasketPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Line{UserID: 2, ProductID: 11, Count: 1}))

	line, err := repo.Line(ctx, 2, 11)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Count)

	_, err = repo.Line(ctx, 2, 99)
	require.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, 2, 11))
	require.ErrorIs(t, repo.Delete(ctx, 2, 11), ports.ErrNotFound)
}

func TestRepository_ClearUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupBasketPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Line{UserID: 3, ProductID: 11, Count: 1}))
	require.NoError(t, repo.Save(ctx, &domain.Line{UserID: 3, ProductID: 12, Count: 2}))
	require.NoError(t, repo.Save(ctx, &domain.Line{UserID: 4, ProductID: 11, Count: 1}))

	require.NoError(t, repo.ClearUser(ctx, 3))

	mine, err := repo.LinesByUser(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, mine)

	others, err := repo.LinesByUser(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestGuestCartStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupBasketPostgresContainer(t)
	defer cleanup()

	store := NewGuestCartStore(db)
	ctx := context.Background()

	cart, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, cart)

	require.NoError(t, store.Save(ctx, "sess-1", domain.GuestCart{"10": 2, "11": 1}))

	cart, err = store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.GuestCart{"10": 2, "11": 1}, cart)

	// Overwrite replaces the whole cart.
	require.NoError(t, store.Save(ctx, "sess-1", domain.GuestCart{"10": 4}))
	cart, err = store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.GuestCart{"10": 4}, cart)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	cart, err = store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, cart)
}
