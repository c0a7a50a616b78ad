package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	basketmemory "github.com/meganoshop/backend/internal/domains/basket/adapters/memory"
	"github.com/meganoshop/backend/internal/domains/basket/domain"
	"github.com/meganoshop/backend/internal/domains/basket/ports"
	catalogmemory "github.com/meganoshop/backend/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/meganoshop/backend/internal/domains/catalog/application"
	catalogdomain "github.com/meganoshop/backend/internal/domains/catalog/domain"
	"github.com/meganoshop/backend/internal/platform/cache"
)

type basketFixture struct {
	catalogRepo *catalogmemory.Repository
	repo        *basketmemory.Repository
	guests      *basketmemory.GuestCartStore
	cache       *cache.Memory
	service     *Service
	guest       *GuestService
	merger      *CartMerger
}

func newBasketFixture(t *testing.T) *basketFixture {
	t.Helper()
	catalogRepo := catalogmemory.NewRepository()
	catalog := catalogapp.NewService(catalogRepo)
	repo := basketmemory.NewRepository()
	guests := basketmemory.NewGuestCartStore()
	store := cache.NewMemory()
	return &basketFixture{
		catalogRepo: catalogRepo,
		repo:        repo,
		guests:      guests,
		cache:       store,
		service:     NewService(repo, catalog, WithCache(store)),
		guest:       NewGuestService(guests, catalog, WithCache(store)),
		merger:      NewCartMerger(repo, guests, WithCache(store)),
	}
}

func (f *basketFixture) seedProduct(t *testing.T, title string, price float64, count int) *catalogdomain.Product {
	t.Helper()
	product, err := f.catalogRepo.Save(context.Background(), &catalogdomain.Product{
		Title: title,
		Price: price,
		Count: count,
	})
	require.NoError(t, err)
	return product
}

func TestAdd_SumsRepeatedLines(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Lamp", 300, 10)
	owner := domain.UserOwner(1)
	ctx := context.Background()

	items, err := f.service.Add(ctx, owner, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Count)

	items, err = f.service.Add(ctx, owner, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Count)
	assert.Equal(t, 300.0, items[0].CurrentPrice)
	assert.Equal(t, 10, items[0].ProductCount)
}

func TestAdd_RejectsInvalidInput(t *testing.T) {
	f := newBasketFixture(t)
	owner := domain.UserOwner(1)
	ctx := context.Background()

	_, err := f.service.Add(ctx, owner, 0, 1)
	require.ErrorIs(t, err, domain.ErrInvalidProductID)

	_, err = f.service.Add(ctx, owner, 1, 0)
	require.ErrorIs(t, err, domain.ErrInvalidCount)
}

func TestRemove_DecrementsAndDeletes(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Desk", 900, 4)
	owner := domain.UserOwner(1)
	ctx := context.Background()

	_, err := f.service.Add(ctx, owner, product.ID, 3)
	require.NoError(t, err)

	items, err := f.service.Remove(ctx, owner, product.ID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Count)

	items, err = f.service.Remove(ctx, owner, product.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRemove_MissingLine(t *testing.T) {
	f := newBasketFixture(t)
	owner := domain.UserOwner(1)

	_, err := f.service.Remove(context.Background(), owner, 99, 1)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestItems_InvalidatedOnWrite(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Chair", 450, 8)
	owner := domain.UserOwner(3)
	ctx := context.Background()

	items, err := f.service.Items(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
	require.True(t, f.cache.Contains(cache.BasketKey(owner.Key())))

	items, err = f.service.Add(ctx, owner, product.ID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestItems_DropsVanishedProducts(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Shelf", 700, 5)
	owner := domain.UserOwner(4)
	ctx := context.Background()

	require.NoError(t, f.repo.Save(ctx, &domain.Line{UserID: owner.UserID, ProductID: product.ID, Count: 1}))
	require.NoError(t, f.repo.Save(ctx, &domain.Line{UserID: owner.UserID, ProductID: 999, Count: 1}))

	items, err := f.service.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].ProductID)
}

func TestService_RejectsGuestOwner(t *testing.T) {
	f := newBasketFixture(t)
	_, err := f.service.Items(context.Background(), domain.GuestOwner("abc"))
	require.Error(t, err)
}

func TestClearUser(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Rug", 250, 6)
	owner := domain.UserOwner(5)
	ctx := context.Background()

	_, err := f.service.Add(ctx, owner, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, f.service.ClearUser(ctx, owner.UserID))

	items, err := f.service.Items(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGuestAdd_AccumulatesInSession(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Mug", 90, 20)
	owner := domain.GuestOwner("sess-1")
	ctx := context.Background()

	items, err := f.guest.Add(ctx, owner, product.ID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = f.guest.Add(ctx, owner, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Count)
}

func TestGuestRemove_MissingLineIsNoOp(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Pot", 60, 9)
	owner := domain.GuestOwner("sess-2")
	ctx := context.Background()

	_, err := f.guest.Add(ctx, owner, product.ID, 2)
	require.NoError(t, err)

	items, err := f.guest.Remove(ctx, owner, 777, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Count)
}

func TestGuestRemove_DropsLineAtZero(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Pan", 150, 9)
	owner := domain.GuestOwner("sess-3")
	ctx := context.Background()

	_, err := f.guest.Add(ctx, owner, product.ID, 2)
	require.NoError(t, err)

	items, err := f.guest.Remove(ctx, owner, product.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGuestService_RejectsUserOwner(t *testing.T) {
	f := newBasketFixture(t)
	_, err := f.guest.Items(context.Background(), domain.UserOwner(1))
	require.Error(t, err)
}
