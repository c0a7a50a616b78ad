package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meganoshop/backend/internal/domains/basket/domain"
)

func TestMerge_SumsGuestLinesIntoUserCart(t *testing.T) {
	f := newBasketFixture(t)
	first := f.seedProduct(t, "Teapot", 400, 10)
	second := f.seedProduct(t, "Tray", 120, 10)
	ctx := context.Background()
	owner := domain.UserOwner(8)
	session := "sess-merge"

	// User already holds one unit of the first product.
	_, err := f.service.Add(ctx, owner, first.ID, 1)
	require.NoError(t, err)

	// Guest cart holds {first: 2, second: 3}.
	_, err = f.guest.Add(ctx, domain.GuestOwner(session), first.ID, 2)
	require.NoError(t, err)
	_, err = f.guest.Add(ctx, domain.GuestOwner(session), second.ID, 3)
	require.NoError(t, err)

	require.NoError(t, f.merger.Merge(ctx, session, owner.UserID))

	items, err := f.service.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 2)
	counts := map[int64]int{}
	for _, item := range items {
		counts[item.ProductID] = item.Count
	}
	assert.Equal(t, 3, counts[first.ID])
	assert.Equal(t, 3, counts[second.ID])

	// The guest cart is consumed by the merge.
	cart, err := f.guests.Get(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestMerge_EmptyGuestCartIsNoOp(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Vase", 220, 5)
	ctx := context.Background()
	owner := domain.UserOwner(9)

	_, err := f.service.Add(ctx, owner, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, f.merger.Merge(ctx, "sess-empty", owner.UserID))

	items, err := f.service.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Count)
}

func TestMerge_InvalidatesUserBasketCache(t *testing.T) {
	f := newBasketFixture(t)
	product := f.seedProduct(t, "Clock", 320, 5)
	ctx := context.Background()
	owner := domain.UserOwner(10)
	session := "sess-cache"

	// Prime the user's cached, empty basket.
	items, err := f.service.Items(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = f.guest.Add(ctx, domain.GuestOwner(session), product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.merger.Merge(ctx, session, owner.UserID))

	items, err = f.service.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestGuestCart_Entries(t *testing.T) {
	cart := domain.GuestCart{"3": 2, "7": 1}
	entries, err := cart.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	malformed := domain.GuestCart{"abc": 1}
	_, err = malformed.Entries()
	require.Error(t, err)
}
