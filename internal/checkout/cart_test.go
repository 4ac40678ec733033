package checkout

import (
	"context"
	"testing"

	"greenora/internal/apperr"
	"greenora/internal/store"
	"greenora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewCarts(store.New(db))
	u := testutil.SeedUser(t, db, "uma")
	p1 := testutil.SeedProduct(t, db, "mint", "4.00", 10)
	p2 := testutil.SeedProduct(t, db, "sage", "5.50", 1)

	view, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Subtotal.IsZero())

	_, err = svc.AddItem(ctx, u.ID, p1.ID, 2)
	require.NoError(t, err)
	view, err = svc.AddItem(ctx, u.ID, p1.ID, 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.EqualValues(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, "12.00", view.Subtotal.StringFixed(2))

	_, err = svc.AddItem(ctx, u.ID, p2.ID, 2)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	_, err = svc.AddItem(ctx, u.ID, 999, 1)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
	_, err = svc.AddItem(ctx, 999, p1.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	_, err = svc.AddItem(ctx, u.ID, p1.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	view, err = svc.UpdateItem(ctx, u.ID, p1.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "4.00", view.Subtotal.StringFixed(2))

	_, err = svc.AddItem(ctx, u.ID, p2.ID, 1)
	require.NoError(t, err)
	view, err = svc.RemoveItem(ctx, u.ID, p1.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, p2.ID, view.Lines[0].ProductID)

	_, err = svc.RemoveItem(ctx, u.ID, p1.ID)
	assert.ErrorIs(t, err, apperr.ErrCartLineNotFound)

	require.NoError(t, svc.Clear(ctx, u.ID))
	view, err = svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}
