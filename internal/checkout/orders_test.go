package checkout

import (
	"context"
	"testing"
	"time"

	"greenora/internal/apperr"
	"greenora/internal/model"
	"greenora/internal/store"
	"greenora/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, st *store.Store, userID uint, p *model.Product, qty int64, at time.Time) *model.Order {
	t.Helper()
	total := p.Price.Mul(decimal.NewFromInt(qty))
	o := &model.Order{
		OrderNo:        NewOrderNo(at),
		UserID:         userID,
		Subtotal:       total,
		Discount:       testutil.Dec("0"),
		TotalAmt:       total,
		Currency:       "INR",
		OrderDate:      at,
		DeliveryDate:   at.AddDate(0, 0, 7),
		DeliveryStatus: model.DeliveryPending,
		Lines:          []model.OrderLine{{ProductID: p.ID, Quantity: qty, UnitPrice: p.Price}},
	}
	require.NoError(t, st.Orders.Create(context.Background(), o))
	return o
}

func TestOrdersUpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	st := store.New(db)
	svc := NewOrders(st, nil)
	u := testutil.SeedUser(t, db, "ray")
	p := testutil.SeedProduct(t, db, "fig", "15.00", 3)
	o := seedOrder(t, st, u.ID, p, 2, time.Now())

	_, err := svc.UpdateStatus(ctx, o.ID, "LOST")
	assert.ErrorIs(t, err, apperr.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, 999, "SHIPPED")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)

	_, err = svc.UpdateStatus(ctx, o.ID, "DELIVERED")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	got, err := svc.UpdateStatus(ctx, o.ID, "processing")
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryProcessing, got.DeliveryStatus)

	// 原地赋值是 no-op
	got, err = svc.UpdateStatus(ctx, o.ID, "PROCESSING")
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryProcessing, got.DeliveryStatus)

	_, err = svc.UpdateStatus(ctx, o.ID, "SHIPPED")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, o.ID, "DELIVERED")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, o.ID, "PENDING")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	stored, err := svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryDelivered, stored.DeliveryStatus)
}

func TestOrdersCancelReleasesInventory(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	st := store.New(db)
	svc := NewOrders(st, nil)
	u := testutil.SeedUser(t, db, "sam")
	p := testutil.SeedProduct(t, db, "olive", "40.00", 1)
	o := seedOrder(t, st, u.ID, p, 2, time.Now())

	_, err := svc.UpdateStatus(ctx, o.ID, "CANCELLED")
	require.NoError(t, err)
	assert.EqualValues(t, 3, testutil.Product(t, db, p.ID).Quantity)

	// 已取消是终态，再取消不会重复归还
	_, err = svc.UpdateStatus(ctx, o.ID, "CANCELLED")
	require.NoError(t, err)
	assert.EqualValues(t, 3, testutil.Product(t, db, p.ID).Quantity)
}

func TestOrdersListingAndPayments(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	st := store.New(db)
	svc := NewOrders(st, nil)
	u := testutil.SeedUser(t, db, "tia")
	p := testutil.SeedProduct(t, db, "lime", "2.50", 10)

	base := time.Now().Add(-time.Hour)
	older := seedOrder(t, st, u.ID, p, 1, base)
	newer := seedOrder(t, st, u.ID, p, 1, base.Add(10*time.Minute))

	list, err := svc.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	none, err := svc.ListByUser(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.PaymentByOrder(ctx, older.ID)
	assert.ErrorIs(t, err, apperr.ErrPaymentNotFound)
	_, err = svc.PaymentByOrder(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)

	require.NoError(t, st.Payments.Create(ctx, &model.Payment{
		OrderID: older.ID, Method: model.PaymentMethodCreditCard, Status: model.PaymentCompleted,
		TransactionID: "pi_x", Amount: older.TotalAmt,
	}))
	pay, err := svc.PaymentByOrder(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_x", pay.TransactionID)
}
