package checkout

import (
	"context"
	"testing"
	"time"

	"greenora/internal/apperr"
	"greenora/internal/model"
	"greenora/internal/store"
	"greenora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2026, 5, 10, 23, 30, 0, 0, time.UTC)
	base := model.Coupon{
		Code:          "SPRING",
		DiscountValue: testutil.Dec("20"),
		MinOrderAmt:   testutil.Dec("100"),
		Active:        true,
		ValidFrom:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:    time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
	}

	cases := []struct {
		name   string
		mutate func(*model.Coupon)
		total  string
		ok     bool
		reason string
	}{
		{name: "valid on last day", total: "100", ok: true},
		{name: "inactive", mutate: func(c *model.Coupon) { c.Active = false }, total: "150", reason: "coupon is not active"},
		{name: "expired", mutate: func(c *model.Coupon) { c.ValidUntil = c.ValidUntil.AddDate(0, 0, -1) }, total: "150", reason: "coupon has expired"},
		{name: "not yet valid", mutate: func(c *model.Coupon) { c.ValidFrom = now.AddDate(0, 0, 1) }, total: "150", reason: "coupon is not yet valid"},
		{name: "below minimum", total: "99.99", reason: "order amount is below the coupon minimum 100.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			if tc.mutate != nil {
				tc.mutate(&c)
			}
			err := ValidateCoupon(&c, testutil.Dec(tc.total), now)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInvalidCoupon)
			assert.EqualError(t, err, tc.reason)
		})
	}
}

func TestDiscount(t *testing.T) {
	now := time.Now()
	c := &model.Coupon{
		DiscountValue: testutil.Dec("20"),
		MinOrderAmt:   testutil.Dec("100"),
		Active:        true,
		ValidFrom:     now.AddDate(0, 0, -1),
		ValidUntil:    now.AddDate(0, 0, 1),
	}
	assert.Equal(t, "20", Discount(c, testutil.Dec("150"), now).String())
	assert.True(t, Discount(c, testutil.Dec("80"), now).IsZero())
	assert.True(t, Discount(nil, testutil.Dec("150"), now).IsZero())
}

func TestCouponValidatorValidate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	v := NewCouponValidator(store.New(db).Coupons)
	testutil.SeedCoupon(t, db, "Green10", "10", "50", true, 2)
	testutil.SeedCoupon(t, db, "OLD", "10", "0", false, 2)

	c, err := v.Validate(ctx, "green10", testutil.Dec("60"))
	require.NoError(t, err)
	assert.Equal(t, "GREEN10", c.Code)

	_, err = v.Validate(ctx, "GREEN10", testutil.Dec("40"))
	assert.ErrorIs(t, err, apperr.ErrInvalidCoupon)

	_, err = v.Validate(ctx, "old", testutil.Dec("60"))
	assert.ErrorIs(t, err, apperr.ErrInvalidCoupon)

	_, err = v.Validate(ctx, "missing", testutil.Dec("60"))
	assert.ErrorIs(t, err, apperr.ErrCouponNotFound)

	_, err = v.Validate(ctx, "  ", testutil.Dec("60"))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"100":    10000,
		"60.17":  6017,
		"10.005": 1001,
		"99.999": 10000,
		"0":      0,
	}
	for in, want := range cases {
		assert.Equal(t, want, MinorUnits(testutil.Dec(in)), in)
	}
}

func TestSnapshotSubtotal(t *testing.T) {
	snap := CartSnapshot{Lines: []model.CartLine{
		{ID: 1, Quantity: 3, UnitPrice: testutil.Dec("19.99")},
		{ID: 2, Quantity: 2, UnitPrice: testutil.Dec("0.10")},
		{ID: 5, Quantity: 1, UnitPrice: testutil.Dec("0.01")},
	}}
	assert.Equal(t, "60.18", snap.Subtotal().StringFixed(2))
}
