package checkout

import (
	"context"
	"time"

	"greenora/internal/apperr"
	"greenora/internal/model"
	"greenora/internal/store"

	"github.com/shopspring/decimal"
)

// ValidateCoupon 唯一的券校验规则：启用、在有效期内（按 UTC 自然日，含首尾）、达到满减门槛。
// 不通过时返回带原因的 ErrInvalidCoupon。
func ValidateCoupon(c *model.Coupon, total decimal.Decimal, now time.Time) error {
	if !c.Active {
		return apperr.ErrInvalidCoupon.WithMessage("coupon is not active")
	}
	today := day(now)
	if today.Before(day(c.ValidFrom)) {
		return apperr.ErrInvalidCoupon.WithMessage("coupon is not yet valid")
	}
	if today.After(day(c.ValidUntil)) {
		return apperr.ErrInvalidCoupon.WithMessage("coupon has expired")
	}
	if total.LessThan(c.MinOrderAmt) {
		return apperr.ErrInvalidCoupon.WithMessage("order amount is below the coupon minimum " + c.MinOrderAmt.StringFixed(2))
	}
	return nil
}

// Discount 下单时的软校验：券无效折扣为 0，有效时整额扣减，但不超过 total。
func Discount(c *model.Coupon, total decimal.Decimal, now time.Time) decimal.Decimal {
	if c == nil || ValidateCoupon(c, total, now) != nil {
		return decimal.Zero
	}
	return decimal.Min(c.DiscountValue, total)
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CouponValidator 读券并套用 ValidateCoupon。
type CouponValidator struct {
	coupons *store.CouponRepo
	now     func() time.Time
}

func NewCouponValidator(coupons *store.CouponRepo) *CouponValidator {
	return &CouponValidator{coupons: coupons, now: time.Now}
}

// Apply 返回折扣额。未传券为 0；券不存在返回 ErrCouponNotFound。
func (v *CouponValidator) Apply(ctx context.Context, couponID *uint, total decimal.Decimal) (decimal.Decimal, error) {
	if couponID == nil {
		return decimal.Zero, nil
	}
	c, err := v.coupons.FindByID(ctx, *couponID)
	if err != nil {
		return decimal.Zero, err
	}
	return Discount(c, total, v.now()), nil
}

// Validate 独立的校验券接口，券码不区分大小写，不通过直接返回错误。
func (v *CouponValidator) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*model.Coupon, error) {
	if model.NormalizeCouponCode(code) == "" {
		return nil, apperr.ErrInvalidInput.WithMessage("coupon code is required")
	}
	if orderAmount.IsNegative() {
		return nil, apperr.ErrInvalidInput.WithMessage("order amount must not be negative")
	}
	c, err := v.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := ValidateCoupon(c, orderAmount, v.now()); err != nil {
		return nil, err
	}
	return c, nil
}
