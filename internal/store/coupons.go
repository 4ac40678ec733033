package store

import (
	"context"
	"errors"

	"greenora/internal/apperr"
	"greenora/internal/model"

	"gorm.io/gorm"
)

type CouponRepo struct {
	db *gorm.DB
}

func (r *CouponRepo) FindByID(ctx context.Context, id uint) (*model.Coupon, error) {
	var c model.Coupon
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrCouponNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByCode 券码不区分大小写。
func (r *CouponRepo) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", model.NormalizeCouponCode(code)).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrCouponNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	return r.db.WithContext(ctx).Create(c).Error
}
