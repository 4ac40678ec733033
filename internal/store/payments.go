package store

import (
	"context"
	"errors"
	"fmt"

	"greenora/internal/apperr"
	"greenora/internal/model"

	"gorm.io/gorm"
)

type PaymentRepo struct {
	db *gorm.DB
}

// Create 每个订单最多一条支付记录，由 order_id 唯一索引兜底。
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payment for order %d: %w", p.OrderID, err)
	}
	return nil
}

func (r *PaymentRepo) FindByOrderID(ctx context.Context, orderID uint) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List 全部支付记录，最新的在前。
func (r *PaymentRepo) List(ctx context.Context) ([]model.Payment, error) {
	payments := make([]model.Payment, 0)
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
