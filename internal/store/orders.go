package store

import (
	"context"
	"errors"
	"fmt"

	"greenora/internal/apperr"
	"greenora/internal/model"

	"gorm.io/gorm"
)

type OrderRepo struct {
	db *gorm.DB
}

// Create 写订单头，明细通过关联一并写入。
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("create order %s: %w", o.OrderNo, err)
	}
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) FindByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("order_no = ?", orderNo).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ListByUser 最新的订单在前，同一时刻按 id 倒序。
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	return r.list(ctx, r.db.Where("user_id = ?", userID))
}

func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, r.db)
}

func (r *OrderRepo) list(ctx context.Context, q *gorm.DB) ([]model.Order, error) {
	orders := make([]model.Order, 0)
	err := q.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("order_date DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 条件更新：只有当前状态仍是 from 时才写入 to。
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, from, to model.DeliveryStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND delivery_status = ?", id, from).
		Update("delivery_status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrStaleOrder
	}
	return nil
}
