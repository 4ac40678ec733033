package store

import (
	"context"
	"errors"
	"fmt"

	"greenora/internal/apperr"
	"greenora/internal/model"

	"gorm.io/gorm"
)

// InventoryLedger 是商品可售库存唯一的写入口。
type InventoryLedger struct {
	db *gorm.DB
}

// Reserve 原子条件扣减：UPDATE ... SET quantity = quantity - q WHERE id = ? AND quantity >= q。
// 读-判断-写在同一条语句里完成，并发扣减不会把库存扣成负数。
func (l *InventoryLedger) Reserve(ctx context.Context, productID uint, qty int64) error {
	if qty <= 0 {
		return apperr.ErrInvalidQuantity
	}
	res := l.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("reserve product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// 0 行：商品不存在或库存不足，区分一下给调用方
	available, err := l.Available(ctx, productID)
	if err != nil {
		return err
	}
	return apperr.ErrInsufficientStock.WithMessage(
		fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", productID, qty, available))
}

// Release 归还库存，订单取消时调用。
func (l *InventoryLedger) Release(ctx context.Context, productID uint, qty int64) error {
	if qty <= 0 {
		return apperr.ErrInvalidQuantity
	}
	res := l.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("release product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}

func (l *InventoryLedger) Available(ctx context.Context, productID uint) (int64, error) {
	var p model.Product
	if err := l.db.WithContext(ctx).Select("id", "quantity").First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.ErrProductNotFound
		}
		return 0, err
	}
	return p.Quantity, nil
}
