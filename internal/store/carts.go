package store

import (
	"context"
	"fmt"

	"greenora/internal/apperr"
	"greenora/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepo struct {
	db *gorm.DB
}

// GetOrCreate 懒创建购物车。并发首次创建撞唯一索引时回读已有记录。
func (r *CartRepo) GetOrCreate(ctx context.Context, userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Where(model.Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if rerr := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; rerr == nil {
		return &cart, nil
	}
	return nil, fmt.Errorf("get or create cart for user %d: %w", userID, err)
}

// Lines 按加入顺序返回购物车明细。
func (r *CartRepo) Lines(ctx context.Context, cartID uint) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// AddLine 同一商品重复加入时累加数量，单价刷新为当前价。
func (r *CartRepo) AddLine(ctx context.Context, cartID, productID uint, qty int64, unitPrice decimal.Decimal) (*model.CartLine, error) {
	if qty <= 0 {
		return nil, apperr.ErrInvalidQuantity
	}
	line := model.CartLine{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: unitPrice,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_lines.quantity + excluded.quantity"),
			"unit_price": gorm.Expr("excluded.unit_price"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&line).Error
	if err != nil {
		return nil, fmt.Errorf("add cart line: %w", err)
	}

	var out model.CartLine
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CartRepo) SetLineQuantity(ctx context.Context, cartID, productID uint, qty int64) error {
	if qty <= 0 {
		return apperr.ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrCartLineNotFound
	}
	return nil
}

func (r *CartRepo) RemoveLine(ctx context.Context, cartID, productID uint) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrCartLineNotFound
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartLine{}).Error
}

// ConsumeLines 按快照扣减购物车明细：数量未超过快照的行删除，
// 结算期间又累加过的行只减去快照数量，多出的部分留在购物车里。
func (r *CartRepo) ConsumeLines(ctx context.Context, lines []model.CartLine) error {
	db := r.db.WithContext(ctx)
	for _, l := range lines {
		res := db.Where("id = ? AND quantity <= ?", l.ID, l.Quantity).Delete(&model.CartLine{})
		if res.Error != nil {
			return fmt.Errorf("consume cart line %d: %w", l.ID, res.Error)
		}
		if res.RowsAffected > 0 {
			continue
		}
		// 行已被删除时这里也是 0 行，无需处理
		if err := db.Model(&model.CartLine{}).
			Where("id = ? AND quantity > ?", l.ID, l.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", l.Quantity)).Error; err != nil {
			return fmt.Errorf("consume cart line %d: %w", l.ID, err)
		}
	}
	return nil
}

// ClaimVersion 乐观锁：版本号仍等于快照时的值才 +1，否则说明快照已被别的结算消费。
func (r *CartRepo) ClaimVersion(ctx context.Context, cartID uint, version int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ? AND version = ?", cartID, version).
		UpdateColumn("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrCheckoutConflict
	}
	return nil
}
