package checkout

import (
	"context"

	"greenora/internal/apperr"
	"greenora/internal/model"
	"greenora/internal/store"

	"github.com/shopspring/decimal"
)

// CartSnapshot 定价用的购物车只读快照，之后的任何变更都不影响它。
type CartSnapshot struct {
	User    model.User
	CartID  uint
	Version int64
	Lines   []model.CartLine
}

// Subtotal 折扣前总额 Σ qty × unitPrice。
func (s CartSnapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return total
}

// TakeSnapshot 读取用户购物车。用户不存在返回 ErrUserNotFound；
// 没有购物车时懒创建；没有明细返回 ErrEmptyCart。
func TakeSnapshot(ctx context.Context, st *store.Store, userID uint) (CartSnapshot, error) {
	user, err := st.Users.FindByID(ctx, userID)
	if err != nil {
		return CartSnapshot{}, err
	}
	cart, err := st.Carts.GetOrCreate(ctx, userID)
	if err != nil {
		return CartSnapshot{}, err
	}
	lines, err := st.Carts.Lines(ctx, cart.ID)
	if err != nil {
		return CartSnapshot{}, err
	}
	snap := CartSnapshot{
		User:    *user,
		CartID:  cart.ID,
		Version: cart.Version,
		Lines:   lines,
	}
	if len(lines) == 0 {
		return snap, apperr.ErrEmptyCart
	}
	return snap, nil
}
