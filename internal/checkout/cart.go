package checkout

import (
	"context"

	"greenora/internal/apperr"
	"greenora/internal/model"
	"greenora/internal/store"

	"github.com/shopspring/decimal"
)

// Carts 购物车维护，加入时按商品当前价锁定单价。
type Carts struct {
	store *store.Store
}

func NewCarts(st *store.Store) *Carts {
	return &Carts{store: st}
}

type CartView struct {
	CartID   uint             `json:"cart_id"`
	UserID   uint             `json:"user_id"`
	Lines    []model.CartLine `json:"lines"`
	Subtotal decimal.Decimal  `json:"subtotal"`
}

func (c *Carts) Get(ctx context.Context, userID uint) (*CartView, error) {
	cart, err := c.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.view(ctx, cart)
}

// AddItem 已在购物车中的商品累加数量；数量超过当前库存时拒绝。
func (c *Carts) AddItem(ctx context.Context, userID, productID uint, qty int64) (*CartView, error) {
	if qty <= 0 {
		return nil, apperr.ErrInvalidQuantity
	}
	cart, err := c.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := c.store.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Quantity < qty {
		return nil, apperr.ErrInsufficientStock
	}
	if _, err := c.store.Carts.AddLine(ctx, cart.ID, p.ID, qty, p.Price); err != nil {
		return nil, err
	}
	return c.view(ctx, cart)
}

func (c *Carts) UpdateItem(ctx context.Context, userID, productID uint, qty int64) (*CartView, error) {
	cart, err := c.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.store.Carts.SetLineQuantity(ctx, cart.ID, productID, qty); err != nil {
		return nil, err
	}
	return c.view(ctx, cart)
}

func (c *Carts) RemoveItem(ctx context.Context, userID, productID uint) (*CartView, error) {
	cart, err := c.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.store.Carts.RemoveLine(ctx, cart.ID, productID); err != nil {
		return nil, err
	}
	return c.view(ctx, cart)
}

func (c *Carts) Clear(ctx context.Context, userID uint) error {
	cart, err := c.cartOf(ctx, userID)
	if err != nil {
		return err
	}
	return c.store.Carts.Clear(ctx, cart.ID)
}

func (c *Carts) cartOf(ctx context.Context, userID uint) (*model.Cart, error) {
	if _, err := c.store.Users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return c.store.Carts.GetOrCreate(ctx, userID)
}

func (c *Carts) view(ctx context.Context, cart *model.Cart) (*CartView, error) {
	lines, err := c.store.Carts.Lines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	snap := CartSnapshot{CartID: cart.ID, Lines: lines}
	return &CartView{
		CartID:   cart.ID,
		UserID:   cart.UserID,
		Lines:    lines,
		Subtotal: snap.Subtotal(),
	}, nil
}
