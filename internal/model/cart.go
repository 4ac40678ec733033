package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart 与用户一对一，结算后只清空明细，购物车本身保留。
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`
	// Version 每次结算提交时 +1，提交前校验，防止同一快照被消费两次。
	Version int64      `gorm:"not null;default:0" json:"version"`
	Lines   []CartLine `gorm:"foreignKey:CartID" json:"lines,omitempty"`
}

func (Cart) TableName() string { return "carts" }

// CartLine 购物车明细，UnitPrice 为加入购物车时的商品单价。
type CartLine struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CartID    uint            `gorm:"not null;uniqueIndex:idx_cart_line_product" json:"cart_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_cart_line_product" json:"product_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

func (CartLine) TableName() string { return "cart_lines" }
