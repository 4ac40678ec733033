package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 商品：名称、单价、可售库存
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name  string          `gorm:"size:128;not null" json:"name"`
	Price decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	// Quantity 只由下单流程里的库存账本做条件扣减，永远不为负。
	Quantity int64 `gorm:"not null;default:0" json:"quantity"`
}

func (Product) TableName() string { return "products" }
