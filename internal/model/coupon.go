package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Coupon 满减券：满 MinOrderAmt 减 DiscountValue，有效期按天计算（含首尾）。
type Coupon struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code          string          `gorm:"size:20;uniqueIndex;not null" json:"code"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_value"`
	MinOrderAmt   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"min_order_amt"`
	Active        bool            `gorm:"not null" json:"active"`
	ValidFrom     time.Time       `gorm:"not null" json:"valid_from"`
	ValidUntil    time.Time       `gorm:"not null" json:"valid_until"`
}

func (Coupon) TableName() string { return "coupons" }

// NormalizeCouponCode 券码不区分大小写，统一存大写。
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) BeforeSave(*gorm.DB) error {
	c.Code = NormalizeCouponCode(c.Code)
	return nil
}
