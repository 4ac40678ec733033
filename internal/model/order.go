package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryStatus 订单配送状态。
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "PENDING"
	DeliveryProcessing DeliveryStatus = "PROCESSING"
	DeliveryShipped    DeliveryStatus = "SHIPPED"
	DeliveryDelivered  DeliveryStatus = "DELIVERED"
	DeliveryCancelled  DeliveryStatus = "CANCELLED"
)

// deliveryTransitions 合法的状态迁移表，DELIVERED / CANCELLED 为终态。
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:    {DeliveryProcessing, DeliveryCancelled},
	DeliveryProcessing: {DeliveryShipped, DeliveryCancelled},
	DeliveryShipped:    {DeliveryDelivered},
	DeliveryDelivered:  nil,
	DeliveryCancelled:  nil,
}

// Valid reports whether s is one of the known delivery statuses.
func (s DeliveryStatus) Valid() bool {
	_, ok := deliveryTransitions[s]
	return ok
}

// CanTransitionTo 判断能否从 s 迁移到 next；原地赋值视为允许。
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order 订单头，独占其明细行；创建后除配送状态外不再修改。
type Order struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderNo   string `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	AddressID uint   `json:"address_id"`
	CouponID  *uint  `json:"coupon_id,omitempty"`

	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	TotalAmt decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amt"`
	Currency string          `gorm:"size:3;not null" json:"currency"`

	OrderDate      time.Time      `gorm:"not null;index" json:"order_date"`
	DeliveryDate   time.Time      `gorm:"not null" json:"delivery_date"`
	DeliveryStatus DeliveryStatus `gorm:"size:16;not null" json:"delivery_status"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
}

func (Order) TableName() string { return "orders" }

// OrderLine 下单时固定的数量与单价，ProductID 只是引用。
type OrderLine struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

func (OrderLine) TableName() string { return "order_lines" }

// Amount returns quantity × unit price.
func (l OrderLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}
