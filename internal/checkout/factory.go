package checkout

import (
	"strings"
	"time"

	"greenora/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderFactory 根据快照与折扣构造 PENDING 订单，不做任何持久化。
type OrderFactory struct {
	currency string
	lead     time.Duration
}

func NewOrderFactory(currency string, lead time.Duration) *OrderFactory {
	return &OrderFactory{currency: currency, lead: lead}
}

func (f *OrderFactory) Build(snap CartSnapshot, addressID uint, couponID *uint, discount decimal.Decimal, now time.Time) *model.Order {
	subtotal := snap.Subtotal()
	lines := make([]model.OrderLine, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, model.OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	// 未真正抵扣的券不挂在订单上
	if discount.IsZero() {
		couponID = nil
	}
	return &model.Order{
		OrderNo:        NewOrderNo(now),
		UserID:         snap.User.ID,
		AddressID:      addressID,
		CouponID:       couponID,
		Subtotal:       subtotal,
		Discount:       discount,
		TotalAmt:       subtotal.Sub(discount),
		Currency:       f.currency,
		OrderDate:      now,
		DeliveryDate:   now.Add(f.lead),
		DeliveryStatus: model.DeliveryPending,
		Lines:          lines,
	}
}

// NewOrderNo 形如 GO20260301A1B2C3D4E5F6，先于落库生成，strict 模式用作网关 receipt。
func NewOrderNo(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "GO" + now.UTC().Format("20060102") + id[:12]
}
