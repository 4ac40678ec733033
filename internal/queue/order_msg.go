package queue

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "order.placed"

// OrderPlacedMessage 下单成功事件，经 Redis Stream 转发到 Kafka，供通知服务消费。
type OrderPlacedMessage struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	OrderID        uint      `json:"order_id"`
	OrderNo        string    `json:"order_no"`
	UserID         uint      `json:"user_id"`
	TotalAmt       string    `json:"total_amt"` // 十进制字符串，避免浮点
	Currency       string    `json:"currency"`
	LineCount      int       `json:"line_count"`
	PaymentPending bool      `json:"payment_pending"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Validate 做最小字段校验，防止消费者处理脏消息。
func (m OrderPlacedMessage) Validate() error {
	if m.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if m.Type != EventOrderPlaced {
		return fmt.Errorf("unexpected event type %q", m.Type)
	}
	if m.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if m.OrderNo == "" {
		return fmt.Errorf("order_no is required")
	}
	if m.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	total, err := decimal.NewFromString(m.TotalAmt)
	if err != nil {
		return fmt.Errorf("invalid total_amt %q", m.TotalAmt)
	}
	if total.IsNegative() {
		return fmt.Errorf("total_amt must be >= 0")
	}
	if m.LineCount <= 0 {
		return fmt.Errorf("line_count must be > 0")
	}
	return nil
}
