package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"greenora/internal/model"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// StreamSink 下单成功后把事件追加到 Redis Stream（outbox），由 Relay 异步转 Kafka。
// 下单路径只依赖 Redis，Kafka 抖动不影响结算。
type StreamSink struct {
	rdb    rd.Cmdable
	stream string
	maxLen int64
	now    func() time.Time
}

func NewStreamSink(rdb rd.Cmdable, stream string) *StreamSink {
	return &StreamSink{rdb: rdb, stream: stream, maxLen: 100000, now: time.Now}
}

func (s *StreamSink) OrderPlaced(ctx context.Context, order *model.Order, paymentPending bool) error {
	msg := OrderPlacedMessage{
		EventID:        uuid.NewString(),
		Type:           EventOrderPlaced,
		OrderID:        order.ID,
		OrderNo:        order.OrderNo,
		UserID:         order.UserID,
		TotalAmt:       order.TotalAmt.StringFixed(2),
		Currency:       order.Currency,
		LineCount:      len(order.Lines),
		PaymentPending: paymentPending,
		OccurredAt:     s.now().UTC(),
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("build order event: %w", err)
	}
	return s.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id":        msg.EventID,
			"type":            msg.Type,
			"order_id":        strconv.FormatUint(uint64(msg.OrderID), 10),
			"order_no":        msg.OrderNo,
			"user_id":         strconv.FormatUint(uint64(msg.UserID), 10),
			"total_amt":       msg.TotalAmt,
			"currency":        msg.Currency,
			"line_count":      strconv.Itoa(msg.LineCount),
			"payment_pending": strconv.FormatBool(msg.PaymentPending),
			"occurred_at":     msg.OccurredAt.Format(time.RFC3339Nano),
		},
	}).Err()
}
