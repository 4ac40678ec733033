package queue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Notifier 下单成功通知（邮件等）。邮件发送本身由外部服务负责。
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, msg OrderPlacedMessage) error
}

// LogNotifier 默认实现，只记日志。
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log.Named("notifier")}
}

func (n *LogNotifier) NotifyOrderPlaced(_ context.Context, msg OrderPlacedMessage) error {
	n.log.Info("order placed notification",
		zap.String("order_no", msg.OrderNo),
		zap.Uint("user_id", msg.UserID),
		zap.String("total_amt", msg.TotalAmt),
		zap.String("currency", msg.Currency),
		zap.Bool("payment_pending", msg.PaymentPending),
	)
	return nil
}

const maxSeenEvents = 10000

// Consumer 从 Kafka 读 order.placed 事件交给 Notifier。
type Consumer struct {
	r        *kafka.Reader
	notifier Notifier
	log      *zap.Logger

	// 同一进程内按 event_id 去重，Kafka 至少一次投递可能重复
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewConsumer(brokers []string, topic, groupID string, notifier Notifier, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		notifier: notifier,
		log:      log.Named("consumer"),
		seen:     make(map[string]struct{}),
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancel / 连接断开等
		}
		c.handle(ctx, m)
	}
}

// handle 返回是否真正投递给了 Notifier。
func (c *Consumer) handle(ctx context.Context, m kafka.Message) bool {
	var msg OrderPlacedMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		c.log.Warn("consumer unmarshal", zap.Int64("offset", m.Offset), zap.Error(err))
		return false
	}
	if err := msg.Validate(); err != nil {
		c.log.Warn("consumer invalid message", zap.Int64("offset", m.Offset), zap.Error(err))
		return false
	}

	c.mu.Lock()
	_, dup := c.seen[msg.EventID]
	c.mu.Unlock()
	if dup {
		return false
	}

	if err := c.notifier.NotifyOrderPlaced(ctx, msg); err != nil {
		c.log.Error("notify order placed", zap.String("order_no", msg.OrderNo), zap.Error(err))
		return false
	}

	c.mu.Lock()
	if len(c.seen) >= maxSeenEvents {
		c.seen = make(map[string]struct{})
	}
	c.seen[msg.EventID] = struct{}{}
	c.mu.Unlock()
	return true
}
