package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"greenora/internal/model"

	"github.com/alicebob/miniredis/v2"
	rd "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	msgs []OrderPlacedMessage
}

func (f *fakePublisher) Publish(_ context.Context, msg OrderPlacedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type recordingNotifier struct {
	err  error
	msgs []OrderPlacedMessage
}

func (n *recordingNotifier) NotifyOrderPlaced(_ context.Context, msg OrderPlacedMessage) error {
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, msg)
	return nil
}

func sampleOrder() *model.Order {
	return &model.Order{
		ID:       11,
		OrderNo:  "GO20260301ABCDEF123456",
		UserID:   3,
		TotalAmt: decimal.RequireFromString("130"),
		Currency: "INR",
		Lines:    []model.OrderLine{{ProductID: 1, Quantity: 2}},
	}
}

func newRelay(t *testing.T, pub Publisher) (*Relay, *StreamSink, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := rd.NewClient(&rd.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	relay := NewRelay(rdb, pub, "orders", "relay", "relay-1", zap.NewNop())
	require.NoError(t, relay.ensureGroup(context.Background()))
	require.NoError(t, relay.ensureGroup(context.Background()))
	return relay, NewStreamSink(rdb, "orders"), mr
}

func TestStreamSinkToRelay(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	relay, sink, _ := newRelay(t, pub)

	require.NoError(t, sink.OrderPlaced(ctx, sampleOrder(), true))

	n, err := relay.step(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, pub.msgs, 1)
	got := pub.msgs[0]
	assert.Equal(t, EventOrderPlaced, got.Type)
	assert.EqualValues(t, 11, got.OrderID)
	assert.Equal(t, "GO20260301ABCDEF123456", got.OrderNo)
	assert.EqualValues(t, 3, got.UserID)
	assert.Equal(t, "130.00", got.TotalAmt)
	assert.Equal(t, 1, got.LineCount)
	assert.True(t, got.PaymentPending)
	assert.NotEmpty(t, got.EventID)

	n, err = relay.step(ctx, -1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayKeepsMessageWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("kafka down")}
	relay, sink, _ := newRelay(t, pub)

	require.NoError(t, sink.OrderPlaced(ctx, sampleOrder(), false))

	_, err := relay.step(ctx, -1)
	assert.Error(t, err)
	assert.Empty(t, pub.msgs)

	// 恢复后从 pending 里重试
	pub.err = nil
	n, err := relay.step(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, pub.msgs, 1)
}

func TestRelayDropsMalformedEvents(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	relay, _, mr := newRelay(t, pub)

	_, err := mr.XAdd("orders", "*", []string{"event_id", "x", "type", "order.placed"})
	require.NoError(t, err)

	n, err := relay.step(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, pub.msgs)
}

func TestOrderPlacedMessageValidate(t *testing.T) {
	valid := OrderPlacedMessage{
		EventID: "e1", Type: EventOrderPlaced, OrderID: 1, OrderNo: "GO1",
		UserID: 2, TotalAmt: "10.00", Currency: "INR", LineCount: 1, OccurredAt: time.Now(),
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(*OrderPlacedMessage){
		"event id":   func(m *OrderPlacedMessage) { m.EventID = "" },
		"type":       func(m *OrderPlacedMessage) { m.Type = "order.shipped" },
		"order id":   func(m *OrderPlacedMessage) { m.OrderID = 0 },
		"total":      func(m *OrderPlacedMessage) { m.TotalAmt = "ten" },
		"negative":   func(m *OrderPlacedMessage) { m.TotalAmt = "-1" },
		"line count": func(m *OrderPlacedMessage) { m.LineCount = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := valid
			mutate(&m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestConsumerHandle(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	c := &Consumer{notifier: n, log: zap.NewNop(), seen: make(map[string]struct{})}

	msg := OrderPlacedMessage{
		EventID: "e1", Type: EventOrderPlaced, OrderID: 1, OrderNo: "GO1",
		UserID: 2, TotalAmt: "10.00", Currency: "INR", LineCount: 1,
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.True(t, c.handle(ctx, kafka.Message{Value: b}))
	assert.False(t, c.handle(ctx, kafka.Message{Value: b}), "duplicate event id")
	assert.False(t, c.handle(ctx, kafka.Message{Value: []byte("{")}))
	require.Len(t, n.msgs, 1)
	assert.Equal(t, "GO1", n.msgs[0].OrderNo)

	// 通知失败的事件不记为已处理，重投时还能再试
	failing := &recordingNotifier{err: errors.New("smtp down")}
	c2 := &Consumer{notifier: failing, log: zap.NewNop(), seen: make(map[string]struct{})}
	assert.False(t, c2.handle(ctx, kafka.Message{Value: b}))
	failing.err = nil
	assert.True(t, c2.handle(ctx, kafka.Message{Value: b}))
}
