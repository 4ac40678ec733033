package checkout

import (
	"context"
	"time"

	"greenora/internal/model"
	rediskey "greenora/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisReplay 把结算结果存成 Redis hash，TTL 到期后同一个幂等键可以重新下单。
type RedisReplay struct {
	rdb *rd.Client
	ttl time.Duration
}

func NewRedisReplay(rdb *rd.Client, ttl time.Duration) *RedisReplay {
	return &RedisReplay{rdb: rdb, ttl: ttl}
}

func (r *RedisReplay) Load(ctx context.Context, userID uint, key string) (*Summary, bool, error) {
	st, found, err := rediskey.GetCheckoutState(ctx, r.rdb, userID, key)
	if err != nil || !found {
		return nil, false, err
	}
	if st.Status != rediskey.CheckoutSuccess {
		return nil, false, nil
	}
	total, err := decimal.NewFromString(st.TotalAmt)
	if err != nil {
		return nil, false, err
	}
	return &Summary{
		OrderID:        st.OrderID,
		OrderNo:        st.OrderNo,
		TotalAmt:       total,
		Currency:       st.Currency,
		GatewayRef:     st.GatewayRef,
		PaymentPending: st.PaymentPending,
		DeliveryStatus: model.DeliveryStatus(st.DeliveryStatus),
	}, true, nil
}

func (r *RedisReplay) Save(ctx context.Context, userID uint, key string, s *Summary) error {
	return rediskey.PutCheckoutState(ctx, r.rdb, userID, key, rediskey.CheckoutState{
		Status:         rediskey.CheckoutSuccess,
		OrderID:        s.OrderID,
		OrderNo:        s.OrderNo,
		TotalAmt:       s.TotalAmt.String(),
		Currency:       s.Currency,
		GatewayRef:     s.GatewayRef,
		PaymentPending: s.PaymentPending,
		DeliveryStatus: string(s.DeliveryStatus),
	}, r.ttl)
}
