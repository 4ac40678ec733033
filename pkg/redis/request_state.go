package redis

import (
	"context"
	"strconv"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// CheckoutSuccess 结算已完成，重放时直接返回记录的订单。只有成功的结算会被记录。
const CheckoutSuccess = "success"

// CheckoutState 对应 Redis 内一次结算的结果。
type CheckoutState struct {
	Status         string
	OrderID        uint
	OrderNo        string
	TotalAmt       string
	Currency       string
	GatewayRef     string
	PaymentPending bool
	DeliveryStatus string
}

// GetCheckoutState 查询幂等键对应的结算结果。found=false 表示 key 不存在。
func GetCheckoutState(ctx context.Context, rdb rd.Cmdable, userID uint, idemKey string) (CheckoutState, bool, error) {
	m, err := rdb.HGetAll(ctx, CheckoutStateKey(userID, idemKey)).Result()
	if err != nil {
		return CheckoutState{}, false, err
	}
	if len(m) == 0 {
		return CheckoutState{}, false, nil
	}

	orderID, _ := strconv.ParseUint(m["order_id"], 10, 64)
	pending, _ := strconv.ParseBool(m["payment_pending"])
	return CheckoutState{
		Status:         m["status"],
		OrderID:        uint(orderID),
		OrderNo:        m["order_no"],
		TotalAmt:       m["total_amt"],
		Currency:       m["currency"],
		GatewayRef:     m["gateway_ref"],
		PaymentPending: pending,
		DeliveryStatus: m["delivery_status"],
	}, true, nil
}

// PutCheckoutState 写入结算结果，并刷新 key TTL。
func PutCheckoutState(ctx context.Context, rdb rd.Cmdable, userID uint, idemKey string, st CheckoutState, ttl time.Duration) error {
	key := CheckoutStateKey(userID, idemKey)
	pipe := rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"status", st.Status,
		"order_id", strconv.FormatUint(uint64(st.OrderID), 10),
		"order_no", st.OrderNo,
		"total_amt", st.TotalAmt,
		"currency", st.Currency,
		"gateway_ref", st.GatewayRef,
		"payment_pending", strconv.FormatBool(st.PaymentPending),
		"delivery_status", st.DeliveryStatus,
	)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
