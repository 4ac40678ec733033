package checkout

import (
	"context"
	"time"

	"greenora/internal/model"
	"greenora/internal/store"
)

// PaymentRecorder 为订单写唯一一条支付记录，方式与初始状态来自配置。
type PaymentRecorder struct {
	method model.PaymentMethod
	status model.PaymentStatus
}

func NewPaymentRecorder(method model.PaymentMethod, status model.PaymentStatus) *PaymentRecorder {
	return &PaymentRecorder{method: method, status: status}
}

func (r *PaymentRecorder) Record(ctx context.Context, payments *store.PaymentRepo, order *model.Order, gatewayRef string, now time.Time) (*model.Payment, error) {
	p := &model.Payment{
		OrderID:       order.ID,
		Method:        r.method,
		Status:        r.status,
		TransactionID: gatewayRef,
		Amount:        order.TotalAmt,
		PaidAt:        now,
	}
	if err := payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
