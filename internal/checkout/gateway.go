package checkout

import (
	"context"
	"errors"
	"time"

	"greenora/internal/apperr"
	"greenora/internal/metrics"
	"greenora/internal/model"

	"github.com/shopspring/decimal"
)

// Gateway 外部支付网关。CreatePaymentIntent 返回网关侧引用 id。
type Gateway interface {
	Name() string
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
	CancelPaymentIntent(ctx context.Context, ref string) error
}

// MinorUnits 金额转最小货币单位，四舍五入到分。
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Receipt 订单在网关侧的 receipt。
func Receipt(orderNo string) string {
	return "order_" + orderNo
}

// callGateway 在超时内调用网关；网关不理会 ctx 时也不会无限等待。
// 超时与网关错误一律归为 ErrGatewayUnavailable。
func callGateway(ctx context.Context, gw Gateway, timeout time.Duration, amountMinor int64, currency, receipt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		ref string
		err error
	}
	done := make(chan result, 1)
	go func() {
		ref, err := gw.CreatePaymentIntent(ctx, amountMinor, currency, receipt)
		done <- result{ref: ref, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", apperr.ErrGatewayUnavailable.Wrap(r.err)
		}
		if r.ref == "" {
			return "", apperr.ErrGatewayUnavailable.WithMessage("payment gateway returned an empty reference")
		}
		return r.ref, nil
	case <-ctx.Done():
		return "", apperr.ErrGatewayUnavailable.Wrap(ctx.Err())
	}
}

// requestIntent 以 order_<order_no> 为 receipt 申请支付 intent，并记录网关指标。
// 同一订单重复申请时网关按 receipt 幂等。
func requestIntent(ctx context.Context, gw Gateway, m *metrics.Checkout, timeout time.Duration, order *model.Order) (string, error) {
	if gw == nil {
		return "", apperr.ErrGatewayUnavailable.WithMessage("no payment gateway configured")
	}
	start := time.Now()
	ref, err := callGateway(ctx, gw, timeout, MinorUnits(order.TotalAmt), order.Currency, Receipt(order.OrderNo))
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
	}
	m.ObserveGateway(gw.Name(), outcome, time.Since(start))
	return ref, err
}
