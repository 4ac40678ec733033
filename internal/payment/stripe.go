// Package payment 实现下单流程用到的支付网关。
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

// StripeGateway 通过 Stripe PaymentIntent 在远端预留金额。
type StripeGateway struct {
	client *paymentintent.Client
	logger *zap.Logger
}

// NewStripeGateway 使用独立的 client，不修改 stripe 包级全局 Key。
// backend 为 nil 时使用默认 API backend。
func NewStripeGateway(secretKey string, backend stripe.Backend, logger *zap.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeGateway{
		client: &paymentintent.Client{B: backend, Key: secretKey},
		logger: logger.Named("stripe"),
	}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

// CreatePaymentIntent 以 receipt 作为幂等键，同一订单重试不会产生第二个 intent。
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(receipt)
	params.AddMetadata("receipt", receipt)

	pi, err := g.client.New(params)
	if err != nil {
		g.logger.Warn("create payment intent failed",
			zap.String("receipt", receipt),
			zap.Int64("amount", amountMinor),
			zap.Error(err))
		return "", fmt.Errorf("stripe: create payment intent: %w", err)
	}
	g.logger.Debug("created payment intent", zap.String("receipt", receipt), zap.String("intent_id", pi.ID))
	return pi.ID, nil
}

func (g *StripeGateway) CancelPaymentIntent(ctx context.Context, ref string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := g.client.Cancel(ref, params); err != nil {
		return fmt.Errorf("stripe: cancel payment intent %s: %w", ref, err)
	}
	return nil
}
