package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"greenora/internal/checkout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
)

var (
	_ checkout.Gateway = (*StripeGateway)(nil)
	_ checkout.Gateway = (*SandboxGateway)(nil)
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	calls   []string
	params  []stripe.ParamsContainer
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	m.calls = append(m.calls, method+" "+path)
	m.params = append(m.params, params)
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func TestStripeGatewayCreatePaymentIntent(t *testing.T) {
	backend := &mockBackend{handler: func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return []byte(`{"id":"pi_test_1","object":"payment_intent","amount":13000,"currency":"inr"}`), nil
	}}
	gw, err := NewStripeGateway("sk_test_123", backend, nil)
	require.NoError(t, err)

	ctx := context.Background()
	ref, err := gw.CreatePaymentIntent(ctx, 13000, "INR", "order_GO1")
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", ref)

	require.Equal(t, []string{"POST /v1/payment_intents"}, backend.calls)
	p, ok := backend.params[0].(*stripe.PaymentIntentParams)
	require.True(t, ok)
	assert.Equal(t, int64(13000), *p.Amount)
	assert.Equal(t, "inr", *p.Currency)
	assert.Equal(t, "order_GO1", p.Metadata["receipt"])
	assert.Equal(t, "order_GO1", *p.IdempotencyKey)
	assert.Equal(t, ctx, p.Context)
}

func TestStripeGatewayErrors(t *testing.T) {
	backend := &mockBackend{handler: func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{Code: stripe.ErrorCodeAmountTooSmall, Msg: "amount too small"}
	}}
	gw, err := NewStripeGateway("sk_test_123", backend, nil)
	require.NoError(t, err)

	_, err = gw.CreatePaymentIntent(context.Background(), 1, "INR", "order_GO2")
	require.Error(t, err)
	var se *stripe.Error
	assert.True(t, errors.As(err, &se))

	_, err = NewStripeGateway("", backend, nil)
	assert.Error(t, err)
}

func TestStripeGatewayCancel(t *testing.T) {
	backend := &mockBackend{handler: func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return []byte(`{"id":"pi_test_1","object":"payment_intent","status":"canceled"}`), nil
	}}
	gw, err := NewStripeGateway("sk_test_123", backend, nil)
	require.NoError(t, err)

	require.NoError(t, gw.CancelPaymentIntent(context.Background(), "pi_test_1"))
	assert.Equal(t, []string{"POST /v1/payment_intents/pi_test_1/cancel"}, backend.calls)
}

func TestSandboxGateway(t *testing.T) {
	gw := NewSandboxGateway(nil)
	ctx := context.Background()

	a, err := gw.CreatePaymentIntent(ctx, 100, "INR", "order_A")
	require.NoError(t, err)
	again, err := gw.CreatePaymentIntent(ctx, 100, "INR", "order_A")
	require.NoError(t, err)
	b, err := gw.CreatePaymentIntent(ctx, 100, "INR", "order_B")
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)

	_, err = gw.CreatePaymentIntent(ctx, -1, "INR", "order_C")
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = gw.CreatePaymentIntent(cancelled, 100, "INR", "order_D")
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, gw.CancelPaymentIntent(ctx, a))
	assert.True(t, gw.Cancelled(a))
	assert.False(t, gw.Cancelled(b))
}
