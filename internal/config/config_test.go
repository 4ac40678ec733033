package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "lenient", cfg.CommitMode)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, 7, cfg.DeliveryLeadDays)
	assert.Equal(t, "CREDIT_CARD", cfg.PaymentMethod)
	assert.Equal(t, "COMPLETED", cfg.PaymentInitialStatus)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("COMMIT_MODE", "STRICT")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("PAYMENT_METHOD", "upi")
	t.Setenv("PAYMENT_INITIAL_STATUS", "pending")
	t.Setenv("GATEWAY_TIMEOUT_MS", "250")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "strict", cfg.CommitMode)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "UPI", cfg.PaymentMethod)
	assert.Equal(t, "PENDING", cfg.PaymentInitialStatus)
	assert.Equal(t, 250*time.Millisecond, cfg.GatewayTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"commit mode":         {"COMMIT_MODE": "yolo"},
		"currency":            {"CURRENCY": "RUPEE"},
		"lead days":           {"DELIVERY_LEAD_DAYS": "0"},
		"payment status":      {"PAYMENT_INITIAL_STATUS": "FAILED"},
		"gateway provider":    {"GATEWAY_PROVIDER": "paypal"},
		"stripe needs key":    {"GATEWAY_PROVIDER": "stripe"},
		"db driver":           {"DB_DRIVER": "mysql"},
		"rate limit":          {"CHECKOUT_RATE_LIMIT": "0"},
		"empty kafka brokers": {"KAFKA_BROKERS": " , "},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
