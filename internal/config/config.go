package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 聚合运行时配置，尽量通过环境变量注入，避免硬编码。
type AppConfig struct {
	Env      string
	HTTPAddr string

	// DBDriver 取值 sqlite / postgres；DBDSN 对 sqlite 是文件路径。
	DBDriver string
	DBDSN    string

	RedisAddr string
	RedisDB   int

	// Kafka 集群地址（逗号分隔）、Topic、消费者组
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox（下单成功后入流，Relay 异步转 Kafka）
	OrderEventStream   string
	OrderEventGroup    string
	OrderEventConsumer string

	// 下单接口限流
	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration

	// 同一购物车结算的互斥锁：锁 TTL 与最长等待时间
	CheckoutLockTTL  time.Duration
	CheckoutLockWait time.Duration

	// Idempotency-Key 重放记录保留时长
	IdempotencyTTL time.Duration

	// 下单策略
	CommitMode           string
	Currency             string
	DeliveryLeadDays     int
	PaymentMethod        string
	PaymentInitialStatus string

	// 支付网关
	GatewayProvider string
	GatewayTimeout  time.Duration
	StripeSecretKey string

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"app_env":                  "development",
	"http_addr":                ":8080",
	"db_driver":                "sqlite",
	"db_dsn":                   "greenora.db",
	"redis_addr":               "localhost:6379",
	"redis_db":                 0,
	"kafka_brokers":            "localhost:9092",
	"kafka_topic":              "greenora-order-placed",
	"kafka_group_id":           "greenora-order-notifier",
	"order_event_stream":       "greenora:order_events",
	"order_event_group":        "greenora-relay-group",
	"order_event_consumer":     "greenora-relay-1",
	"checkout_rate_limit":      20,
	"checkout_rate_window_sec": 1,
	"checkout_lock_ttl_sec":    30,
	"checkout_lock_wait_ms":    5000,
	"idempotency_ttl_hour":     24,
	"commit_mode":              "lenient",
	"currency":                 "INR",
	"delivery_lead_days":       7,
	"payment_method":           "CREDIT_CARD",
	"payment_initial_status":   "COMPLETED",
	"gateway_provider":         "sandbox",
	"gateway_timeout_ms":       3000,
	"stripe_secret_key":        "",
	"log_level":                "info",
	"log_format":               "json",
}

// Load 读取并校验配置：环境变量优先，其次 CONFIG_FILE 指向的文件，最后是默认值。
func Load() (AppConfig, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := AppConfig{
		Env:                  v.GetString("app_env"),
		HTTPAddr:             v.GetString("http_addr"),
		DBDriver:             strings.ToLower(v.GetString("db_driver")),
		DBDSN:                v.GetString("db_dsn"),
		RedisAddr:            v.GetString("redis_addr"),
		RedisDB:              v.GetInt("redis_db"),
		KafkaBrokers:         splitCSV(v.GetString("kafka_brokers")),
		KafkaTopic:           v.GetString("kafka_topic"),
		KafkaGroupID:         v.GetString("kafka_group_id"),
		OrderEventStream:     v.GetString("order_event_stream"),
		OrderEventGroup:      v.GetString("order_event_group"),
		OrderEventConsumer:   v.GetString("order_event_consumer"),
		CheckoutRateLimit:    v.GetInt("checkout_rate_limit"),
		CheckoutRateWindow:   time.Duration(v.GetInt("checkout_rate_window_sec")) * time.Second,
		CheckoutLockTTL:      time.Duration(v.GetInt("checkout_lock_ttl_sec")) * time.Second,
		CheckoutLockWait:     time.Duration(v.GetInt("checkout_lock_wait_ms")) * time.Millisecond,
		IdempotencyTTL:       time.Duration(v.GetInt("idempotency_ttl_hour")) * time.Hour,
		CommitMode:           strings.ToLower(v.GetString("commit_mode")),
		Currency:             strings.ToUpper(v.GetString("currency")),
		DeliveryLeadDays:     v.GetInt("delivery_lead_days"),
		PaymentMethod:        strings.ToUpper(v.GetString("payment_method")),
		PaymentInitialStatus: strings.ToUpper(v.GetString("payment_initial_status")),
		GatewayProvider:      strings.ToLower(v.GetString("gateway_provider")),
		GatewayTimeout:       time.Duration(v.GetInt("gateway_timeout_ms")) * time.Millisecond,
		StripeSecretKey:      v.GetString("stripe_secret_key"),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}
	if c.CheckoutRateLimit <= 0 {
		return fmt.Errorf("CHECKOUT_RATE_LIMIT must be > 0")
	}
	if c.CheckoutRateWindow <= 0 {
		return fmt.Errorf("CHECKOUT_RATE_WINDOW_SEC must be > 0")
	}
	if c.CheckoutLockTTL <= 0 {
		return fmt.Errorf("CHECKOUT_LOCK_TTL_SEC must be > 0")
	}
	if c.CheckoutLockWait <= 0 {
		return fmt.Errorf("CHECKOUT_LOCK_WAIT_MS must be > 0")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_HOUR must be > 0")
	}
	if c.CommitMode != "lenient" && c.CommitMode != "strict" {
		return fmt.Errorf("COMMIT_MODE must be lenient or strict, got %q", c.CommitMode)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter ISO code, got %q", c.Currency)
	}
	if c.DeliveryLeadDays <= 0 {
		return fmt.Errorf("DELIVERY_LEAD_DAYS must be > 0")
	}
	if c.PaymentMethod == "" {
		return fmt.Errorf("PAYMENT_METHOD must not be empty")
	}
	if c.PaymentInitialStatus != "PENDING" && c.PaymentInitialStatus != "COMPLETED" {
		return fmt.Errorf("PAYMENT_INITIAL_STATUS must be PENDING or COMPLETED, got %q", c.PaymentInitialStatus)
	}
	switch c.GatewayProvider {
	case "sandbox":
	case "stripe":
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when GATEWAY_PROVIDER=stripe")
		}
	default:
		return fmt.Errorf("GATEWAY_PROVIDER must be stripe or sandbox, got %q", c.GatewayProvider)
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT_MS must be > 0")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if c.KafkaGroupID == "" {
		return fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if c.OrderEventStream == "" {
		return fmt.Errorf("ORDER_EVENT_STREAM must not be empty")
	}
	if c.OrderEventGroup == "" {
		return fmt.Errorf("ORDER_EVENT_GROUP must not be empty")
	}
	if c.OrderEventConsumer == "" {
		return fmt.Errorf("ORDER_EVENT_CONSUMER must not be empty")
	}
	return nil
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
