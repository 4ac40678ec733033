package checkout

import (
	"fmt"
	"strings"
	"time"

	"greenora/internal/config"
	"greenora/internal/model"
)

// CommitMode 决定下单后半段失败时是否回滚已持久化的订单。
type CommitMode string

const (
	// CommitLenient 订单与库存先落库，网关失败只记日志，返回 payment_pending。
	CommitLenient CommitMode = "lenient"
	// CommitStrict 先调网关，成功后订单、库存、支付、清购物车在同一事务提交。
	CommitStrict CommitMode = "strict"
)

func ParseCommitMode(s string) (CommitMode, error) {
	switch m := CommitMode(strings.ToLower(strings.TrimSpace(s))); m {
	case CommitLenient, CommitStrict:
		return m, nil
	default:
		return "", fmt.Errorf("unknown commit mode %q", s)
	}
}

// Options 下单流程的部署级参数，构造时注入。
type Options struct {
	Mode           CommitMode
	Currency       string
	DeliveryLead   time.Duration
	PaymentMethod  model.PaymentMethod
	PaymentStatus  model.PaymentStatus
	GatewayTimeout time.Duration
	LockWait       time.Duration
}

func DefaultOptions() Options {
	return Options{
		Mode:           CommitLenient,
		Currency:       "INR",
		DeliveryLead:   7 * 24 * time.Hour,
		PaymentMethod:  model.PaymentMethodCreditCard,
		PaymentStatus:  model.PaymentCompleted,
		GatewayTimeout: 3 * time.Second,
		LockWait:       5 * time.Second,
	}
}

// OptionsFromConfig 将配置映射为下单参数。
func OptionsFromConfig(cfg config.AppConfig) (Options, error) {
	mode, err := ParseCommitMode(cfg.CommitMode)
	if err != nil {
		return Options{}, err
	}
	method := model.PaymentMethod(cfg.PaymentMethod)
	if !method.Valid() {
		return Options{}, fmt.Errorf("unknown payment method %q", cfg.PaymentMethod)
	}
	return Options{
		Mode:           mode,
		Currency:       cfg.Currency,
		DeliveryLead:   time.Duration(cfg.DeliveryLeadDays) * 24 * time.Hour,
		PaymentMethod:  method,
		PaymentStatus:  model.PaymentStatus(cfg.PaymentInitialStatus),
		GatewayTimeout: cfg.GatewayTimeout,
		LockWait:       cfg.CheckoutLockWait,
	}, nil
}
