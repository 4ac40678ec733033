package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var sandboxNamespace = uuid.MustParse("6f1c2a9e-3d55-4c1b-9a0e-5f7a2b8c4d10")

// SandboxGateway 本地/测试环境用，不访问外部网络。同一 receipt 总是返回同一个引用。
type SandboxGateway struct {
	mu        sync.Mutex
	cancelled map[string]bool
	logger    *zap.Logger
}

func NewSandboxGateway(logger *zap.Logger) *SandboxGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SandboxGateway{cancelled: make(map[string]bool), logger: logger.Named("sandbox_gateway")}
}

func (g *SandboxGateway) Name() string { return "sandbox" }

func (g *SandboxGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amountMinor < 0 {
		return "", fmt.Errorf("sandbox: negative amount %d", amountMinor)
	}
	if receipt == "" {
		return "", fmt.Errorf("sandbox: receipt is required")
	}
	ref := "pi_sandbox_" + uuid.NewSHA1(sandboxNamespace, []byte(receipt)).String()
	g.logger.Debug("created payment intent",
		zap.String("receipt", receipt),
		zap.Int64("amount", amountMinor),
		zap.String("currency", currency),
		zap.String("intent_id", ref))
	return ref, nil
}

func (g *SandboxGateway) CancelPaymentIntent(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled[ref] = true
	return nil
}

// Cancelled 测试用：引用是否被撤销过。
func (g *SandboxGateway) Cancelled(ref string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled[ref]
}
