package checkout

import (
	"fmt"

	"go.uber.org/zap"
)

// Stage 一次 placeOrder 调用所处的阶段。
type Stage string

const (
	StageValidating         Stage = "VALIDATING"
	StagePricing            Stage = "PRICING"
	StagePersistingOrder    Stage = "PERSISTING_ORDER"
	StageReservingInventory Stage = "RESERVING_INVENTORY"
	StageContactingGateway  Stage = "CONTACTING_GATEWAY"
	StageRecordingPayment   Stage = "RECORDING_PAYMENT"
	StageClearingCart       Stage = "CLEARING_CART"
	StageDone               Stage = "DONE"
	StageFailed             Stage = "FAILED"
)

// StageError 记录失败发生在哪个阶段，原始错误可通过 errors.Is / errors.As 取到。
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("checkout failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// tracker 记录阶段迁移，供日志与失败归因使用。
type tracker struct {
	log     *zap.Logger
	current Stage
	visited []Stage
}

func newTracker(log *zap.Logger) *tracker {
	return &tracker{log: log}
}

func (t *tracker) enter(s Stage) {
	t.log.Debug("checkout stage", zap.String("from", string(t.current)), zap.String("to", string(s)))
	t.current = s
	t.visited = append(t.visited, s)
}

// fail 进入 FAILED，返回带阶段信息的错误。
func (t *tracker) fail(err error) error {
	failedAt := t.current
	path := make([]string, 0, len(t.visited))
	for _, s := range t.visited {
		path = append(path, string(s))
	}
	t.log.Debug("checkout stage",
		zap.String("from", string(failedAt)),
		zap.String("to", string(StageFailed)),
		zap.Strings("path", path),
		zap.Error(err),
	)
	t.current = StageFailed
	return &StageError{Stage: failedAt, Err: err}
}
