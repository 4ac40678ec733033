package checkout

import (
	"context"
	"errors"
	"time"

	"greenora/internal/apperr"
	"greenora/internal/lock"
	"greenora/internal/logging"
	"greenora/internal/metrics"
	"greenora/internal/model"
	"greenora/internal/store"

	"go.uber.org/zap"
)

// PayOrderRequest Method 为空时使用配置的默认支付方式。
type PayOrderRequest struct {
	OrderID uint
	Method  model.PaymentMethod
}

// Payments 支付补录：宽松模式下网关失败、payment_pending=true 的订单由前端发起重试。
type Payments struct {
	store   *store.Store
	gateway Gateway
	locker  lock.Locker
	metrics *metrics.Checkout
	log     *zap.Logger
	opts    Options
	now     func() time.Time
}

func NewPayments(d Deps, opts Options) *Payments {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Locker == nil {
		d.Locker = lock.NewLocal()
	}
	return &Payments{
		store:   d.Store,
		gateway: d.Gateway,
		locker:  d.Locker,
		metrics: d.Metrics,
		log:     d.Logger.Named("payment"),
		opts:    opts,
		now:     time.Now,
	}
}

// PayOrder 为还没有支付记录的订单重新申请 intent 并写入唯一的支付记录。
// 已有支付记录返回 ErrPaymentExists；已取消的订单不能再支付。
func (s *Payments) PayOrder(ctx context.Context, req PayOrderRequest) (*model.Payment, error) {
	method := req.Method
	if method == "" {
		method = s.opts.PaymentMethod
	}
	if !method.Valid() {
		return nil, apperr.ErrInvalidInput.WithMessage("unknown payment method " + string(method))
	}

	dbCtx := context.WithoutCancel(ctx)
	order, err := s.store.Orders.FindByID(dbCtx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.DeliveryStatus == model.DeliveryCancelled {
		return nil, apperr.ErrInvalidTransition.WithMessage("cannot pay for a cancelled order")
	}
	log := logging.FromContext(ctx, s.log).With(
		zap.Uint("order_id", order.ID),
		zap.String("order_no", order.OrderNo),
	)

	// 与该用户的结算共用一把锁，同一订单的并发支付只有一个能进入
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockWait)
	unlock, err := s.locker.Lock(lockCtx, order.UserID)
	cancel()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.ensureUnpaid(dbCtx, order.ID); err != nil {
		return nil, err
	}

	ref, err := requestIntent(ctx, s.gateway, s.metrics, s.opts.GatewayTimeout, order)
	if err != nil {
		log.Warn("payment retry failed at gateway", zap.Error(err))
		return nil, err
	}

	p, err := NewPaymentRecorder(method, s.opts.PaymentStatus).Record(dbCtx, s.store.Payments, order, ref, s.now())
	if err != nil {
		// 唯一索引冲突：别的实例已经写入
		if exists := s.ensureUnpaid(dbCtx, order.ID); exists != nil {
			return nil, exists
		}
		return nil, err
	}
	log.Info("payment recorded", zap.String("gateway_ref", ref), zap.String("method", string(method)))
	return p, nil
}

func (s *Payments) ensureUnpaid(ctx context.Context, orderID uint) error {
	_, err := s.store.Payments.FindByOrderID(ctx, orderID)
	switch {
	case err == nil:
		return apperr.ErrPaymentExists
	case errors.Is(err, apperr.ErrPaymentNotFound):
		return nil
	default:
		return err
	}
}

func (s *Payments) List(ctx context.Context) ([]model.Payment, error) {
	return s.store.Payments.List(ctx)
}
