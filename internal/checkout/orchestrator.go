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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher 下单成功后投递 order.placed 事件。
type EventPublisher interface {
	OrderPlaced(ctx context.Context, order *model.Order, paymentPending bool) error
}

// ReplayStore 按 (user, Idempotency-Key) 保存已完成结算的结果。
type ReplayStore interface {
	Load(ctx context.Context, userID uint, key string) (*Summary, bool, error)
	Save(ctx context.Context, userID uint, key string, s *Summary) error
}

type PlaceOrderRequest struct {
	UserID         uint
	AddressID      uint
	CouponID       *uint
	IdempotencyKey string
}

// Summary placeOrder 的返回。PaymentPending=true 表示订单已建但没有支付记录，前端应提示重新支付。
type Summary struct {
	OrderID        uint                 `json:"order_id"`
	OrderNo        string               `json:"order_no"`
	TotalAmt       decimal.Decimal      `json:"total_amt"`
	Currency       string               `json:"currency"`
	GatewayRef     string               `json:"gateway_ref,omitempty"`
	PaymentPending bool                 `json:"payment_pending"`
	DeliveryStatus model.DeliveryStatus `json:"delivery_status"`
	Replayed       bool                 `json:"replayed,omitempty"`
}

type Deps struct {
	Store   *store.Store
	Gateway Gateway
	Locker  lock.Locker
	Events  EventPublisher
	Replay  ReplayStore
	Metrics *metrics.Checkout
	Logger  *zap.Logger
}

// Orchestrator 串起快照、定价、建单、扣库存、支付、清购物车。
type Orchestrator struct {
	store   *store.Store
	gateway Gateway
	locker  lock.Locker
	events  EventPublisher
	replay  ReplayStore
	metrics *metrics.Checkout
	log     *zap.Logger
	opts    Options

	coupons  *CouponValidator
	factory  *OrderFactory
	recorder *PaymentRecorder
	now      func() time.Time
}

func NewOrchestrator(d Deps, opts Options) *Orchestrator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Locker == nil {
		d.Locker = lock.NewLocal()
	}
	return &Orchestrator{
		store:    d.Store,
		gateway:  d.Gateway,
		locker:   d.Locker,
		events:   d.Events,
		replay:   d.Replay,
		metrics:  d.Metrics,
		log:      d.Logger.Named("checkout"),
		opts:     opts,
		coupons:  NewCouponValidator(d.Store.Coupons),
		factory:  NewOrderFactory(opts.Currency, opts.DeliveryLead),
		recorder: NewPaymentRecorder(opts.PaymentMethod, opts.PaymentStatus),
		now:      time.Now,
	}
}

// PlaceOrder 把用户购物车转成订单。同一用户的结算串行执行，
// 后到的请求会看到已清空的购物车并得到 ErrEmptyCart。
func (o *Orchestrator) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Summary, error) {
	start := o.now()
	log := logging.FromContext(ctx, o.log).With(
		zap.Uint("user_id", req.UserID),
		zap.String("mode", string(o.opts.Mode)),
	)

	sum, err := o.placeOrder(ctx, log, req)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = apperr.KindOf(err).String()
		log.Info("checkout rejected", zap.String("code", apperr.CodeOf(err)), zap.Error(err))
	case sum.Replayed:
		outcome = "replayed"
	case sum.PaymentPending:
		outcome = "payment_pending"
	}
	o.metrics.ObserveCheckout(string(o.opts.Mode), outcome, o.now().Sub(start))
	return sum, err
}

func (o *Orchestrator) placeOrder(ctx context.Context, log *zap.Logger, req PlaceOrderRequest) (*Summary, error) {
	if sum, ok := o.lookupReplay(ctx, log, req); ok {
		return sum, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, o.opts.LockWait)
	unlock, err := o.locker.Lock(lockCtx, req.UserID)
	cancel()
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 拿到锁后再查一次，防止同一幂等键的并发请求都进入结算
	if sum, ok := o.lookupReplay(ctx, log, req); ok {
		return sum, nil
	}

	// 数据库步骤不随请求取消而中断，只有网关调用受 ctx 控制
	dbCtx := context.WithoutCancel(ctx)
	t := newTracker(log)

	t.enter(StageValidating)
	snap, err := TakeSnapshot(dbCtx, o.store, req.UserID)
	if err != nil {
		return nil, t.fail(err)
	}

	t.enter(StagePricing)
	subtotal := snap.Subtotal()
	discount, err := o.coupons.Apply(dbCtx, req.CouponID, subtotal)
	if err != nil {
		return nil, t.fail(err)
	}
	order := o.factory.Build(snap, req.AddressID, req.CouponID, discount, o.now())
	log = log.With(zap.String("order_no", order.OrderNo))
	t.log = log

	var sum *Summary
	switch o.opts.Mode {
	case CommitStrict:
		sum, err = o.commitStrict(ctx, dbCtx, log, t, snap, order)
	default:
		sum, err = o.commitLenient(ctx, dbCtx, log, t, snap, order)
	}
	if err != nil {
		return nil, err
	}
	t.enter(StageDone)

	if o.events != nil {
		if err := o.events.OrderPlaced(dbCtx, order, sum.PaymentPending); err != nil {
			log.Warn("publish order placed event failed", zap.Error(err))
		}
	}
	o.saveReplay(dbCtx, log, req, sum)

	log.Info("order placed",
		zap.Uint("order_id", sum.OrderID),
		zap.String("total_amt", sum.TotalAmt.StringFixed(2)),
		zap.Bool("payment_pending", sum.PaymentPending),
	)
	return sum, nil
}

// commitLenient 订单、明细、库存扣减在一个事务里提交；之后网关、支付记录、清购物车都是尽力而为。
func (o *Orchestrator) commitLenient(ctx, dbCtx context.Context, log *zap.Logger, t *tracker, snap CartSnapshot, order *model.Order) (*Summary, error) {
	err := o.store.Transaction(dbCtx, func(tx *store.Store) error {
		t.enter(StagePersistingOrder)
		if err := tx.Orders.Create(dbCtx, order); err != nil {
			return err
		}
		t.enter(StageReservingInventory)
		if err := o.reserveAll(dbCtx, tx, order); err != nil {
			return err
		}
		return tx.Carts.ClaimVersion(dbCtx, snap.CartID, snap.Version)
	})
	if err != nil {
		return nil, t.fail(err)
	}

	sum := summaryOf(order)

	t.enter(StageContactingGateway)
	ref, err := o.contactGateway(ctx, order)
	if err != nil {
		log.Warn("payment gateway failed, order kept without payment", zap.Error(err))
		sum.PaymentPending = true
	}

	if ref != "" {
		t.enter(StageRecordingPayment)
		if _, err := o.recorder.Record(dbCtx, o.store.Payments, order, ref, o.now()); err != nil {
			log.Error("record payment failed", zap.String("gateway_ref", ref), zap.Error(err))
			sum.PaymentPending = true
		} else {
			sum.GatewayRef = ref
		}
	}

	t.enter(StageClearingCart)
	if err := o.store.Carts.ConsumeLines(dbCtx, snap.Lines); err != nil {
		log.Error("clear cart failed", zap.Uint("cart_id", snap.CartID), zap.Error(err))
	}
	return sum, nil
}

// commitStrict 先拿到网关引用，再把订单、库存、支付、清购物车放进同一事务；
// 事务失败时尽力撤销远端 intent。
func (o *Orchestrator) commitStrict(ctx, dbCtx context.Context, log *zap.Logger, t *tracker, snap CartSnapshot, order *model.Order) (*Summary, error) {
	t.enter(StageContactingGateway)
	ref, err := o.contactGateway(ctx, order)
	if err != nil {
		return nil, t.fail(err)
	}

	err = o.store.Transaction(dbCtx, func(tx *store.Store) error {
		t.enter(StagePersistingOrder)
		if err := tx.Orders.Create(dbCtx, order); err != nil {
			return err
		}
		t.enter(StageReservingInventory)
		if err := o.reserveAll(dbCtx, tx, order); err != nil {
			return err
		}
		t.enter(StageRecordingPayment)
		if _, err := o.recorder.Record(dbCtx, tx.Payments, order, ref, o.now()); err != nil {
			return err
		}
		t.enter(StageClearingCart)
		if err := tx.Carts.ConsumeLines(dbCtx, snap.Lines); err != nil {
			return err
		}
		return tx.Carts.ClaimVersion(dbCtx, snap.CartID, snap.Version)
	})
	if err != nil {
		o.cancelIntent(dbCtx, log, ref)
		return nil, t.fail(err)
	}

	sum := summaryOf(order)
	sum.GatewayRef = ref
	return sum, nil
}

func (o *Orchestrator) reserveAll(ctx context.Context, tx *store.Store, order *model.Order) error {
	for _, l := range order.Lines {
		if err := tx.Inventory.Reserve(ctx, l.ProductID, l.Quantity); err != nil {
			if errors.Is(err, apperr.ErrInsufficientStock) {
				o.metrics.InventoryRejected()
			}
			return err
		}
	}
	return nil
}

func (o *Orchestrator) contactGateway(ctx context.Context, order *model.Order) (string, error) {
	return requestIntent(ctx, o.gateway, o.metrics, o.opts.GatewayTimeout, order)
}

func (o *Orchestrator) cancelIntent(ctx context.Context, log *zap.Logger, ref string) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.GatewayTimeout)
	defer cancel()
	if err := o.gateway.CancelPaymentIntent(ctx, ref); err != nil {
		log.Error("cancel payment intent failed", zap.String("gateway_ref", ref), zap.Error(err))
	}
}

func (o *Orchestrator) lookupReplay(ctx context.Context, log *zap.Logger, req PlaceOrderRequest) (*Summary, bool) {
	if o.replay == nil || req.IdempotencyKey == "" {
		return nil, false
	}
	sum, found, err := o.replay.Load(ctx, req.UserID, req.IdempotencyKey)
	if err != nil {
		log.Warn("load checkout replay failed", zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	sum.Replayed = true
	return sum, true
}

func (o *Orchestrator) saveReplay(ctx context.Context, log *zap.Logger, req PlaceOrderRequest, sum *Summary) {
	if o.replay == nil || req.IdempotencyKey == "" {
		return
	}
	if err := o.replay.Save(ctx, req.UserID, req.IdempotencyKey, sum); err != nil {
		log.Warn("save checkout replay failed", zap.Error(err))
	}
}

func summaryOf(order *model.Order) *Summary {
	return &Summary{
		OrderID:        order.ID,
		OrderNo:        order.OrderNo,
		TotalAmt:       order.TotalAmt,
		Currency:       order.Currency,
		DeliveryStatus: order.DeliveryStatus,
	}
}
