package checkout

import (
	"context"
	"strings"

	"greenora/internal/apperr"
	"greenora/internal/logging"
	"greenora/internal/model"
	"greenora/internal/store"

	"go.uber.org/zap"
)

// Orders 订单查询与配送状态流转。
type Orders struct {
	store *store.Store
	log   *zap.Logger
}

func NewOrders(st *store.Store, log *zap.Logger) *Orders {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orders{store: st, log: log.Named("orders")}
}

// ListByUser 最新的在前；没有订单返回空切片。
func (s *Orders) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	return s.store.Orders.ListByUser(ctx, userID)
}

func (s *Orders) ListAll(ctx context.Context) ([]model.Order, error) {
	return s.store.Orders.ListAll(ctx)
}

func (s *Orders) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	return s.store.Orders.FindByID(ctx, id)
}

func (s *Orders) PaymentByOrder(ctx context.Context, orderID uint) (*model.Payment, error) {
	if _, err := s.store.Orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.Payments.FindByOrderID(ctx, orderID)
}

// UpdateStatus 按迁移表更新配送状态。未知状态返回 ErrInvalidStatus，非法迁移返回 ErrInvalidTransition；
// 取消订单时归还库存。
func (s *Orders) UpdateStatus(ctx context.Context, orderID uint, status string) (*model.Order, error) {
	next := model.DeliveryStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, apperr.ErrInvalidStatus.WithMessage("unknown delivery status " + status)
	}

	ctx = context.WithoutCancel(ctx)
	order, err := s.store.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.DeliveryStatus == next {
		return order, nil
	}
	if !order.DeliveryStatus.CanTransitionTo(next) {
		return nil, apperr.ErrInvalidTransition.WithMessage(
			"cannot move order from " + string(order.DeliveryStatus) + " to " + string(next))
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.Orders.UpdateStatus(ctx, order.ID, order.DeliveryStatus, next); err != nil {
			return err
		}
		if next != model.DeliveryCancelled {
			return nil
		}
		for _, l := range order.Lines {
			if err := tx.Inventory.Release(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("order status updated",
		zap.Uint("order_id", order.ID),
		zap.String("from", string(order.DeliveryStatus)),
		zap.String("to", string(next)),
	)
	order.DeliveryStatus = next
	return order, nil
}
