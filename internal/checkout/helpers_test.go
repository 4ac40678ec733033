package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"greenora/internal/lock"
	"greenora/internal/model"
	"greenora/internal/store"
	"greenora/internal/testutil"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	args := m.Called(ctx, amountMinor, currency, receipt)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CancelPaymentIntent(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

type recordingEvents struct {
	mu      sync.Mutex
	orders  []string
	pending []bool
}

func (r *recordingEvents) OrderPlaced(_ context.Context, order *model.Order, paymentPending bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order.OrderNo)
	r.pending = append(r.pending, paymentPending)
	return nil
}

type harness struct {
	db     *gorm.DB
	st     *store.Store
	gw     *mockGateway
	events *recordingEvents
	orch   *Orchestrator
}

func newHarness(t *testing.T, mode CommitMode, tweak ...func(*Deps, *Options)) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	h := &harness{
		db:     db,
		st:     store.New(db),
		gw:     &mockGateway{},
		events: &recordingEvents{},
	}
	opts := DefaultOptions()
	opts.Mode = mode
	opts.GatewayTimeout = 200 * time.Millisecond
	deps := Deps{
		Store:   h.st,
		Gateway: h.gw,
		Locker:  lock.NewLocal(),
		Events:  h.events,
	}
	for _, fn := range tweak {
		fn(&deps, &opts)
	}
	h.orch = NewOrchestrator(deps, opts)
	return h
}

func (h *harness) cartLines(t *testing.T, userID uint) []model.CartLine {
	t.Helper()
	var lines []model.CartLine
	h.db.Joins("JOIN carts ON carts.id = cart_lines.cart_id").
		Where("carts.user_id = ?", userID).
		Find(&lines)
	return lines
}
