package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "greenora"

// Checkout 下单链路的 RED 指标。
type Checkout struct {
	requests            *prometheus.CounterVec   // checkout_requests_total{mode,outcome}
	duration            *prometheus.HistogramVec // checkout_duration_seconds{mode}
	gateway             *prometheus.CounterVec   // gateway_requests_total{provider,outcome}
	gatewayDuration     *prometheus.HistogramVec // gateway_request_duration_seconds{provider}
	inventoryRejections prometheus.Counter
}

// NewCheckout 创建指标并注册到 reg；reg 为 nil 时只创建不注册（测试用）。
func NewCheckout(reg prometheus.Registerer) *Checkout {
	m := &Checkout{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "checkout", Name: "requests_total",
			Help: "placeOrder calls by commit mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "checkout", Name: "duration_seconds",
			Help:    "placeOrder latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		gateway: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gateway", Name: "requests_total",
			Help: "Payment intent calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "gateway", Name: "request_duration_seconds",
			Help:    "Payment intent call latency.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5},
		}, []string{"provider"}),
		inventoryRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "inventory", Name: "rejections_total",
			Help: "Checkouts rejected because a line could not be reserved.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.gateway, m.gatewayDuration, m.inventoryRejections)
	}
	return m
}

func (m *Checkout) ObserveCheckout(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Checkout) ObserveGateway(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.gateway.WithLabelValues(provider, outcome).Inc()
	m.gatewayDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Checkout) InventoryRejected() {
	if m == nil {
		return
	}
	m.inventoryRejections.Inc()
}
