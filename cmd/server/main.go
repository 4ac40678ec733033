package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greenora/internal/checkout"
	"greenora/internal/config"
	"greenora/internal/lock"
	"greenora/internal/logging"
	"greenora/internal/metrics"
	"greenora/internal/payment"
	"greenora/internal/queue"
	"greenora/internal/router"
	"greenora/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, "greenora", cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// 1. 数据库：连接并自动建表
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	st := store.New(db)

	// 2. Redis：结算锁、幂等重放、限流、订单事件流
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer func() { _ = rdb.Close() }()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("redis ping", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancelPing()

	// 3. 支付网关
	var gateway checkout.Gateway
	switch cfg.GatewayProvider {
	case "stripe":
		gateway, err = payment.NewStripeGateway(cfg.StripeSecretKey, nil, logger)
		if err != nil {
			logger.Fatal("stripe gateway", zap.Error(err))
		}
	default:
		gateway = payment.NewSandboxGateway(logger)
	}

	opts, err := checkout.OptionsFromConfig(cfg)
	if err != nil {
		logger.Fatal("checkout options", zap.Error(err))
	}

	deps := checkout.Deps{
		Store:   st,
		Gateway: gateway,
		Locker:  lock.NewRedis(rdb, cfg.CheckoutLockTTL, logger),
		Events:  queue.NewStreamSink(rdb, cfg.OrderEventStream),
		Replay:  checkout.NewRedisReplay(rdb, cfg.IdempotencyTTL),
		Metrics: metrics.NewCheckout(prometheus.DefaultRegisterer),
		Logger:  logger,
	}
	orch := checkout.NewOrchestrator(deps, opts)

	// 4. 后台任务：Stream -> Kafka 转发，Kafka -> 通知消费
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() { _ = producer.Close() }()
	relay := queue.NewRelay(rdb, producer, cfg.OrderEventStream, cfg.OrderEventGroup, cfg.OrderEventConsumer, logger)
	go relay.Run(ctx)

	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, queue.NewLogNotifier(logger), logger)
	defer func() { _ = consumer.Close() }()
	go consumer.Run(ctx)

	// 5. HTTP
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logging.GinMiddleware(logger), logging.Recovery(logger))
	router.Setup(r, router.Deps{
		Store:    st,
		Checkout: orch,
		Orders:   checkout.NewOrders(st, logger),
		Carts:    checkout.NewCarts(st),
		Payments: checkout.NewPayments(deps, opts),
		Coupons:  checkout.NewCouponValidator(st.Coupons),
		Redis:    rdb,
		Gatherer: prometheus.DefaultGatherer,
		Config:   cfg,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("commit_mode", string(opts.Mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}
