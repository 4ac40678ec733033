package store

import (
	"context"
	"fmt"
	"strings"

	"greenora/internal/logging"
	"greenora/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 按驱动名打开数据库。sqlite 只允许单连接，写入由连接池串行化，
// 库存条件扣减因此天然互斥；postgres 依赖行锁。
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(withSQLiteParams(dsn))
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(log, gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func withSQLiteParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000&_foreign_keys=on"
}

// Migrate 自动建表。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}

// Store 聚合各仓储，事务内通过 Transaction 拿到绑定同一 tx 的副本。
type Store struct {
	db *gorm.DB

	Users     *UserRepo
	Products  *ProductRepo
	Inventory *InventoryLedger
	Carts     *CartRepo
	Coupons   *CouponRepo
	Orders    *OrderRepo
	Payments  *PaymentRepo
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Users:     &UserRepo{db: db},
		Products:  &ProductRepo{db: db},
		Inventory: &InventoryLedger{db: db},
		Carts:     &CartRepo{db: db},
		Coupons:   &CouponRepo{db: db},
		Orders:    &OrderRepo{db: db},
		Payments:  &PaymentRepo{db: db},
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction 在单个事务中执行 fn；fn 返回错误则整体回滚。
// fn 内只能使用传入的 tx，外层 Store 在 sqlite 单连接下会死锁。
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
