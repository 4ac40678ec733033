// Package testutil 提供测试用的内存数据库与种子数据。
package testutil

import (
	"fmt"
	"testing"
	"time"

	"greenora/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB 每个测试一个独立的内存库，单连接与线上 sqlite 配置一致。
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func SeedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func SeedProduct(t *testing.T, db *gorm.DB, name, price string, qty int64) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Price: Dec(price), Quantity: qty}
	require.NoError(t, db.Create(p).Error)
	return p
}

// SeedCartLine 直接写购物车明细，单价取商品当前价。
func SeedCartLine(t *testing.T, db *gorm.DB, userID uint, p *model.Product, qty int64) *model.CartLine {
	t.Helper()
	var cart model.Cart
	require.NoError(t, db.Where(model.Cart{UserID: userID}).FirstOrCreate(&cart).Error)
	line := &model.CartLine{CartID: cart.ID, ProductID: p.ID, Quantity: qty, UnitPrice: p.Price}
	require.NoError(t, db.Create(line).Error)
	return line
}

// SeedCoupon 有效期为今天前后各 days 天。
func SeedCoupon(t *testing.T, db *gorm.DB, code, discount, minAmt string, active bool, days int) *model.Coupon {
	t.Helper()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	c := &model.Coupon{
		Code:          code,
		DiscountValue: Dec(discount),
		MinOrderAmt:   Dec(minAmt),
		Active:        active,
		ValidFrom:     today.AddDate(0, 0, -days),
		ValidUntil:    today.AddDate(0, 0, days),
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func Product(t *testing.T, db *gorm.DB, id uint) model.Product {
	t.Helper()
	var p model.Product
	require.NoError(t, db.First(&p, id).Error)
	return p
}

func Count(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}
