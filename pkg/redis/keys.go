package redis

import "fmt"

// CartLockKey 同一用户购物车结算互斥锁。
func CartLockKey(userID uint) string {
	return fmt.Sprintf("greenora:checkout:lock:%d", userID)
}

// CheckoutStateKey 将客户端 Idempotency-Key 映射到一次结算的结果。
func CheckoutStateKey(userID uint, idemKey string) string {
	return fmt.Sprintf("greenora:checkout:idem:%d:%s", userID, idemKey)
}

// CheckoutRateKey 下单限流计数，按用户；取不到用户时按 IP。
func CheckoutRateKey(userID uint, clientIP string) string {
	if userID > 0 {
		return fmt.Sprintf("greenora:rate_limit:checkout:user:%d", userID)
	}
	return fmt.Sprintf("greenora:rate_limit:checkout:ip:%s", clientIP)
}
