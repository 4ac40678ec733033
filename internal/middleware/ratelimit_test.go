package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newEngine(t *testing.T, limit int) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := rd.NewClient(&rd.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.POST("/orders/user/:user_id", RedisRateLimit(rdb, limit, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, mr
}

func post(r *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRedisRateLimitPerUser(t *testing.T) {
	r, _ := newEngine(t, 2)

	assert.Equal(t, http.StatusOK, post(r, "/orders/user/1"))
	assert.Equal(t, http.StatusOK, post(r, "/orders/user/1"))
	assert.Equal(t, http.StatusTooManyRequests, post(r, "/orders/user/1"))

	// 其他用户不受影响
	assert.Equal(t, http.StatusOK, post(r, "/orders/user/2"))
}

func TestRedisRateLimitFallsBackToIP(t *testing.T) {
	r, mr := newEngine(t, 1)

	assert.Equal(t, http.StatusOK, post(r, "/orders/user/abc"))
	assert.Equal(t, http.StatusTooManyRequests, post(r, "/orders/user/xyz"))
	assert.True(t, len(mr.Keys()) == 1)
}

func TestRedisRateLimitFailsOpen(t *testing.T) {
	r, mr := newEngine(t, 1)
	mr.Close()

	assert.Equal(t, http.StatusOK, post(r, "/orders/user/1"))
	assert.Equal(t, http.StatusOK, post(r, "/orders/user/1"))
}
