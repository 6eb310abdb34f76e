// 測試目的：RateLimiter（瞬時限速）與 Quota（Redis INCR 配額）
package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eventhub/middlewares"
)

// RPS=1, Burst=1：連打兩次，第 2 次 429 並帶 Retry-After
func TestRateLimiter_429(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := middlewares.NewRateLimiter(ctx, middlewares.LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})

	s := gin.New()
	s.Use(rl.Middleware(func(c *gin.Context) string { return c.GetHeader("X-Key") }))
	s.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	hit := func(key string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		r.Header.Set("X-Key", key)
		s.ServeHTTP(w, r)
		return w
	}

	if w := hit("a"); w.Code != http.StatusOK {
		t.Fatalf("first: want 200, got %d", w.Code)
	}
	w := hit("a")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second: want 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
	// 不同 key 各自一個桶
	if w := hit("b"); w.Code != http.StatusOK {
		t.Fatalf("other key: want 200, got %d", w.Code)
	}
}

func TestQuota_ExceededReturns429(t *testing.T) {
	mr, rdb := newRedis(t)

	s := gin.New()
	s.POST("/x", middlewares.Quota(rdb, middlewares.QuotaRule{
		Limit:  2,
		Window: time.Hour,
		KeyFn:  func(c *gin.Context) string { return "quota:test" },
	}, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusCreated) })

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		return w
	}

	if w := post(); w.Code != http.StatusCreated || w.Header().Get("X-Quota-Used") != "1/2" {
		t.Fatalf("first: code=%d used=%q", w.Code, w.Header().Get("X-Quota-Used"))
	}
	if w := post(); w.Code != http.StatusCreated {
		t.Fatalf("second: want 201, got %d", w.Code)
	}
	if w := post(); w.Code != http.StatusTooManyRequests {
		t.Fatalf("third: want 429, got %d", w.Code)
	}
	if ttl := mr.TTL("quota:test"); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("quota key ttl = %v", ttl)
	}

	// 視窗過期後重新計算
	mr.FastForward(time.Hour + time.Second)
	if w := post(); w.Code != http.StatusCreated {
		t.Fatalf("after window: want 201, got %d", w.Code)
	}
}

func TestQuota_EmptyKeyIsNotCounted(t *testing.T) {
	_, rdb := newRedis(t)
	s := gin.New()
	s.POST("/x", middlewares.Quota(rdb, middlewares.QuotaRule{
		Limit:  1,
		Window: time.Hour,
		KeyFn:  func(c *gin.Context) string { return "" },
	}, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: want 201, got %d", i, w.Code)
		}
	}
}
