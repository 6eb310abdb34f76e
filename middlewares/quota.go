package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type QuotaRule struct {
	Limit  int                       // 視窗內允許的請求數
	Window time.Duration             // 視窗大小，例如 24h
	KeyFn  func(*gin.Context) string // 回傳 "" 表示不計配額
}

// Quota counts requests per key with Redis INCR and answers 429 once the
// window's limit is exceeded. If Redis is down the request is let through.
func Quota(rdb *redis.Client, rule QuotaRule, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rule.KeyFn(c)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("quota check skipped", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if n == 1 {
			_ = rdb.Expire(ctx, key, rule.Window).Err()
		}
		if int(n) > rule.Limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Usage quota exceeded. Please try again later.",
			})
			return
		}
		c.Header("X-Quota-Used", fmt.Sprintf("%d/%d", n, rule.Limit))
		c.Next()
	}
}
