// routes/routes.go
package routes

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"eventhub/middlewares"
	"eventhub/models"
	"eventhub/utils"
)

// Deps 由 main 組好傳入；Redis / Invalidator 可為 nil（不開快取與配額）
type Deps struct {
	Store       models.Storage
	Redis       *redis.Client
	CacheTTL    time.Duration
	Invalidator *utils.CacheInvalidator
	Tokens      *utils.Tokens
	Logger      *zap.Logger
	Location    *time.Location   // event date+time 以此時區解讀
	Now         func() time.Time // 測試可固定時間
	RateRPS     float64
	RateBurst   int
	CreateQuota int // 每 IP 每日可建立的 event 數；0 = 不限
}

type handlers struct {
	store  models.Storage
	inv    *utils.CacheInvalidator
	tokens *utils.Tokens
	log    *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// RegisterRoutes mounts the JSON API under /api.
// ctx bounds the background work of the rate limiter.
func RegisterRoutes(ctx context.Context, server *gin.Engine, d Deps) {
	h := &handlers{
		store:  d.Store,
		inv:    d.Invalidator,
		tokens: d.Tokens,
		log:    d.Logger,
		loc:    d.Location,
		now:    d.Now,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}

	api := server.Group("/api")

	// 全域 IP 限速
	if d.RateRPS > 0 {
		limiter := middlewares.NewRateLimiter(ctx, middlewares.LimiterConfig{
			RPS:     d.RateRPS,
			Burst:   d.RateBurst,
			IdleTTL: 3 * time.Minute,
		})
		api.Use(limiter.Middleware(func(c *gin.Context) string {
			return "ip:" + c.ClientIP()
		}))
	}

	// GET 回應快取
	if d.Redis != nil {
		api.Use(middlewares.ResponseCache(d.Redis, d.CacheTTL, h.log))
	}

	create := []gin.HandlerFunc{h.createEvent}
	if d.Redis != nil && d.CreateQuota > 0 {
		quota := middlewares.Quota(d.Redis, middlewares.QuotaRule{
			Limit:  d.CreateQuota,
			Window: 24 * time.Hour,
			KeyFn: func(c *gin.Context) string {
				return fmt.Sprintf("quota:create:ip:%s:day", c.ClientIP())
			},
		}, h.log)
		create = append([]gin.HandlerFunc{quota}, create...)
	}

	api.GET("/events", h.getEvents)
	api.GET("/events.ics", h.getCalendar)
	api.GET("/events/:id", h.getEvent)
	api.POST("/events", create...)

	// Auth
	if h.tokens != nil {
		api.POST("/signup", h.signup)
		api.POST("/login", h.login)
		api.GET("/me", middlewares.Authenticate(h.tokens), h.me)
	}
}
