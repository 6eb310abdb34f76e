package middlewares

import (
	"bytes"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"eventhub/utils"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// 路徑+參數 → SHA1，避免 Redis key 太長
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheKeyFrom returns the Redis key for a cacheable request, or "" when the
// request must not be cached. List keys and item keys live under separate
// prefixes so utils.CacheInvalidator can purge them independently; list keys
// also carry listGen.
func CacheKeyFrom(c *gin.Context, listGen int64) string {
	method := c.Request.Method
	path := c.FullPath() // 路由模板，例如 /api/events/:id
	rawq := c.Request.URL.RawQuery

	if method != "GET" || path == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(path, "/api/events/:id"):
		return utils.EventsItemPrefix + c.Param("id")
	case strings.HasPrefix(path, "/api/events"): // /api/events 與 /api/events.ics
		return utils.EventsListPrefix + strconv.FormatInt(listGen, 10) + ":" + sha1Hex("GET|"+path+"|"+rawq)
	default:
		return ""
	}
}

// ResponseCache stores 2xx GET responses in Redis for ttl and replays them
// with X-Cache: HIT. A Redis failure degrades to an uncached response.
func ResponseCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := CacheKeyFrom(c, 0)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if strings.HasPrefix(key, utils.EventsListPrefix) {
			// 世代要在 handler 讀資料之前取得
			gen, err := utils.ListGeneration(ctx, rdb)
			if err != nil {
				logger.Warn("response cache generation read failed", zap.Error(err))
				c.Next()
				return
			}
			key = CacheKeyFrom(c, gen)
		}

		if b, err := rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		} else if err != nil && err != redis.Nil {
			logger.Warn("response cache read failed", zap.String("key", key), zap.Error(err))
		}

		// MISS：攔截回應，寫回 client 的同時存一份
		c.Writer.Header().Set("X-Cache", "MISS")
		buf := &bytes.Buffer{}
		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: buf}
		c.Writer = bw

		c.Next()

		if bw.Status() >= 200 && bw.Status() < 300 {
			header := c.Writer.Header().Clone()
			header.Del("X-Cache")
			header.Del(RequestIDHeader)
			item := cachedBody{
				Status: bw.Status(),
				Header: header,
				Body:   buf.Bytes(),
			}
			var o bytes.Buffer
			if err := gob.NewEncoder(&o).Encode(item); err == nil {
				if err := rdb.Set(ctx, key, o.Bytes(), ttl).Err(); err != nil {
					logger.Warn("response cache write failed", zap.String("key", key), zap.Error(err))
				}
			}
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
