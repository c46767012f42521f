package cache

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const (
	// PagePrefix 所有整页缓存 key 的前缀
	PagePrefix = "page:"
	// IndexPrefix 首页（含各个 ?page=N）
	IndexPrefix = PagePrefix + "/?"
)

// Key page:<path>?<raw query>
func Key(r *http.Request) string {
	return PagePrefix + r.URL.Path + "?" + r.URL.RawQuery
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware 缓存 GET 请求的 200 响应；observe 可为空，用于上报命中率
func Middleware(pc PageCache, ttl time.Duration, observe func(hit bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || ttl <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := Key(c.Request)

		e, ok, err := pc.Get(ctx, key)
		if err != nil {
			logger.Warn("page cache get failed", zap.String("key", key), zap.Error(err))
		}
		if observe != nil {
			observe(ok)
		}
		if ok {
			c.Header("X-Cache", "HIT")
			c.Data(e.Status, e.ContentType, e.Body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header("X-Cache", "MISS")
		c.Next()
		c.Writer = w.ResponseWriter

		if w.Status() != http.StatusOK || len(c.Errors) > 0 {
			return
		}
		entry := &Entry{Status: w.Status(), ContentType: w.Header().Get("Content-Type"), Body: w.buf.Bytes()}
		if err := pc.Set(ctx, key, entry, ttl); err != nil {
			logger.Warn("page cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// InvalidateHook 帖子写事件后清掉 prefix 下的整页缓存
func InvalidateHook(pc PageCache, prefix string) service.Hook {
	return func(ctx context.Context, ev service.Event) {
		switch ev.Kind {
		case service.EventPostCreated, service.EventPostEdited:
		default:
			return
		}
		if err := pc.Invalidate(ctx, prefix); err != nil {
			logger.Warn("page cache invalidate failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}
