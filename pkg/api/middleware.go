package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"akcache/pkg/core"
)

// gin context 键：handler 将服务元数据放入 context，访问日志中间件取出落库
const metaContextKey = "akcache.meta"

// RequestLogStore 访问日志落库能力，由 store.Store 实现
type RequestLogStore interface {
	InsertRequestLog(ctx context.Context, entry *core.RequestLog) error
}

// setMeta 供 handler 把服务调用元数据交给访问日志中间件
func setMeta(c *gin.Context, meta core.Meta) {
	c.Set(metaContextKey, meta)
}

// requestIDMiddleware 为每个请求分配UUID并回写响应头
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// accessLogMiddleware 把每次请求落库为 RequestLog。
// 写入在独立goroutine中进行，日志失败不影响响应。
func (s *Server) accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		entry := &core.RequestLog{
			RequestID:  c.GetString("request_id"),
			Method:     c.Request.Method,
			Path:       c.FullPath(),
			Symbol:     c.Param("symbol"),
			StartDate:  c.Query("start"),
			EndDate:    c.Query("end"),
			StatusCode: c.Writer.Status(),
			ElapsedMS:  time.Since(started).Milliseconds(),
		}
		if v, ok := c.Get(metaContextKey); ok {
			if meta, ok := v.(core.Meta); ok {
				entry.CacheHit = meta.CacheHit
				entry.UpstreamCalled = meta.UpstreamCalled
				entry.RecordCount = meta.RecordCount
			}
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.logStore.InsertRequestLog(ctx, entry); err != nil {
				s.log.WithError(err).Warn("访问日志写入失败")
			}
		}()
	}
}

// corsMiddleware 跨域支持
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
