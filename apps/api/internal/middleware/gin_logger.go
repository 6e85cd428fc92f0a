package middleware

import (
	"context"
	"time"

	"WaveChat/pkg/ctxmeta"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/result"

	"WaveChat/consts"

	"github.com/gin-gonic/gin"
)

// NewContextWithGin 从 gin.Context 创建携带 trace_id、user_uuid、client_ip 的 context.Context
// 用于把请求级元信息透传到 Service、Repository 和日志系统
func NewContextWithGin(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if traceId, exists := c.Get(ctxmeta.KeyTraceID); exists {
		if s, ok := traceId.(string); ok {
			ctx = ctxmeta.WithTraceID(ctx, s)
		}
	}
	if userUUID, exists := c.Get(ctxmeta.KeyUserUUID); exists {
		if s, ok := userUUID.(string); ok {
			ctx = ctxmeta.WithUserUUID(ctx, s)
		}
	}
	if clientIP, exists := c.Get(ctxmeta.KeyClientIP); exists {
		if s, ok := clientIP.(string); ok {
			ctx = ctxmeta.WithClientIP(ctx, s)
		}
	}
	return ctx
}

// GinLogger 接收 gin 框架默认的日志
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		clientIP := ClientIPFromGinContext(c)
		if clientIP == "" {
			clientIP = c.ClientIP()
		}
		ctx := NewContextWithGin(c)

		logger.Info(ctx, "请求开始",
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.String("query", query),
			logger.String("ip", clientIP),
		)

		c.Next()

		cost := time.Since(start)
		status := c.Writer.Status()

		// 只记录服务端错误(5xx)和慢请求(>2s)，正常请求不记录
		if status >= 500 || cost > 2*time.Second {
			logger.Warn(ctx, "慢请求或服务端错误",
				logger.Int("status", status),
				logger.String("method", c.Request.Method),
				logger.String("path", path),
				logger.String("query", query),
				logger.String("ip", clientIP),
				logger.String("user-agent", c.Request.UserAgent()),
				logger.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
				logger.Duration("cost", cost),
			)
		}
	}
}

// GinRecovery panic 恢复中间件，记录堆栈并统一返回内部错误
func GinRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := NewContextWithGin(c)
				logger.Error(ctx, "请求处理 panic",
					logger.String("path", c.Request.URL.Path),
					logger.String("method", c.Request.Method),
					logger.Any("panic", err),
					logger.Stack("stack"),
				)
				if !c.Writer.Written() {
					result.Fail(c, nil, consts.CodeInternalError)
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
