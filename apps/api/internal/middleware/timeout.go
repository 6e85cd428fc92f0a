package middleware

import (
	"context"
	"time"

	"WaveChat/consts"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/result"

	"github.com/gin-gonic/gin"
)

// TimeoutMiddleware 请求超时控制中间件
// 安全版本：不开启 Goroutine，依赖下游 Context 感知
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 基于 c.Request.Context() 派生带超时的 context
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		// 2. 替换请求的 context
		// 后续 Handler、数据库与 Redis 调用都能感知这个时限
		c.Request = c.Request.WithContext(ctx)

		// 3. 直接在当前协程执行
		c.Next()

		// 4. 后置检查：处理过程中是否发生了超时
		// 情况 A: 下游超时但 Handler 捕获了错误并正常返回了 JSON，
		//         此时 c.Writer.Written() 为 true，这里什么都不用做。
		// 情况 B: 下游处理太慢，没来得及写 Response，ctx 就过期了。
		if ctx.Err() == context.DeadlineExceeded {
			// 只有当 Response 还没写出去时，中间件才介入兜底
			if !c.Writer.Written() {
				logCtx := NewContextWithGin(c)
				logger.Warn(logCtx, "入口层强制超时断开",
					logger.String("path", c.Request.URL.Path),
					logger.Duration("timeout", timeout),
				)

				result.Fail(c, nil, consts.CodeTimeoutError)
			}
		}
	}
}
