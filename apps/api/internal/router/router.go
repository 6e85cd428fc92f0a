package router

import (
	"WaveChat/apps/api/internal/middleware"
	v1 "WaveChat/apps/api/internal/router/v1"
	"WaveChat/config"
	"WaveChat/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitRouter 初始化路由（处理器依赖注入）
func InitRouter(
	serverCfg config.ServerConfig,
	userHandler *v1.UserHandler,
	relationHandler *v1.RelationHandler,
	messageHandler *v1.MessageHandler,
	conversationHandler *v1.ConversationHandler,
) *gin.Engine {
	r := gin.New()

	// 恢复中间件
	r.Use(middleware.GinRecovery())

	// 追踪中间件 (生成 trace_id)
	r.Use(util.TraceLogger())

	// 客户端 IP 中间件
	r.Use(middleware.ClientIPMiddleware())

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.PrometheusMiddleware())

	// 跨域中间件
	r.Use(middleware.CorsMiddleware())

	// 请求超时中间件
	r.Use(middleware.TimeoutMiddleware(serverCfg.RequestTimeout))

	// 健康检查（无需认证）
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus 指标暴露接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 公开接口（不需要认证），按 IP 限流
		public := api.Group("/public")
		public.Use(middleware.IPRateLimitMiddleware())
		{
			user := public.Group("/user")
			{
				user.POST("/login", userHandler.Login)
			}
		}

		// 需要认证的接口，按用户限流
		auth := api.Group("/auth")
		auth.Use(middleware.JWTAuthMiddleware())
		auth.Use(middleware.UserRateLimitMiddleware())
		{
			// 私信设置
			user := auth.Group("/user")
			{
				user.GET("/message-settings", userHandler.GetMessageSettings)
				user.PUT("/message-settings", userHandler.UpdateMessageSettings)
			}

			// 关注/拉黑关系
			relations := auth.Group("/relations")
			{
				relations.POST("/follow", relationHandler.Follow)
				relations.DELETE("/follow/:peerUuid", relationHandler.Unfollow)
				relations.POST("/block", relationHandler.Block)
				relations.DELETE("/block/:peerUuid", relationHandler.Unblock)
				relations.GET("/:peerUuid", relationHandler.GetRelationStatus)
			}

			// 私信发送
			auth.POST("/messages", messageHandler.SendMessage)

			// 会话视图
			conversations := auth.Group("/conversations")
			{
				conversations.GET("", conversationHandler.ListConversations)
				conversations.GET("/:conversationId/messages", conversationHandler.ListMessages)
				conversations.DELETE("/:conversationId", conversationHandler.DeleteConversation)
				conversations.DELETE("/:conversationId/messages/:messageId", messageHandler.DeleteMessage)
				conversations.POST("/:conversationId/accept", conversationHandler.AcceptConversation)
				conversations.POST("/:conversationId/read", messageHandler.MarkRead)
			}

			// WebSocket 升级票据
			auth.POST("/ws/ticket", conversationHandler.IssueWSTicket)
		}
	}

	return r
}
