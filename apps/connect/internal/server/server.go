package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"WaveChat/apps/connect/internal/handler"
	"WaveChat/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config 定义 connect HTTP 服务的运行参数。
// 这些超时用于限制异常连接占用资源，避免慢连接拖垮服务。
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig 返回 connect 服务的默认配置。
// 端口优先读取 CONNECT_ADDR，未设置时默认监听 :8081。
// 注意：不设置 Read/WriteTimeout，长连接的读写超时由连接层自行控制。
func DefaultConfig() Config {
	addr := os.Getenv("CONNECT_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	return Config{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Server 对 http.Server 的轻量封装。
// 这里集中管理启动和优雅关闭，避免调用方直接操作底层对象。
type Server struct {
	httpServer *http.Server
}

// New 构建 Gin 路由并包装成 HTTP Server。
// 路由职责：
// - GET /health:           健康检查，供容器/探针调用。
// - GET /metrics:          Prometheus 指标暴露。
// - GET /ws/conversations: 会话事件 WebSocket 接入入口。
func New(cfg Config, wsHandler *handler.WSHandler) *Server {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = gin.ReleaseMode
	}
	gin.SetMode(ginMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(util.TraceLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/conversations", wsHandler.ServeWS)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

// Start 启动 HTTP 监听。
// 正常优雅关闭时会返回 http.ErrServerClosed，调用方应将其视为正常退出。
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown 执行优雅停机。
// 调用方需要传入带超时的 ctx，以防止无限等待。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
