package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WaveChat/apps/connect/internal/handler"
	"WaveChat/apps/connect/internal/manager"
	"WaveChat/apps/connect/internal/server"
	"WaveChat/apps/connect/internal/subscriber"
	"WaveChat/apps/connect/internal/svc"
	"WaveChat/config"
	"WaveChat/pkg/ctxmeta"
	"WaveChat/pkg/logger"
	pkgredis "WaveChat/pkg/redis"
	"WaveChat/pkg/ticket"
)

func main() {
	// 初始化根上下文，并放入一个默认 trace_id。
	// connect 服务不是从 HTTP 请求起步，因此先放一个固定值用于启动期日志串联。
	ctx := ctxmeta.WithTraceID(context.Background(), "0")

	// 1) 初始化日志组件（必须最先完成，后续模块初始化都依赖日志输出）。
	logCfg := config.DefaultLoggerConfig()
	l, err := logger.Build(logCfg)
	if err != nil {
		panic(err)
	}
	logger.ReplaceGlobal(l)
	defer func() {
		_ = l.Sync()
	}()

	// 2) 初始化 Redis。
	// connect 的唯一上游就是 Redis Pub/Sub：Redis 不可用时服务仍可
	// 启动并接受连接（便于探活与滚动发布），只是收不到事件。
	redisCfg := config.DefaultRedisConfig()
	redisClient, err := pkgredis.Build(redisCfg)
	if err != nil {
		logger.Warn(ctx, "Connect 服务 Redis 初始化失败，事件订阅不可用",
			logger.ErrorField("error", err),
		)
		redisClient = nil
	} else {
		pkgredis.ReplaceGlobal(redisClient)
		logger.Info(ctx, "Connect 服务 Redis 初始化成功",
			logger.String("addr", redisCfg.Addr),
		)
	}

	// 3) 初始化票据校验器（与 api 服务共享密钥和时效配置）。
	verifier, err := ticket.NewVerifier(config.DefaultTicketConfig())
	if err != nil {
		logger.Fatal(ctx, "初始化票据校验器失败",
			logger.ErrorField("error", err),
		)
	}

	// 4) 组装核心依赖：
	// - manager:    连接注册/注销与按用户广播。
	// - svc:        票据鉴权。
	// - handler:    Gin /ws/conversations 入口。
	// - subscriber: Redis Pub/Sub 事件订阅与路由。
	connManager := manager.NewConnectionManager()
	connectSvc := svc.NewConnectService(verifier)
	wsHandler := handler.NewWSHandler(connManager, connectSvc)

	subCtx, subCancel := context.WithCancel(ctx)
	defer subCancel()
	if redisClient != nil {
		eventSubscriber := subscriber.NewSubscriber(redisClient, connManager)
		go eventSubscriber.Run(subCtx)
	}

	// 5) 构建并后台启动 HTTP 服务。
	// ListenAndServe 的正常退出会返回 http.ErrServerClosed，这种情况不视为启动失败。
	srvCfg := server.DefaultConfig()
	srv := server.New(srvCfg, wsHandler)

	go func() {
		logger.Info(ctx, "Connect 服务启动中",
			logger.String("addr", srvCfg.Addr),
		)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Connect 服务启动失败",
				logger.ErrorField("error", err),
			)
		}
	}()

	// 6) 阻塞等待系统退出信号（Ctrl+C / SIGTERM）。
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// 7) 优雅关闭流程：
	// - 先停订阅，不再接收新事件；
	// - 再关闭连接管理器，主动断开所有 WebSocket 连接；
	// - 最后关闭 HTTP 服务，等待进行中的请求在超时时间内结束。
	logger.Info(ctx, "Connect 服务开始优雅停机")
	subCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	connManager.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Connect 服务优雅停机失败",
			logger.ErrorField("error", err),
		)
		return
	}

	logger.Info(ctx, "Connect 服务已退出")
}
