package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WaveChat/apps/api/internal/middleware"
	"WaveChat/apps/api/internal/publisher"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/apps/api/internal/router"
	v1 "WaveChat/apps/api/internal/router/v1"
	"WaveChat/apps/api/internal/service"
	"WaveChat/apps/api/mq"
	"WaveChat/config"
	"WaveChat/pkg/async"
	"WaveChat/pkg/idgen"
	pkgkafka "WaveChat/pkg/kafka"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/mysql"
	pkgredis "WaveChat/pkg/redis"
	"WaveChat/pkg/ticket"
	"WaveChat/pkg/util"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. 初始化日志
	logCfg := config.DefaultLoggerConfig()
	zl, err := logger.Build(logCfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger.ReplaceGlobal(zl)
	defer zl.Sync()

	// 2. 初始化MySQL
	dbCfg := config.DefaultMySQLConfig()
	db, err := mysql.Build(dbCfg)
	if err != nil {
		log.Fatalf("初始化MySQL失败: %v", err)
	}
	mysql.ReplaceGlobal(db)

	// 3. 初始化Redis
	redisCfg := config.DefaultRedisConfig()
	// 调整 Redis 读写超时时间为 50ms（快速失败）
	redisCfg.ReadTimeout = 50 * time.Millisecond
	redisCfg.WriteTimeout = 50 * time.Millisecond

	redisClient, err := pkgredis.Build(redisCfg)
	if err != nil {
		// Redis 初始化失败不阻塞启动（关系缓存与限流降级，事件推送不可用）
		logger.Warn(ctx, "Redis 初始化失败，将降级到 MySQL-Only 模式",
			logger.ErrorField("error", err),
		)
		redisClient = nil
	} else {
		pkgredis.ReplaceGlobal(redisClient)
		logger.Info(ctx, "Redis 初始化成功",
			logger.String("addr", redisCfg.Addr),
		)
	}

	// 4. 初始化雪花 ID 生成器
	if err := idgen.Init(); err != nil {
		log.Fatalf("初始化 ID 生成器失败: %v", err)
	}

	// 5. 初始化异步任务池
	if err := async.Init(config.DefaultAsyncConfig()); err != nil {
		log.Fatalf("初始化异步任务池失败: %v", err)
	}
	defer async.Release()

	// 6. 初始化访问令牌配置
	util.SetAccessTokenConfig(config.DefaultAccessTokenConfig())

	// 7. 初始化 Kafka（仅在 Redis 可用时启动：重投队列只服务于事件推送）
	var kafkaProducer *pkgkafka.Producer
	if redisClient != nil {
		kafkaCfg := config.DefaultKafkaConfig()

		kafkaProducer = pkgkafka.NewProducer(kafkaCfg.Brokers, kafkaCfg.EventRetryTopic, kafkaCfg.ProducerBatchWait)
		mq.InitProducer(kafkaProducer)
		logger.Info(ctx, "Kafka Producer 初始化成功",
			logger.String("brokers", kafkaCfg.Brokers[0]),
			logger.String("topic", kafkaCfg.EventRetryTopic),
		)

		reader := pkgkafka.NewReader(kafkaCfg.Brokers, kafkaCfg.EventRetryTopic, kafkaCfg.ConsumerConfig)
		retryConsumer := mq.NewRetryConsumer(reader, redisClient, 0)

		// 启动重投消费者（后台 goroutine）
		go func() {
			logger.Info(ctx, "事件重投消费者启动中",
				logger.String("topic", kafkaCfg.EventRetryTopic),
				logger.String("group_id", kafkaCfg.ConsumerConfig.GroupID),
			)
			retryConsumer.Run(ctx)
		}()

		defer func() {
			if err := reader.Close(); err != nil {
				logger.Error(ctx, "关闭事件重投消费者失败", logger.ErrorField("error", err))
			}
			if err := kafkaProducer.Close(); err != nil {
				logger.Error(ctx, "关闭 Kafka Producer 失败", logger.ErrorField("error", err))
			}
		}()
	}

	// 8. 初始化限流器
	rlCfg := config.DefaultRateLimitConfig()
	middleware.InitRedisRateLimiter(rlCfg.Rate, rlCfg.Burst, redisClient)

	// 9. 组装依赖 - Repository 层
	userRepo := repository.NewUserRepository(db)
	relationRepo := repository.NewRelationRepository(db, redisClient)
	convRepo := repository.NewConversationRepository(db)

	// 10. 事件发布器与票据签发器
	eventPublisher := publisher.NewEventPublisher(redisClient)
	ticketIssuer := ticket.NewIssuer(config.DefaultTicketConfig())

	// 11. 组装依赖 - Service 层
	userService := service.NewUserService(userRepo)
	relationService := service.NewRelationService(userRepo, relationRepo)
	messageService := service.NewMessageService(convRepo, eventPublisher)
	conversationService := service.NewConversationService(convRepo, ticketIssuer)

	// 12. 组装依赖 - Handler 层
	userHandler := v1.NewUserHandler(userService)
	relationHandler := v1.NewRelationHandler(relationService)
	messageHandler := v1.NewMessageHandler(messageService)
	conversationHandler := v1.NewConversationHandler(conversationService)

	// 13. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	serverCfg := config.DefaultServerConfig()
	r := router.InitRouter(serverCfg, userHandler, relationHandler, messageHandler, conversationHandler)
	logger.Info(ctx, "路由初始化完成")

	// 14. 配置服务器
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: serverCfg.ReadHeaderTimeout,
		ReadTimeout:       serverCfg.ReadTimeout,
		WriteTimeout:      serverCfg.WriteTimeout,
		IdleTimeout:       serverCfg.IdleTimeout,
		MaxHeaderBytes:    1 << 20, // 最大请求头 1MB
	}

	// 15. 启动服务器（在 goroutine 中）
	go func() {
		logger.Info(ctx, "api 服务器启动中",
			logger.String("address", serverCfg.Addr),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "服务器启动失败", logger.ErrorField("error", err))
			os.Exit(1)
		}
	}()

	logger.Info(ctx, "api 服务器启动成功，按 Ctrl+C 关闭")

	// 16. 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info(ctx, "收到关闭信号，开始优雅停机...",
		logger.String("signal", sig.String()),
	)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "服务器强制关闭", logger.ErrorField("error", err))
		os.Exit(1)
	}

	logger.Info(ctx, "api 服务器已优雅退出")
}
