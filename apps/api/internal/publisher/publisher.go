package publisher

import (
	"context"
	"time"

	"WaveChat/apps/api/mq"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/wsevent"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// EventPublisher 把会话事件发布到接收方的 Redis 频道。
// 发布是尽力而为：消息落库已经在事务内完成，事件推送失败
// 不影响发送结果，只负责把失败事件转入 Kafka 重投队列。
// Redis 不可用时由熔断器快速失败，避免发送路径被 Publish 超时拖住。
type EventPublisher struct {
	redisClient *redis.Client
	breaker     *gobreaker.CircuitBreaker
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ws-event-publish",
		MaxRequests: 3,                // 半开状态下最多允许 3 个请求尝试
		Interval:    15 * time.Second, // 清除计数的时间间隔
		Timeout:     30 * time.Second, // 熔断器开启后多久尝试进入半开状态
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 失败率超过 50% 且请求数达到阈值时触发熔断
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "熔断器状态变化",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})

	return &EventPublisher{
		redisClient: redisClient,
		breaker:     breaker,
	}
}

// PublishConversationMessage 向指定频道发布一条会话事件。
// 发布失败（含熔断快速失败）时落入 Kafka 重投队列；
// 队列也写不进去时记录日志放弃（客户端拉取兜底）。
// Redis 降级模式（client 为 nil）下直接跳过：重投队列消费端
// 同样需要 Redis 才能发布，此时入队只会堆积无法消费的任务。
func (p *EventPublisher) PublishConversationMessage(ctx context.Context, channel string, event wsevent.ConversationMessage) {
	if p.redisClient == nil {
		logger.Debug(ctx, "Redis 降级模式，跳过会话事件发布",
			logger.String("channel", channel),
		)
		return
	}

	payload, err := event.Marshal()
	if err != nil {
		logger.Error(ctx, "会话事件序列化失败", logger.ErrorField("error", err))
		return
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.redisClient.Publish(ctx, channel, payload).Err()
	})
	if err == nil {
		return
	}

	logger.Warn(ctx, "会话事件发布失败，转入重投队列",
		logger.String("channel", channel),
		logger.ErrorField("error", err),
	)

	task := mq.BuildPublishTask(channel, payload).
		WithContext(ctx).
		WithError(err).
		WithSource("EventPublisher.PublishConversationMessage")
	if sendErr := mq.SendPublishTask(ctx, task); sendErr != nil {
		logger.Error(ctx, "重投任务入队失败，放弃推送",
			logger.String("channel", channel),
			logger.ErrorField("kafka_error", sendErr),
			logger.ErrorField("original_error", err),
		)
	}
}
