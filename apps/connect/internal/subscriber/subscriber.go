package subscriber

import (
	"context"
	"time"

	"WaveChat/apps/connect/internal/manager"
	rediskey "WaveChat/consts/redisKey"
	"WaveChat/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const reconnectBackoff = time.Second

var (
	eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavechat_connect_events_received_total",
		Help: "从 Redis Pub/Sub 收到的事件总数",
	})
	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavechat_connect_events_delivered_total",
		Help: "成功入队到至少一条连接的事件总数",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavechat_connect_events_dropped_total",
		Help: "接收方不在线或写队列不可用而丢弃的事件总数",
	})
)

// Subscriber 订阅会话事件频道并路由到在线连接。
// 频道按接收方划分（ws:conv:events:{user_uuid}），这里用 PSUBSCRIBE
// 订阅整个前缀，从频道名还原接收方后在本实例内广播。
// Pub/Sub 是即发即失语义：本实例没有该用户的连接时事件自然落空，
// 投递失败不重试，客户端拉取是兜底。
type Subscriber struct {
	redisClient *redis.Client
	connManager *manager.ConnectionManager
}

// NewSubscriber 创建事件订阅器。
func NewSubscriber(redisClient *redis.Client, connManager *manager.ConnectionManager) *Subscriber {
	return &Subscriber{
		redisClient: redisClient,
		connManager: connManager,
	}
}

// Run 阻塞运行订阅循环，ctx 取消后返回。
// 订阅通道异常关闭时自动重连，重连间隙内发布的事件会丢失，
// 与 Pub/Sub 本身的语义一致。
func (s *Subscriber) Run(ctx context.Context) {
	for {
		if err := s.consume(ctx); err != nil {
			logger.Error(ctx, "事件订阅中断，准备重连",
				logger.ErrorField("error", err),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

// consume 建立一次订阅并消费到通道关闭或 ctx 取消。
func (s *Subscriber) consume(ctx context.Context) error {
	pubsub := s.redisClient.PSubscribe(ctx, rediskey.ConvEventChannelPattern())
	defer pubsub.Close()

	// Receive 确认订阅建立成功，失败直接走重连
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "事件订阅已建立",
		logger.String("pattern", rediskey.ConvEventChannelPattern()),
	)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.dispatch(ctx, msg)
		}
	}
}

// dispatch 将单条事件投递给频道对应用户的所有在线连接。
func (s *Subscriber) dispatch(ctx context.Context, msg *redis.Message) {
	eventsReceived.Inc()

	userUUID := rediskey.UserUUIDFromChannel(msg.Channel)
	if userUUID == "" {
		logger.Warn(ctx, "收到非法事件频道",
			logger.String("channel", msg.Channel),
		)
		eventsDropped.Inc()
		return
	}

	if sent := s.connManager.SendToUser(userUUID, []byte(msg.Payload)); sent > 0 {
		eventsDelivered.Inc()
	} else {
		eventsDropped.Inc()
	}
}
