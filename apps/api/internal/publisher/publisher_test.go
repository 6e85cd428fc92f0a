package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"WaveChat/pkg/logger"
	"WaveChat/pkg/wsevent"

	"go.uber.org/zap"
)

var publisherTestOnce sync.Once

func initPublisherTestEnv() {
	publisherTestOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

// Redis 降级模式（nil 客户端）下发布必须静默跳过，
// 不得触碰客户端，也不得往重投队列塞任务。
func TestPublishConversationMessageWithoutRedis(t *testing.T) {
	initPublisherTestEnv()

	pub := NewEventPublisher(nil)
	event := wsevent.NewConversationMessage(11, 1001, time.Now())
	pub.PublishConversationMessage(context.Background(), "ws:conv:events:alice-uuid", event)
}
