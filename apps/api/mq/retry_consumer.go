package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"WaveChat/pkg/ctxmeta"
	"WaveChat/pkg/logger"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// RetryConsumer 事件重投消费者。
// 从 Kafka 拉取发布失败的事件，重新发布到原 Redis 频道；
// 再次失败则递增重试计数回写队列，超限丢弃并记录日志。
type RetryConsumer struct {
	reader      *kafkago.Reader
	redisClient *redis.Client

	// 单条重投之间的最小间隔，给 Redis 留恢复窗口
	backoff time.Duration
}

// NewRetryConsumer 创建事件重投消费者
func NewRetryConsumer(reader *kafkago.Reader, redisClient *redis.Client, backoff time.Duration) *RetryConsumer {
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &RetryConsumer{
		reader:      reader,
		redisClient: redisClient,
		backoff:     backoff,
	}
}

// Run 阻塞消费直到 ctx 取消。
func (c *RetryConsumer) Run(ctx context.Context) {
	logger.Info(ctx, "事件重投消费者启动")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				logger.Info(ctx, "事件重投消费者退出")
				return
			}
			logger.Error(ctx, "拉取重投任务失败", logger.ErrorField("error", err))
			time.Sleep(c.backoff)
			continue
		}

		c.handle(ctx, msg.Value)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "提交消费位点失败", logger.ErrorField("error", err))
		}
	}
}

// handle 处理单条重投任务，不会返回错误：
// 失败路径要么回写队列要么丢弃，消费位点始终前进。
func (c *RetryConsumer) handle(ctx context.Context, raw []byte) {
	var task PublishTask
	if err := json.Unmarshal(raw, &task); err != nil {
		// 格式损坏的任务无法重投，丢弃
		logger.Error(ctx, "重投任务反序列化失败，丢弃", logger.ErrorField("error", err))
		return
	}

	// 还原原始调用链的 trace_id，方便排障时串起首发与重投
	taskCtx := ctx
	if task.TraceID != "" {
		taskCtx = ctxmeta.WithTraceID(ctx, task.TraceID)
	}

	err := c.redisClient.Publish(taskCtx, task.Channel, []byte(task.Payload)).Err()
	if err == nil {
		logger.Info(taskCtx, "事件重投成功",
			logger.String("channel", task.Channel),
			logger.Int("retry_count", task.RetryCount),
		)
		return
	}

	task.RetryCount++
	if task.RetryCount >= task.MaxRetries {
		// 超限丢弃：事件推送是尽力而为，客户端拉取兜底
		logger.Error(taskCtx, "事件重投超过最大次数，丢弃",
			logger.String("channel", task.Channel),
			logger.Int("retry_count", task.RetryCount),
			logger.ErrorField("error", err),
		)
		return
	}

	time.Sleep(c.backoff)
	if sendErr := SendPublishTask(taskCtx, task.WithError(err)); sendErr != nil {
		logger.Error(taskCtx, "重投任务回写队列失败，丢弃",
			logger.String("channel", task.Channel),
			logger.ErrorField("error", sendErr),
		)
	}
}
