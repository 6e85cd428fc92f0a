package mq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"WaveChat/pkg/ctxmeta"
	"WaveChat/pkg/kafka"
)

// ==================== 事件重投任务定义 ====================

// PublishTask 存放在 Kafka 里的消息体。
// Redis Pub/Sub 发布失败时把事件原样落入重投队列，
// 由消费端按退避节奏重新发布到原频道。
type PublishTask struct {
	// Channel 原始发布频道（ws:conv:events:{user_uuid}）
	Channel string `json:"channel"`
	// Payload 事件 JSON 原文，重投时不做任何改写
	Payload json.RawMessage `json:"payload"`

	// 元数据（用于追踪和重试控制）
	TraceID     string    `json:"trace_id,omitempty"`
	UserUUID    string    `json:"user_uuid,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	RetryCount  int       `json:"retry_count"`      // 已重试次数
	MaxRetries  int       `json:"max_retries"`      // 最大重试次数
	OriginalErr string    `json:"original_err"`     // 原始错误信息
	Source      string    `json:"source,omitempty"` // 操作来源（repo/service）
}

// BuildPublishTask 构造一个事件重投任务
func BuildPublishTask(channel string, payload []byte) PublishTask {
	return PublishTask{
		Channel:    channel,
		Payload:    payload,
		Timestamp:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3, // 默认最多重试3次
	}
}

// ==================== 链式方法 ====================

// WithContext 为任务添加上下文信息
func (t PublishTask) WithContext(ctx context.Context) PublishTask {
	t.TraceID = ctxmeta.TraceID(ctx)
	t.UserUUID = ctxmeta.UserUUID(ctx)
	return t
}

// WithError 为任务添加错误信息
func (t PublishTask) WithError(err error) PublishTask {
	if err != nil {
		t.OriginalErr = err.Error()
	}
	return t
}

// WithSource 为任务添加来源信息
func (t PublishTask) WithSource(source string) PublishTask {
	t.Source = source
	return t
}

// WithMaxRetries 设置最大重试次数
func (t PublishTask) WithMaxRetries(maxRetries int) PublishTask {
	t.MaxRetries = maxRetries
	return t
}

// ==================== 发送入口 ====================

var (
	// ErrProducerNotReady 生产者未初始化
	ErrProducerNotReady = errors.New("mq: producer not initialized")

	producer *kafka.Producer
)

// InitProducer 注入事件重投 topic 的生产者，进程启动时调用一次。
func InitProducer(p *kafka.Producer) {
	producer = p
}

// SendPublishTask 把任务写入 Kafka 重投队列。
// key 取频道名：同一接收方的事件落在同一分区，重投时保序。
func SendPublishTask(ctx context.Context, task PublishTask) error {
	if producer == nil {
		return ErrProducerNotReady
	}
	data, err := json.Marshal(&task)
	if err != nil {
		return err
	}
	return producer.Send(ctx, []byte(task.Channel), data)
}
