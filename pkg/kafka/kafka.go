package kafka

import (
	"context"
	"time"

	"WaveChat/config"

	"github.com/segmentio/kafka-go"
)

// Producer 对 kafka-go Writer 的轻量封装，固定写入单个 topic。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建面向单 topic 的生产者。
// RequireOne：重投队列允许极小概率丢失（兜底链路），不开全 ISR 确认。
func NewProducer(brokers []string, topic string, batchWait time.Duration) *Producer {
	if batchWait <= 0 {
		batchWait = 10 * time.Millisecond
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: batchWait,
		},
	}
}

// Send 写入一条消息。key 用于分区路由（同 key 保序）。
func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NewReader 创建消费组 reader。
func NewReader(brokers []string, topic string, cfg config.ConsumerConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: cfg.CommitInterval,
	})
}
