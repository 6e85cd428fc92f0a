package config

import (
	"os"
	"strings"
	"time"
)

// KafkaConfig Kafka 配置。
// 当前用途单一：承载 WebSocket 事件发布失败后的重投队列。
// 消息投递本身不依赖 Kafka（Redis Pub/Sub 成功即完成），Kafka 只做兜底重试。
type KafkaConfig struct {
	Brokers           []string       `json:"brokers" yaml:"brokers"`
	EventRetryTopic   string         `json:"eventRetryTopic" yaml:"eventRetryTopic"`     // 事件重投 topic
	ConsumerConfig    ConsumerConfig `json:"consumerConfig" yaml:"consumerConfig"`       // 消费端配置
	ProducerBatchWait time.Duration  `json:"producerBatchWait" yaml:"producerBatchWait"` // 生产端攒批时间
}

// ConsumerConfig Kafka 消费端配置。
type ConsumerConfig struct {
	GroupID        string        `json:"groupId" yaml:"groupId"`
	MinBytes       int           `json:"minBytes" yaml:"minBytes"`
	MaxBytes       int           `json:"maxBytes" yaml:"maxBytes"`
	CommitInterval time.Duration `json:"commitInterval" yaml:"commitInterval"`
}

// DefaultKafkaConfig 返回本地开发的默认配置。
// Brokers 优先读取 KAFKA_BROKERS（逗号分隔）。
func DefaultKafkaConfig() KafkaConfig {
	brokers := []string{"127.0.0.1:9092"}
	if env := os.Getenv("KAFKA_BROKERS"); env != "" {
		brokers = strings.Split(env, ",")
	}
	return KafkaConfig{
		Brokers:         brokers,
		EventRetryTopic: "wavechat.ws.event.retry",
		ConsumerConfig: ConsumerConfig{
			GroupID:        "wavechat-event-retry",
			MinBytes:       1,
			MaxBytes:       1 << 20,
			CommitInterval: time.Second,
		},
		ProducerBatchWait: 10 * time.Millisecond,
	}
}
