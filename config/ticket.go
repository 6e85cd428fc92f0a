package config

import (
	"os"
	"time"
)

// TicketConfig WebSocket 升级票据配置。
// 票据只授权一次 WebSocket 升级，有效窗口必须足够短（默认 10 秒）。
type TicketConfig struct {
	Secret     string        `json:"secret" yaml:"secret"`         // HMAC 签名密钥（api/connect 必须一致）
	MaxAge     time.Duration `json:"maxAge" yaml:"maxAge"`         // 票据最大有效期
	ReplaySize int           `json:"replaySize" yaml:"replaySize"` // 单进程防重放缓存容量
}

// AccessTokenConfig HTTP 访问令牌配置。
type AccessTokenConfig struct {
	Secret string        `json:"secret" yaml:"secret"`
	Expire time.Duration `json:"expire" yaml:"expire"`
}

// DefaultTicketConfig 返回默认票据配置。
// Secret 优先读取 WS_TICKET_SECRET，开发环境允许内置默认值。
func DefaultTicketConfig() TicketConfig {
	secret := os.Getenv("WS_TICKET_SECRET")
	if secret == "" {
		secret = "wavechat-dev-ticket-secret"
	}
	return TicketConfig{
		Secret:     secret,
		MaxAge:     10 * time.Second,
		ReplaySize: 4096,
	}
}

// DefaultAccessTokenConfig 返回默认访问令牌配置。
func DefaultAccessTokenConfig() AccessTokenConfig {
	secret := os.Getenv("ACCESS_TOKEN_SECRET")
	if secret == "" {
		secret = "wavechat-dev-access-secret"
	}
	return AccessTokenConfig{
		Secret: secret,
		Expire: 24 * time.Hour,
	}
}
