package config

import (
	"os"
	"time"
)

// ServerConfig api 服务 HTTP 配置。
// 超时用于限制异常连接占用资源，避免慢连接拖垮服务。
type ServerConfig struct {
	Addr              string        `json:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
	ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	RequestTimeout    time.Duration `json:"requestTimeout" yaml:"requestTimeout"` // 单请求业务超时
}

// DefaultServerConfig 返回 api 服务的默认配置。
// 端口优先读取 API_ADDR，未设置时默认监听 :8080。
func DefaultServerConfig() ServerConfig {
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return ServerConfig{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		RequestTimeout:    5 * time.Second,
	}
}

// RateLimitConfig 入口限流配置（IP 级令牌桶）。
type RateLimitConfig struct {
	Rate  float64 `json:"rate" yaml:"rate"`   // 每秒产生的令牌数
	Burst int     `json:"burst" yaml:"burst"` // 令牌桶容量
}

// DefaultRateLimitConfig 返回默认限流配置。
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Rate:  20,
		Burst: 40,
	}
}
