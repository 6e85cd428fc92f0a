package ctxmeta

import (
	"context"

	"github.com/gin-gonic/gin"
)

// context key 沿用字符串键，与日志层的取值约定保持一致。
const (
	KeyTraceID  = "trace_id"
	KeyUserUUID = "user_uuid"
	KeyClientIP = "client_ip"
)

// WithTraceID 将 trace_id 写入 context。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, KeyTraceID, traceID)
}

// TraceID 读取 trace_id，不存在时返回空串。
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(KeyTraceID).(string)
	return v
}

// WithUserUUID 将当前用户 uuid 写入 context。
func WithUserUUID(ctx context.Context, userUUID string) context.Context {
	return context.WithValue(ctx, KeyUserUUID, userUUID)
}

// UserUUID 读取当前用户 uuid，不存在时返回空串。
func UserUUID(ctx context.Context) string {
	v, _ := ctx.Value(KeyUserUUID).(string)
	return v
}

// WithClientIP 将客户端 IP 写入 context。
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, KeyClientIP, ip)
}

// ClientIP 读取客户端 IP，不存在时返回空串。
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(KeyClientIP).(string)
	return v
}

// TraceIDFromGin 从 gin 上下文读取 trace_id（由 TraceLogger 中间件写入）。
func TraceIDFromGin(c *gin.Context) string {
	return c.GetString(KeyTraceID)
}
