package rediskey

import (
	"fmt"
	"time"
)

// ==================== Pub/Sub Channel 构造函数 ====================

// ConvEventChannelPrefix 会话事件频道前缀。
// api 服务按接收方维度发布，connect 服务使用 PSUBSCRIBE 订阅整个前缀。
const ConvEventChannelPrefix = "ws:conv:events:"

// ConvEventChannel 生成会话事件频道: ws:conv:events:{user_uuid}
func ConvEventChannel(userUUID string) string {
	return ConvEventChannelPrefix + userUUID
}

// ConvEventChannelPattern 返回 connect 服务订阅用的通配模式。
func ConvEventChannelPattern() string {
	return ConvEventChannelPrefix + "*"
}

// UserUUIDFromChannel 从频道名还原接收方 UUID，非本前缀时返回空串。
func UserUUIDFromChannel(channel string) string {
	if len(channel) <= len(ConvEventChannelPrefix) {
		return ""
	}
	if channel[:len(ConvEventChannelPrefix)] != ConvEventChannelPrefix {
		return ""
	}
	return channel[len(ConvEventChannelPrefix):]
}

// ==================== 关系缓存 Key 构造函数 ====================

// 关系缓存 TTL。空集合缓存时间短一些，防止长时间挡住回源。
const (
	RelationCacheTTL      = 24 * time.Hour
	RelationCacheEmptyTTL = 5 * time.Minute
)

// RelationCacheEmptyMember 空集合占位成员。
// 保证 Key 存在即权威：SIsMember 对占位成员永远返回 false。
const RelationCacheEmptyMember = "__EMPTY__"

// FollowSetKey 用户关注集合 Key: rel:follow:{user_uuid}
// Set 成员为该用户关注的 peer_uuid。
func FollowSetKey(userUUID string) string {
	return fmt.Sprintf("rel:follow:%s", userUUID)
}

// BlockSetKey 用户拉黑集合 Key: rel:block:{user_uuid}
// Set 成员为该用户拉黑的 peer_uuid（单向视角，双向判定由调用方查两侧）。
func BlockSetKey(userUUID string) string {
	return fmt.Sprintf("rel:block:%s", userUUID)
}

// ==================== 限流 Key 构造函数 ====================

// IPRateLimitKey 入口 IP 限流 Key: rate:limit:ip:{ip}
func IPRateLimitKey(ip string) string {
	return fmt.Sprintf("rate:limit:ip:%s", ip)
}

// UserRateLimitKey 用户级限流 Key: rate:limit:user:{user_uuid}
func UserRateLimitKey(userUUID string) string {
	return fmt.Sprintf("rate:limit:user:%s", userUUID)
}
