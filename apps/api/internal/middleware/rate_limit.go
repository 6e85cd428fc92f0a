package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"WaveChat/consts"
	rediskey "WaveChat/consts/redisKey"
	"WaveChat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// ==================== Redis 令牌桶 Lua 脚本 ====================

// luaTokenBucketRedis Redis 令牌桶 Lua 脚本
// 功能：原子性地更新令牌桶并判断是否允许通过
// 参数：
//
//	KEYS[1]: 限流 key (如: rate:limit:ip:{ip})
//	ARGV[1]: 当前时间戳 (毫秒)
//	ARGV[2]: 令牌桶容量
//	ARGV[3]: 每秒产生的令牌数
//	ARGV[4]: 每次请求消耗的令牌数
//
// 返回值：
//   - 1: 允许通过
//   - 0: 不允许通过 (令牌不足)
//
// 注意：时间戳使用毫秒级精度以提高计算准确性
const luaTokenBucketRedis = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3]) -- 每秒产生的令牌数
local requested = tonumber(ARGV[4])

-- 获取当前状态
local info = redis.call('HMGET', key, 'tokens', 'last_time')
local current_tokens = tonumber(info[1])
local last_time = tonumber(info[2])

-- 初始化
if current_tokens == nil then
    current_tokens = capacity
end
if last_time == nil then
    last_time = now
end

-- 计算时间差 (毫秒)
local time_diff = math.max(0, now - last_time)

-- 计算补充令牌: (时间差ms * 速率) / 1000
local new_tokens = math.floor((time_diff * rate) / 1000)

-- 更新令牌数
if new_tokens > 0 then
    current_tokens = math.min(capacity, current_tokens + new_tokens)
    last_time = now -- 只有产生了新令牌才更新时间，防止精度丢失
end

-- 判断是否允许通过
local allowed = 0
if current_tokens >= requested then
    current_tokens = current_tokens - requested
    allowed = 1
end

-- 更新 Redis
redis.call('HMSET', key, 'tokens', current_tokens, 'last_time', last_time)

-- 设置过期时间：桶填满所需时间 * 2，至少 60 秒
local fill_time = math.ceil(capacity / rate)
local ttl = math.max(60, fill_time * 2)
redis.call('EXPIRE', key, ttl)

return allowed
`

// ==================== Redis 限流器 ====================

// RedisRateLimiter 基于 Redis 的令牌桶限流器
// Redis 不可用时退化到单机 rate.Limiter，宁可放宽也不拖死入口
type RedisRateLimiter struct {
	redisClient *redis.Client
	rate        float64 // 每秒产生的令牌数
	burst       int     // 令牌桶容量
	mu          *sync.RWMutex

	localMu sync.Mutex
	local   map[string]*rate.Limiter // 降级用的单机令牌桶，按限流 key 分桶
}

// NewRedisRateLimiter 创建 Redis 限流器
// rate: 每秒产生的令牌数 (如: 10.0 表示每秒10个令牌)
// burst: 令牌桶容量 (如: 20 表示桶最多20个令牌)
func NewRedisRateLimiter(r float64, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{
		rate:  r,
		burst: burst,
		mu:    &sync.RWMutex{},
		local: make(map[string]*rate.Limiter),
	}
}

// RedisSetClient 设置 Redis 客户端
// 使用延迟初始化避免循环依赖
func (r *RedisRateLimiter) RedisSetClient(redisClient *redis.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redisClient = redisClient
}

// allowLocal 单机降级令牌桶，参数与 Redis 桶保持一致
func (r *RedisRateLimiter) allowLocal(key string) bool {
	r.localMu.Lock()
	defer r.localMu.Unlock()

	lim, ok := r.local[key]
	if !ok {
		// 降级 map 只增不减，上限兜底：超过 10 万个 key 直接放行，
		// 说明 Redis 已经挂了很久，限流精度让位于可用性
		if len(r.local) >= 100000 {
			return true
		}
		lim = rate.NewLimiter(rate.Limit(r.rate), r.burst)
		r.local[key] = lim
	}
	return lim.Allow()
}

// Allow 检查是否允许请求通过
// key: Redis 限流 key (如: rate:limit:ip:{ip})
// 返回值：
//   - bool: true 表示允许通过，false 表示被限流
//   - error: 错误信息，Redis 不可用时降级返回 nil
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	// 使用 RLock 读取 client，减少锁竞争
	r.mu.RLock()
	client := r.redisClient
	r.mu.RUnlock()

	if client == nil {
		// Redis 客户端未初始化，退化到单机限流
		return r.allowLocal(key), nil
	}

	now := time.Now().UnixMilli() // 当前时间戳（毫秒）

	// 给 Redis 操作加一个独立的短超时（50ms），防止 Redis 响应慢拖死入口
	redisCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	cmd := client.Eval(redisCtx, luaTokenBucketRedis, []string{key}, now, r.burst, r.rate, 1)
	result, err := cmd.Result()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "Redis 限流检查超时，退化到单机限流",
				logger.String("key", key),
				logger.ErrorField("error", err),
			)
			return r.allowLocal(key), nil
		}

		// 其他 Redis 错误
		logger.Error(ctx, "Redis 限流检查失败，退化到单机限流",
			logger.String("key", key),
			logger.ErrorField("error", err),
		)
		return r.allowLocal(key), nil
	}

	// Lua 脚本返回 1 表示允许通过，0 表示被限流
	allowed, ok := result.(int64)
	if !ok {
		// 类型断言失败，降级放行
		logger.Warn(ctx, "Redis 限流返回值类型错误，降级放行",
			logger.String("key", key),
			logger.Any("result", result),
		)
		return true, nil
	}

	return allowed == 1, nil
}

// ==================== 限流中间件 ====================

// 全局 Redis 限流器实例
var globalRedisLimiter *RedisRateLimiter

// InitRedisRateLimiter 初始化全局 Redis 限流器
// rate: 每秒产生的令牌数
// burst: 令牌桶容量
// redisClient: Redis 客户端实例
func InitRedisRateLimiter(rate float64, burst int, redisClient *redis.Client) {
	globalRedisLimiter = NewRedisRateLimiter(rate, burst)
	globalRedisLimiter.RedisSetClient(redisClient)

	logger.Info(context.Background(), "Redis 限流器初始化完成",
		logger.Float64("rate", rate),
		logger.Int("burst", burst),
	)
}

func rejectTooManyRequests(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"code":    consts.CodeTooManyRequests,
		"message": consts.GetMessage(consts.CodeTooManyRequests),
	})
	c.Abort()
}

// IPRateLimitMiddleware 基于 Redis 的 IP 级别限流中间件
// 放在认证之前，挡住匿名刷量
func IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := NewContextWithGin(c)

		// 1. 获取客户端 IP
		ip, exists := GetClientIPSafe(c)
		if !exists || ip == "" {
			// 无法获取 IP，放行请求（记录警告）
			logger.Warn(ctx, "无法获取客户端 IP，跳过限流检查",
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		// 2. 执行 IP 限流检查
		if globalRedisLimiter == nil {
			logger.Warn(ctx, "Redis 限流器未初始化，跳过限流检查",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		allowed, err := globalRedisLimiter.Allow(ctx, rediskey.IPRateLimitKey(ip))
		if err != nil {
			// Redis 错误，Allow 内部已降级放行
			logger.Warn(ctx, "Redis 限流检查异常，降级放行",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
				logger.ErrorField("error", err),
			)
		} else if !allowed {
			logger.Warn(ctx, "IP 请求被限流",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			rejectTooManyRequests(c)
			return
		}

		c.Next()
	}
}

// UserRateLimitMiddleware 基于用户 UUID 的限流中间件
// 需要在 JWTAuthMiddleware 之后使用
func UserRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := NewContextWithGin(c)

		// 1. 获取用户 UUID
		userUUID, exists := GetUserUUID(c)
		if !exists || userUUID == "" {
			// 无法获取用户 UUID，可能是未认证请求，放行
			logger.Warn(ctx, "无法获取用户 UUID，跳过用户限流检查",
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		// 2. 检查全局限流器是否初始化
		if globalRedisLimiter == nil {
			logger.Warn(ctx, "Redis 限流器未初始化，跳过用户限流检查",
				logger.String("user_uuid", userUUID),
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		// 3. 检查是否允许通过
		allowed, err := globalRedisLimiter.Allow(ctx, rediskey.UserRateLimitKey(userUUID))
		if err != nil {
			logger.Warn(ctx, "Redis 用户限流检查异常，降级放行",
				logger.String("user_uuid", userUUID),
				logger.String("path", c.Request.URL.Path),
				logger.ErrorField("error", err),
			)
		} else if !allowed {
			logger.Warn(ctx, "用户请求被限流",
				logger.String("user_uuid", userUUID),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			rejectTooManyRequests(c)
			return
		}

		c.Next()
	}
}
