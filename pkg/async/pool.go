package async

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"WaveChat/config"
	"WaveChat/pkg/ctxmeta"
	"WaveChat/pkg/logger"

	"github.com/panjf2000/ants/v2"
)

var (
	global   *ants.Pool
	globalMu sync.Mutex
	cfgCopy  config.AsyncConfig
)

// ErrNotInitialized 表示协程池尚未初始化。
var ErrNotInitialized = errors.New("async pool not initialized")

// Pool 返回全局协程池（未初始化时为 nil）。
func Pool() *ants.Pool { return global }

// Build 根据配置创建协程池实例。
func Build(cfg config.AsyncConfig) (*ants.Pool, error) {
	opts := []ants.Option{
		ants.WithMaxBlockingTasks(cfg.MaxBlockingTasks),
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithPanicHandler(func(p any) {
			if logger.L() != nil {
				logger.Error(context.Background(), "async task panic",
					logger.Any("panic", p),
					logger.String("stack", string(debug.Stack())),
				)
			}
		}),
	}
	if cfg.Nonblocking {
		opts = append(opts, ants.WithNonblocking(true))
	}

	return ants.NewPool(cfg.PoolSize, opts...)
}

// Init 初始化全局协程池（仅需在进程启动时调用一次）。
func Init(cfg config.AsyncConfig) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return nil
	}

	p, err := Build(cfg)
	if err != nil {
		return err
	}

	global = p
	cfgCopy = cfg
	return nil
}

// Submit 将任务投递到全局协程池。
func Submit(task func()) error {
	if global == nil {
		return ErrNotInitialized
	}
	return global.Submit(task)
}

// Release 优雅释放协程池资源（等待任务执行完）。
func Release() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return nil
	}

	var err error
	if cfgCopy.ReleaseTimeout > 0 {
		err = global.ReleaseTimeout(cfgCopy.ReleaseTimeout)
	} else {
		global.Release()
	}
	global = nil
	return err
}

// RunSafe 在协程池中执行带超时的异步任务。
// 任务 ctx 与请求 ctx 脱钩（请求结束不取消后置任务），
// 但会透传 trace_id/user_uuid 便于日志串联。
func RunSafe(ctx context.Context, task func(ctx context.Context), timeout time.Duration) {
	if task == nil {
		return
	}
	if timeout <= 0 {
		timeout = time.Minute
	}

	baseCtx := context.Background()
	if ctx != nil {
		if traceID := ctxmeta.TraceID(ctx); traceID != "" {
			baseCtx = ctxmeta.WithTraceID(baseCtx, traceID)
		}
		if userUUID := ctxmeta.UserUUID(ctx); userUUID != "" {
			baseCtx = ctxmeta.WithUserUUID(baseCtx, userUUID)
		}
	}

	run := func() {
		taskCtx, cancel := context.WithTimeout(baseCtx, timeout)
		defer cancel()
		task(taskCtx)
	}

	if err := Submit(run); err != nil {
		// 协程池不可用时退化为直接起协程，保证任务不丢。
		logger.Warn(baseCtx, "协程池提交失败，降级为原生 goroutine",
			logger.ErrorField("error", err),
		)
		go run()
	}
}
