package idgen

import (
	"errors"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	global   *snowflake.Node
	globalMu sync.Mutex
)

// ErrNotInitialized 表示 ID 生成器尚未初始化。
var ErrNotInitialized = errors.New("idgen not initialized")

// Init 初始化全局 snowflake 节点（仅需在进程启动时调用一次）。
// nodeID 取自 SNOWFLAKE_NODE_ID，未设置时默认 0；
// 多副本部署必须为每个副本分配不同的 nodeID，否则会产生重复 ID。
func Init() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return nil
	}

	nodeID := int64(0)
	if env := os.Getenv("SNOWFLAKE_NODE_ID"); env != "" {
		parsed, err := strconv.ParseInt(env, 10, 64)
		if err != nil {
			return err
		}
		nodeID = parsed
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	global = node
	return nil
}

// NextID 生成下一个消息 ID。
// snowflake 高位是毫秒时间戳，低位是节点内序号：
// 单节点内严格单调递增，满足消息排序与分页游标的稳定性要求。
func NextID() (int64, error) {
	if global == nil {
		return 0, ErrNotInitialized
	}
	return global.Generate().Int64(), nil
}
