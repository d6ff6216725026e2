package pkg

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
	nodeErr  error
)

// InitID 初始化 snowflake 节点，只有第一次调用生效
func InitID(nodeID int64) error {
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(nodeID)
	})
	return nodeErr
}

// NewID 生成按时间递增的全局唯一 ID；未初始化时使用节点 1
func NewID() uint64 {
	if err := InitID(1); err != nil {
		panic(err)
	}
	return uint64(node.Generate().Int64())
}

// ParseID 解析路径/请求体里的字符串 ID
func ParseID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
