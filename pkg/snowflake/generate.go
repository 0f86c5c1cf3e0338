package snowflake

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var errInvalidNodeID = errors.New("invalid snowflake node id")

// Generator 开发后端的 driverId 生成器
type Generator struct {
	node *snowflake.Node
}

// New datacenterID 和 machineID 都是 0~31，组合成 10 位节点号
func New(machineID, dataCenterID int64) (*Generator, error) {
	if machineID < 0 || machineID > 31 || dataCenterID < 0 || dataCenterID > 31 {
		return nil, fmt.Errorf("%w: machine=%d datacenter=%d", errInvalidNodeID, machineID, dataCenterID)
	}

	node, err := snowflake.NewNode((dataCenterID << 5) | machineID)
	if err != nil {
		return nil, err
	}
	return &Generator{node: node}, nil
}

// NextID 十进制字符串形式的 ID
func (g *Generator) NextID() string {
	return g.node.Generate().String()
}
