package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	mu     sync.RWMutex
	node   = mustNode(1)
	nodeID int64 = 1
)

// Setup changes the snowflake node, one per running instance.
func Setup(instance int64) error {
	nd, err := snowflake.NewNode(instance)
	if err != nil {
		return err
	}
	mu.Lock()
	node = nd
	nodeID = instance
	mu.Unlock()
	return nil
}

func Next() int64 {
	mu.RLock()
	defer mu.RUnlock()
	return node.Generate().Int64()
}

func NextSeq() string {
	mu.RLock()
	defer mu.RUnlock()
	return node.Generate().String()
}

func GetNodeId() int64 {
	mu.RLock()
	defer mu.RUnlock()
	return nodeID
}

func mustNode(n int64) *snowflake.Node {
	nd, err := snowflake.NewNode(n)
	if err != nil {
		panic(err)
	}
	return nd
}
