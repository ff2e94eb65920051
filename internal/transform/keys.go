package transform

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// KeyGenerator hands out surrogate keys that are unique within a run
type KeyGenerator interface {
	Next() int64
}

// SnowflakeKeys generates time-ordered surrogate keys from a run-local snowflake node
type SnowflakeKeys struct {
	node *snowflake.Node
}

// NewSnowflakeKeys creates a key generator for the given node id (0-1023)
func NewSnowflakeKeys(nodeID int64) (*SnowflakeKeys, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &SnowflakeKeys{node: node}, nil
}

// Next returns the next surrogate key
func (k *SnowflakeKeys) Next() int64 {
	return k.node.Generate().Int64()
}
