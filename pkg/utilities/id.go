package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. Used for user ids.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodesMu sync.Mutex
	nodes   = map[int64]*snowflake.Node{}
)

// NewSnowflakeID generates a snowflake ID string using a node ID from
// the environment variable SNOWFLAKE_NODE (default 1).
func NewSnowflakeID() string {
	nodeID, err := strconv.ParseInt(os.Getenv("SNOWFLAKE_NODE"), 10, 64)
	if err != nil {
		nodeID = 1
	}
	return NewSnowflakeIDWithNode(nodeID)
}

// NewSnowflakeIDWithNode generates a snowflake ID string using the provided node ID.
// Nodes are cached so ids from one process stay monotonic.
// If the node cannot be initialized, it falls back to a KSUID string.
func NewSnowflakeIDWithNode(nodeID int64) string {
	nodesMu.Lock()
	node, ok := nodes[nodeID]
	if !ok {
		n, err := snowflake.NewNode(nodeID)
		if err != nil {
			nodesMu.Unlock()
			return NewKSUID()
		}
		nodes[nodeID] = n
		node = n
	}
	nodesMu.Unlock()
	return node.Generate().String()
}
