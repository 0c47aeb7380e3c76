package common

import (
	"github.com/bwmarrin/snowflake"
)

var idnode *snowflake.Node

func init() {
	var err error
	idnode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a time-ordered unique int64 id.
func UUIDint64() int64 {
	return idnode.Generate().Int64()
}
