package tools

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sirupsen/logrus"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

func snowflakeNode() *snowflake.Node {
	nodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			logrus.Panicf("snowflake node init err: %s", err.Error())
		}
		node = n
	})
	return node
}

// GetSnowflakeIdForInt64 returns a time-ordered unique id.
func GetSnowflakeIdForInt64() int64 {
	return snowflakeNode().Generate().Int64()
}

func GetNowDateTime() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// GetNowStamp is the compact timestamp used in output directory names.
func GetNowStamp() string {
	return time.Now().Format("20060102_150405")
}
