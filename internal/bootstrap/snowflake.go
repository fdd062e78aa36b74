package bootstrap

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
	"os"

	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/chnu/award-monitoring-system/pkg/snowflake"
	snowflakeImpl "github.com/chnu/award-monitoring-system/pkg/snowflake/implementation"
)

var ErrHostnameNotSet = errors.New("HOSTNAME is not set")

// InitializeSnowflake derives the node id from the pod hostname. Outside a pod
// it falls back to node 0.
func InitializeSnowflake(log observability.Logger) (snowflake.Snowflake, error) {
	nodeID, err := PodNodeID()
	if errors.Is(err, ErrHostnameNotSet) {
		log.Warn("HOSTNAME is not set, using snowflake node 0")
		nodeID = 0
	} else if err != nil {
		return nil, err
	}
	return snowflakeImpl.NewSnowflake(nodeID)
}

func PodNodeID() (int64, error) {
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		return 0, ErrHostnameNotSet
	}

	h := fnv.New64a()
	h.Write([]byte(hostname))
	nodeID := int64(binary.BigEndian.Uint64(h.Sum(nil)) % 1024)

	return nodeID, nil
}
