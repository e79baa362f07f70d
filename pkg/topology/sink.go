package topology

import (
	"github.com/adyliu/gofabric/pkg/meta"
)

// Sink receives every refreshed topology fact the directory fetches.
// Implementations persist them for diagnostics; failures must be
// reported via the error return and never block routing.
type Sink interface {
	// SaveGroup mirrors a refreshed group membership
	SaveGroup(topologyID, group string, servers []meta.Server) error
	// SaveShard mirrors the refreshed shard layout rows of one dump
	SaveShard(topologyID string, rows []meta.ShardInfo) error
}

type noopSink struct{}

func (noopSink) SaveGroup(string, string, []meta.Server) error { return nil }
func (noopSink) SaveShard(string, []meta.ShardInfo) error      { return nil }
