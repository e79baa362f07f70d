package local

import (
	"fmt"

	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/fagongzi/util/json"
)

// Snapshot a topology mirror on local storage, keyed by topology id.
// It satisfies the sink consumed by the topology directory.
type Snapshot struct {
	store Storage
}

// NewSnapshot returns a snapshot mirror backed by badger at dir
func NewSnapshot(dir string) (*Snapshot, error) {
	store, err := NewBadgerStorage(dir)
	if err != nil {
		return nil, err
	}

	return NewSnapshotStorage(store), nil
}

// NewSnapshotStorage returns a snapshot mirror on an existing store
func NewSnapshotStorage(store Storage) *Snapshot {
	return &Snapshot{store: store}
}

// SaveGroup mirrors a refreshed group membership
func (s *Snapshot) SaveGroup(topologyID, group string, servers []meta.Server) error {
	return s.store.Set(groupKey(topologyID, group), json.MustMarshal(servers))
}

// SaveShard mirrors refreshed shard layout rows, one entry per table
func (s *Snapshot) SaveShard(topologyID string, rows []meta.ShardInfo) error {
	tables := make(map[string][]meta.ShardInfo)
	for _, row := range rows {
		name := fmt.Sprintf("%s.%s", row.Database, row.Table)
		tables[name] = append(tables[name], row)
	}

	for name, value := range tables {
		err := s.store.Set(shardKey(topologyID, name), json.MustMarshal(value))
		if err != nil {
			return err
		}
	}

	return nil
}

// LoadGroups returns the last mirrored membership of every group
func (s *Snapshot) LoadGroups(topologyID string) (map[string][]meta.Server, error) {
	groups := make(map[string][]meta.Server)
	prefix := groupKey(topologyID, "")
	err := s.store.Range(prefix, 0, func(key, value []byte) bool {
		var servers []meta.Server
		json.MustUnmarshal(&servers, value)
		groups[string(key[len(prefix):])] = servers
		return true
	})

	if err != nil {
		return nil, err
	}

	return groups, nil
}

// LoadShards returns the last mirrored shard layout rows per table
func (s *Snapshot) LoadShards(topologyID string) (map[string][]meta.ShardInfo, error) {
	shards := make(map[string][]meta.ShardInfo)
	prefix := shardKey(topologyID, "")
	err := s.store.Range(prefix, 0, func(key, value []byte) bool {
		var rows []meta.ShardInfo
		json.MustUnmarshal(&rows, value)
		shards[string(key[len(prefix):])] = rows
		return true
	})

	if err != nil {
		return nil, err
	}

	return shards, nil
}

func groupKey(topologyID, group string) []byte {
	return []byte(fmt.Sprintf("g/%s/%s", topologyID, group))
}

func shardKey(topologyID, table string) []byte {
	return []byte(fmt.Sprintf("s/%s/%s", topologyID, table))
}
