// Package cache holds the version- and TTL-scoped routing facts
// fetched from the topology service.
package cache

import (
	"fmt"
	"time"

	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/fagongzi/log"
)

// DefaultTTL entry lifetime used until the topology service reports one
const DefaultTTL = time.Minute

type entry struct {
	added   time.Time
	version uint64
}

// GroupEntry cached membership of one replication group
type GroupEntry struct {
	entry
	Servers []meta.Server
}

// ShardEntry cached sharding layout of one table
type ShardEntry struct {
	entry
	Shard *meta.Shard
}

// RoutingCache caches group membership lists and shard maps. Entries
// are valid only while their version matches the cache's current
// version token and they are younger than the TTL; invalid entries
// behave as absent on read and are evicted lazily.
//
// Not safe for concurrent use; callers synchronize externally.
type RoutingCache struct {
	version uint64
	ttl     time.Duration
	groups  map[string]*GroupEntry
	shards  map[string]*ShardEntry
}

// NewRoutingCache returns an empty cache
func NewRoutingCache() *RoutingCache {
	return &RoutingCache{
		ttl:    DefaultTTL,
		groups: make(map[string]*GroupEntry),
		shards: make(map[string]*ShardEntry),
	}
}

// SetScope updates the version token and TTL every entry is validated
// against. A ttl <= 0 keeps the current one.
func (c *RoutingCache) SetScope(version uint64, ttl time.Duration) {
	c.version = version
	if ttl > 0 {
		c.ttl = ttl
	}
}

// Version returns the current version token
func (c *RoutingCache) Version() uint64 {
	return c.version
}

// TTL returns the current entry lifetime
func (c *RoutingCache) TTL() time.Duration {
	return c.ttl
}

func (e *entry) valid(version uint64, ttl time.Duration) bool {
	return e.version == version && time.Since(e.added) < ttl
}

// CacheGroup replaces the membership entry for group wholesale
func (c *RoutingCache) CacheGroup(group string, servers []meta.Server) {
	c.groups[group] = &GroupEntry{
		entry:   entry{added: time.Now(), version: c.version},
		Servers: servers,
	}

	log.Debugf("[cache]: group %s cached with %d servers at version %d",
		group,
		len(servers),
		c.version)
}

// GroupSearch returns the membership entry for group, or nil when
// absent, expired or fetched under another version.
func (c *RoutingCache) GroupSearch(group string) *GroupEntry {
	e, ok := c.groups[group]
	if !ok || !e.valid(c.version, c.ttl) {
		return nil
	}

	return e
}

// CacheShard caches the sharding layout of database.table. Shard
// entries do not expire; they live until explicitly invalidated.
func (c *RoutingCache) CacheShard(shard *meta.Shard) {
	c.shards[shardKey(shard.Database, shard.Table)] = &ShardEntry{
		entry: entry{added: time.Now(), version: c.version},
		Shard: shard,
	}

	log.Debugf("[cache]: shard %s.%s cached with %d partitions",
		shard.Database,
		shard.Table,
		shard.Partitions())
}

// ShardSearch returns the sharding layout of database.table, or nil
func (c *RoutingCache) ShardSearch(database, table string) *ShardEntry {
	e, ok := c.shards[shardKey(database, table)]
	if !ok {
		return nil
	}

	return e
}

// InvalidateGroup drops the membership entry for group
func (c *RoutingCache) InvalidateGroup(group string) {
	delete(c.groups, group)
}

// InvalidateAll drops every membership and shard entry
func (c *RoutingCache) InvalidateAll() {
	c.groups = make(map[string]*GroupEntry)
	c.shards = make(map[string]*ShardEntry)
}

// Groups returns the currently valid cached memberships
func (c *RoutingCache) Groups() map[string][]meta.Server {
	values := make(map[string][]meta.Server)
	for group, e := range c.groups {
		if e.valid(c.version, c.ttl) {
			values[group] = e.Servers
		}
	}

	return values
}

// Shards returns the cached sharding layouts keyed by database.table
func (c *RoutingCache) Shards() map[string]*meta.Shard {
	values := make(map[string]*meta.Shard)
	for key, e := range c.shards {
		values[key] = e.Shard
	}

	return values
}

func shardKey(database, table string) string {
	return fmt.Sprintf("%s.%s", database, table)
}
