// Package topology resolves logical routing targets to concrete
// database servers, caching what the remote topology service reports.
package topology

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/adyliu/gofabric/pkg/balancer"
	"github.com/adyliu/gofabric/pkg/cache"
	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/adyliu/gofabric/pkg/metrics"
	"github.com/fagongzi/log"
)

// Directory coordinates a set of links to the topology service, the
// routing cache and the per-group replica balancers. It answers which
// server should serve a group or a shard key, and handles fault
// reporting and cache invalidation.
//
// A Directory is not safe for concurrent use; callers sharing one
// across goroutines must synchronize externally.
type Directory struct {
	opts      options
	info      meta.TopologyInfo
	links     map[string]Caller
	order     []string
	cache     *cache.RoutingCache
	balancers map[string]*balancer.WeightedRoundRobin
}

// NewDirectory returns an empty directory; seed it with Discover
func NewDirectory(opts ...Option) *Directory {
	d := &Directory{
		links:     make(map[string]Caller),
		cache:     cache.NewRoutingCache(),
		balancers: make(map[string]*balancer.WeightedRoundRobin),
	}

	for _, opt := range opts {
		opt(&d.opts)
	}
	d.opts.adjust()

	return d
}

// Info returns the currently held topology identity, version and TTL
func (d *Directory) Info() meta.TopologyInfo {
	return d.info
}

// Nodes returns the endpoint uris of the known topology nodes
func (d *Directory) Nodes() []string {
	var uris []string
	for _, identity := range d.order {
		uris = append(uris, d.links[identity].URI())
	}

	return uris
}

// CachedGroups returns the currently valid cached memberships
func (d *Directory) CachedGroups() map[string][]meta.Server {
	return d.cache.Groups()
}

// CachedShards returns the cached shard layouts
func (d *Directory) CachedShards() map[string]*meta.Shard {
	return d.cache.Shards()
}

// Discover contacts the seed node, loads the topology identity,
// version token and TTL, and merges in any newly seen fellow nodes.
// A fetch that reports the already-held version is a no-op.
func (d *Directory) Discover(host string, port int) error {
	seed := d.opts.dial(host, port)
	if err := seed.Connect(); err != nil {
		return err
	}

	info, addrs, err := seed.LookupNodes()
	if err != nil {
		return err
	}

	if len(addrs) == 0 {
		return meta.NewRoutingErrorf("topology seed %s:%d returned no node list", host, port)
	}

	if d.info.Version == info.Version && len(d.links) > 0 {
		return nil
	}

	log.Infof("[topology-%s]: loading configuration version %d, ttl %d",
		info.ID,
		info.Version,
		info.TTL)
	d.info = info
	d.cache.SetScope(info.Version, time.Duration(info.TTL)*time.Second)
	metrics.VersionGauge.Set(float64(info.Version))

	for _, addr := range addrs {
		nodeHost, nodePort := splitNodeAddr(addr)
		l := d.opts.dial(nodeHost, nodePort)
		if _, ok := d.links[l.Identity()]; ok {
			continue
		}

		if err := l.Connect(); err != nil {
			return err
		}

		d.links[l.Identity()] = l
		d.order = append(d.order, l.Identity())
		log.Infof("[topology-%s]: node %s added",
			info.ID,
			l.URI())
	}

	return nil
}

// instance returns a connected link
func (d *Directory) instance() (Caller, error) {
	if len(d.order) == 0 {
		return nil, meta.NewRoutingErrorf("no topology node available (not seeded?)")
	}

	var last error
	for _, identity := range d.order {
		l := d.links[identity]
		if err := l.Connect(); err != nil {
			last = err
			continue
		}

		return l, nil
	}

	return nil, meta.WrapRoutingError(last, "no topology node reachable")
}

// GroupServers returns the membership of group. A cache hit (when
// useCache) answers from the cache; otherwise the membership is
// re-fetched, the group's replica balancer is rebuilt from the
// SECONDARY entries weighted by their weight, and the cache entry is
// replaced wholesale.
func (d *Directory) GroupServers(group string, useCache bool) ([]meta.Server, error) {
	if useCache {
		if e := d.cache.GroupSearch(group); e != nil {
			metrics.CacheCounter.WithLabelValues(metrics.KindGroup, metrics.CacheHit).Inc()
			return e.Servers, nil
		}
	}
	metrics.CacheCounter.WithLabelValues(metrics.KindGroup, metrics.CacheMiss).Inc()

	inst, err := d.instance()
	if err != nil {
		return nil, err
	}

	_, dump, err := inst.DumpMembers(d.info.Version, group)
	if err != nil {
		return nil, err
	}

	// the dump may include co-located groups
	var servers []meta.Server
	var candidates []balancer.Candidate
	for _, s := range dump {
		if s.Group != group {
			continue
		}

		servers = append(servers, s)
		if s.Status == meta.StatusSecondary {
			candidates = append(candidates, balancer.Candidate{ID: s.UUID, Weight: s.Weight})
		}
	}

	d.cache.CacheGroup(group, servers)
	if len(candidates) > 0 {
		d.balancers[group] = balancer.NewWeightedRoundRobin(candidates...)
	}

	if err := d.opts.sink.SaveGroup(d.info.ID, group, servers); err != nil {
		log.Warnf("[topology-%s]: mirror group %s failed with %+v",
			d.info.ID,
			group,
			err)
	}

	return servers, nil
}

// ResolveGroup returns the server of group that should serve the
// request. At most one of mode and status may be given. A write mode
// or PRIMARY status returns the primary; a read request prefers a
// balanced secondary and falls back to the primary. When no eligible
// server exists the group's cache entry is invalidated and a
// RoutingError raised.
func (d *Directory) ResolveGroup(group string, mode meta.ServerMode, status meta.ServerStatus) (meta.Server, error) {
	if mode != meta.ModeNone && status != meta.StatusNone {
		return meta.Server{}, meta.NewConfigurationErrorf("either mode or status must be given, not both")
	}

	start := time.Now()
	server, err := d.resolveGroup(group, mode, status)
	metrics.ResolveDurationHistogram.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ResolveCounter.WithLabelValues(metrics.TargetGroup, metrics.StatusFailed).Inc()
		return meta.Server{}, err
	}

	metrics.ResolveCounter.WithLabelValues(metrics.TargetGroup, metrics.StatusSucceed).Inc()
	return server, nil
}

func (d *Directory) resolveGroup(group string, mode meta.ServerMode, status meta.ServerStatus) (meta.Server, error) {
	servers, err := d.GroupServers(group, true)
	if err != nil {
		return meta.Server{}, err
	}

	var primary *meta.Server
	var secondaries []meta.Server
	for i := range servers {
		switch servers[i].Status {
		case meta.StatusPrimary:
			primary = &servers[i]
		case meta.StatusSecondary:
			secondaries = append(secondaries, servers[i])
		}
	}

	if mode.CanWrite() || status == meta.StatusPrimary {
		if primary == nil {
			d.InvalidateGroup(group)
			return meta.Server{}, meta.NewRoutingErrorf("no primary available for group %s", group)
		}

		return *primary, nil
	}

	if len(secondaries) == 0 {
		if primary != nil {
			return *primary, nil
		}

		d.InvalidateGroup(group)
		return meta.Server{}, meta.NewRoutingErrorf("no server available for group %s", group)
	}

	if b, ok := d.balancers[group]; ok {
		next := b.Next()
		for _, s := range secondaries {
			if s.UUID == next {
				return s, nil
			}
		}
	}

	// the balancer no longer matches the cached secondary set
	d.InvalidateGroup(group)
	return meta.Server{}, meta.NewRoutingErrorf("stale replica state for group %s", group)
}

// ShardInfo fetches and caches the shard layout for the given table
// references. A reference is either database.table or a bare table
// name resolved against database.
func (d *Directory) ShardInfo(tables []string, database string) error {
	var patterns []string
	for _, table := range tables {
		db, tbl := database, table
		if idx := strings.Index(table, "."); idx >= 0 {
			db, tbl = table[:idx], table[idx+1:]
		}
		if db == "" {
			return meta.NewConfigurationErrorf("no database specified for table %s", table)
		}

		patterns = append(patterns, db+"."+tbl)
	}

	inst, err := d.instance()
	if err != nil {
		return err
	}

	_, rows, err := inst.DumpShards(d.info.Version, strings.Join(patterns, ","))
	if err != nil {
		return err
	}

	shards := make(map[string]*meta.Shard)
	var keys []string
	for _, row := range rows {
		key := row.Database + "." + row.Table
		shard, ok := shards[key]
		if !ok {
			shard = meta.NewShard(row.Database, row.Table, row.Column, row.Type, row.GlobalGroup)
			shards[key] = shard
			keys = append(keys, key)
		}

		if err := shard.AddPartition(row.Boundary, row.Group); err != nil {
			return err
		}
	}

	for _, key := range keys {
		d.cache.CacheShard(shards[key])
	}

	if len(rows) > 0 {
		if err := d.opts.sink.SaveShard(d.info.ID, rows); err != nil {
			log.Warnf("[topology-%s]: mirror shard layout failed with %+v",
				d.info.ID,
				err)
		}
	}

	return nil
}

// ResolveShard returns the server that owns key for the given tables.
// Scope GLOBAL targets the cluster-wide coordination group of the
// first table's shard; scope LOCAL resolves the controlling group per
// table and requires all tables to land in the same shard.
func (d *Directory) ResolveShard(tables []string, key string, scope meta.Scope, mode meta.ServerMode) (meta.Server, error) {
	if len(tables) == 0 {
		return meta.Server{}, meta.NewConfigurationErrorf("tables must not be empty")
	}

	group := ""
	for _, table := range tables {
		idx := strings.Index(table, ".")
		if idx <= 0 || idx == len(table)-1 {
			return meta.Server{}, meta.NewConfigurationErrorf("tables should be given as <database>.<table>, was %s", table)
		}
		db, tbl := table[:idx], table[idx+1:]

		e := d.cache.ShardSearch(db, tbl)
		if e == nil {
			metrics.CacheCounter.WithLabelValues(metrics.KindShard, metrics.CacheMiss).Inc()
			if err := d.ShardInfo([]string{tbl}, db); err != nil {
				metrics.ResolveCounter.WithLabelValues(metrics.TargetShard, metrics.StatusFailed).Inc()
				return meta.Server{}, err
			}

			e = d.cache.ShardSearch(db, tbl)
			if e == nil {
				metrics.ResolveCounter.WithLabelValues(metrics.TargetShard, metrics.StatusFailed).Inc()
				return meta.Server{}, meta.NewRoutingErrorf("no sharding information for %s.%s", db, tbl)
			}
		} else {
			metrics.CacheCounter.WithLabelValues(metrics.KindShard, metrics.CacheHit).Inc()
		}

		if scope == meta.ScopeGlobal {
			return d.ResolveGroup(e.Shard.GlobalGroup, mode, meta.StatusNone)
		}

		g, err := e.Shard.GroupFor(key)
		if err != nil {
			metrics.ResolveCounter.WithLabelValues(metrics.TargetShard, metrics.StatusFailed).Inc()
			return meta.Server{}, err
		}

		if group == "" {
			group = g
		} else if group != g {
			metrics.ResolveCounter.WithLabelValues(metrics.TargetShard, metrics.StatusFailed).Inc()
			return meta.Server{}, meta.NewRoutingErrorf("tables located in different shards")
		}
	}

	return d.ResolveGroup(group, mode, meta.StatusNone)
}

// ReportFault forwards a server status change to the topology
// service. Best effort: failures are logged, routing never blocks on
// the result.
func (d *Directory) ReportFault(serverUUID string, status meta.ServerStatus, group string) {
	metrics.FaultCounter.WithLabelValues(group).Inc()

	inst, err := d.instance()
	if err != nil {
		log.Warnf("[topology-%s]: report server %s %s failed with %+v",
			d.info.ID,
			serverUUID,
			status.Name(),
			err)
		return
	}

	if err := inst.SetServerStatus(serverUUID, status); err != nil {
		log.Warnf("[topology-%s]: report server %s %s failed with %+v",
			d.info.ID,
			serverUUID,
			status.Name(),
			err)
		return
	}

	log.Infof("[topology-%s]: server %s reported %s",
		d.info.ID,
		serverUUID,
		status.Name())
}

// InvalidateGroup drops the cached membership and replica balancer of
// one group.
func (d *Directory) InvalidateGroup(group string) {
	log.Debugf("[topology-%s]: invalidate group %s",
		d.info.ID,
		group)
	d.cache.InvalidateGroup(group)
	delete(d.balancers, group)
}

// InvalidateAll drops every cached membership and shard layout
func (d *Directory) InvalidateAll() {
	log.Debugf("[topology-%s]: invalidate all",
		d.info.ID)
	d.cache.InvalidateAll()
	d.balancers = make(map[string]*balancer.WeightedRoundRobin)
}

func splitNodeAddr(addr string) (string, int) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, meta.DefaultTopologyPort
	}

	value, err := strconv.Atoi(port)
	if err != nil {
		return host, meta.DefaultTopologyPort
	}

	return host, value
}
