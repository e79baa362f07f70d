package metrics

const (
	// StatusSucceed succeed
	StatusSucceed = "succeed"
	// StatusFailed failed
	StatusFailed = "failed"

	// CacheHit cache hit
	CacheHit = "hit"
	// CacheMiss cache miss
	CacheMiss = "miss"

	// KindGroup group membership facts
	KindGroup = "group"
	// KindShard shard layout facts
	KindShard = "shard"

	// TargetGroup resolution against a replication group
	TargetGroup = "group"
	// TargetShard resolution against a shard key
	TargetShard = "shard"
)
