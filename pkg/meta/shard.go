package meta

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/google/btree"
)

// ShardType table partitioning scheme
type ShardType string

var (
	// ShardTypeRange boundaries are numeric lower bounds
	ShardTypeRange = ShardType("RANGE")
	// ShardTypeHash boundaries are big-endian digests
	ShardTypeHash = ShardType("HASH")
)

// ShardInfo one partition row of a sharding dump. Rows sharing
// (database, table) together describe one Shard.
type ShardInfo struct {
	Database    string    `json:"database"`
	Table       string    `json:"table"`
	Column      string    `json:"column"`
	Boundary    string    `json:"boundary"`
	ShardID     uint64    `json:"shardID"`
	Type        ShardType `json:"type"`
	Group       string    `json:"group"`
	GlobalGroup string    `json:"globalGroup"`
}

// Shard sharding layout of one table. Immutable once built and cached;
// a changed layout requires explicit invalidation.
type Shard struct {
	Database    string
	Table       string
	Column      string
	Type        ShardType
	GlobalGroup string

	ranges *btree.BTree
	hashes []hashBoundary
}

type rangeBoundary struct {
	lower int64
	group string
}

func (b rangeBoundary) Less(than btree.Item) bool {
	return b.lower < than.(rangeBoundary).lower
}

type hashBoundary struct {
	lower []byte
	group string
}

// NewShard returns an empty shard layout
func NewShard(database, table, column string, typ ShardType, globalGroup string) *Shard {
	return &Shard{
		Database:    database,
		Table:       table,
		Column:      column,
		Type:        typ,
		GlobalGroup: globalGroup,
		ranges:      btree.New(4),
	}
}

// AddPartition adds one boundary->group mapping. The boundary format
// depends on the shard type: a decimal integer for RANGE, a
// hex-encoded big-endian byte string for HASH.
func (s *Shard) AddPartition(boundary, group string) error {
	switch s.Type {
	case ShardTypeRange:
		lower, err := strconv.ParseInt(boundary, 10, 64)
		if err != nil {
			return WrapRoutingError(err, "invalid RANGE boundary %s for %s.%s",
				boundary,
				s.Database,
				s.Table)
		}
		s.ranges.ReplaceOrInsert(rangeBoundary{lower: lower, group: group})
	case ShardTypeHash:
		lower, err := hex.DecodeString(boundary)
		if err != nil {
			return WrapRoutingError(err, "invalid HASH boundary %s for %s.%s",
				boundary,
				s.Database,
				s.Table)
		}
		s.hashes = append(s.hashes, hashBoundary{lower: lower, group: group})
		// boundaries are interpreted big-endian, kept descending
		sort.Slice(s.hashes, func(i, j int) bool {
			return bytes.Compare(s.hashes[i].lower, s.hashes[j].lower) > 0
		})
	default:
		return NewRoutingErrorf("unsupported shard type %s", s.Type)
	}

	return nil
}

// Partitions returns the number of partitions
func (s *Shard) Partitions() int {
	if s.Type == ShardTypeHash {
		return len(s.hashes)
	}

	return s.ranges.Len()
}

// GroupFor resolves the group that owns key
func (s *Shard) GroupFor(key string) (string, error) {
	switch s.Type {
	case ShardTypeRange:
		return s.rangeGroup(key)
	case ShardTypeHash:
		return s.hashGroup(key)
	}

	return "", NewRoutingErrorf("unsupported shard type %s", s.Type)
}

// rangeGroup selects the greatest boundary <= key, falling back to the
// lowest boundary when key is below all of them.
func (s *Shard) rangeGroup(key string) (string, error) {
	value, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return "", NewConfigurationErrorf("key %s is not numeric, required by RANGE sharding of %s.%s",
			key,
			s.Database,
			s.Table)
	}

	if s.ranges.Len() == 0 {
		return "", NewRoutingErrorf("no partitions for %s.%s", s.Database, s.Table)
	}

	group := ""
	s.ranges.DescendLessOrEqual(rangeBoundary{lower: value}, func(item btree.Item) bool {
		group = item.(rangeBoundary).group
		return false
	})

	if group == "" {
		group = s.ranges.Min().(rangeBoundary).group
	}

	return group, nil
}

// hashGroup selects the first boundary (descending) whose byte value
// is <= the 128 bit digest of key, wrapping around to the lowest.
func (s *Shard) hashGroup(key string) (string, error) {
	if len(s.hashes) == 0 {
		return "", NewRoutingErrorf("no partitions for %s.%s", s.Database, s.Table)
	}

	digest := md5.Sum([]byte(key))
	for _, h := range s.hashes {
		if bytes.Compare(digest[:], h.lower) >= 0 {
			return h.group, nil
		}
	}

	return s.hashes[len(s.hashes)-1].group, nil
}
