// Package local mirrors refreshed topology facts to a local store, so
// the last known cluster layout survives restarts and can be inspected
// while the topology nodes are down.
package local

// Storage key value store backing the snapshot
type Storage interface {
	// Get returns the key value, nil when the key is absent
	Get(key []byte) ([]byte, error)
	// Set sets the key value
	Set(key, value []byte) error
	// Remove removes the key
	Remove(key []byte) error
	// Range visits all values that start with prefix, set limit to 0
	// for no limit
	Range(prefix []byte, limit uint64, fn func(key, value []byte) bool) error
}
