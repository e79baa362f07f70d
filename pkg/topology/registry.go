package topology

import (
	"github.com/fagongzi/log"
)

// Registry maps a topology service identity to its Directory, so
// routed connections configured against the same service share one
// cache and balancer set. The registry is an explicit value owned by
// the application, passed to whoever opens connections.
//
// Like the directories it holds, a Registry is not safe for
// concurrent use without external synchronization.
type Registry struct {
	opts []Option
	dirs map[string]*Directory
}

// NewRegistry returns an empty registry; opts apply to every
// directory it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		opts: opts,
		dirs: make(map[string]*Directory),
	}
}

// GetOrCreate returns the directory for the topology service seeded
// at host:port, creating and seeding it on first use.
func (r *Registry) GetOrCreate(host string, port int) (*Directory, error) {
	key := LinkIdentity(host, port)
	if d, ok := r.dirs[key]; ok {
		return d, nil
	}

	log.Debugf("[registry]: new directory for seed %s:%d", host, port)
	d := NewDirectory(r.opts...)
	if err := d.Discover(host, port); err != nil {
		return nil, err
	}

	r.dirs[key] = d
	return d, nil
}

// Directories returns the managed directories keyed by seed identity
func (r *Registry) Directories() map[string]*Directory {
	return r.dirs
}
