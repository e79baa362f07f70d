// Package route carries statements to the right server. A connection
// holds a target describing where its statements belong, resolves the
// target to a concrete server through the topology layer, and reopens
// the underlying session whenever the target changes or the server
// turns out to be gone.
package route

import (
	"time"

	"github.com/adyliu/gofabric/pkg/meta"
)

// Target where statements are routed. A target names either a group
// directly, or a set of tables plus a shard key resolved to a group.
// Construct values with GroupTarget or ShardTarget.
type Target struct {
	group  string
	tables []string
	key    string
	scope  meta.Scope
	mode   meta.ServerMode
}

// GroupTarget routes to a named group
func GroupTarget(group string, mode meta.ServerMode) (Target, error) {
	if group == "" {
		return Target{}, meta.NewConfigurationErrorf("group is required")
	}
	if err := checkMode(mode); err != nil {
		return Target{}, err
	}

	return Target{group: group, mode: mode}, nil
}

// ShardTarget routes by shard key. Scope defaults to LOCAL, and a
// LOCAL target needs a key to pick the shard.
func ShardTarget(tables []string, key string, scope meta.Scope, mode meta.ServerMode) (Target, error) {
	if len(tables) == 0 {
		return Target{}, meta.NewConfigurationErrorf("tables are required")
	}
	if scope == "" {
		scope = meta.ScopeLocal
	}
	if scope != meta.ScopeLocal && scope != meta.ScopeGlobal {
		return Target{}, meta.NewConfigurationErrorf("invalid scope: %s", scope)
	}
	if scope == meta.ScopeLocal && key == "" {
		return Target{}, meta.NewConfigurationErrorf("a key is required for local scope")
	}
	if err := checkMode(mode); err != nil {
		return Target{}, err
	}

	return Target{tables: tables, key: key, scope: scope, mode: mode}, nil
}

func checkMode(mode meta.ServerMode) error {
	switch mode {
	case meta.ModeNone, meta.ModeReadonly, meta.ModeReadwrite:
		return nil
	}

	return meta.NewConfigurationErrorf("invalid mode: %s", mode.Name())
}

// IsShard returns true when the target routes by shard key
func (t Target) IsShard() bool {
	return len(t.tables) > 0
}

// Group returns the named group of a group target
func (t Target) Group() string {
	return t.group
}

// Tables returns the table references of a shard target
func (t Target) Tables() []string {
	return t.tables
}

// Key returns the shard key of a shard target
func (t Target) Key() string {
	return t.key
}

// Scope returns the shard scope
func (t Target) Scope() meta.Scope {
	return t.scope
}

// Mode returns the server mode the target asks for
func (t Target) Mode() meta.ServerMode {
	return t.mode
}

// Options the routing properties of a connection, usually filled from
// application configuration. Exactly one of Group or Tables must be
// set.
type Options struct {
	Group        string
	Tables       []string
	Key          string
	Scope        meta.Scope
	Mode         meta.ServerMode
	Attempts     int
	AttemptDelay time.Duration
}

// Target validates the options and builds the target. Validation is
// local, no topology request is made.
func (opts Options) Target() (Target, error) {
	if opts.Group != "" && len(opts.Tables) > 0 {
		return Target{}, meta.NewConfigurationErrorf("group and tables are mutually exclusive")
	}
	if opts.Group == "" && len(opts.Tables) == 0 {
		return Target{}, meta.NewConfigurationErrorf("one of group or tables is required")
	}

	if opts.Group != "" {
		return GroupTarget(opts.Group, opts.Mode)
	}

	return ShardTarget(opts.Tables, opts.Key, opts.Scope, opts.Mode)
}

// RetryPolicy how hard a connection tries to find a usable server
// before giving up
type RetryPolicy struct {
	Attempts     int
	AttemptDelay time.Duration
}

func (p *RetryPolicy) adjust() {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.AttemptDelay <= 0 {
		p.AttemptDelay = time.Second
	}
}
