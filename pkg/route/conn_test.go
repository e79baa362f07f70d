package route

import (
	"testing"
	"time"

	"github.com/adyliu/gofabric/pkg/driver"
	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	servers []meta.Server
	errs    []error
	calls   int

	reports      []string
	invalidated  []string
	shardQueries int
}

func (r *fakeResolver) next() (meta.Server, error) {
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return meta.Server{}, r.errs[i]
	}
	if i < len(r.servers) {
		return r.servers[i], nil
	}
	if len(r.servers) > 0 {
		return r.servers[len(r.servers)-1], nil
	}

	return meta.Server{}, meta.NewRoutingErrorf("no server")
}

func (r *fakeResolver) ResolveGroup(group string, mode meta.ServerMode, status meta.ServerStatus) (meta.Server, error) {
	return r.next()
}

func (r *fakeResolver) ResolveShard(tables []string, key string, scope meta.Scope, mode meta.ServerMode) (meta.Server, error) {
	r.shardQueries++
	return r.next()
}

func (r *fakeResolver) ReportFault(serverUUID string, status meta.ServerStatus, group string) {
	r.reports = append(r.reports, serverUUID)
}

func (r *fakeResolver) InvalidateGroup(group string) {
	r.invalidated = append(r.invalidated, group)
}

type fakeConn struct {
	closed    bool
	rollbacks int
	commits   int
	queryErr  error
}

func (c *fakeConn) Cursor(buffered, raw bool) (driver.Cursor, error) { return nil, nil }
func (c *fakeConn) Commit() error                                    { c.commits++; return nil }
func (c *fakeConn) Rollback() error                                  { c.rollbacks++; return nil }
func (c *fakeConn) Query(stmt string) (driver.Result, error) {
	return driver.Result{}, c.queryErr
}
func (c *fakeConn) QueryMany(stmts []string) ([]driver.Result, error) { return nil, c.queryErr }
func (c *fakeConn) Close() error                                      { c.closed = true; return nil }

func fastPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, AttemptDelay: time.Millisecond}
}

func mustGroupTarget(t *testing.T, group string, mode meta.ServerMode) Target {
	target, err := GroupTarget(group, mode)
	assert.NoError(t, err, "build target failed")
	return target
}

func TestTargetValidation(t *testing.T) {
	_, err := GroupTarget("", meta.ModeReadwrite)
	assert.True(t, meta.IsConfigurationError(err), "empty group must be rejected")

	_, err = GroupTarget("group1", meta.ServerMode(9))
	assert.True(t, meta.IsConfigurationError(err), "bad mode must be rejected")

	_, err = ShardTarget(nil, "10", meta.ScopeLocal, meta.ModeNone)
	assert.True(t, meta.IsConfigurationError(err), "empty tables must be rejected")

	_, err = ShardTarget([]string{"db.t"}, "", meta.ScopeLocal, meta.ModeNone)
	assert.True(t, meta.IsConfigurationError(err), "local scope without key must be rejected")

	_, err = ShardTarget([]string{"db.t"}, "", meta.ScopeGlobal, meta.ModeNone)
	assert.NoError(t, err, "global scope does not need a key")

	target, err := ShardTarget([]string{"db.t"}, "10", "", meta.ModeNone)
	assert.NoError(t, err, "build target failed")
	assert.Equal(t, meta.ScopeLocal, target.Scope(), "scope must default to local")
}

func TestOptionsExactlyOne(t *testing.T) {
	_, err := Options{}.Target()
	assert.True(t, meta.IsConfigurationError(err), "neither group nor tables must be rejected")

	_, err = Options{Group: "group1", Tables: []string{"db.t"}, Key: "1"}.Target()
	assert.True(t, meta.IsConfigurationError(err), "both group and tables must be rejected")

	target, err := Options{Group: "group1", Mode: meta.ModeReadwrite}.Target()
	assert.NoError(t, err, "group options failed")
	assert.False(t, target.IsShard(), "group target reported as shard")

	target, err = Options{Tables: []string{"db.t"}, Key: "7"}.Target()
	assert.NoError(t, err, "shard options failed")
	assert.True(t, target.IsShard(), "shard target not reported as shard")
}

func TestConnectLazy(t *testing.T) {
	resolver := &fakeResolver{servers: []meta.Server{{UUID: "s1", Group: "group1", Host: "h1", Port: 3306}}}
	opened := 0
	connector := func(cfg driver.Config) (driver.Conn, error) {
		opened++
		return &fakeConn{}, nil
	}

	c := NewConnection(1, resolver, connector, driver.Config{User: "u"}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeReadwrite)), "set target failed")
	assert.Equal(t, 0, opened, "no session may be opened before the first statement")

	_, err := c.Query("BEGIN")
	assert.NoError(t, err, "query failed")
	assert.Equal(t, 1, opened, "first statement must open exactly one session")
	assert.Equal(t, "s1", c.Server().UUID, "wrong server bound")

	_, err = c.Query("SELECT 1")
	assert.NoError(t, err, "query failed")
	assert.Equal(t, 1, opened, "open session must be reused")
}

func TestConnectNoTarget(t *testing.T) {
	resolver := &fakeResolver{}
	c := NewConnection(1, resolver, nil, driver.Config{}, fastPolicy())

	_, err := c.Query("SELECT 1")
	assert.True(t, meta.IsConfigurationError(err), "statement without target must fail fast")
	assert.Equal(t, 0, resolver.calls, "no resolution may happen without a target")
}

func TestConnectRetryAndFaultReport(t *testing.T) {
	s1 := meta.Server{UUID: "s1", Group: "group1", Host: "h1", Port: 3306}
	s2 := meta.Server{UUID: "s2", Group: "group1", Host: "h2", Port: 3306}
	resolver := &fakeResolver{servers: []meta.Server{s1, s2}}

	attempts := 0
	connector := func(cfg driver.Config) (driver.Conn, error) {
		attempts++
		if cfg.Host == "h1" {
			return nil, meta.NewDBError(meta.CodeServerLost, "gone")
		}
		return &fakeConn{}, nil
	}

	c := NewConnection(1, resolver, connector, driver.Config{}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeReadwrite)), "set target failed")

	_, err := c.Query("SELECT 1")
	assert.NoError(t, err, "retry must recover on the second pick")
	assert.Equal(t, 2, attempts, "expect one failed and one successful connect")
	assert.Equal(t, []string{"s1"}, resolver.reports, "dead server must be reported faulty")
	assert.Equal(t, []string{"group1"}, resolver.invalidated, "group cache must be invalidated on fault")
	assert.Equal(t, "s2", c.Server().UUID, "wrong server bound after retry")
}

func TestConnectExhaustion(t *testing.T) {
	resolver := &fakeResolver{servers: []meta.Server{{UUID: "s1", Group: "group1", Host: "h1", Port: 3306}}}
	connector := func(cfg driver.Config) (driver.Conn, error) {
		return nil, meta.NewDBError(meta.CodeServerLost, "gone")
	}

	c := NewConnection(1, resolver, connector, driver.Config{}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeReadwrite)), "set target failed")

	_, err := c.Query("SELECT 1")
	assert.True(t, meta.IsRoutingError(err), "exhausted retries must surface a routing error")
	assert.Equal(t, 3, len(resolver.reports), "every failed connect must be reported")
}

func TestConfigurationErrorNotRetried(t *testing.T) {
	resolver := &fakeResolver{errs: []error{meta.NewConfigurationErrorf("bad key")}}
	c := NewConnection(1, resolver, nil, driver.Config{}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeNone)), "set target failed")

	_, err := c.Query("SELECT 1")
	assert.True(t, meta.IsConfigurationError(err), "configuration error must propagate")
	assert.Equal(t, 1, resolver.calls, "configuration error must not be retried")
}

func TestRetryableDriverError(t *testing.T) {
	resolver := &fakeResolver{servers: []meta.Server{{UUID: "s1", Group: "group1", Host: "h1", Port: 3306}}}
	cnx := &fakeConn{}
	connector := func(cfg driver.Config) (driver.Conn, error) { return cnx, nil }

	c := NewConnection(1, resolver, connector, driver.Config{}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeReadwrite)), "set target failed")

	_, err := c.Query("BEGIN")
	assert.NoError(t, err, "query failed")

	cnx.queryErr = meta.NewDBError(meta.CodeBlockedByMode, "read only")
	_, err = c.Query("INSERT")
	assert.True(t, meta.IsRetryableError(err), "blocked-by-mode must become retryable")
	assert.Equal(t, []string{"group1"}, resolver.invalidated, "stale group must be invalidated")
	assert.True(t, cnx.closed, "stale session must be closed")
	assert.Equal(t, "", c.Server().UUID, "server binding must be cleared")
}

func TestDriverErrorPassthrough(t *testing.T) {
	resolver := &fakeResolver{servers: []meta.Server{{UUID: "s1", Group: "group1", Host: "h1", Port: 3306}}}
	cnx := &fakeConn{queryErr: meta.NewDBError(1062, "duplicate entry")}
	connector := func(cfg driver.Config) (driver.Conn, error) { return cnx, nil }

	c := NewConnection(1, resolver, connector, driver.Config{}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeReadwrite)), "set target failed")

	_, err := c.Query("INSERT")
	assert.Equal(t, uint16(1062), meta.DBErrorCode(err), "plain server errors must pass through")
	assert.False(t, cnx.closed, "session must survive plain server errors")
	assert.Empty(t, resolver.invalidated, "plain server errors must not invalidate the cache")
}

func TestSetTargetClosesSession(t *testing.T) {
	resolver := &fakeResolver{servers: []meta.Server{{UUID: "s1", Group: "group1", Host: "h1", Port: 3306}}}
	cnx := &fakeConn{}
	connector := func(cfg driver.Config) (driver.Conn, error) { return cnx, nil }

	c := NewConnection(1, resolver, connector, driver.Config{}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeReadwrite)), "set target failed")
	_, err := c.Query("BEGIN")
	assert.NoError(t, err, "query failed")

	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group2", meta.ModeReadwrite)), "retarget failed")
	assert.True(t, cnx.closed, "retarget must close the open session")
	assert.Equal(t, 1, cnx.rollbacks, "retarget must roll back the open transaction")
}

func TestShardTargetResolution(t *testing.T) {
	resolver := &fakeResolver{servers: []meta.Server{{UUID: "s1", Group: "shard1", Host: "h1", Port: 3306}}}
	connector := func(cfg driver.Config) (driver.Conn, error) { return &fakeConn{}, nil }

	c := NewConnection(1, resolver, connector, driver.Config{}, fastPolicy())
	target, err := ShardTarget([]string{"db.t"}, "42", meta.ScopeLocal, meta.ModeReadwrite)
	assert.NoError(t, err, "build target failed")
	assert.NoError(t, c.SetTarget(target), "set target failed")

	_, err = c.Query("SELECT 1")
	assert.NoError(t, err, "query failed")
	assert.Equal(t, 1, resolver.shardQueries, "shard target must resolve by shard")
}

func TestUnsupportedOperations(t *testing.T) {
	c := NewConnection(1, &fakeResolver{}, nil, driver.Config{}, fastPolicy())

	_, err := c.Cursor(CursorOptions{Prepared: true})
	assert.True(t, meta.IsUnsupportedError(err), "prepared cursors must be refused")

	_, err = c.Cursor(CursorOptions{Class: struct{}{}})
	assert.True(t, meta.IsUnsupportedError(err), "custom cursor classes must be refused")

	err = c.Cmd(0x03)
	assert.True(t, meta.IsUnsupportedError(err), "raw commands must be refused")
}

func TestCloseRollsBack(t *testing.T) {
	resolver := &fakeResolver{servers: []meta.Server{{UUID: "s1", Group: "group1", Host: "h1", Port: 3306}}}
	cnx := &fakeConn{}
	connector := func(cfg driver.Config) (driver.Conn, error) { return cnx, nil }

	c := NewConnection(1, resolver, connector, driver.Config{}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeReadwrite)), "set target failed")
	_, err := c.Query("BEGIN")
	assert.NoError(t, err, "query failed")

	assert.NoError(t, c.Close(), "close failed")
	assert.Equal(t, 1, cnx.rollbacks, "close must roll back")
	assert.True(t, cnx.closed, "close must release the session")
	assert.NoError(t, c.Close(), "double close must be a no-op")
}

func TestResetCache(t *testing.T) {
	resolver := &fakeResolver{servers: []meta.Server{{UUID: "s1", Group: "group1", Host: "h1", Port: 3306}}}
	connector := func(cfg driver.Config) (driver.Conn, error) { return &fakeConn{}, nil }

	c := NewConnection(1, resolver, connector, driver.Config{}, fastPolicy())
	assert.NoError(t, c.SetTarget(mustGroupTarget(t, "group1", meta.ModeReadwrite)), "set target failed")

	c.ResetCache()
	assert.Empty(t, resolver.invalidated, "reset without a session must be a no-op")

	_, err := c.Query("SELECT 1")
	assert.NoError(t, err, "query failed")
	c.ResetCache()
	assert.Equal(t, []string{"group1"}, resolver.invalidated, "reset must invalidate the routed group")
}
