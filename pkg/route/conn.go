package route

import (
	"time"

	"github.com/adyliu/gofabric/pkg/driver"
	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/fagongzi/log"
)

// Resolver picks servers for targets and accepts fault reports. The
// topology directory satisfies this.
type Resolver interface {
	ResolveGroup(group string, mode meta.ServerMode, status meta.ServerStatus) (meta.Server, error)
	ResolveShard(tables []string, key string, scope meta.Scope, mode meta.ServerMode) (meta.Server, error)
	ReportFault(serverUUID string, status meta.ServerStatus, group string)
	InvalidateGroup(group string)
}

// CursorOptions cursor variant selection
type CursorOptions struct {
	// Buffered fetches the full result set on execute
	Buffered bool
	// Raw returns column values as byte slices without conversion
	Raw bool
	// Prepared asks for a server-side prepared cursor
	Prepared bool
	// Class asks for a caller-provided cursor implementation
	Class interface{}
}

// Connection a database connection routed by target. Statements go to
// whichever server the resolver picks; when that server dies the
// connection reports the fault and retries against a fresh pick.
//
// A Connection is owned by a single goroutine, it does no internal
// locking.
type Connection struct {
	id        uint64
	resolver  Resolver
	connector driver.Connector
	cfg       driver.Config
	policy    RetryPolicy

	target Target
	bound  bool

	cnx    driver.Conn
	server meta.Server
}

// NewConnection returns a connection routed through resolver and
// opened with connector. No server is contacted until the first
// statement.
func NewConnection(id uint64, resolver Resolver, connector driver.Connector, cfg driver.Config, policy RetryPolicy) *Connection {
	policy.adjust()

	return &Connection{
		id:        id,
		resolver:  resolver,
		connector: connector,
		cfg:       cfg,
		policy:    policy,
	}
}

// SetTarget changes where statements are routed. An open session is
// closed, the next statement reconnects against the new target.
func (c *Connection) SetTarget(target Target) error {
	if c.bound && c.cnx != nil {
		c.disconnect()
	}

	c.target = target
	c.bound = true
	return nil
}

// Target returns the current target
func (c *Connection) Target() Target {
	return c.target
}

// Server returns the server of the open session, zero when no session
// is open.
func (c *Connection) Server() meta.Server {
	return c.server
}

// Cursor returns a statement cursor on the routed session. Prepared
// cursors and caller-provided cursor classes are refused.
func (c *Connection) Cursor(opts CursorOptions) (driver.Cursor, error) {
	if opts.Prepared {
		return nil, meta.NewUnsupportedError("prepared cursors")
	}
	if opts.Class != nil {
		return nil, meta.NewUnsupportedError("custom cursor classes")
	}

	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	return c.cnx.Cursor(opts.Buffered, opts.Raw)
}

// Commit commits the transaction on the open session
func (c *Connection) Commit() error {
	if c.cnx == nil {
		return meta.NewRoutingErrorf("no open session to commit")
	}

	return c.handleDriverError(c.cnx.Commit())
}

// Rollback rolls back the transaction on the open session
func (c *Connection) Rollback() error {
	if c.cnx == nil {
		return meta.NewRoutingErrorf("no open session to roll back")
	}

	return c.handleDriverError(c.cnx.Rollback())
}

// Query runs one statement on the routed session
func (c *Connection) Query(stmt string) (driver.Result, error) {
	if err := c.ensureConnected(); err != nil {
		return driver.Result{}, err
	}

	rst, err := c.cnx.Query(stmt)
	return rst, c.handleDriverError(err)
}

// QueryMany runs several statements in order on the routed session
func (c *Connection) QueryMany(stmts []string) ([]driver.Result, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	rsts, err := c.cnx.QueryMany(stmts)
	return rsts, c.handleDriverError(err)
}

// Cmd is not available, the wire protocol is owned by the driver
func (c *Connection) Cmd(cmd byte, args ...interface{}) error {
	return meta.NewUnsupportedError("raw protocol commands")
}

// ResetCache drops the cached servers of the group the open session
// was routed to, forcing the next resolution to refetch.
func (c *Connection) ResetCache() {
	if c.server.Group != "" {
		c.resolver.InvalidateGroup(c.server.Group)
	}
}

// Close rolls back any open transaction and releases the session.
// Safe to call on a never-connected or already-closed connection.
func (c *Connection) Close() error {
	if c.cnx == nil {
		return nil
	}

	c.disconnect()
	return nil
}

// ensureConnected resolves the target and opens a session, retrying
// with fresh picks until the policy is exhausted. Configuration errors
// fail immediately.
func (c *Connection) ensureConnected() error {
	if c.cnx != nil {
		return nil
	}
	if !c.bound {
		return meta.NewConfigurationErrorf("no target set")
	}

	var last error
	for i := 0; i < c.policy.Attempts; i++ {
		if i > 0 {
			time.Sleep(c.policy.AttemptDelay)
		}

		server, err := c.resolve()
		if err != nil {
			if meta.IsConfigurationError(err) {
				return err
			}

			log.Warnf("conn-%d: resolve failed with %+v, retry %d/%d",
				c.id,
				err,
				i+1,
				c.policy.Attempts)
			last = err
			continue
		}

		cnx, err := c.open(server)
		if err != nil {
			// the server was picked but refused us, tell the
			// topology so other clients stop picking it
			log.Warnf("conn-%d: connect to %s failed with %+v, report fault",
				c.id,
				server.Addr(),
				err)
			c.resolver.ReportFault(server.UUID, meta.StatusFaulty, server.Group)
			c.resolver.InvalidateGroup(server.Group)
			last = err
			continue
		}

		log.Debugf("conn-%d: routed to %s (%s)",
			c.id,
			server.Addr(),
			server.Group)
		c.cnx = cnx
		c.server = server
		return nil
	}

	return meta.WrapRoutingError(last, "no usable server after retries")
}

func (c *Connection) resolve() (meta.Server, error) {
	if c.target.IsShard() {
		return c.resolver.ResolveShard(c.target.Tables(),
			c.target.Key(),
			c.target.Scope(),
			c.target.Mode())
	}

	return c.resolver.ResolveGroup(c.target.Group(),
		c.target.Mode(),
		meta.StatusNone)
}

func (c *Connection) open(server meta.Server) (driver.Conn, error) {
	cfg := c.cfg
	cfg.Host = server.Host
	cfg.Port = server.Port
	return c.connector(cfg)
}

// handleDriverError inspects a driver error. Connection-lost and
// blocked-by-mode codes mean the routing decision went stale: the
// session is dropped, the group cache invalidated, and the caller gets
// a retryable error so it can reissue the transaction.
func (c *Connection) handleDriverError(err error) error {
	if err == nil {
		return nil
	}

	if meta.RetryableCode(meta.DBErrorCode(err)) {
		log.Infof("conn-%d: server %s lost (%+v), invalidate %s",
			c.id,
			c.server.Addr(),
			err,
			c.server.Group)
		c.resolver.InvalidateGroup(c.server.Group)
		c.disconnect()
		return meta.NewRetryableError(err)
	}

	return err
}

func (c *Connection) disconnect() {
	if c.cnx != nil {
		if err := c.cnx.Rollback(); err != nil {
			log.Debugf("conn-%d: rollback on close failed with %+v",
				c.id,
				err)
		}
		if err := c.cnx.Close(); err != nil {
			log.Debugf("conn-%d: close failed with %+v",
				c.id,
				err)
		}
	}

	c.cnx = nil
	c.server = meta.Server{}
}
