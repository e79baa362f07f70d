package topology

import (
	"fmt"
	"time"

	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/adyliu/gofabric/pkg/metrics"
	"github.com/fagongzi/goetty"
	"github.com/fagongzi/log"
	"github.com/google/uuid"
)

// Caller is the RPC surface of one topology service node. Link is the
// wire implementation; tests inject fakes via WithDialer.
type Caller interface {
	// Connect establishes the transport lazily; a no-op when the link
	// is already alive.
	Connect() error
	// Close drops the transport
	Close()
	// Identity returns the deterministic node identity
	Identity() string
	// URI returns the node endpoint
	URI() string

	LookupNodes() (meta.TopologyInfo, []string, error)
	DumpMembers(version uint64, group string) (meta.TopologyInfo, []meta.Server, error)
	DumpShards(version uint64, patterns string) (meta.TopologyInfo, []meta.ShardInfo, error)
	SetServerStatus(serverUUID string, status meta.ServerStatus) error
}

// LinkURI returns the endpoint uri for a topology node
func LinkURI(host string, port int) string {
	return fmt.Sprintf("tcp://%s:%d", host, port)
}

// LinkIdentity derives the deterministic identity of a topology node
// from its endpoint uri.
func LinkIdentity(host string, port int) string {
	return uuid.NewMD5(uuid.NameSpaceURL, []byte(LinkURI(host, port))).String()
}

// Link a connection to one node of the topology service. Connects
// lazily with bounded retry and verifies liveness with an
// intentionally-invalid call that the service must answer with
// FaultNoSuchMethod.
//
// Not safe for concurrent use.
type Link struct {
	host     string
	port     int
	attempts int
	delay    time.Duration
	seq      uint64
	conn     goetty.IOSession
}

// NewLink returns a link to host:port
func NewLink(host string, port, attempts int, delay time.Duration) *Link {
	return &Link{
		host:     host,
		port:     port,
		attempts: attempts,
		delay:    delay,
	}
}

// URI returns the node endpoint
func (l *Link) URI() string {
	return LinkURI(l.host, l.port)
}

// Identity returns the deterministic node identity
func (l *Link) Identity() string {
	return LinkIdentity(l.host, l.port)
}

func (l *Link) addr() string {
	return fmt.Sprintf("%s:%d", l.host, l.port)
}

// Connect establishes the transport, retrying up to the configured
// attempt count with a fixed delay, then fails with a RoutingError.
func (l *Link) Connect() error {
	if l.conn != nil {
		if l.alive() {
			return nil
		}
		// drop the dead session before dialing a fresh one
		l.Close()
	}

	var last error
	for counter := 1; counter <= l.attempts; counter++ {
		conn := goetty.NewConnector(l.addr(),
			goetty.WithClientDecoder(meta.TopologyDecoder),
			goetty.WithClientEncoder(meta.TopologyEncoder))

		ok, err := conn.Connect()
		if err == nil && ok {
			l.conn = conn
			if l.alive() {
				log.Debugf("[link-%s]: connected", l.addr())
				return nil
			}
			err = fmt.Errorf("liveness probe failed")
		}

		last = err
		l.Close()
		log.Debugf("[link-%s]: retrying, attempts %d",
			l.addr(),
			counter)
		if counter < l.attempts && l.delay > 0 {
			time.Sleep(l.delay)
		}
	}

	return meta.WrapRoutingError(last, "connection to topology node %s failed", l.addr())
}

// Close drops the transport
func (l *Link) Close() {
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
}

// alive sends the probe command. The service must not recognize it;
// receiving the no-such-method fault proves the round trip works,
// anything else means the transport is dead.
func (l *Link) alive() bool {
	rsp, err := l.roundTrip(&meta.RPCRequest{Cmd: meta.CmdProbe})
	if err != nil {
		return false
	}

	return rsp.Fault == meta.FaultNoSuchMethod
}

func (l *Link) roundTrip(req *meta.RPCRequest) (*meta.RPCResponse, error) {
	l.seq++
	req.Seq = l.seq

	err := l.conn.WriteAndFlush(req)
	if err != nil {
		return nil, err
	}

	data, err := l.conn.Read()
	if err != nil {
		return nil, err
	}

	rsp, ok := data.(*meta.RPCResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected message %T", data)
	}

	return rsp, nil
}

func (l *Link) call(req *meta.RPCRequest) (*meta.RPCResponse, error) {
	if err := l.Connect(); err != nil {
		metrics.RPCCounter.WithLabelValues(meta.CmdName(req.Cmd), metrics.StatusFailed).Inc()
		return nil, err
	}

	rsp, err := l.roundTrip(req)
	if err != nil {
		l.Close()
		metrics.RPCCounter.WithLabelValues(meta.CmdName(req.Cmd), metrics.StatusFailed).Inc()
		return nil, meta.WrapRoutingError(err, "call %s on %s failed",
			meta.CmdName(req.Cmd),
			l.addr())
	}

	if rsp.Fault != "" {
		metrics.RPCCounter.WithLabelValues(meta.CmdName(req.Cmd), metrics.StatusFailed).Inc()
		return nil, meta.NewRoutingErrorf("topology node %s fault: %s",
			l.addr(),
			rsp.Fault)
	}

	metrics.RPCCounter.WithLabelValues(meta.CmdName(req.Cmd), metrics.StatusSucceed).Inc()
	return rsp, nil
}

// LookupNodes lists the fellow topology service nodes
func (l *Link) LookupNodes() (meta.TopologyInfo, []string, error) {
	rsp, err := l.call(&meta.RPCRequest{Cmd: meta.CmdLookupNodes})
	if err != nil {
		return meta.TopologyInfo{}, nil, err
	}

	return rsp.Info, rsp.Addrs, nil
}

// DumpMembers dumps group membership matching group
func (l *Link) DumpMembers(version uint64, group string) (meta.TopologyInfo, []meta.Server, error) {
	rsp, err := l.call(&meta.RPCRequest{
		Cmd:     meta.CmdDumpMembers,
		Version: version,
		Pattern: group,
	})
	if err != nil {
		return meta.TopologyInfo{}, nil, err
	}

	return rsp.Info, rsp.Servers, nil
}

// DumpShards dumps sharding information matching the comma separated
// database.table patterns.
func (l *Link) DumpShards(version uint64, patterns string) (meta.TopologyInfo, []meta.ShardInfo, error) {
	rsp, err := l.call(&meta.RPCRequest{
		Cmd:     meta.CmdDumpShards,
		Version: version,
		Pattern: patterns,
	})
	if err != nil {
		return meta.TopologyInfo{}, nil, err
	}

	return rsp.Info, rsp.Shards, nil
}

// SetServerStatus forwards a server status change
func (l *Link) SetServerStatus(serverUUID string, status meta.ServerStatus) error {
	_, err := l.call(&meta.RPCRequest{
		Cmd:        meta.CmdSetStatus,
		ServerUUID: serverUUID,
		Status:     status.Protocol(),
	})
	return err
}
