package topology

import (
	"io"
	"testing"
	"time"

	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/fagongzi/goetty"
	"github.com/stretchr/testify/assert"
)

// wireTestNode an in-process topology node speaking the real wire protocol
type wireTestNode struct {
	svr     *goetty.Server
	info    meta.TopologyInfo
	addrs   []string
	servers []meta.Server
	shards  []meta.ShardInfo

	reported []string
}

func newTestNode(addr string) *wireTestNode {
	return &wireTestNode{
		svr: goetty.NewServer(addr,
			goetty.WithServerDecoder(meta.TopologyDecoder),
			goetty.WithServerEncoder(meta.TopologyEncoder)),
		info:  meta.TopologyInfo{ID: "topo-1", Version: 1, TTL: 60},
		addrs: []string{addr},
	}
}

func (n *wireTestNode) start() {
	go n.svr.Start(n.doConnection)
	time.Sleep(time.Millisecond * 200)
}

func (n *wireTestNode) stop() {
	n.svr.Stop()
}

func (n *wireTestNode) doConnection(conn goetty.IOSession) error {
	for {
		data, err := conn.Read()
		if err != nil {
			if err != io.EOF {
				return err
			}
			return nil
		}

		req := data.(*meta.RPCRequest)
		rsp := &meta.RPCResponse{Seq: req.Seq, Cmd: req.Cmd, Info: n.info}
		switch req.Cmd {
		case meta.CmdLookupNodes:
			rsp.Addrs = n.addrs
		case meta.CmdDumpMembers:
			rsp.Servers = n.servers
		case meta.CmdDumpShards:
			rsp.Shards = n.shards
		case meta.CmdSetStatus:
			n.reported = append(n.reported, req.ServerUUID+"="+req.Status)
		default:
			rsp.Fault = meta.FaultNoSuchMethod
		}

		if err := conn.WriteAndFlush(rsp); err != nil {
			return err
		}
	}
}

func TestLinkRoundTrip(t *testing.T) {
	addr := "127.0.0.1:12779"
	node := newTestNode(addr)
	node.servers = []meta.Server{
		{UUID: "s1", Group: "group1", Host: "h1", Port: 3306, Status: meta.StatusPrimary, Weight: 1.0},
	}
	node.shards = []meta.ShardInfo{
		{Database: "db", Table: "t", Column: "id", Boundary: "0", ShardID: 1, Type: meta.ShardTypeRange, Group: "g1", GlobalGroup: "global"},
	}
	node.start()
	defer node.stop()

	l := NewLink("127.0.0.1", 12779, 3, time.Millisecond*100)
	defer l.Close()

	err := l.Connect()
	assert.Nilf(t, err, "connect failed with %+v", err)

	info, addrs, err := l.LookupNodes()
	assert.Nilf(t, err, "lookup nodes failed with %+v", err)
	assert.Equal(t, node.info, info, "check info failed")
	assert.Equal(t, []string{addr}, addrs, "check addrs failed")

	_, servers, err := l.DumpMembers(1, "group1")
	assert.Nilf(t, err, "dump members failed with %+v", err)
	assert.Equal(t, node.servers, servers, "check servers failed")

	_, shards, err := l.DumpShards(1, "db.t")
	assert.Nilf(t, err, "dump shards failed with %+v", err)
	assert.Equal(t, node.shards, shards, "check shards failed")

	err = l.SetServerStatus("s1", meta.StatusFaulty)
	assert.Nilf(t, err, "set status failed with %+v", err)
	assert.Equal(t, []string{"s1=FAULTY"}, node.reported, "check report failed")
}

func TestLinkReconnect(t *testing.T) {
	addr := "127.0.0.1:12781"
	node := newTestNode(addr)
	node.start()

	l := NewLink("127.0.0.1", 12781, 3, time.Millisecond*100)
	defer l.Close()

	err := l.Connect()
	assert.Nilf(t, err, "connect failed with %+v", err)

	node.stop()
	time.Sleep(time.Millisecond * 200)

	next := newTestNode(addr)
	next.info.Version = 2
	next.start()
	defer next.stop()

	info, _, err := l.LookupNodes()
	assert.Nilf(t, err, "lookup after reconnect failed with %+v", err)
	assert.Equal(t, next.info, info, "check reconnect failed")
}

func TestLinkConnectRefused(t *testing.T) {
	l := NewLink("127.0.0.1", 12780, 2, time.Millisecond)
	err := l.Connect()
	assert.True(t, meta.IsRoutingError(err), "unreachable node must raise a routing error")
}

func TestLinkIdentityDeterministic(t *testing.T) {
	assert.Equal(t, LinkIdentity("h1", 8080), LinkIdentity("h1", 8080), "identity must be deterministic")
	assert.NotEqual(t, LinkIdentity("h1", 8080), LinkIdentity("h2", 8080), "identity must depend on the host")
	assert.NotEqual(t, LinkIdentity("h1", 8080), LinkIdentity("h1", 8081), "identity must depend on the port")
}
