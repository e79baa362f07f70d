package meta

import (
	"testing"

	"github.com/fagongzi/goetty"
	"github.com/stretchr/testify/assert"
)

func TestCodecRequest(t *testing.T) {
	c := &topologyCodec{}
	buf := goetty.NewByteBuf(256)

	msg := &RPCRequest{
		Seq:        7,
		Cmd:        CmdDumpMembers,
		Version:    3,
		Pattern:    "group1",
		ServerUUID: "s1",
		Status:     "FAULTY",
	}
	assert.NoError(t, c.Encode(msg, buf), "encode failed")

	complete, value, err := c.Decode(buf)
	assert.NoError(t, err, "decode failed")
	assert.True(t, complete, "decode incomplete")
	assert.Equal(t, msg, value, "check request codec failed")
}

func TestCodecResponse(t *testing.T) {
	c := &topologyCodec{}
	buf := goetty.NewByteBuf(512)

	msg := &RPCResponse{
		Seq:   7,
		Cmd:   CmdLookupNodes,
		Fault: "",
		Info:  TopologyInfo{ID: "topo-1", Version: 3, TTL: 60},
		Addrs: []string{"h1:8080", "h2:8080"},
		Servers: []Server{
			{UUID: "s1", Group: "group1", Host: "h1", Port: 3306, Mode: ModeReadwrite, Status: StatusPrimary, Weight: 1.0},
		},
		Shards: []ShardInfo{
			{Database: "db", Table: "t", Column: "id", Boundary: "0", ShardID: 1, Type: ShardTypeRange, Group: "g1", GlobalGroup: "global"},
		},
	}
	assert.NoError(t, c.Encode(msg, buf), "encode failed")

	complete, value, err := c.Decode(buf)
	assert.NoError(t, err, "decode failed")
	assert.True(t, complete, "decode incomplete")
	assert.Equal(t, msg, value, "check response codec failed")
}
