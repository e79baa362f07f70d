package meta

import (
	"fmt"

	"github.com/fagongzi/goetty"
)

const (
	kindRequest  byte = 0
	kindResponse byte = 1
)

var (
	tc = &topologyCodec{}
	// TopologyEncoder topology rpc message encoder
	TopologyEncoder = goetty.NewIntLengthFieldBasedEncoder(tc)
	// TopologyDecoder topology rpc message decoder
	TopologyDecoder = goetty.NewIntLengthFieldBasedDecoder(tc)
)

type topologyCodec struct {
}

func (c *topologyCodec) Decode(in *goetty.ByteBuf) (bool, interface{}, error) {
	kind, _ := in.ReadByte()
	switch kind {
	case kindRequest:
		msg := &RPCRequest{}
		msg.Seq = ReadUInt64(in)
		msg.Cmd = ReadByte(in)
		msg.Version = ReadUInt64(in)
		msg.Pattern = ReadString(in)
		msg.ServerUUID = ReadString(in)
		msg.Status = ReadString(in)
		return true, msg, nil
	case kindResponse:
		msg := &RPCResponse{}
		msg.Seq = ReadUInt64(in)
		msg.Cmd = ReadByte(in)
		msg.Fault = ReadString(in)
		msg.Info = ReadTopologyInfo(in)
		msg.Addrs = ReadStrings(in)
		msg.Servers = ReadServers(in)
		msg.Shards = ReadShardInfos(in)
		return true, msg, nil
	}

	return false, nil, fmt.Errorf("message kind %d not support", kind)
}

func (c *topologyCodec) Encode(data interface{}, out *goetty.ByteBuf) error {
	if msg, ok := data.(*RPCRequest); ok {
		out.WriteByte(kindRequest)
		out.WriteUInt64(msg.Seq)
		out.WriteByte(msg.Cmd)
		out.WriteUInt64(msg.Version)
		WriteString(msg.Pattern, out)
		WriteString(msg.ServerUUID, out)
		WriteString(msg.Status, out)
		return nil
	} else if msg, ok := data.(*RPCResponse); ok {
		out.WriteByte(kindResponse)
		out.WriteUInt64(msg.Seq)
		out.WriteByte(msg.Cmd)
		WriteString(msg.Fault, out)
		WriteTopologyInfo(msg.Info, out)
		WriteStrings(msg.Addrs, out)
		WriteServers(msg.Servers, out)
		WriteShardInfos(msg.Shards, out)
		return nil
	}

	return fmt.Errorf("codec type %T not support", data)
}
