package meta

import (
	"math"

	"github.com/fagongzi/goetty"
	"github.com/fagongzi/util/hack"
)

// WriteString write string value
func WriteString(value string, buf *goetty.ByteBuf) {
	if value != "" {
		buf.WriteUInt16(uint16(len(value)))
		buf.WriteString(value)
	} else {
		buf.WriteUInt16(0)
	}
}

// ReadString read string value
func ReadString(buf *goetty.ByteBuf) string {
	size := ReadUInt16(buf)
	if size == 0 {
		return ""
	}

	_, value, _ := buf.ReadBytes(int(size))
	return hack.SliceToString(value)
}

// ReadUInt64 read uint64 value
func ReadUInt64(buf *goetty.ByteBuf) uint64 {
	value, _ := buf.ReadUInt64()
	return value
}

// ReadUInt16 read uint16 value
func ReadUInt16(buf *goetty.ByteBuf) uint16 {
	value, _ := buf.ReadUInt16()
	return value
}

// ReadInt read int value
func ReadInt(buf *goetty.ByteBuf) int {
	value, _ := buf.ReadInt()
	return value
}

// ReadByte read byte value
func ReadByte(buf *goetty.ByteBuf) byte {
	value, _ := buf.ReadByte()
	return value
}

// WriteFloat64 write float64 value
func WriteFloat64(value float64, buf *goetty.ByteBuf) {
	buf.WriteUInt64(math.Float64bits(value))
}

// ReadFloat64 read float64 value
func ReadFloat64(buf *goetty.ByteBuf) float64 {
	return math.Float64frombits(ReadUInt64(buf))
}

// WriteStrings write string slice value
func WriteStrings(values []string, buf *goetty.ByteBuf) {
	buf.WriteInt(len(values))
	for _, value := range values {
		WriteString(value, buf)
	}
}

// ReadStrings read string slice value
func ReadStrings(buf *goetty.ByteBuf) []string {
	var values []string
	c := ReadInt(buf)
	for i := 0; i < c; i++ {
		values = append(values, ReadString(buf))
	}

	return values
}

// WriteTopologyInfo write topology info value
func WriteTopologyInfo(value TopologyInfo, buf *goetty.ByteBuf) {
	WriteString(value.ID, buf)
	buf.WriteUInt64(value.Version)
	buf.WriteUInt64(uint64(value.TTL))
}

// ReadTopologyInfo read topology info value
func ReadTopologyInfo(buf *goetty.ByteBuf) TopologyInfo {
	return TopologyInfo{
		ID:      ReadString(buf),
		Version: ReadUInt64(buf),
		TTL:     int64(ReadUInt64(buf)),
	}
}

// WriteServers write server slice value
func WriteServers(values []Server, buf *goetty.ByteBuf) {
	buf.WriteInt(len(values))
	for _, value := range values {
		WriteString(value.UUID, buf)
		WriteString(value.Group, buf)
		WriteString(value.Host, buf)
		buf.WriteInt(value.Port)
		buf.WriteByte(byte(value.Mode))
		buf.WriteByte(byte(value.Status))
		WriteFloat64(value.Weight, buf)
	}
}

// ReadServers read server slice value
func ReadServers(buf *goetty.ByteBuf) []Server {
	var values []Server
	c := ReadInt(buf)
	for i := 0; i < c; i++ {
		values = append(values, Server{
			UUID:   ReadString(buf),
			Group:  ReadString(buf),
			Host:   ReadString(buf),
			Port:   ReadInt(buf),
			Mode:   ServerMode(ReadByte(buf)),
			Status: ServerStatus(ReadByte(buf)),
			Weight: ReadFloat64(buf),
		})
	}

	return values
}

// WriteShardInfos write shard info slice value
func WriteShardInfos(values []ShardInfo, buf *goetty.ByteBuf) {
	buf.WriteInt(len(values))
	for _, value := range values {
		WriteString(value.Database, buf)
		WriteString(value.Table, buf)
		WriteString(value.Column, buf)
		WriteString(value.Boundary, buf)
		buf.WriteUInt64(value.ShardID)
		WriteString(string(value.Type), buf)
		WriteString(value.Group, buf)
		WriteString(value.GlobalGroup, buf)
	}
}

// ReadShardInfos read shard info slice value
func ReadShardInfos(buf *goetty.ByteBuf) []ShardInfo {
	var values []ShardInfo
	c := ReadInt(buf)
	for i := 0; i < c; i++ {
		values = append(values, ShardInfo{
			Database:    ReadString(buf),
			Table:       ReadString(buf),
			Column:      ReadString(buf),
			Boundary:    ReadString(buf),
			ShardID:     ReadUInt64(buf),
			Type:        ShardType(ReadString(buf)),
			Group:       ReadString(buf),
			GlobalGroup: ReadString(buf),
		})
	}

	return values
}
