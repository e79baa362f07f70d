package meta

// Topology service RPC commands
const (
	// CmdLookupNodes list the fellow topology service nodes
	CmdLookupNodes = byte(1)
	// CmdDumpMembers dump group membership matching a pattern
	CmdDumpMembers = byte(2)
	// CmdDumpShards dump sharding information matching table patterns
	CmdDumpShards = byte(3)
	// CmdSetStatus change the status of a server
	CmdSetStatus = byte(4)
	// CmdProbe is never served; the service answers it with
	// FaultNoSuchMethod, which is how liveness is verified.
	CmdProbe = byte(0xff)
)

// FaultNoSuchMethod the fault string the topology service answers for
// an unknown command. Receiving it proves the transport is alive.
const FaultNoSuchMethod = "no such method"

// CmdName command name
func CmdName(cmd byte) string {
	switch cmd {
	case CmdLookupNodes:
		return "lookup_nodes"
	case CmdDumpMembers:
		return "dump_members"
	case CmdDumpShards:
		return "dump_shards"
	case CmdSetStatus:
		return "set_status"
	case CmdProbe:
		return "probe"
	}

	return "unknown"
}

// RPCRequest a request to the topology service
type RPCRequest struct {
	Seq        uint64
	Cmd        byte
	Version    uint64
	Pattern    string
	ServerUUID string
	Status     string
}

// RPCResponse a response from the topology service
type RPCResponse struct {
	Seq     uint64
	Cmd     byte
	Fault   string
	Info    TopologyInfo
	Addrs   []string
	Servers []Server
	Shards  []ShardInfo
}
