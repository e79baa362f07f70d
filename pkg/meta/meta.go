package meta

import (
	"fmt"
)

// DefaultTopologyPort is used when a fellow node address carries no port
const DefaultTopologyPort = 8080

// ServerMode access mode of a MySQL server
type ServerMode byte

var (
	// ModeNone no mode constraint
	ModeNone = ServerMode(0)
	// ModeReadonly server accepts only reads
	ModeReadonly = ServerMode(1)
	// ModeWriteonly server accepts only writes
	ModeWriteonly = ServerMode(2)
	// ModeReadwrite server accepts reads and writes
	ModeReadwrite = ServerMode(3)
)

// Name mode name
func (m ServerMode) Name() string {
	switch m {
	case ModeReadonly:
		return "readonly"
	case ModeWriteonly:
		return "writeonly"
	case ModeReadwrite:
		return "readwrite"
	}

	return "none"
}

// CanWrite returns true if the mode requests write capability
func (m ServerMode) CanWrite() bool {
	return m == ModeWriteonly || m == ModeReadwrite
}

// ServerStatus status of a MySQL server within its group
type ServerStatus byte

var (
	// StatusFaulty server reported faulty
	StatusFaulty = ServerStatus(0)
	// StatusSpare server is a spare
	StatusSpare = ServerStatus(1)
	// StatusSecondary server is a read replica
	StatusSecondary = ServerStatus(2)
	// StatusPrimary server is the group primary
	StatusPrimary = ServerStatus(3)
	// StatusNone no status constraint
	StatusNone = ServerStatus(0xff)
)

// Name status name
func (s ServerStatus) Name() string {
	switch s {
	case StatusFaulty:
		return "faulty"
	case StatusSpare:
		return "spare"
	case StatusSecondary:
		return "secondary"
	case StatusPrimary:
		return "primary"
	}

	return "none"
}

// Protocol the symbolic status the topology service expects on the wire
func (s ServerStatus) Protocol() string {
	switch s {
	case StatusFaulty:
		return "FAULTY"
	case StatusSpare:
		return "SPARE"
	case StatusSecondary:
		return "SECONDARY"
	case StatusPrimary:
		return "PRIMARY"
	}

	return ""
}

// ParseServerStatus parse the symbolic wire status
func ParseServerStatus(value string) ServerStatus {
	switch value {
	case "FAULTY":
		return StatusFaulty
	case "SPARE":
		return StatusSpare
	case "SECONDARY":
		return StatusSecondary
	case "PRIMARY":
		return StatusPrimary
	}

	return StatusNone
}

// Scope shard scope
type Scope string

var (
	// ScopeGlobal targets the cluster-wide coordination group
	ScopeGlobal = Scope("GLOBAL")
	// ScopeLocal targets the shard-owning group for a given key
	ScopeLocal = Scope("LOCAL")
)

// Server a MySQL server as reported by the topology service
type Server struct {
	UUID   string       `json:"uuid"`
	Group  string       `json:"group"`
	Host   string       `json:"host"`
	Port   int          `json:"port"`
	Mode   ServerMode   `json:"mode"`
	Status ServerStatus `json:"status"`
	Weight float64      `json:"weight"`
}

// Addr returns the host:port address of the server
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Tag returns a log tag for the server
func (s *Server) Tag() string {
	return fmt.Sprintf("[server-%s/%s]: %s %s %s",
		s.Group,
		s.UUID,
		s.Addr(),
		s.Status.Name(),
		s.Mode.Name())
}

// TopologyInfo identity, version token and TTL reported by every
// topology service response.
type TopologyInfo struct {
	ID      string `json:"id"`
	Version uint64 `json:"version"`
	TTL     int64  `json:"ttl"`
}
