package meta

// JSONResult json result
type JSONResult struct {
	Code  int         `json:"code"`
	Value interface{} `json:"value,omitempty"`
}

// FaultReport a server fault reported through the ops api
type FaultReport struct {
	ServerUUID string `json:"serverUUID"`
	Status     string `json:"status"`
	Group      string `json:"group"`
}

// ShardDump a shard layout fetch requested through the ops api
type ShardDump struct {
	Tables   []string `json:"tables"`
	Database string   `json:"database,omitempty"`
}
