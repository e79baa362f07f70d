// Package driver defines the narrow database connection capability
// consumed by routed connections. The wire protocol and value
// conversion live behind these interfaces.
package driver

// Config connection configuration. Host and port are filled in by the
// routing layer with the resolved server address.
type Config struct {
	Host     string            `json:"host"`
	Port     int               `json:"port"`
	User     string            `json:"user"`
	Password string            `json:"password"`
	Database string            `json:"database"`
	Params   map[string]string `json:"params,omitempty"`
}

// Result outcome of a statement
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Cursor a statement cursor. Buffered cursors fetch the full result
// on execute; raw cursors return column values unconverted.
type Cursor interface {
	// Execute runs a statement
	Execute(stmt string, args ...interface{}) error
	// FetchOne returns the next row, nil when exhausted
	FetchOne() ([]interface{}, error)
	// FetchAll returns all remaining rows
	FetchAll() ([][]interface{}, error)
	// Close releases the cursor
	Close() error
}

// Conn one open connection to a database server. Errors carry the
// server's numeric code as a meta.DBError where one is available.
type Conn interface {
	// Cursor returns a cursor variant selected by (buffered, raw)
	Cursor(buffered, raw bool) (Cursor, error)
	// Commit commits the current transaction
	Commit() error
	// Rollback rolls back the current transaction
	Rollback() error
	// Query runs one statement
	Query(stmt string) (Result, error)
	// QueryMany runs several statements in order
	QueryMany(stmts []string) ([]Result, error)
	// Close closes the connection
	Close() error
}

// Connector opens a connection. A failure means the server could not
// be reached or rejected the session.
type Connector func(cfg Config) (Conn, error)
