package meta

import (
	"fmt"
)

// MySQL error codes that invalidate the routing cache and surface as
// a retryable transaction error.
const (
	// CodeServerLost connection to the MySQL server was lost mid-use
	CodeServerLost = uint16(2013)
	// CodeBlockedByMode the server mode prevents the statement
	CodeBlockedByMode = uint16(1290)
)

// RetryableCode returns true if the driver error code means the caller
// should retry the transaction after the cache has been invalidated.
func RetryableCode(code uint16) bool {
	return code == CodeServerLost || code == CodeBlockedByMode
}

// ConfigurationError invalid or contradictory routing properties.
// Fatal, raised before any I/O and never retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Msg)
}

// NewConfigurationErrorf returns a ConfigurationError
func NewConfigurationErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigurationError returns true if err is a ConfigurationError
func IsConfigurationError(err error) bool {
	_, ok := err.(*ConfigurationError)
	return ok
}

// RoutingError no eligible server, topology unreachable, unsupported
// shard type or cross-shard mismatch. Retried internally by the routed
// connection up to its attempt budget.
type RoutingError struct {
	Msg   string
	Cause error
}

func (e *RoutingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("routing: %s: %v", e.Msg, e.Cause)
	}

	return fmt.Sprintf("routing: %s", e.Msg)
}

// Unwrap returns the wrapped cause
func (e *RoutingError) Unwrap() error {
	return e.Cause
}

// NewRoutingErrorf returns a RoutingError without a cause
func NewRoutingErrorf(format string, args ...interface{}) error {
	return &RoutingError{Msg: fmt.Sprintf(format, args...)}
}

// WrapRoutingError returns a RoutingError wrapping cause
func WrapRoutingError(cause error, format string, args ...interface{}) error {
	return &RoutingError{Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// IsRoutingError returns true if err is a RoutingError
func IsRoutingError(err error) bool {
	_, ok := err.(*RoutingError)
	return ok
}

// RetryableError the driver signalled connection-lost or a
// mode-blocked statement mid-use. The cache has been invalidated;
// the caller owns the transaction retry.
type RetryableError struct {
	Cause error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("temporary error, retry transaction: %v", e.Cause)
}

// Unwrap returns the wrapped driver error
func (e *RetryableError) Unwrap() error {
	return e.Cause
}

// NewRetryableError returns a RetryableError wrapping cause
func NewRetryableError(cause error) error {
	return &RetryableError{Cause: cause}
}

// IsRetryableError returns true if err is a RetryableError
func IsRetryableError(err error) bool {
	_, ok := err.(*RetryableError)
	return ok
}

// UnsupportedError the operation is not available on routed
// connections. Fatal, immediate.
type UnsupportedError struct {
	Op string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported on routed connections", e.Op)
}

// NewUnsupportedError returns an UnsupportedError
func NewUnsupportedError(op string) error {
	return &UnsupportedError{Op: op}
}

// IsUnsupportedError returns true if err is an UnsupportedError
func IsUnsupportedError(err error) bool {
	_, ok := err.(*UnsupportedError)
	return ok
}

// DBError an error reported by the database driver, carrying the
// server's numeric error code.
type DBError struct {
	Code uint16
	Msg  string
}

func (e *DBError) Error() string {
	return fmt.Sprintf("db error %d: %s", e.Code, e.Msg)
}

// NewDBError returns a DBError
func NewDBError(code uint16, msg string) error {
	return &DBError{Code: code, Msg: msg}
}

// DBErrorCode extracts the numeric code from a driver error,
// returning 0 when err is not a DBError.
func DBErrorCode(err error) uint16 {
	if dbe, ok := err.(*DBError); ok {
		return dbe.Code
	}

	return 0
}
