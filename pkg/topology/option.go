package topology

import (
	"time"
)

// Option directory option
type Option func(*options)

type options struct {
	connectAttempts int
	connectDelay    time.Duration
	dial            func(host string, port int) Caller
	sink            Sink
}

func (opts *options) adjust() {
	if opts.connectAttempts == 0 {
		opts.connectAttempts = 3
	}

	if opts.connectDelay == 0 {
		opts.connectDelay = time.Second
	}

	if opts.dial == nil {
		attempts := opts.connectAttempts
		delay := opts.connectDelay
		opts.dial = func(host string, port int) Caller {
			return NewLink(host, port, attempts, delay)
		}
	}

	if opts.sink == nil {
		opts.sink = noopSink{}
	}
}

// WithConnectAttempts set how often a link connect is attempted
func WithConnectAttempts(value int) Option {
	return func(opts *options) {
		opts.connectAttempts = value
	}
}

// WithConnectDelay set the fixed delay between link connect attempts
func WithConnectDelay(value time.Duration) Option {
	return func(opts *options) {
		opts.connectDelay = value
	}
}

// WithDialer set how topology node callers are created
func WithDialer(value func(host string, port int) Caller) Option {
	return func(opts *options) {
		opts.dial = value
	}
}

// WithSink set where refreshed topology facts are mirrored
func WithSink(value Sink) Option {
	return func(opts *options) {
		opts.sink = value
	}
}
