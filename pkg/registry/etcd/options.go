package etcd

// Option option
type Option func(*options)

type options struct {
	group string
}

func (opts *options) adjust() {
	if opts.group == "" {
		opts.group = "default"
	}
}

// WithGroup set the registry group the topology nodes registered under
func WithGroup(value string) Option {
	return func(opts *options) {
		opts.group = value
	}
}
