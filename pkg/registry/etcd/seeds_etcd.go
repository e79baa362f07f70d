package etcd

import (
	"context"
	"fmt"

	"github.com/coreos/etcd/clientv3"
	"github.com/fagongzi/util/hack"
)

var (
	seedKeyPrefix = "topology-seeds-"
)

// Seeds etcd seeds source. Topology nodes register their address
// under topology-seeds-<group>/, clients list that prefix.
type Seeds struct {
	opts options
	kv   clientv3.KV
}

// NewSeeds returns an etcd seeds source
func NewSeeds(client *clientv3.Client, opts ...Option) (*Seeds, error) {
	return NewSeedsKV(clientv3.NewKV(client), opts...)
}

// NewSeedsKV returns an etcd seeds source on an existing kv
func NewSeedsKV(kv clientv3.KV, opts ...Option) (*Seeds, error) {
	s := &Seeds{}
	for _, opt := range opts {
		opt(&s.opts)
	}

	s.opts.adjust()

	s.kv = kv
	return s, nil
}

// List returns the registered topology node addresses
func (s *Seeds) List() ([]string, error) {
	resp, err := s.kv.Get(context.Background(), s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, kv := range resp.Kvs {
		addrs = append(addrs, hack.SliceToString(kv.Value))
	}

	return addrs, nil
}

func (s *Seeds) prefix() string {
	return fmt.Sprintf("%s%s/", seedKeyPrefix, s.opts.group)
}
