package registry

import (
	"net/url"
	"strings"

	"github.com/fagongzi/log"
)

var (
	protocolEtcd   = "etcd"
	protocolStatic = "static"
)

// NewSeeds returns a seeds source by url, e.g.
// etcd://127.0.0.1:2379?group=default or
// static://topo1:8080?servers=topo2:8080
func NewSeeds(addr string) (Seeds, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case protocolEtcd:
		return newEtcdSeeds(u)
	case protocolStatic:
		return newStaticSeeds(u), nil
	}

	log.Fatalf("the schema %s is not support", u.Scheme)
	return nil, nil
}

type staticSeeds struct {
	addrs []string
}

func newStaticSeeds(u *url.URL) Seeds {
	addrs := []string{u.Host}
	if values, ok := u.Query()[paramServers]; ok {
		for _, value := range values {
			addrs = append(addrs, strings.Split(value, ",")...)
		}
	}

	return &staticSeeds{addrs: addrs}
}

func (s *staticSeeds) List() ([]string, error) {
	return s.addrs, nil
}
