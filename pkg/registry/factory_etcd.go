package registry

import (
	"fmt"
	"net/url"

	"github.com/adyliu/gofabric/pkg/registry/etcd"
	"github.com/coreos/etcd/clientv3"
)

const (
	paramServers  = "servers"
	paramUsername = "user"
	paramPassword = "password"

	paramGroup = "group"
)

func newEtcdSeeds(u *url.URL) (Seeds, error) {
	cfg := clientv3.Config{}
	var servers []string
	servers = append(servers, fmt.Sprintf("http://%s", u.Host))
	if values, ok := u.Query()[paramServers]; ok {
		for _, value := range values {
			servers = append(servers, fmt.Sprintf("http://%s", value))
		}
	}
	cfg.Endpoints = servers

	user := u.Query().Get(paramUsername)
	if user != "" {
		cfg.Username = user
	}

	password := u.Query().Get(paramPassword)
	if password != "" {
		cfg.Password = password
	}

	client, err := clientv3.New(cfg)
	if err != nil {
		return nil, err
	}

	var opts []etcd.Option
	group := u.Query().Get(paramGroup)
	if group != "" {
		opts = append(opts, etcd.WithGroup(group))
	}

	return etcd.NewSeeds(client, opts...)
}
