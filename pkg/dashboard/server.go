// Package dashboard exposes the routing state of a topology directory
// over http, for operators inspecting what clients currently believe
// about the cluster.
package dashboard

import (
	"context"

	"github.com/adyliu/gofabric/pkg/topology"
	"github.com/labstack/echo"
)

const (
	version = "/v1"
)

// Cfg dashboard configuration
type Cfg struct {
	Addr     string
	UI       string
	UIPrefix string
}

// Dashboard an api dashboard server
type Dashboard struct {
	cfg    Cfg
	server *echo.Echo
	dir    *topology.Directory
}

// NewDashboard returns a dashboard server over dir
func NewDashboard(cfg Cfg, dir *topology.Directory) *Dashboard {
	s := &Dashboard{
		cfg:    cfg,
		server: echo.New(),
		dir:    dir,
	}

	s.initRoute()
	return s
}

func (s *Dashboard) initRoute() {
	if s.cfg.UI != "" {
		s.server.Static(s.cfg.UIPrefix, s.cfg.UI)
	}

	versionGroup := s.server.Group(version)
	versionGroup.GET("/topology", s.topology())
	versionGroup.GET("/runtime", s.runtime())
	versionGroup.GET("/groups", s.groups())
	versionGroup.GET("/groups/:group/servers", s.groupServers())
	versionGroup.GET("/shards", s.shards())
	versionGroup.POST("/shards", s.dumpShards())
	versionGroup.POST("/faults", s.reportFault())
	versionGroup.DELETE("/cache", s.invalidateAll())
	versionGroup.DELETE("/cache/:group", s.invalidateGroup())
}

// Start start the dashboard
func (s *Dashboard) Start() error {
	return s.server.Start(s.cfg.Addr)
}

// Stop stop the dashboard
func (s *Dashboard) Stop() error {
	return s.server.Shutdown(context.TODO())
}
