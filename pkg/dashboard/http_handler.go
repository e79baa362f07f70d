package dashboard

import (
	"errors"
	"net/http"

	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/adyliu/gofabric/pkg/util"
	"github.com/labstack/echo"
)

const (
	succeed = 0
	failed  = 1
)

var (
	errMissingParam = errors.New("missing param")
)

func readGroupParam(ctx echo.Context) (string, error) {
	group := ctx.Param("group")
	if group == "" {
		return "", errMissingParam
	}

	return group, nil
}

type topologyView struct {
	Info  meta.TopologyInfo `json:"info"`
	Nodes []string          `json:"nodes"`
}

func (s *Dashboard) topology() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, &meta.JSONResult{
			Value: &topologyView{
				Info:  s.dir.Info(),
				Nodes: s.dir.Nodes(),
			},
		})
	}
}

func (s *Dashboard) runtime() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		result := meta.JSONResult{}
		value, err := util.MemStats()
		result.Value = value
		if err != nil {
			result.Code = failed
			result.Value = err.Error()
		}

		return ctx.JSON(http.StatusOK, result)
	}
}

func (s *Dashboard) groups() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, &meta.JSONResult{
			Value: s.dir.CachedGroups(),
		})
	}
}

func (s *Dashboard) groupServers() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		group, err := readGroupParam(ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		useCache := ctx.QueryParam("cache") != "false"

		result := meta.JSONResult{}
		value, err := s.dir.GroupServers(group, useCache)
		result.Value = value
		if err != nil {
			result.Code = failed
			result.Value = err.Error()
		}

		return ctx.JSON(http.StatusOK, result)
	}
}

type shardView struct {
	Database    string         `json:"database"`
	Table       string         `json:"table"`
	Column      string         `json:"column"`
	Type        meta.ShardType `json:"type"`
	GlobalGroup string         `json:"globalGroup"`
	Partitions  int            `json:"partitions"`
}

func (s *Dashboard) shards() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		views := make(map[string]shardView)
		for name, shard := range s.dir.CachedShards() {
			views[name] = shardView{
				Database:    shard.Database,
				Table:       shard.Table,
				Column:      shard.Column,
				Type:        shard.Type,
				GlobalGroup: shard.GlobalGroup,
				Partitions:  shard.Partitions(),
			}
		}

		return ctx.JSON(http.StatusOK, &meta.JSONResult{
			Value: views,
		})
	}
}

func (s *Dashboard) dumpShards() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		value := meta.ShardDump{}
		err := util.ReadJSONFromBody(ctx.Request().Body, &value)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		result := meta.JSONResult{}
		err = s.dir.ShardInfo(value.Tables, value.Database)
		if err != nil {
			result.Code = failed
			result.Value = err.Error()
		}

		return ctx.JSON(http.StatusOK, result)
	}
}

func (s *Dashboard) reportFault() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		value := meta.FaultReport{}
		err := util.ReadJSONFromBody(ctx.Request().Body, &value)
		if err != nil || value.ServerUUID == "" {
			return ctx.NoContent(http.StatusBadRequest)
		}

		s.dir.ReportFault(value.ServerUUID,
			meta.ParseServerStatus(value.Status),
			value.Group)
		return ctx.JSON(http.StatusOK, &meta.JSONResult{})
	}
}

func (s *Dashboard) invalidateAll() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		s.dir.InvalidateAll()
		return ctx.JSON(http.StatusOK, &meta.JSONResult{})
	}
}

func (s *Dashboard) invalidateGroup() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		group, err := readGroupParam(ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		s.dir.InvalidateGroup(group)
		return ctx.JSON(http.StatusOK, &meta.JSONResult{})
	}
}
