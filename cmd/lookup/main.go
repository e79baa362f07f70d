package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/adyliu/gofabric/pkg/driver"
	"github.com/adyliu/gofabric/pkg/driver/mysql"
	"github.com/adyliu/gofabric/pkg/id"
	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/adyliu/gofabric/pkg/route"
	"github.com/adyliu/gofabric/pkg/topology"
	"github.com/adyliu/gofabric/pkg/util"
	"github.com/fagongzi/log"
	"github.com/fagongzi/util/format"
)

var (
	addrTopology = flag.String("addr-topology", "127.0.0.1:8080", "Addr: topology node seed address")
	group        = flag.String("group", "", "Route: target group")
	tables       = flag.String("tables", "", "Route: target tables, comma separated db.table references")
	key          = flag.String("key", "", "Route: shard key")
	scope        = flag.String("scope", "LOCAL", "Route: shard scope, LOCAL or GLOBAL")
	mode         = flag.String("mode", "", "Route: server mode, ro or rw, empty for any")
	user         = flag.String("user", "", "MySQL user, resolve only when empty")
	password     = flag.String("password", "", "MySQL password")
	database     = flag.String("database", "", "MySQL database")
	sql          = flag.String("sql", "", "Statement to run on the resolved server")
	machineID    = flag.Uint("id", 0, "Machine ID: snowflake machine id used to tag connections in logs")

	version = flag.Bool("version", false, "Show version info")
)

func main() {
	flag.Parse()

	if *version && util.PrintVersion() {
		os.Exit(0)
	}

	log.InitLog()

	host, port := splitSeedAddr(*addrTopology)
	reg := topology.NewRegistry()
	dir, err := reg.GetOrCreate(host, port)
	if err != nil {
		log.Fatalf("discover topology failed with %+v", err)
	}

	target, err := route.Options{
		Group:  *group,
		Tables: parseTables(),
		Key:    *key,
		Scope:  meta.Scope(*scope),
		Mode:   parseMode(),
	}.Target()
	if err != nil {
		log.Fatalf("invalid routing properties, %+v", err)
	}

	if *user == "" {
		resolve(dir, target)
		return
	}

	run(dir, target)
}

func resolve(dir *topology.Directory, target route.Target) {
	var server meta.Server
	var err error
	if target.IsShard() {
		server, err = dir.ResolveShard(target.Tables(),
			target.Key(),
			target.Scope(),
			target.Mode())
	} else {
		server, err = dir.ResolveGroup(target.Group(),
			target.Mode(),
			meta.StatusNone)
	}

	if err != nil {
		log.Fatalf("resolve failed with %+v", err)
	}

	fmt.Println(server.Tag())
}

func run(dir *topology.Directory, target route.Target) {
	gen := id.NewSnowflakeGenerator(uint16(*machineID))
	value, err := gen.Gen()
	if err != nil {
		log.Fatalf("generate connection id failed with %+v", err)
	}

	c := route.NewConnection(value, dir, mysql.Connect, driver.Config{
		User:     *user,
		Password: *password,
		Database: *database,
	}, route.RetryPolicy{Attempts: 3, AttemptDelay: time.Second})
	defer c.Close()

	if err := c.SetTarget(target); err != nil {
		log.Fatalf("set target failed with %+v", err)
	}

	cursor, err := c.Cursor(route.CursorOptions{Buffered: true})
	if err != nil {
		log.Fatalf("open cursor failed with %+v", err)
	}
	defer cursor.Close()

	if err := cursor.Execute(*sql); err != nil {
		log.Fatalf("execute failed with %+v", err)
	}

	rows, err := cursor.FetchAll()
	if err != nil {
		log.Fatalf("fetch failed with %+v", err)
	}

	server := c.Server()
	fmt.Printf("routed to %s\n", server.Tag())
	for _, row := range rows {
		fmt.Println(row)
	}
}

func parseTables() []string {
	if *tables == "" {
		return nil
	}

	return strings.Split(*tables, ",")
}

func parseMode() meta.ServerMode {
	switch *mode {
	case "ro":
		return meta.ModeReadonly
	case "rw":
		return meta.ModeReadwrite
	}

	return meta.ModeNone
}

func splitSeedAddr(addr string) (string, int) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, meta.DefaultTopologyPort
	}

	value, err := format.ParseStrInt(port)
	if err != nil {
		log.Fatalf("invalid seed addr %s", addr)
	}

	return host, value
}
