package main

import (
	"flag"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/adyliu/gofabric/pkg/dashboard"
	"github.com/adyliu/gofabric/pkg/local"
	"github.com/adyliu/gofabric/pkg/meta"
	"github.com/adyliu/gofabric/pkg/metrics"
	"github.com/adyliu/gofabric/pkg/registry"
	"github.com/adyliu/gofabric/pkg/topology"
	"github.com/adyliu/gofabric/pkg/util"
	"github.com/fagongzi/log"
	"github.com/fagongzi/util/format"
)

var (
	addr         = flag.String("addr", "127.0.0.1:8081", "Addr: dashboard http server")
	addrTopology = flag.String("addr-topology", "127.0.0.1:8080", "Addr: topology node seed addresses, comma separated")
	addrSeeds    = flag.String("addr-seeds", "", "Addr: registry center url for seed discovery, e.g. etcd://127.0.0.1:2379?group=default")
	addrPPROF    = flag.String("addr-pprof", "", "Addr: pprof addr")
	dataPath     = flag.String("data", "", "Local data path for the topology snapshot mirror, empty to disable")
	attempts     = flag.Int("attempts", 3, "Limit: connect attempts per topology node")
	delaySec     = flag.Int("delay", 1, "Limit: delay between connect attempts in seconds")
	cpu          = flag.Int("cpu", 0, "Limit: schedule threads count")
	ui           = flag.String("ui", "", "The dashboard ui dist dir, empty to disable")
	uiPrefix     = flag.String("ui-prefix", "/ui", "The dashboard ui prefix path.")

	// metrics
	prometheusJob             = flag.String("metrics-job", "gofabric", "Prometheus job name")
	prometheusPushgateway     = flag.String("metrics-push-addr", "", "Prometheus pushgateway address")
	prometheusPushIntervalSec = flag.Int("metrics-push-interval", 0, "Prometheus metrics push interval in seconds")

	version = flag.Bool("version", false, "Show version info")
)

func main() {
	flag.Parse()

	if *version && util.PrintVersion() {
		os.Exit(0)
	}

	log.InitLog()

	if *cpu == 0 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	} else {
		runtime.GOMAXPROCS(*cpu)
	}

	if *addrPPROF != "" {
		go func() {
			log.Errorf("start pprof failed, errors:\n%+v",
				http.ListenAndServe(*addrPPROF, nil))
		}()
	}

	metrics.Push(&metrics.Cfg{
		Job:      *prometheusJob,
		Address:  *prometheusPushgateway,
		Interval: time.Second * time.Duration(*prometheusPushIntervalSec),
	})

	dir := topology.NewDirectory(parseTopologyOptions()...)
	seedDirectory(dir, seedAddrs())

	s := dashboard.NewDashboard(dashboard.Cfg{
		Addr:     *addr,
		UI:       *ui,
		UIPrefix: *uiPrefix,
	}, dir)

	go s.Start()

	waitStop(s)
}

func parseTopologyOptions() []topology.Option {
	var opts []topology.Option
	opts = append(opts, topology.WithConnectAttempts(*attempts))
	opts = append(opts, topology.WithConnectDelay(time.Second*time.Duration(*delaySec)))

	if *dataPath != "" {
		snap, err := local.NewSnapshot(*dataPath)
		if err != nil {
			log.Fatalf("init snapshot mirror failed with %+v", err)
		}
		opts = append(opts, topology.WithSink(snap))
	}

	return opts
}

func seedAddrs() []string {
	if *addrSeeds != "" {
		seeds, err := registry.NewSeeds(*addrSeeds)
		if err != nil {
			log.Fatalf("init seeds source failed with %+v", err)
		}

		addrs, err := seeds.List()
		if err != nil {
			log.Fatalf("list seeds failed with %+v", err)
		}

		if len(addrs) > 0 {
			return addrs
		}

		log.Warnf("no seeds registered, fall back to %s", *addrTopology)
	}

	return strings.Split(*addrTopology, ",")
}

func seedDirectory(dir *topology.Directory, addrs []string) {
	for _, addr := range addrs {
		host, port := splitSeedAddr(addr)
		if err := dir.Discover(host, port); err != nil {
			log.Warnf("discover via %s failed with %+v", addr, err)
			continue
		}

		return
	}

	log.Fatalf("no topology node reachable via %+v", addrs)
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

func waitStop(s *dashboard.Dashboard) {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	sig := <-sc
	s.Stop()
	log.Infof("exit: signal=<%d>.", sig)
	switch sig {
	case syscall.SIGTERM:
		log.Infof("exit: bye :-).")
		os.Exit(0)
	default:
		log.Infof("exit: bye :-(.")
		os.Exit(1)
	}
}
