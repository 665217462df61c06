package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are declared next to the code they measure and enqueued from
// each file's init(). MustRegister flushes the queue into the default
// registry once, during startup, so import order never double-registers.
var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(pending...)
		pending = nil
	})
}

// norm keeps label values on a tight vocabulary regardless of caller casing.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Constant 1 gauge labelled with the running version and commit.",
	},
	[]string{"version", "commit"},
)

func init() {
	register(buildInfo)
}

// SetBuildInfo records the binary's version labels, once at boot.
func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}
