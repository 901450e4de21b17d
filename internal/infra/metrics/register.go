package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register is called from init() in each metrics file to queue collectors.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister adds every queued collector to the default registry; later
// calls are no-ops.
func MustRegister() {
	once.Do(func() {
		if len(collectors) > 0 {
			prometheus.MustRegister(collectors...)
		}
	})
}

// norm lower-cases and trims a label value; empty values become "unknown".
func norm(s string) string { return orUnknown(strings.ToLower(strings.TrimSpace(s))) }

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
