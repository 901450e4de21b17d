package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(uploadsSweptTotal) }

var uploadsSweptTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "staged_uploads_swept_total",
		Help: "Staged uploads removed because no pipeline fetched them in time.",
	},
)

func AddUploadsSwept(n int) {
	if n > 0 {
		uploadsSweptTotal.Add(float64(n))
	}
}
