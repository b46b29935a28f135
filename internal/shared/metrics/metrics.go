package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	dismissTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommended_actions_dismiss_total",
		Help: "Dismiss requests by result",
	}, []string{"result"})

	seedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommended_actions_seed_total",
		Help: "Visibility records seeded",
	})

	outstanding = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recommended_actions_outstanding",
		Help: "Outstanding recommended actions at the last computation",
	})

	probeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "component_probe_duration_seconds",
		Help:    "Component state probe latency",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"state"})
)

func init() {
	registry.MustRegister(dismissTotal, seedTotal, outstanding, probeDuration)
}

// IncDismiss counts a dismiss outcome: ok, invalid or failed.
func IncDismiss(result string) {
	dismissTotal.WithLabelValues(result).Inc()
}

// IncSeed counts a visibility record seed.
func IncSeed() {
	seedTotal.Inc()
}

// SetOutstanding records the most recently computed outstanding count.
func SetOutstanding(n int) {
	outstanding.Set(float64(n))
}

// ObserveProbe records one probe call and the state it reported.
func ObserveProbe(state string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	probeDuration.WithLabelValues(state).Observe(d.Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
