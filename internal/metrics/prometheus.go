package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chrinide/mbxas/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	collectiveOps     *prometheus.CounterVec
	collectiveBytes   *prometheus.CounterVec
	collectiveLatency *prometheus.HistogramVec
	serialFallbacks   prometheus.Counter
	worldSize         prometheus.Gauge
	poolCount         prometheus.Gauge
	localWorkCount    prometheus.Gauge
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "mbxas" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "mbxas"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.collectiveOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "collective_ops_total",
			Help:      "Total collective operations completed by kind.",
		}, []string{"op"})

		p.collectiveBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "collective_bytes_total",
			Help:      "Total payload bytes moved by collective operations by kind.",
		}, []string{"op"})

		p.collectiveLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "collective_duration_seconds",
			Help:      "Wall-clock duration of collective operations by kind.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"})

		p.serialFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "serial_fallbacks_total",
			Help:      "Times the library fell back to the single-process communicator.",
		})

		p.worldSize = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "topology",
			Name:      "world_size",
			Help:      "Total number of processes in the computation.",
		})

		p.poolCount = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "topology",
			Name:      "pool_count",
			Help:      "Number of pools the world was divided into.",
		})

		p.localWorkCount = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "work",
			Name:      "local_tuples",
			Help:      "Number of spin/k-point tuples assigned to this process's pool.",
		})

		for _, c := range []prometheus.Collector{
			p.collectiveOps, p.collectiveBytes, p.collectiveLatency,
			p.serialFallbacks, p.worldSize, p.poolCount, p.localWorkCount,
		} {
			// AlreadyRegisteredError is tolerated so multiple communicators
			// in one process can share a registry.
			if err := p.reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}

// RecordCollective records one completed collective operation.
func (p *PrometheusCollector) RecordCollective(op string, bytes int, seconds float64) {
	p.ensureRegistered()
	p.collectiveOps.WithLabelValues(op).Inc()
	p.collectiveBytes.WithLabelValues(op).Add(float64(bytes))
	p.collectiveLatency.WithLabelValues(op).Observe(seconds)
}

// RecordSerialFallback counts a fall back to the serial communicator.
func (p *PrometheusCollector) RecordSerialFallback() {
	p.ensureRegistered()
	p.serialFallbacks.Inc()
}

// SetWorldSize records the total process count.
func (p *PrometheusCollector) SetWorldSize(n int) {
	p.ensureRegistered()
	p.worldSize.Set(float64(n))
}

// SetPoolCount records the number of pools.
func (p *PrometheusCollector) SetPoolCount(n int) {
	p.ensureRegistered()
	p.poolCount.Set(float64(n))
}

// SetLocalWorkCount records the local tuple count.
func (p *PrometheusCollector) SetLocalWorkCount(n int) {
	p.ensureRegistered()
	p.localWorkCount.Set(float64(n))
}
