package registry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolve 结果标签
const (
	resultHit         = "hit"
	resultMiss        = "miss"
	resultUnsupported = "unsupported"
	resultError       = "error"
	resultCanceled    = "canceled"
	resultInvalid     = "invalid"
	resultOK          = "ok"
)

// 驱逐原因标签
const (
	reasonExplicit    = "explicit"
	reasonEnvironment = "environment"
	reasonLiveness    = "liveness"
	reasonShutdown    = "shutdown"
)

// metrics 注册表指标
type metrics struct {
	resolves      *prometheus.CounterVec
	constructions *prometheus.CounterVec
	evictions     *prometheus.CounterVec
	cached        prometheus.Gauge
}

// newMetrics 创建指标并注册到 reg
//
// reg 为 nil 时指标只在内存中计数，不对外暴露。
// 同一 Registerer 上重复创建时复用已注册的收集器。
func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	m := &metrics{
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "resolve_total",
			Help:      "Resolve calls by result.",
		}, []string{"result"}),
		constructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "constructions_total",
			Help:      "Client factory invocations by scheme and result.",
		}, []string{"scheme", "result"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "evictions_total",
			Help:      "Evicted clients by reason.",
		}, []string{"reason"}),
		cached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "cached_clients",
			Help:      "Clients currently cached.",
		}),
	}
	if reg == nil {
		return m
	}
	m.resolves = register(reg, m.resolves)
	m.constructions = register(reg, m.constructions)
	m.evictions = register(reg, m.evictions)
	m.cached = register(reg, m.cached)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		logger.Warn("注册指标失败", "error", err)
	}
	return c
}

func (m *metrics) resolve(result string) {
	m.resolves.WithLabelValues(result).Inc()
}

func (m *metrics) construction(scheme, result string) {
	m.constructions.WithLabelValues(scheme, result).Inc()
}

func (m *metrics) evicted(reason string) {
	m.evictions.WithLabelValues(reason).Inc()
	m.cached.Dec()
}

func (m *metrics) installed() {
	m.cached.Inc()
}
