package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type promMonitor struct {
	enable     bool
	registerer prometheus.Registerer

	mu         sync.Mutex
	collectors map[string]prometheus.Collector
}

var (
	instMu   sync.Mutex
	instance *promMonitor
)

// Setup replaces the process monitor. Metrics created before Setup stay
// attached to the previous monitor, so call it before building components.
func Setup(enable bool, registerer prometheus.Registerer) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	instMu.Lock()
	instance = &promMonitor{
		enable:     enable,
		registerer: registerer,
		collectors: make(map[string]prometheus.Collector),
	}
	instMu.Unlock()
}

// GetInstance returns the process monitor, disabled until Setup enables it.
func GetInstance() Monitor {
	instMu.Lock()
	defer instMu.Unlock()
	if instance == nil {
		instance = &promMonitor{collectors: make(map[string]prometheus.Collector)}
	}
	return instance
}

// register returns the collector already registered under metric, if any,
// so that components built twice share one vector.
func (prom *promMonitor) register(metric string, build func() prometheus.Collector) prometheus.Collector {
	prom.mu.Lock()
	defer prom.mu.Unlock()
	if c, ok := prom.collectors[metric]; ok {
		return c
	}
	c := build()
	prom.registerer.MustRegister(c)
	prom.collectors[metric] = c
	return c
}

func (prom *promMonitor) NewLabeledCounter(metric string, labelNames []string) LabeledCounter {
	if !prom.enable {
		return &labeledCounter{enable: false}
	}
	c := prom.register(metric, func() prometheus.Collector {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: metric, Help: metric}, labelNames)
	})
	return &labeledCounter{c.(*prometheus.CounterVec), true}
}

func (prom *promMonitor) NewLabeledSummary(metric string, labelNames []string, quantile map[float64]float64) LabeledSummary {
	if !prom.enable {
		return &labeledSummary{enable: false}
	}
	if quantile == nil {
		quantile = map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}
	}
	c := prom.register(metric, func() prometheus.Collector {
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{Name: metric, Help: metric, Objectives: quantile}, labelNames)
	})
	return &labeledSummary{c.(*prometheus.SummaryVec), true}
}

func (prom *promMonitor) NewLabeledHistogram(metric string, labelNames []string, buckets []float64) LabeledHistogram {
	if !prom.enable {
		return &labeledHistogram{enable: false}
	}
	c := prom.register(metric, func() prometheus.Collector {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: metric, Help: metric, Buckets: buckets}, labelNames)
	})
	return &labeledHistogram{c.(*prometheus.HistogramVec), true}
}
