// Package metrics exports behaviour transition counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
)

const namespace = "rgraph"

// Collector counts behaviour transitions. It is a behaviour.Listener and a
// prometheus.Collector; register it on any registry.
type Collector struct {
	transitions *prometheus.CounterVec
	connected   *prometheus.GaugeVec
}

// NewCollector returns an unregistered collector.
func NewCollector() *Collector {
	return &Collector{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "behaviour",
				Name:      "transitions_total",
				Help:      "Behaviour transitions by behaviour type, target state and outcome.",
			},
			[]string{"behaviour", "target", "outcome"},
		),
		connected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "behaviour",
				Name:      "connected",
				Help:      "Behaviours currently connected, by behaviour type.",
			},
			[]string{"behaviour"},
		),
	}
}

// Transitioned implements behaviour.Listener.
func (c *Collector) Transitioned(ev behaviour.TransitionEvent) {
	ty := ev.Behaviour.String()
	outcome := "ok"
	if !ev.Succeeded() {
		outcome = "error"
	}
	c.transitions.WithLabelValues(ty, ev.Target.String(), outcome).Inc()

	switch {
	case ev.From != behaviour.Connected && ev.Result == behaviour.Connected:
		c.connected.WithLabelValues(ty).Inc()
	case ev.From == behaviour.Connected && ev.Result != behaviour.Connected:
		c.connected.WithLabelValues(ty).Dec()
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.transitions.Describe(ch)
	c.connected.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.transitions.Collect(ch)
	c.connected.Collect(ch)
}

// NewRegistry returns a registry holding c plus the Go and process
// collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var (
	_ behaviour.Listener   = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)
