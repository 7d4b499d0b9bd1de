// Package metrics counts adapter outcomes per transport and operation.
package metrics

import (
	"net/http"

	"github.com/davidjrh/ToDoFunction/internal/outcome"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	TransportHTTP = "http"
	TransportTool = "tool"
)

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "outcomes_total",
		Help:      "Todo operations by transport, operation and outcome kind.",
	}, []string{"transport", "operation", "outcome"})
	reg.MustRegister(
		outcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Recorder{registry: reg, outcomes: outcomes}
}

// Observe counts one call.
func (r *Recorder) Observe(transport, operation string, kind outcome.Kind) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(transport, operation, string(kind)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
