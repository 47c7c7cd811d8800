// Package metrics exposes a Prometheus registry the scheduler records
// pipeline throughput and error counts into. Nothing in the core
// (parser/binder/eval/exec) depends on this package; the scheduler
// records into it and cmd/retl creates and serves it.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the counters one scheduler instance records into.
type Registry struct {
	reg *prometheus.Registry

	BatchesProcessed *prometheus.CounterVec
	RowsIn           *prometheus.CounterVec
	RowsOut          *prometheus.CounterVec
	EvalErrors       *prometheus.CounterVec
}

// New builds a Registry with every metric registered under the
// "retl" namespace.
func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		BatchesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retl",
			Name:      "batches_processed_total",
			Help:      "Number of row batches processed by a pipeline stage.",
		}, []string{"pipeline", "stage"}),
		RowsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retl",
			Name:      "rows_in_total",
			Help:      "Number of rows read into a pipeline stage.",
		}, []string{"pipeline", "stage"}),
		RowsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retl",
			Name:      "rows_out_total",
			Help:      "Number of rows emitted by a pipeline stage.",
		}, []string{"pipeline", "stage"}),
		EvalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retl",
			Name:      "eval_errors_total",
			Help:      "Number of null-tolerant evaluation errors caught during a pipeline run.",
		}, []string{"pipeline", "stage"}),
	}
	reg.MustRegister(m.BatchesProcessed, m.RowsIn, m.RowsOut, m.EvalErrors)
	return m
}

// Handler returns the net/http handler that serves this Registry in
// the Prometheus text exposition format.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing the registry at /metrics on
// addr, returning once ctx is cancelled or the server fails to start.
func Serve(ctx context.Context, addr string, m *Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
