// Package scheduler wires a PipelineConfig's named source/transform/
// sink edges into running goroutines (spec.md §5: "each thread owns
// its own bound plans and row batches exclusively"). It is the
// surrounding driver around the transform façade and the only caller
// of internal/connector from outside that package; it shares
// internal/logging and internal/metrics with cmd/retl.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/retl-io/retl/internal/binder"
	"github.com/retl-io/retl/internal/config"
	"github.com/retl-io/retl/internal/connector"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/logging"
	"github.com/retl-io/retl/internal/metrics"
	"github.com/retl-io/retl/internal/sqltypes"
	"github.com/retl-io/retl/internal/transform"
)

// stage is one bound transform plus the schema it consumes and
// produces, run in sequence against every batch a pipeline's source
// yields.
type stage struct {
	name   string
	run    func(sqltypes.RowBatch, int64) (sqltypes.RowBatch, error)
	output sqltypes.Schema
}

// Pipeline is one fully wired source → transforms → sinks chain,
// ready to run on its own goroutine.
type Pipeline struct {
	name    string
	source  connector.Source
	stages  []stage
	sinks   []connector.Sink
}

// Build resolves cfg's sources, transforms and sinks into connectors
// and compiled queries, grounded on reg's function library. Exactly
// one source is supported per pipeline (spec.md §5 does not describe
// multi-source joins; the CORE has no join operator).
func Build(cfg config.PipelineConfig, reg *functions.Registry) (*Pipeline, error) {
	if len(cfg.Sources) != 1 {
		return nil, fmt.Errorf("scheduler: pipeline %s must declare exactly one source, got %d", cfg.Name, len(cfg.Sources))
	}
	srcCfg := cfg.Sources[0]
	schema, err := binder.ResolveSchema(srcCfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("scheduler: pipeline %s source schema: %w", cfg.Name, err)
	}
	src, err := buildSource(srcCfg, schema)
	if err != nil {
		return nil, fmt.Errorf("scheduler: pipeline %s: %w", cfg.Name, err)
	}

	currentSchema := schema
	stages := make([]stage, len(cfg.Transforms))
	for i, t := range cfg.Transforms {
		if t.Aggregate {
			q, err := transform.NewTaskAggregate(t.SQL, currentSchema, reg)
			if err != nil {
				return nil, fmt.Errorf("scheduler: pipeline %s transform %s: %w", cfg.Name, t.Name, err)
			}
			stages[i] = stage{name: t.Name, run: q.Run, output: q.OutputSchema()}
			currentSchema = q.OutputSchema()
		} else {
			q, err := transform.NewQuery(t.SQL, currentSchema, reg)
			if err != nil {
				return nil, fmt.Errorf("scheduler: pipeline %s transform %s: %w", cfg.Name, t.Name, err)
			}
			stages[i] = stage{name: t.Name, run: q.Run, output: q.OutputSchema()}
			currentSchema = q.OutputSchema()
		}
	}

	var sinks []connector.Sink
	for _, sinkCfg := range cfg.ActiveSinkConfigs() {
		snk, err := buildSink(sinkCfg, currentSchema)
		if err != nil {
			return nil, fmt.Errorf("scheduler: pipeline %s: %w", cfg.Name, err)
		}
		sinks = append(sinks, snk)
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("scheduler: pipeline %s has no active sinks", cfg.Name)
	}

	return &Pipeline{name: cfg.Name, source: src, stages: stages, sinks: sinks}, nil
}

// Engine runs a set of Pipelines concurrently, one goroutine each.
type Engine struct {
	log     *logrus.Logger
	metrics *metrics.Registry
}

// NewEngine builds an Engine that logs through log and records into m.
func NewEngine(log *logrus.Logger, m *metrics.Registry) *Engine {
	if log == nil {
		log = logging.New()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Engine{log: log, metrics: m}
}

// Run drives every pipeline to completion (or until ctx is cancelled)
// concurrently, returning once all of them have stopped. Each
// pipeline gets its own run ID, correlating every log line it
// produces (SPEC_FULL.md domain stack, "Scheduler").
func (e *Engine) Run(ctx context.Context, pipelines []*Pipeline) error {
	errCh := make(chan error, len(pipelines))
	for _, p := range pipelines {
		p := p
		go func() {
			errCh <- e.runOne(ctx, p)
		}()
	}
	var firstErr error
	for range pipelines {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Engine) runOne(ctx context.Context, p *Pipeline) error {
	runID := uuid.NewV4().String()
	entry := logging.ForPipeline(e.log, p.name, runID)

	if err := p.source.Open(ctx); err != nil {
		entry.WithError(err).Error("failed to open source")
		return err
	}
	defer p.source.Close()

	for _, sink := range p.sinks {
		if err := sink.Open(ctx); err != nil {
			entry.WithError(err).Error("failed to open sink")
			return err
		}
	}
	defer func() {
		for _, sink := range p.sinks {
			sink.Close()
		}
	}()

	entry.Info("pipeline starting")
	for {
		select {
		case <-ctx.Done():
			entry.Info("pipeline stopping: context cancelled")
			return nil
		default:
		}

		batch, err := p.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			entry.Info("pipeline finished: source exhausted")
			return nil
		}
		if err != nil {
			entry.WithError(err).Error("source read failed")
			return err
		}
		e.metrics.BatchesProcessed.WithLabelValues(p.name, "source").Inc()
		e.metrics.RowsIn.WithLabelValues(p.name, "source").Add(float64(batch.NumRows()))

		now := time.Now().Unix()
		for _, st := range p.stages {
			batch, err = st.run(batch, now)
			if err != nil {
				entry.WithError(err).WithField("stage", st.name).Error("transform failed")
				return err
			}
			e.metrics.RowsOut.WithLabelValues(p.name, st.name).Add(float64(batch.NumRows()))
		}

		for _, sink := range p.sinks {
			if err := sink.Write(ctx, batch); err != nil {
				entry.WithError(err).Error("sink write failed")
				return err
			}
		}
	}
}
