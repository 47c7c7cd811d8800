// Command retl runs the pipelines described by a YAML config file
// until their sources are exhausted or the process is interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/retl-io/retl/internal/config"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/logging"
	"github.com/retl-io/retl/internal/metrics"
	"github.com/retl-io/retl/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "path to a pipeline YAML config file")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve Prometheus metrics on")
	flag.Parse()

	log := logging.New()
	if *configPath == "" {
		log.Fatal("retl: -config is required")
	}

	doc, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("retl: failed to load config")
	}

	reg := functions.NewRegistry()
	var pipelines []*scheduler.Pipeline
	for _, pc := range doc.Pipelines {
		p, err := scheduler.Build(pc, reg)
		if err != nil {
			log.WithError(err).WithField("pipeline", pc.Name).Fatal("retl: failed to build pipeline")
		}
		pipelines = append(pipelines, p)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	go func() {
		if err := metrics.Serve(ctx, *metricsAddr, m); err != nil {
			log.WithError(err).Warn("retl: metrics server stopped")
		}
	}()

	engine := scheduler.NewEngine(log, m)
	if err := engine.Run(ctx, pipelines); err != nil {
		log.WithError(err).Error("retl: pipeline run failed")
		os.Exit(1)
	}
}
