package scheduler

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/retl-io/retl/internal/config"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/logging"
	"github.com/retl-io/retl/internal/metrics"
)

const pipelineYAML = `
pipelines:
  - name: greeting
    sources:
      - name: src
        kind: inline
        schema: "id int, name string"
        with:
          rows:
            - {id: 1, name: ann}
            - {id: 2, name: bo}
    transforms:
      - name: upper_name
        input: src
        sql: "select id, upper(name) as name from t"
    sinks:
      - name: out
        kind: print
`

func TestBuildAndRunInlinePipeline(t *testing.T) {
	doc, err := config.Parse([]byte(pipelineYAML))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	p, err := Build(doc.Pipelines[0], functions.NewRegistry())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var logBuf bytes.Buffer
	l := logging.New()
	l.SetOutput(&logBuf)
	m := metrics.New()
	e := NewEngine(l, m)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Run(ctx, []*Pipeline{p}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Contains(logBuf.Bytes(), []byte("pipeline finished")) {
		t.Errorf("expected a pipeline-finished log line, got:\n%s", logBuf.String())
	}
}

func TestBuildRejectsMultiSourcePipeline(t *testing.T) {
	cfg := config.PipelineConfig{
		Name: "bad",
		Sources: []config.SourceConfig{
			{Name: "a", Kind: "inline", Schema: "id int"},
			{Name: "b", Kind: "inline", Schema: "id int"},
		},
		Sinks: []config.SinkConfig{{Name: "out", Kind: "print"}},
	}
	if _, err := Build(cfg, functions.NewRegistry()); err == nil {
		t.Fatal("expected an error for a pipeline with more than one source")
	}
}
