// Package config loads the pipeline description (spec.md §6) from
// YAML into typed Go structs the scheduler wires directly: one
// PipelineConfig names an environment, a set of sources, a chain of
// SQL transforms, and a set of sinks, plus which sinks are active.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// SourceConfig names one input edge and the connector that feeds it.
type SourceConfig struct {
	Name   string                 `yaml:"name"`
	Kind   string                 `yaml:"kind"`
	Schema string                 `yaml:"schema"`
	Codec  string                 `yaml:"codec"`
	With   map[string]interface{} `yaml:"with"`
}

// TransformConfig is one SQL stage in a pipeline: it reads Input,
// applies SQL (a plain select/filter/lateral-view, or a grouped
// aggregate when Aggregate is true), and produces the batch the next
// stage or a sink consumes.
type TransformConfig struct {
	Name      string `yaml:"name"`
	Input     string `yaml:"input"`
	SQL       string `yaml:"sql"`
	Aggregate bool   `yaml:"aggregate"`
}

// SinkConfig names one output edge and the connector that drains it.
type SinkConfig struct {
	Name  string                 `yaml:"name"`
	Kind  string                 `yaml:"kind"`
	Input string                 `yaml:"input"`
	Codec string                 `yaml:"codec"`
	With  map[string]interface{} `yaml:"with"`
}

// PipelineConfig is one named pipeline: a DAG of named edges between
// one or more sources, a chain of transforms, and one or more sinks.
// ActiveSinks restricts which configured sinks actually run, letting
// an environment config disable sinks without deleting them.
type PipelineConfig struct {
	Name        string            `yaml:"name"`
	Env         string            `yaml:"env"`
	Sources     []SourceConfig    `yaml:"sources"`
	Transforms  []TransformConfig `yaml:"transforms"`
	Sinks       []SinkConfig      `yaml:"sinks"`
	ActiveSinks []string          `yaml:"active_sinks"`
}

// Document is the top-level YAML file shape: a list of pipelines so
// one file can describe an entire environment's worth of ETL jobs.
type Document struct {
	Pipelines []PipelineConfig `yaml:"pipelines"`
}

// Load reads and parses a pipeline document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a pipeline document from raw YAML bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing yaml: %w", err)
	}
	for i := range doc.Pipelines {
		if err := validate(&doc.Pipelines[i]); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

func validate(p *PipelineConfig) error {
	if p.Name == "" {
		return fmt.Errorf("config: pipeline missing name")
	}
	if len(p.Sources) == 0 {
		return fmt.Errorf("config: pipeline %s has no sources", p.Name)
	}
	if len(p.Sinks) == 0 {
		return fmt.Errorf("config: pipeline %s has no sinks", p.Name)
	}
	if len(p.ActiveSinks) == 0 {
		// no explicit restriction: every configured sink is active
		for _, s := range p.Sinks {
			p.ActiveSinks = append(p.ActiveSinks, s.Name)
		}
	}
	return nil
}

// ActiveSinkConfigs returns the SinkConfigs named in p.ActiveSinks, in
// p.Sinks order.
func (p *PipelineConfig) ActiveSinkConfigs() []SinkConfig {
	active := make(map[string]bool, len(p.ActiveSinks))
	for _, n := range p.ActiveSinks {
		active[n] = true
	}
	var out []SinkConfig
	for _, s := range p.Sinks {
		if active[s.Name] {
			out = append(out, s)
		}
	}
	return out
}
