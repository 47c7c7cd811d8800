package config

import "testing"

const sampleYAML = `
pipelines:
  - name: clicks
    env: prod
    sources:
      - name: src
        kind: inline
        schema: "id int, v string"
    transforms:
      - name: t1
        input: src
        sql: "select id, upper(v) as v from t"
    sinks:
      - name: out1
        kind: print
        input: t1
      - name: out2
        kind: print
        input: t1
    active_sinks: ["out1"]
`

func TestParseActiveSinksRestriction(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Pipelines) != 1 {
		t.Fatalf("got %d pipelines, want 1", len(doc.Pipelines))
	}
	p := doc.Pipelines[0]
	active := p.ActiveSinkConfigs()
	if len(active) != 1 || active[0].Name != "out1" {
		t.Errorf("ActiveSinkConfigs: got %#v, want only out1", active)
	}
}

func TestParseDefaultsActiveSinksToAll(t *testing.T) {
	doc, err := Parse([]byte(`
pipelines:
  - name: clicks
    sources:
      - name: src
        kind: inline
    sinks:
      - name: out1
        kind: print
      - name: out2
        kind: print
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	active := doc.Pipelines[0].ActiveSinkConfigs()
	if len(active) != 2 {
		t.Errorf("expected both sinks active by default, got %#v", active)
	}
}

func TestParseRejectsMissingSources(t *testing.T) {
	_, err := Parse([]byte(`
pipelines:
  - name: clicks
    sinks:
      - name: out1
        kind: print
`))
	if err == nil {
		t.Fatal("expected an error for a pipeline with no sources")
	}
}

func TestParseRejectsMissingName(t *testing.T) {
	_, err := Parse([]byte(`
pipelines:
  - sources:
      - name: src
        kind: inline
    sinks:
      - name: out1
        kind: print
`))
	if err == nil {
		t.Fatal("expected an error for a pipeline with no name")
	}
}
