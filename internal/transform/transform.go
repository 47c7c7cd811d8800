// Package transform is the façade layer spec.md §5 describes as the
// engine's public surface: Query (per-row select/filter/lateral-view,
// stateless across batches) and TaskAggregate (per-batch grouped
// aggregation, also stateless across batches — no windowing). Both
// compile their SQL text once, at construction, and apply the
// resulting plan to as many RowBatches as the caller passes in.
package transform

import (
	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/internal/binder"
	"github.com/retl-io/retl/internal/errs"
	"github.com/retl-io/retl/internal/exec"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
	"github.com/retl-io/retl/internal/sqltypes"
	"github.com/retl-io/retl/parser"
)

// Query is a compiled select/filter/lateral-view transform.
type Query struct {
	sql  string
	reg  *functions.Registry
	node plan.Node
}

// NewQuery parses and binds sql against inputSchema once; the
// returned Query can then run over any number of batches sharing that
// schema (spec.md §5 "bind once, run many").
func NewQuery(sql string, inputSchema sqltypes.Schema, reg *functions.Registry) (*Query, error) {
	q, err := parseOne(sql)
	if err != nil {
		return nil, err
	}
	node, err := binder.Bind(q, inputSchema, reg)
	if err != nil {
		return nil, err
	}
	return &Query{sql: sql, reg: reg, node: node}, nil
}

// OutputSchema returns the schema every Run call will produce.
func (q *Query) OutputSchema() sqltypes.Schema { return q.node.OutputSchema() }

// Run evaluates the compiled plan against one input batch, capturing
// now at the start of the call so every row in the batch sees the
// same wall-clock reading (spec.md §5).
func (q *Query) Run(input sqltypes.RowBatch, nowUnixSeconds int64) (sqltypes.RowBatch, error) {
	fctx := &functions.Context{Now: nowUnixSeconds}
	return exec.RunWithInput(q.node, input, fctx)
}

// TaskAggregate is a compiled grouped-aggregation transform. Like
// Query it is stateless across batches: each Run call produces
// exactly one output batch summarizing only the rows passed to it
// (spec.md §4.4 "single batch, no windowing").
type TaskAggregate struct {
	sql  string
	reg  *functions.Registry
	node plan.Node
}

// NewTaskAggregate parses and binds sql, which must contain a GROUP
// BY or at least one aggregate function in its select list; anything
// else is rejected at bind time.
func NewTaskAggregate(sql string, inputSchema sqltypes.Schema, reg *functions.Registry) (*TaskAggregate, error) {
	q, err := parseOne(sql)
	if err != nil {
		return nil, err
	}
	node, err := binder.Bind(q, inputSchema, reg)
	if err != nil {
		return nil, err
	}
	if !containsAggregate(node) {
		return nil, errs.NewBindError(errs.IllegalAggregate, "task_aggregate query must group or aggregate")
	}
	return &TaskAggregate{sql: sql, reg: reg, node: node}, nil
}

// OutputSchema returns the schema every Run call will produce.
func (t *TaskAggregate) OutputSchema() sqltypes.Schema { return t.node.OutputSchema() }

// Run aggregates one input batch into its (single) output batch.
func (t *TaskAggregate) Run(input sqltypes.RowBatch, nowUnixSeconds int64) (sqltypes.RowBatch, error) {
	fctx := &functions.Context{Now: nowUnixSeconds}
	return exec.RunWithInput(t.node, input, fctx)
}

func containsAggregate(node plan.Node) bool {
	switch n := node.(type) {
	case *plan.Aggregate:
		return true
	case *plan.Project:
		return containsAggregate(n.Input)
	case *plan.Filter:
		return containsAggregate(n.Input)
	case *plan.LateralView:
		return containsAggregate(n.Input)
	default:
		return false
	}
}

func parseOne(sql string) (*ast.Query, error) {
	return parser.ParseQuery(sql)
}
