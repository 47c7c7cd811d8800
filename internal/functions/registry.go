// Package functions is the name→handler registry for scalar and
// aggregate built-ins (spec.md §4.5, §9 "Built-in function dispatch").
// Type checking happens once at bind time against Signature; the
// eval-time Handler is monomorphic in the value variant and branches
// on the concrete Value case.
package functions

import (
	"strings"

	"github.com/retl-io/retl/internal/sqltypes"
)

// Context carries per-invocation state shared across a batch, per
// spec.md §5: "now()-class functions capture a single wall-clock
// reading per invocation so a batch sees a consistent timestamp
// across all rows."
type Context struct {
	Now int64 // unix seconds, captured once per transform invocation
}

// Handler evaluates a scalar function over already-evaluated
// argument values.
type Handler func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error)

// Signature describes a function's bind-time contract: fixed arity,
// or variadic with MinArgs and no fixed max.
type Signature struct {
	MinArgs  int
	MaxArgs  int // -1 means unbounded (variadic)
	ReturnOf func(argTypes []sqltypes.DataType) sqltypes.DataType
}

// Scalar is a registered scalar function.
type Scalar struct {
	Name    string
	Sig     Signature
	Handler Handler
}

// Accumulator is the aggregate-function contract (spec.md §9):
// update/merge/finalize. Merge is implemented even though the single-
// batch transform never calls it, so the same machinery is reusable
// by an upstream batching collector.
type Accumulator interface {
	Update(args []sqltypes.Value) error
	Merge(other Accumulator) error
	Finalize() sqltypes.Value
}

// AggSpec is a registered aggregate function.
type AggSpec struct {
	Name    string
	Sig     Signature
	NewAcc  func(argTypes []sqltypes.DataType) Accumulator
}

// Registry is a process-wide, read-only-after-init function table
// (spec.md §5 "Shared state within the core").
type Registry struct {
	scalars map[string]*Scalar
	aggs    map[string]*AggSpec
}

// NewRegistry builds the registry with every built-in registered.
func NewRegistry() *Registry {
	r := &Registry{
		scalars: make(map[string]*Scalar),
		aggs:    make(map[string]*AggSpec),
	}
	registerScalars(r)
	registerAggregates(r)
	return r
}

func (r *Registry) addScalar(s *Scalar) {
	r.scalars[strings.ToLower(s.Name)] = s
}

func (r *Registry) addAgg(a *AggSpec) {
	r.aggs[strings.ToLower(a.Name)] = a
}

// LookupScalar finds a scalar function by case-insensitive name
// (spec.md §4.2 "Function names are case-insensitive").
func (r *Registry) LookupScalar(name string) (*Scalar, bool) {
	s, ok := r.scalars[strings.ToLower(name)]
	return s, ok
}

// LookupAgg finds an aggregate function by case-insensitive name.
func (r *Registry) LookupAgg(name string) (*AggSpec, bool) {
	a, ok := r.aggs[strings.ToLower(name)]
	return a, ok
}

// IsAggregateName reports whether name is a registered aggregate,
// used by the binder to decide whether a FuncCall lifts into an
// accumulator.
func (r *Registry) IsAggregateName(name string) bool {
	_, ok := r.aggs[strings.ToLower(name)]
	return ok
}

// CheckArity validates n against sig, for bind-time ArityMismatch
// detection.
func (s Signature) CheckArity(n int) bool {
	if n < s.MinArgs {
		return false
	}
	if s.MaxArgs >= 0 && n > s.MaxArgs {
		return false
	}
	return true
}
