package functions

import "github.com/retl-io/retl/internal/sqltypes"

func registerAggregates(r *Registry) {
	r.addAgg(&AggSpec{
		Name: "count",
		Sig:  Signature{MinArgs: 0, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeInt64)},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &countAcc{} },
	})
	r.addAgg(&AggSpec{
		Name: "sum",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeFloat64)},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &sumAcc{} },
	})
	r.addAgg(&AggSpec{
		Name: "avg",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeFloat64)},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &avgAcc{} },
	})
	r.addAgg(&AggSpec{
		Name: "min",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[0] }},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &minMaxAcc{greatest: false} },
	})
	r.addAgg(&AggSpec{
		Name: "max",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[0] }},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &minMaxAcc{greatest: true} },
	})
	r.addAgg(&AggSpec{
		Name: "first",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[0] }},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &firstLastAcc{last: false} },
	})
	r.addAgg(&AggSpec{
		Name: "last",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[0] }},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &firstLastAcc{last: true} },
	})
	r.addAgg(&AggSpec{
		Name: "collect_list",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return sqltypes.ArrayOf(a[0]) }},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &collectAcc{distinct: false} },
	})
	r.addAgg(&AggSpec{
		Name: "collect_set",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return sqltypes.ArrayOf(a[0]) }},
		NewAcc: func([]sqltypes.DataType) Accumulator { return &collectAcc{distinct: true, seen: map[string]bool{}} },
	})
}

// countAcc implements count(*) (no args, counts every update) and
// count(e) (counts only non-NULL e), per spec.md §4.4.
type countAcc struct{ n int64 }

func (a *countAcc) Update(args []sqltypes.Value) error {
	if len(args) == 0 || !args[0].IsNull() {
		a.n++
	}
	return nil
}
func (a *countAcc) Merge(other Accumulator) error {
	a.n += other.(*countAcc).n
	return nil
}
func (a *countAcc) Finalize() sqltypes.Value { return sqltypes.NewInt64(a.n) }

// sumAcc sums non-NULL numeric inputs; an all-NULL group sums to
// NULL, not zero (spec.md §4.4).
type sumAcc struct {
	sum  float64
	seen bool
}

func (a *sumAcc) Update(args []sqltypes.Value) error {
	if args[0].IsNull() {
		return nil
	}
	f, _ := args[0].AsFloat64()
	a.sum += f
	a.seen = true
	return nil
}
func (a *sumAcc) Merge(other Accumulator) error {
	o := other.(*sumAcc)
	if o.seen {
		a.sum += o.sum
		a.seen = true
	}
	return nil
}
func (a *sumAcc) Finalize() sqltypes.Value {
	if !a.seen {
		return sqltypes.Null
	}
	return sqltypes.NewFloat64(a.sum)
}

type avgAcc struct {
	sum float64
	n   int64
}

func (a *avgAcc) Update(args []sqltypes.Value) error {
	if args[0].IsNull() {
		return nil
	}
	f, _ := args[0].AsFloat64()
	a.sum += f
	a.n++
	return nil
}
func (a *avgAcc) Merge(other Accumulator) error {
	o := other.(*avgAcc)
	a.sum += o.sum
	a.n += o.n
	return nil
}
func (a *avgAcc) Finalize() sqltypes.Value {
	if a.n == 0 {
		return sqltypes.Null
	}
	return sqltypes.NewFloat64(a.sum / float64(a.n))
}

type minMaxAcc struct {
	greatest bool
	val      sqltypes.Value
	seen     bool
}

func (a *minMaxAcc) Update(args []sqltypes.Value) error {
	if args[0].IsNull() {
		return nil
	}
	if !a.seen {
		a.val, a.seen = args[0], true
		return nil
	}
	cur, _ := a.val.AsFloat64()
	next, _ := args[0].AsFloat64()
	if (a.greatest && next > cur) || (!a.greatest && next < cur) {
		a.val = args[0]
	}
	return nil
}
func (a *minMaxAcc) Merge(other Accumulator) error {
	o := other.(*minMaxAcc)
	if o.seen {
		return a.Update([]sqltypes.Value{o.val})
	}
	return nil
}
func (a *minMaxAcc) Finalize() sqltypes.Value {
	if !a.seen {
		return sqltypes.Null
	}
	return a.val
}

type firstLastAcc struct {
	last bool
	val  sqltypes.Value
	seen bool
}

func (a *firstLastAcc) Update(args []sqltypes.Value) error {
	if a.last {
		a.val, a.seen = args[0], true
		return nil
	}
	if !a.seen {
		a.val, a.seen = args[0], true
	}
	return nil
}
func (a *firstLastAcc) Merge(other Accumulator) error {
	o := other.(*firstLastAcc)
	if !o.seen {
		return nil
	}
	if a.last || !a.seen {
		a.val, a.seen = o.val, true
	}
	return nil
}
func (a *firstLastAcc) Finalize() sqltypes.Value { return a.val }

// collectAcc implements collect_list (append order, including
// duplicates and NULLs) and collect_set (first-seen order,
// duplicate-suppressed by HashKey-equivalent string identity), per
// spec.md §4.4.
type collectAcc struct {
	distinct bool
	vals     []sqltypes.Value
	seen     map[string]bool
}

func (a *collectAcc) Update(args []sqltypes.Value) error {
	v := args[0]
	if a.distinct {
		if v.IsNull() {
			return nil
		}
		key := v.Kind.String() + ":" + v.String()
		if a.seen[key] {
			return nil
		}
		a.seen[key] = true
	}
	a.vals = append(a.vals, v)
	return nil
}
func (a *collectAcc) Merge(other Accumulator) error {
	o := other.(*collectAcc)
	for _, v := range o.vals {
		if err := a.Update([]sqltypes.Value{v}); err != nil {
			return err
		}
	}
	return nil
}
func (a *collectAcc) Finalize() sqltypes.Value { return sqltypes.NewArray(a.vals) }
