// Package filter compiles and evaluates boolean filter expressions over
// vector record metadata. Expressions are trees of field comparisons joined
// by and/or combinators; Compile validates a tree once, Matches evaluates it
// against one record's metadata without allocating.
package filter

import (
	"errors"
	"fmt"

	"github.com/Kauxtubh/pinecone/storage"
)

// ErrInvalidFilter reports a filter expression that failed to compile:
// unknown operator, operator/value type mismatch, or an empty combinator.
var ErrInvalidFilter = errors.New("invalid filter")

// Op identifies a leaf comparison operator.
type Op string

// Comparison operators, named as they appear on the wire.
const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
	OpNin Op = "$nin"
)

// Expr is a node in a filter expression tree. Build trees from Leaf, And,
// and Or values, or parse the JSON wire form with Parse.
type Expr interface {
	validate() error
	eval(meta storage.Metadata) bool
}

// Compile validates expr and returns an evaluator for it. Compilation is the
// only place type errors can surface; a compiled filter never fails at
// evaluation time.
func Compile(expr Expr) (*Filter, error) {
	if expr == nil {
		return nil, fmt.Errorf("%w: nil expression", ErrInvalidFilter)
	}
	if err := expr.validate(); err != nil {
		return nil, err
	}
	return &Filter{root: expr}, nil
}

// Filter is a compiled expression ready for repeated evaluation. Filters are
// read-only after Compile and safe for concurrent use.
type Filter struct {
	root Expr
}

// Matches reports whether meta satisfies the filter. Missing fields fail a
// leaf comparison except under OpNe and OpNin, which treat absence as
// satisfied. Values of a different type than the filter value never match
// for OpEq or the ordering operators; there is no coercion between strings
// and numbers.
func (f *Filter) Matches(meta storage.Metadata) bool {
	return f.root.eval(meta)
}

// Leaf compares one metadata field against a value. Value carries the
// operand for scalar operators; Values carries the candidate set for OpIn
// and OpNin.
type Leaf struct {
	Field  string
	Op     Op
	Value  storage.Value
	Values []storage.Value
}

func (l *Leaf) validate() error {
	if l.Field == "" {
		return fmt.Errorf("%w: comparison with empty field name", ErrInvalidFilter)
	}
	switch l.Op {
	case OpEq, OpNe:
		if l.Value.Kind == storage.KindInvalid {
			return fmt.Errorf("%w: %s on %q requires a scalar value", ErrInvalidFilter, l.Op, l.Field)
		}
	case OpGt, OpGte, OpLt, OpLte:
		if l.Value.Kind != storage.KindNumber {
			return fmt.Errorf("%w: %s on %q requires a numeric value, got %s", ErrInvalidFilter, l.Op, l.Field, l.Value.Kind)
		}
	case OpIn, OpNin:
		if len(l.Values) == 0 {
			return fmt.Errorf("%w: %s on %q requires a non-empty value list", ErrInvalidFilter, l.Op, l.Field)
		}
		for _, v := range l.Values {
			if v.Kind == storage.KindInvalid {
				return fmt.Errorf("%w: %s on %q contains a non-scalar value", ErrInvalidFilter, l.Op, l.Field)
			}
		}
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, string(l.Op))
	}
	return nil
}

func (l *Leaf) eval(meta storage.Metadata) bool {
	rv, ok := meta[l.Field]
	if !ok {
		return l.Op == OpNe || l.Op == OpNin
	}
	switch l.Op {
	case OpEq:
		return equal(rv, l.Value)
	case OpNe:
		return !equal(rv, l.Value)
	case OpGt, OpGte, OpLt, OpLte:
		if rv.Kind != storage.KindNumber {
			return false
		}
		return order(l.Op, rv.Num, l.Value.Num)
	case OpIn:
		return contains(l.Values, rv)
	case OpNin:
		return !contains(l.Values, rv)
	}
	return false
}

// And matches when every child matches. Children evaluate left to right and
// short-circuit on the first failure.
type And struct {
	Children []Expr
}

func (a *And) validate() error { return validateChildren("$and", a.Children) }

func (a *And) eval(meta storage.Metadata) bool {
	for _, c := range a.Children {
		if !c.eval(meta) {
			return false
		}
	}
	return true
}

// Or matches when at least one child matches. Children evaluate left to
// right and short-circuit on the first success.
type Or struct {
	Children []Expr
}

func (o *Or) validate() error { return validateChildren("$or", o.Children) }

func (o *Or) eval(meta storage.Metadata) bool {
	for _, c := range o.Children {
		if c.eval(meta) {
			return true
		}
	}
	return false
}

func validateChildren(op string, children []Expr) error {
	if len(children) == 0 {
		return fmt.Errorf("%w: %s requires at least one child expression", ErrInvalidFilter, op)
	}
	for _, c := range children {
		if c == nil {
			return fmt.Errorf("%w: %s contains a nil child expression", ErrInvalidFilter, op)
		}
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

func equal(a, b storage.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case storage.KindString:
		return a.Str == b.Str
	case storage.KindNumber:
		return a.Num == b.Num
	case storage.KindBool:
		return a.Bool == b.Bool
	}
	return false
}

func order(op Op, a, b float64) bool {
	switch op {
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	}
	return false
}

func contains(values []storage.Value, v storage.Value) bool {
	for _, candidate := range values {
		if equal(candidate, v) {
			return true
		}
	}
	return false
}
