package types

import (
	"reflect"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cast"
)

// Condition operators. The zero value means unconditional.
const (
	OpEq = "=="
	OpNe = "!="
	OpLt = "<"
	OpGt = ">"
	OpLe = "<="
	OpGe = ">="
)

// Condition is a serializable predicate over the state: the value under Key
// (a dotted path) is compared against Value with Op. It is the only condition
// form the engine knows; custom branching is expressed by having a step write
// a flag into the state and testing it here.
type Condition struct {
	Key   string `json:"key"`
	Op    string `json:"op,omitempty"`
	Value any    `json:"value"`
}

func (c *Condition) validate() error {
	if c.Key == "" {
		return NewGraphValidationErrorf("condition with empty key")
	}
	switch c.Op {
	case "", OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		return nil
	}
	return NewGraphValidationErrorf("condition on %q has unknown operator %q", c.Key, c.Op)
}

// Eval evaluates the condition against the state. A nil condition and an
// empty operator are both unconditionally true. Comparison errors (ordering
// incomparable values) are reported, not swallowed: the engine fails the run
// rather than treating the edge as a non-match.
func (c *Condition) Eval(state State) (bool, error) {
	if c == nil || c.Op == "" {
		return true, nil
	}

	lhs, _ := state.Lookup(c.Key)
	switch c.Op {
	case OpEq:
		return looseEqual(lhs, c.Value), nil
	case OpNe:
		return !looseEqual(lhs, c.Value), nil
	}

	cmp, err := looseCompare(lhs, c.Value)
	if err != nil {
		return false, errors.Annotatef(err, "condition on %q", c.Key)
	}
	switch c.Op {
	case OpLt:
		return cmp < 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpLe:
		return cmp <= 0, nil
	case OpGe:
		return cmp >= 0, nil
	}
	return false, errors.Errorf("unknown operator %q", c.Op)
}

// looseEqual compares numerically when both sides are number-like, so that an
// int in the state matches a float from a decoded payload. A missing value
// (nil) equals only nil, never a zero.
func looseEqual(lhs, rhs any) bool {
	if lhs == nil || rhs == nil {
		return lhs == nil && rhs == nil
	}
	lf, lerr := cast.ToFloat64E(lhs)
	rf, rerr := cast.ToFloat64E(rhs)
	if lerr == nil && rerr == nil {
		return lf == rf
	}
	return reflect.DeepEqual(lhs, rhs)
}

func looseCompare(lhs, rhs any) (int, error) {
	if lhs == nil || rhs == nil {
		return 0, errors.Errorf("cannot order a missing value")
	}
	lf, lerr := cast.ToFloat64E(lhs)
	rf, rerr := cast.ToFloat64E(rhs)
	if lerr == nil && rerr == nil {
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		}
		return 0, nil
	}

	ls, lok := lhs.(string)
	rs, rok := rhs.(string)
	if lok && rok {
		return strings.Compare(ls, rs), nil
	}
	return 0, errors.Errorf("cannot order %T against %T", lhs, rhs)
}
