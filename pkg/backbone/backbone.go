// Package backbone computes formula backbones: the literals that hold in
// every model of a formula, optionally under a set of assumption literals.
package backbone

import (
	"errors"

	"github.com/strongdeps/strongdeps/pkg/sat"
)

// ErrRefuted is returned when the formula is unsatisfiable under the given
// assumptions. There is no backbone to report in that case.
var ErrRefuted = errors.New("backbone: assumptions refuted")

// Backbone maps each variable to its fixed literal, or 0 when the variable is
// free to take either polarity. Index 0 is unused.
type Backbone []int

// Fixed reports whether v has a forced polarity.
func (b Backbone) Fixed(v int) bool {
	return b[v] != 0
}

// Literals returns the fixed literals in ascending variable order.
func (b Backbone) Literals() []int {
	var ms []int
	for v := 1; v < len(b); v++ {
		if b[v] != 0 {
			ms = append(ms, b[v])
		}
	}
	return ms
}

// Engine computes backbones against one solver instance. An Engine owns its
// solver and is not safe for concurrent use.
type Engine interface {
	// Backbone returns the backbone of the solver's formula conjoined with
	// the assumption literals, or ErrRefuted when that conjunction is
	// unsatisfiable.
	Backbone(assumptions ...int) (Backbone, error)
}

// Option configures an Engine.
type Option func(*engine)

// WithoutAttention selects the plain one-by-one iteration, which skips the
// branching-priority hints. Verdicts are identical either way; only the
// solver call count can differ.
func WithoutAttention() Option {
	return func(e *engine) {
		e.attention = false
	}
}

type engine struct {
	solver    sat.Solver
	attention bool

	// candidates and scratch are reused across calls to keep repeated
	// per-variable queries off the allocator.
	candidates []int
	scratch    []int
}

// New returns an attention-based Engine over s. The solver must already hold
// the formula.
func New(s sat.Solver, opts ...Option) Engine {
	e := &engine{solver: s, attention: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backbone runs the one-by-one iteration. An initial model seeds one
// candidate literal per variable; each round either proves a candidate forced
// (its negation is unsatisfiable) or obtains a counterexample model that
// retires every candidate it disagrees with.
func (e *engine) Backbone(assumptions ...int) (Backbone, error) {
	res, err := e.solver.Solve(assumptions...)
	if err != nil {
		return nil, err
	}
	if res == sat.Unsatisfiable {
		return nil, ErrRefuted
	}

	n := e.solver.MaxVar()
	if cap(e.candidates) < n+1 {
		e.candidates = make([]int, n+1)
	}
	// candidates[v] is the literal still suspected to be backbone, 0 once
	// settled or retired.
	candidates := e.candidates[:n+1]
	for v := 1; v <= n; v++ {
		if e.solver.Value(v) {
			candidates[v] = v
		} else {
			candidates[v] = -v
		}
	}

	result := make(Backbone, n+1)
	for v := 1; v <= n; v++ {
		m := candidates[v]
		if m == 0 {
			continue
		}
		e.scratch = append(e.scratch[:0], assumptions...)
		e.scratch = append(e.scratch, -m)
		res, err := e.solver.Solve(e.scratch...)
		if err != nil {
			return nil, err
		}
		switch res {
		case sat.Unsatisfiable:
			// No model disagrees with m under the assumptions.
			result[v] = m
			candidates[v] = 0
		case sat.Satisfiable:
			// The witness retires every candidate it falsifies,
			// including m itself.
			for w := v; w <= n; w++ {
				c := candidates[w]
				if c == 0 {
					continue
				}
				if e.solver.Value(w) != (c > 0) {
					candidates[w] = 0
				} else if e.attention {
					e.solver.Bump(w)
				}
			}
		}
	}
	return result, nil
}
