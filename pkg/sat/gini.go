package sat

import (
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// giniSolver wraps one gini instance. gini supports incremental solving under
// assumptions natively; assumptions passed to Solve are consumed by the solve
// and retracted afterwards.
type giniSolver struct {
	g      *gini.Gini
	vars   int
	frozen bool
	stats  Stats
	errs   []error
}

var _ Solver = (*giniSolver)(nil)

// New returns a solver over variables 1..vars backed by gini. The variables
// are introduced eagerly so that models are total even for variables that
// appear in no clause.
func New(vars int) Solver {
	g := gini.New()
	for i := 0; i < vars; i++ {
		g.Lit()
	}
	return &giniSolver{g: g, vars: vars}
}

func (s *giniSolver) AddClause(lits ...int) {
	if s.frozen {
		s.errs = append(s.errs, fmt.Errorf("clause %v added after the first solve", lits))
		return
	}
	for _, m := range lits {
		if m == 0 || abs(m) > s.vars {
			s.errs = append(s.errs, fmt.Errorf("literal %d out of range in clause %v", m, lits))
			return
		}
		s.g.Add(z.Dimacs2Lit(m))
	}
	s.g.Add(z.LitNull)
}

func (s *giniSolver) Solve(assumptions ...int) (int, error) {
	if len(s.errs) > 0 {
		return Unknown, InternalError{Msg: s.errs[0].Error()}
	}
	s.frozen = true
	for _, m := range assumptions {
		s.g.Assume(z.Dimacs2Lit(m))
	}
	s.stats.Solves++
	switch res := s.g.Solve(); res {
	case Satisfiable, Unsatisfiable:
		return res, nil
	default:
		return Unknown, InternalError{Msg: fmt.Sprintf("solve verdict %d", res)}
	}
}

func (s *giniSolver) Value(v int) bool {
	if v < 1 || v > s.vars {
		return false
	}
	return s.g.Value(z.Dimacs2Lit(v))
}

// Bump is recorded for measurement. gini keeps branching order internal, so
// the hint carries no weight on this backend.
func (s *giniSolver) Bump(v int) {
	s.stats.Bumps++
}

func (s *giniSolver) MaxVar() int {
	return s.vars
}

// Stats exposes traffic counters for solvers that keep them.
func (s *giniSolver) Stats() Stats {
	return s.stats
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
