// Package analysis enumerates the strong dependencies of a configuration
// formula: requires and excludes edges between features, plus the core and
// dead feature lists, using one SAT solver and backbone engine per worker.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/strongdeps/strongdeps/pkg/backbone"
	"github.com/strongdeps/strongdeps/pkg/dimacs"
	"github.com/strongdeps/strongdeps/pkg/sat"
)

// ProgressFunc receives the number of candidates analyzed so far and the
// candidate total. It is called from the driver goroutine only.
type ProgressFunc func(done, total int)

// Analyzer runs complete analyses over CNF formulas. The zero configuration
// is a single worker with the attention-based engine.
type Analyzer struct {
	workers   int
	attention bool
	logger    logrus.FieldLogger
	progress  ProgressFunc
	interval  time.Duration
	newSolver func(vars int) sat.Solver
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers sets the requested worker count. Counts outside
// [1, runtime.NumCPU()] are rejected by Analyze.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithPlainIteration disables the attention heuristic in every worker's
// backbone engine.
func WithPlainIteration() Option {
	return func(a *Analyzer) {
		a.attention = false
	}
}

// WithLogger sets the analysis logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithProgress installs a progress callback, polled from the shared counter
// roughly four times a second.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Analyzer) {
		a.progress = fn
	}
}

// WithSolver overrides the solver constructor. The default is sat.New.
func WithSolver(constructor func(vars int) sat.Solver) Option {
	return func(a *Analyzer) {
		a.newSolver = constructor
	}
}

// New returns an Analyzer.
func New(opts ...Option) *Analyzer {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	a := &Analyzer{
		workers:   1,
		attention: true,
		logger:    discard,
		interval:  250 * time.Millisecond,
		newSolver: sat.New,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes all four artifacts for f. The formula and the returned
// Result are never mutated afterwards; both may be shared freely.
func (a *Analyzer) Analyze(f *dimacs.Formula) (*Result, error) {
	if a.workers < 1 {
		return nil, ConfigError(fmt.Sprintf("worker count %d below 1", a.workers))
	}
	if limit := runtime.NumCPU(); a.workers > limit {
		return nil, ConfigError(fmt.Sprintf("worker count %d exceeds hardware parallelism %d", a.workers, limit))
	}

	start := time.Now()

	// The global backbone is computed on the driver goroutine; its solver
	// doubles as the first worker's.
	first := a.loadSolver(f)
	global, err := a.newEngine(first).Backbone()
	if err != nil {
		if errors.Is(err, backbone.ErrRefuted) {
			return nil, ErrUnsatisfiable
		}
		return nil, err
	}
	core, dead := coreDead(f, global)
	cands := candidates(f, global)
	a.logger.WithFields(logrus.Fields{
		"variables":  f.NumVars(),
		"core":       len(core),
		"dead":       len(dead),
		"candidates": len(cands),
	}).Debug("global backbone computed")

	if len(cands) == 0 {
		return &Result{
			Core:     core,
			Dead:     dead,
			Backbone: global,
			Stats:    a.gatherStats([]sat.Solver{first}, 0, time.Since(start)),
		}, nil
	}

	workers := a.workers
	if len(cands) < workers {
		workers = len(cands)
	}

	// Solver bring-up touches process-global solver state, so every
	// instance is constructed and loaded here, sequentially, before any
	// worker starts. Workers receive exclusive ownership of one solver.
	solvers := []sat.Solver{first}
	for i := 1; i < workers; i++ {
		solvers = append(solvers, a.loadSolver(f))
	}

	parts := partition(cands, workers)
	var (
		counter atomic.Uint64
		wg      sync.WaitGroup
		results = make([]workerResult, workers)
	)
	for i := 0; i < workers; i++ {
		a.logger.WithFields(logrus.Fields{
			"worker":     i,
			"candidates": len(parts[i]),
		}).Debug("partition assigned")
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.runWorker(f, global, parts[i], a.newEngine(solvers[i]), &counter)
		}(i)
	}
	a.pollProgress(&wg, &counter, len(cands))

	result := &Result{
		Core:       core,
		Dead:       dead,
		Backbone:   global,
		Candidates: cands,
	}
	for i, wr := range results {
		if wr.err != nil {
			return nil, WorkerError{Worker: i, Err: wr.err}
		}
		result.Requires = append(result.Requires, wr.requires...)
		result.Excludes = append(result.Excludes, wr.excludes...)
	}
	result.Stats = a.gatherStats(solvers, len(cands), time.Since(start))
	return result, nil
}

type workerResult struct {
	requires []Edge
	excludes []Edge
	err      error
}

// runWorker analyzes one contiguous candidate range against an engine the
// worker exclusively owns. Edge buffers are worker-local; the only shared
// write is the monotonic progress counter.
func (a *Analyzer) runWorker(f *dimacs.Formula, global backbone.Backbone, part []int, eng backbone.Engine, counter *atomic.Uint64) workerResult {
	var wr workerResult
	for _, v := range part {
		bv, err := eng.Backbone(v)
		if err != nil {
			if errors.Is(err, backbone.ErrRefuted) {
				// Candidates are never globally dead, so assuming
				// one cannot refute a satisfiable formula.
				err = fmt.Errorf("candidate %d refuted against a satisfiable formula", v)
			}
			wr.err = err
			return wr
		}
		wr.requires, wr.excludes = extractEdges(f, global, v, bv, wr.requires, wr.excludes)
		counter.Add(1)
	}
	return wr
}

// pollProgress forwards the shared counter to the progress callback until all
// workers have reached a terminal state.
func (a *Analyzer) pollProgress(wg *sync.WaitGroup, counter *atomic.Uint64, total int) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	if a.progress == nil {
		<-done
		return
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.progress(int(counter.Load()), total)
		case <-done:
			a.progress(int(counter.Load()), total)
			return
		}
	}
}

func (a *Analyzer) loadSolver(f *dimacs.Formula) sat.Solver {
	s := a.newSolver(f.NumVars())
	for _, clause := range f.Clauses() {
		s.AddClause(clause...)
	}
	return s
}

func (a *Analyzer) newEngine(s sat.Solver) backbone.Engine {
	if a.attention {
		return backbone.New(s)
	}
	return backbone.New(s, backbone.WithoutAttention())
}

func (a *Analyzer) gatherStats(solvers []sat.Solver, cands int, elapsed time.Duration) Stats {
	stats := Stats{
		Workers:    len(solvers),
		Candidates: cands,
		Duration:   elapsed,
	}
	for _, s := range solvers {
		if r, ok := s.(sat.StatsReporter); ok {
			ss := r.Stats()
			stats.Solves += ss.Solves
			stats.Bumps += ss.Bumps
		}
	}
	return stats
}

// partition splits vs into n contiguous ranges whose sizes differ by at most
// one, larger ranges first.
func partition(vs []int, n int) [][]int {
	parts := make([][]int, 0, n)
	base, extra := len(vs)/n, len(vs)%n
	offset := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		parts = append(parts, vs[offset:offset+size])
		offset += size
	}
	return parts
}
