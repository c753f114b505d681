package analysis

import (
	"github.com/strongdeps/strongdeps/pkg/backbone"
	"github.com/strongdeps/strongdeps/pkg/dimacs"
)

// candidates returns the edge-source variables: non-auxiliary and not fixed
// by the global backbone, ascending.
func candidates(f *dimacs.Formula, global backbone.Backbone) []int {
	var vs []int
	for v := 1; v <= f.NumVars(); v++ {
		if f.Auxiliary(v) || global.Fixed(v) {
			continue
		}
		vs = append(vs, v)
	}
	return vs
}

// coreDead splits the global backbone into the core and dead feature lists,
// auxiliary variables suppressed.
func coreDead(f *dimacs.Formula, global backbone.Backbone) (core, dead []int) {
	for v := 1; v <= f.NumVars(); v++ {
		if f.Auxiliary(v) {
			continue
		}
		switch global[v] {
		case v:
			core = append(core, v)
		case -v:
			dead = append(dead, v)
		}
	}
	return core, dead
}

// extractEdges classifies the backbone of F∧{v} against the global backbone.
// A variable forced true that is not globally core yields a requires edge; a
// variable forced false that is not globally dead yields an excludes pair,
// emitted only by its smaller endpoint.
func extractEdges(f *dimacs.Formula, global backbone.Backbone, v int, bv backbone.Backbone, requires, excludes []Edge) ([]Edge, []Edge) {
	for w := 1; w <= f.NumVars(); w++ {
		if w == v || f.Auxiliary(w) {
			continue
		}
		switch bv[w] {
		case w:
			if global[w] == 0 {
				requires = append(requires, Edge{Source: v, Target: w})
			}
		case -w:
			if w >= v && global[w] != -w && global[v] != -v {
				excludes = append(excludes, Edge{Source: v, Target: w})
			}
		}
	}
	return requires, excludes
}
