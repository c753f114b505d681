package analysis

import (
	"time"

	"github.com/strongdeps/strongdeps/pkg/backbone"
)

// Edge is a directed requires edge or, with Source <= Target, the canonical
// representative of an unordered excludes pair.
type Edge struct {
	Source int
	Target int
}

// Stats summarizes one analysis run.
type Stats struct {
	Workers    int
	Candidates int
	Solves     int
	Bumps      int
	Duration   time.Duration
}

// Result holds every artifact of one analysis. All fields are in their final
// deterministic order.
type Result struct {
	// Requires edges, grouped by ascending source within each partition,
	// partitions concatenated in order.
	Requires []Edge
	// Excludes pairs, smaller endpoint first, each emitted exactly once.
	Excludes []Edge
	// Core and Dead list the non-auxiliary variables fixed true
	// respectively false in every model, ascending.
	Core []int
	Dead []int
	// Backbone is the global backbone the edges were classified against.
	Backbone backbone.Backbone
	// Candidates are the edge-source variables, ascending.
	Candidates []int
	Stats      Stats
}
