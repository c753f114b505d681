// Package pajek serializes analysis results: the requires and excludes graphs
// in the Pajek .net format, and the core and dead feature lists as plain text.
package pajek

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/strongdeps/strongdeps/pkg/analysis"
	"github.com/strongdeps/strongdeps/pkg/dimacs"
)

// File name suffixes, appended to the input basename.
const (
	RequiresSuffix = "__requires.net"
	ExcludesSuffix = "__excludes.net"
	CoreSuffix     = "__core.txt"
	DeadSuffix     = "__dead.txt"
)

// Writer emits the four result files into Dir, named after Basename. Files
// are only created once a Result has been fully aggregated, so a failed
// analysis leaves no partial output behind.
type Writer struct {
	Dir      string
	Basename string
}

// Write emits all four artifacts. The files are independent and are written
// concurrently; the first failure wins.
func (w *Writer) Write(f *dimacs.Formula, result *analysis.Result) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", w.Dir)
	}
	var g errgroup.Group
	g.Go(func() error {
		return w.writeNet(f, w.Basename+RequiresSuffix, "*Arcs", result.Requires)
	})
	g.Go(func() error {
		return w.writeNet(f, w.Basename+ExcludesSuffix, "*Edges", result.Excludes)
	})
	g.Go(func() error {
		return w.writeList(f, w.Basename+CoreSuffix, result.Core)
	})
	g.Go(func() error {
		return w.writeList(f, w.Basename+DeadSuffix, result.Dead)
	})
	return g.Wait()
}

// writeNet emits one graph. The vertex count in the header is the maximum
// variable index, not the number of listed vertices, so that edge endpoints
// stay valid while auxiliary vertices are suppressed.
func (w *Writer) writeNet(f *dimacs.Formula, name, section string, edges []analysis.Edge) error {
	return w.createFile(name, func(out *bufio.Writer) error {
		fmt.Fprintf(out, "*Vertices %d\n", f.NumVars())
		for v := 1; v <= f.NumVars(); v++ {
			if f.Auxiliary(v) {
				continue
			}
			fmt.Fprintf(out, "%d %q\n", v, f.Name(v))
		}
		fmt.Fprintf(out, "%s\n", section)
		for _, e := range edges {
			fmt.Fprintf(out, "%d %d\n", e.Source, e.Target)
		}
		return nil
	})
}

func (w *Writer) writeList(f *dimacs.Formula, name string, vars []int) error {
	return w.createFile(name, func(out *bufio.Writer) error {
		for _, v := range vars {
			fmt.Fprintf(out, "%d %q\n", v, f.Name(v))
		}
		return nil
	})
}

func (w *Writer) createFile(name string, fill func(*bufio.Writer) error) error {
	path := filepath.Join(w.Dir, name)
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	out := bufio.NewWriter(file)
	if err := fill(out); err != nil {
		file.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := out.Flush(); err != nil {
		file.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(file.Close(), "closing %s", path)
}
