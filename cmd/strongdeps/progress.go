package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// progressPrinter renders the driver's progress counter. On a terminal it
// redraws a single status line; otherwise it prints a plain line on every
// tenth of the candidate set so batch logs stay short.
type progressPrinter struct {
	out      io.Writer
	tty      bool
	counter  *color.Color
	lastTick int
	active   bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &progressPrinter{
		out:      out,
		tty:      tty,
		counter:  color.New(color.FgGreen, color.Bold),
		lastTick: -1,
	}
}

func (p *progressPrinter) update(done, total int) {
	if total == 0 {
		return
	}
	if p.tty {
		p.active = true
		fmt.Fprintf(p.out, "\ranalyzing features: %s", p.counter.Sprintf("%d/%d", done, total))
		return
	}
	// A tick is a tenth of the total; print each one at most once.
	tick := done * 10 / total
	if tick > p.lastTick {
		p.lastTick = tick
		fmt.Fprintf(p.out, "analyzing features: %d/%d\n", done, total)
	}
}

// finish terminates the redrawn line so later output starts cleanly.
func (p *progressPrinter) finish() {
	if p.tty && p.active {
		fmt.Fprintln(p.out)
	}
}
