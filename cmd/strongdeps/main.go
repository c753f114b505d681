package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		var run *runError
		if errors.As(err, &run) {
			os.Exit(run.code)
		}
		// Anything surfaced before the run itself is a usage problem.
		os.Exit(1)
	}
}
