// Package dimacs reads CNF formulas in the DIMACS format, including the
// comment-based variable naming convention used by feature-model encoders.
package dimacs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// AuxPrefix marks encoder-introduced helper variables. A variable whose name
// carries this prefix is excluded from every output artifact.
const AuxPrefix = "aux_"

// ParseError describes a malformed input file.
type ParseError struct {
	Line int
	Msg  string
}

func (e ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("dimacs: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("dimacs: %s", e.Msg)
}

// Formula is an immutable clause database together with the variable name and
// auxiliary tables gathered from comments. All tables are 1-based; index 0 is
// unused.
type Formula struct {
	vars    int
	clauses [][]int
	names   []string
	aux     []bool
}

// NumVars returns the variable count declared by the problem line.
func (f *Formula) NumVars() int {
	return f.vars
}

// NumClauses returns the number of clauses in the database.
func (f *Formula) NumClauses() int {
	return len(f.clauses)
}

// Clauses returns the clause database. Callers must not mutate it.
func (f *Formula) Clauses() [][]int {
	return f.clauses
}

// Name returns the display name of v. Variables without a name comment are
// rendered as their decimal index so that all output files agree on one
// spelling.
func (f *Formula) Name(v int) string {
	if v >= 1 && v <= f.vars && f.names[v] != "" {
		return f.names[v]
	}
	return strconv.Itoa(v)
}

// Auxiliary reports whether v was marked as an encoder helper.
func (f *Formula) Auxiliary(v int) bool {
	return v >= 1 && v <= f.vars && f.aux[v]
}

// ParseFile reads a DIMACS CNF file from disk.
func ParseFile(path string) (*Formula, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()
	f, err := Parse(file)
	return f, errors.Wrapf(err, "reading %s", path)
}

// Parse reads a DIMACS CNF formula.
//
// Comment lines of the form "c <var> <name...>" assign the remainder of the
// line as the variable's name; later assignments replace earlier ones. A name
// beginning with "aux_" marks the variable auxiliary. The problem line
// "p cnf V C" is required, must be unique, and must precede every clause.
// Clauses are sequences of nonzero literals terminated by 0 and may span
// physical lines.
func Parse(r io.Reader) (*Formula, error) {
	var (
		vars      = -1
		declared  = -1
		clauses   [][]int
		clause    []int
		names     = map[int]string{}
		lineCount int
	)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		lineCount++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		switch line[0] {
		case 'c':
			if v, name, ok := nameComment(line); ok {
				names[v] = name
			}
		case 'p':
			if vars >= 0 {
				return nil, ParseError{lineCount, "duplicate problem line"}
			}
			if len(clauses) > 0 || len(clause) > 0 {
				return nil, ParseError{lineCount, "problem line appears after clauses"}
			}
			var err error
			vars, declared, err = problemLine(line)
			if err != nil {
				return nil, ParseError{lineCount, err.Error()}
			}
		default:
			if vars < 0 {
				return nil, ParseError{lineCount, "clause before problem line"}
			}
			for _, field := range strings.Fields(line) {
				n, err := strconv.Atoi(field)
				if err != nil {
					return nil, ParseError{lineCount, fmt.Sprintf("malformed literal %q", field)}
				}
				if n == 0 {
					clauses = append(clauses, clause)
					clause = nil
					continue
				}
				if v := abs(n); v > vars {
					return nil, ParseError{lineCount, fmt.Sprintf("literal %d exceeds declared variable count %d", n, vars)}
				}
				clause = append(clause, n)
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "dimacs: read")
	}
	if vars < 0 {
		return nil, ParseError{0, "missing problem line"}
	}
	if len(clause) > 0 {
		return nil, ParseError{lineCount, "last clause is not terminated by 0"}
	}
	if declared != len(clauses) {
		return nil, ParseError{0, fmt.Sprintf("problem line declares %d clauses, found %d", declared, len(clauses))}
	}

	f := &Formula{
		vars:    vars,
		clauses: clauses,
		names:   make([]string, vars+1),
		aux:     make([]bool, vars+1),
	}
	for v, name := range names {
		if v < 1 || v > vars {
			continue
		}
		f.names[v] = name
		f.aux[v] = strings.HasPrefix(name, AuxPrefix)
	}
	return f, nil
}

// nameComment recognizes "c <var> <name...>" and returns the variable and the
// full tail of the line, tokens joined by single spaces. Every other comment
// shape is reported as not-a-name and ignored by the caller.
func nameComment(line string) (int, string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "c" {
		return 0, "", false
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil || v < 1 {
		return 0, "", false
	}
	return v, strings.Join(fields[2:], " "), true
}

func problemLine(line string) (vars, clauses int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != "p" {
		return 0, 0, fmt.Errorf("malformed problem line %q", line)
	}
	if fields[1] != "cnf" {
		return 0, 0, fmt.Errorf("unsupported format %q, want cnf", fields[1])
	}
	if vars, err = strconv.Atoi(fields[2]); err != nil || vars < 0 {
		return 0, 0, fmt.Errorf("malformed variable count %q", fields[2])
	}
	if clauses, err = strconv.Atoi(fields[3]); err != nil || clauses < 0 {
		return 0, 0, fmt.Errorf("malformed clause count %q", fields[3])
	}
	return vars, clauses, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
