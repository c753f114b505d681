package pajek

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strongdeps/strongdeps/pkg/analysis"
	"github.com/strongdeps/strongdeps/pkg/dimacs"
)

func fixtureFormula(t *testing.T) *dimacs.Formula {
	t.Helper()
	input := strings.Join([]string{
		"c 1 root",
		"c 2 feature b",
		"c 3 aux_s1",
		"p cnf 4 1",
		"1 0",
		"",
	}, "\n")
	f, err := dimacs.Parse(strings.NewReader(input))
	require.NoError(t, err)
	return f
}

func read(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestWrite(t *testing.T) {
	f := fixtureFormula(t)
	result := &analysis.Result{
		Requires: []analysis.Edge{{Source: 2, Target: 4}},
		Excludes: []analysis.Edge{{Source: 2, Target: 4}},
		Core:     []int{1},
		Dead:     []int{4},
	}

	dir := t.TempDir()
	w := &Writer{Dir: dir, Basename: "model"}
	require.NoError(t, w.Write(f, result))

	// The vertex header carries the maximum variable index so edge
	// endpoints stay valid, while the auxiliary vertex line is omitted.
	wantVertices := strings.Join([]string{
		"*Vertices 4",
		`1 "root"`,
		`2 "feature b"`,
		`4 "4"`,
	}, "\n")

	requires := read(t, filepath.Join(dir, "model"+RequiresSuffix))
	wantRequires := wantVertices + "\n*Arcs\n2 4\n"
	if diff := cmp.Diff(wantRequires, requires); diff != "" {
		t.Errorf("requires file mismatch (-want +got):\n%s", diff)
	}

	excludes := read(t, filepath.Join(dir, "model"+ExcludesSuffix))
	wantExcludes := wantVertices + "\n*Edges\n2 4\n"
	if diff := cmp.Diff(wantExcludes, excludes); diff != "" {
		t.Errorf("excludes file mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "1 \"root\"\n", read(t, filepath.Join(dir, "model"+CoreSuffix)))
	assert.Equal(t, "4 \"4\"\n", read(t, filepath.Join(dir, "model"+DeadSuffix)))
}

func TestWriteEmptyGraphs(t *testing.T) {
	f := fixtureFormula(t)
	dir := t.TempDir()
	w := &Writer{Dir: dir, Basename: "empty"}
	require.NoError(t, w.Write(f, &analysis.Result{}))

	requires := read(t, filepath.Join(dir, "empty"+RequiresSuffix))
	assert.True(t, strings.HasSuffix(requires, "*Arcs\n"))
	assert.Empty(t, read(t, filepath.Join(dir, "empty"+CoreSuffix)))
	assert.Empty(t, read(t, filepath.Join(dir, "empty"+DeadSuffix)))
}

func TestWriteCreatesDirectory(t *testing.T) {
	f := fixtureFormula(t)
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := &Writer{Dir: dir, Basename: "model"}
	require.NoError(t, w.Write(f, &analysis.Result{}))
	_, err := os.Stat(filepath.Join(dir, "model"+RequiresSuffix))
	assert.NoError(t, err)
}

func TestWriteDirectoryFailure(t *testing.T) {
	f := fixtureFormula(t)
	blocked := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocked, nil, 0o644))

	w := &Writer{Dir: filepath.Join(blocked, "out"), Basename: "model"}
	err := w.Write(f, &analysis.Result{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory")
}
