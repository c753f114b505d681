package e2e

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/strongdeps/strongdeps/pkg/analysis"
	"github.com/strongdeps/strongdeps/pkg/dimacs"
	"github.com/strongdeps/strongdeps/pkg/pajek"
)

// analyzeToDir runs the complete pipeline into dir and returns the contents
// of all four result files keyed by suffix.
func analyzeToDir(input, dir string, opts ...analysis.Option) map[string]string {
	formula, err := dimacs.Parse(strings.NewReader(input))
	Expect(err).NotTo(HaveOccurred())

	result, err := analysis.New(opts...).Analyze(formula)
	Expect(err).NotTo(HaveOccurred())

	writer := &pajek.Writer{Dir: dir, Basename: "model"}
	Expect(writer.Write(formula, result)).To(Succeed())

	files := map[string]string{}
	for _, suffix := range []string{pajek.RequiresSuffix, pajek.ExcludesSuffix, pajek.CoreSuffix, pajek.DeadSuffix} {
		raw, err := os.ReadFile(filepath.Join(dir, "model"+suffix))
		Expect(err).NotTo(HaveOccurred())
		files[suffix] = string(raw)
	}
	return files
}

var _ = Describe("strong dependency extraction", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("emits a requires edge for a single mandatory dependency", func() {
		files := analyzeToDir("c 1 a\nc 2 b\np cnf 2 1\n1 -2 0\n", dir)
		Expect(files[pajek.RequiresSuffix]).To(Equal("*Vertices 2\n1 \"a\"\n2 \"b\"\n*Arcs\n2 1\n"))
		Expect(files[pajek.ExcludesSuffix]).To(Equal("*Vertices 2\n1 \"a\"\n2 \"b\"\n*Edges\n"))
		Expect(files[pajek.CoreSuffix]).To(BeEmpty())
		Expect(files[pajek.DeadSuffix]).To(BeEmpty())
	})

	It("emits one excludes edge per mutual exclusion", func() {
		files := analyzeToDir("c 1 a\nc 2 b\np cnf 2 1\n-1 -2 0\n", dir)
		Expect(files[pajek.RequiresSuffix]).To(HaveSuffix("*Arcs\n"))
		Expect(files[pajek.ExcludesSuffix]).To(HaveSuffix("*Edges\n1 2\n"))
	})

	It("reports core features and suppresses their edges", func() {
		files := analyzeToDir("c 1 a\np cnf 1 1\n1 0\n", dir)
		Expect(files[pajek.CoreSuffix]).To(Equal("1 \"a\"\n"))
		Expect(files[pajek.DeadSuffix]).To(BeEmpty())
		Expect(files[pajek.RequiresSuffix]).To(HaveSuffix("*Arcs\n"))
	})

	It("reports dead features reached through conflicts", func() {
		files := analyzeToDir("c 1 a\nc 2 b\np cnf 2 2\n1 0\n-1 -2 0\n", dir)
		Expect(files[pajek.CoreSuffix]).To(Equal("1 \"a\"\n"))
		Expect(files[pajek.DeadSuffix]).To(Equal("2 \"b\"\n"))
		Expect(files[pajek.ExcludesSuffix]).To(HaveSuffix("*Edges\n"))
	})

	It("emits transitive requires edges", func() {
		files := analyzeToDir("c 1 a\nc 2 b\nc 3 c\np cnf 3 2\n1 -2 0\n2 -3 0\n", dir)
		Expect(files[pajek.RequiresSuffix]).To(HaveSuffix("*Arcs\n2 1\n3 1\n3 2\n"))
	})

	It("suppresses auxiliary mediators but keeps the transitive edge", func() {
		input := "c 1 a\nc 2 b\nc 3 aux_1\np cnf 3 2\n1 -3 0\n3 -2 0\n"
		files := analyzeToDir(input, dir)
		Expect(files[pajek.RequiresSuffix]).To(Equal("*Vertices 3\n1 \"a\"\n2 \"b\"\n*Arcs\n2 1\n"))
		Expect(files[pajek.RequiresSuffix]).NotTo(ContainSubstring("aux_1"))
	})
})

var _ = Describe("output stability", func() {
	const input = "c 1 root\nc 2 a\nc 3 b\np cnf 3 3\n1 0\n1 -2 0\n-2 -3 0\n"

	It("produces byte-identical files across runs", func() {
		first := analyzeToDir(input, GinkgoT().TempDir())
		second := analyzeToDir(input, GinkgoT().TempDir())
		Expect(second).To(Equal(first))
	})

	It("produces identical graphs with the plain engine", func() {
		attentive := analyzeToDir(input, GinkgoT().TempDir())
		plain := analyzeToDir(input, GinkgoT().TempDir(), analysis.WithPlainIteration())
		Expect(plain).To(Equal(attentive))
	})
})
