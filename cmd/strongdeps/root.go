package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/strongdeps/strongdeps/pkg/analysis"
	"github.com/strongdeps/strongdeps/pkg/dimacs"
	"github.com/strongdeps/strongdeps/pkg/model"
	"github.com/strongdeps/strongdeps/pkg/pajek"
	"github.com/strongdeps/strongdeps/pkg/version"
)

const (
	engineAttention = "attention"
	enginePlain     = "plain"
)

// Exit codes: 1 for usage and input problems, 2 for failures during the
// analysis or while writing results.
const (
	exitInput    = 1
	exitAnalysis = 2
)

type runError struct {
	code int
	err  error
}

func (e *runError) Error() string {
	return e.err.Error()
}

func (e *runError) Unwrap() error {
	return e.err
}

func inputError(err error) error {
	return &runError{code: exitInput, err: err}
}

func analysisError(err error) error {
	return &runError{code: exitAnalysis, err: err}
}

type options struct {
	workers    int
	outputDir  string
	engine     string
	keepCNF    bool
	debug      bool
	configPath string
	version    bool
}

func (o *options) bindFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&o.workers, "workers", "t", 1, "number of analysis workers; must not exceed the machine's logical CPUs")
	fs.StringVarP(&o.outputDir, "output", "o", "", "directory for result files (default: the input file's directory)")
	fs.StringVar(&o.engine, "engine", engineAttention, "backbone engine: attention or plain")
	fs.BoolVarP(&o.keepCNF, "keep-cnf", "k", false, "keep the intermediate CNF file produced for non-CNF inputs")
	fs.BoolVar(&o.debug, "debug", false, "use debug log level")
	fs.StringVar(&o.configPath, "config", "", "YAML file providing flag defaults")
	fs.BoolVar(&o.version, "version", false, "display version information")
}

// fileConfig mirrors the flags that make sense in a config file. Explicitly
// set flags always win over file values.
type fileConfig struct {
	Workers int    `json:"workers,omitempty"`
	Output  string `json:"output,omitempty"`
	Engine  string `json:"engine,omitempty"`
	KeepCNF bool   `json:"keepCNF,omitempty"`
	Debug   bool   `json:"debug,omitempty"`
}

func newRootCmd() *cobra.Command {
	o := options{}

	cmd := &cobra.Command{
		Use:   "strongdeps INPUT",
		Short: "Extract the strong dependency graphs of a variability model",
		Long: `strongdeps computes every strong transitive relationship between the
features of a variability model given as a satisfiable DIMACS CNF formula.
It writes a requires graph and an excludes graph in the Pajek .net format,
plus plain-text lists of the core and dead features.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if o.version {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.version {
				fmt.Print(version.String())
				return nil
			}
			if err := o.applyConfigFile(cmd.Flags()); err != nil {
				return inputError(err)
			}
			logger := logrus.New()
			if o.debug {
				logger.SetLevel(logrus.DebugLevel)
			}
			return o.run(logger, args[0])
		},
	}
	o.bindFlags(cmd.Flags())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(version.String())
		},
	}
}

// applyConfigFile fills in defaults from the config file for every flag the
// user did not set on the command line.
func (o *options) applyConfigFile(fs *pflag.FlagSet) error {
	if o.configPath == "" {
		return nil
	}
	raw, err := os.ReadFile(o.configPath)
	if err != nil {
		return errors.Wrapf(err, "reading config %s", o.configPath)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return errors.Wrapf(err, "parsing config %s", o.configPath)
	}
	if !fs.Changed("workers") && cfg.Workers != 0 {
		o.workers = cfg.Workers
	}
	if !fs.Changed("output") && cfg.Output != "" {
		o.outputDir = cfg.Output
	}
	if !fs.Changed("engine") && cfg.Engine != "" {
		o.engine = cfg.Engine
	}
	if !fs.Changed("keep-cnf") {
		o.keepCNF = o.keepCNF || cfg.KeepCNF
	}
	if !fs.Changed("debug") {
		o.debug = o.debug || cfg.Debug
	}
	return nil
}

func (o *options) run(logger *logrus.Logger, input string) error {
	if o.engine != engineAttention && o.engine != enginePlain {
		return inputError(fmt.Errorf("unknown engine %q, want %s or %s", o.engine, engineAttention, enginePlain))
	}
	outputDir := o.outputDir
	if outputDir == "" {
		outputDir = filepath.Dir(input)
	}

	cnfPath, cleanup, err := o.ensureCNF(logger, input, outputDir)
	if err != nil {
		return inputError(err)
	}
	defer cleanup()

	formula, err := dimacs.ParseFile(cnfPath)
	if err != nil {
		return inputError(err)
	}
	logger.WithFields(logrus.Fields{
		"variables": formula.NumVars(),
		"clauses":   formula.NumClauses(),
	}).Debug("formula loaded")

	printer := newProgressPrinter(os.Stderr)
	opts := []analysis.Option{
		analysis.WithWorkers(o.workers),
		analysis.WithLogger(logger),
		analysis.WithProgress(printer.update),
	}
	if o.engine == enginePlain {
		opts = append(opts, analysis.WithPlainIteration())
	}

	result, err := analysis.New(opts...).Analyze(formula)
	printer.finish()
	if err != nil {
		var cfg analysis.ConfigError
		if stderrors.As(err, &cfg) || stderrors.Is(err, analysis.ErrUnsatisfiable) {
			return inputError(err)
		}
		return analysisError(err)
	}
	logger.WithFields(logrus.Fields{
		"requires": len(result.Requires),
		"excludes": len(result.Excludes),
		"core":     len(result.Core),
		"dead":     len(result.Dead),
		"solves":   result.Stats.Solves,
		"duration": result.Stats.Duration,
	}).Info("analysis complete")

	writer := &pajek.Writer{
		Dir:      outputDir,
		Basename: basename(input),
	}
	if err := writer.Write(formula, result); err != nil {
		return analysisError(err)
	}
	return nil
}

// ensureCNF hands back a CNF path for the input, translating through a
// registered model translator when the input is not already CNF. The cleanup
// removes the intermediate file unless -k was given.
func (o *options) ensureCNF(logger *logrus.Logger, input, outputDir string) (string, func(), error) {
	nop := func() {}
	ext := strings.ToLower(filepath.Ext(input))
	if ext == ".cnf" || ext == ".dimacs" {
		return input, nop, nil
	}
	translator, ok := model.Lookup(ext)
	if !ok {
		if exts := model.Extensions(); len(exts) > 0 {
			return "", nop, fmt.Errorf("no translator registered for %q (registered: %s)", ext, strings.Join(exts, ", "))
		}
		return "", nop, fmt.Errorf("input %s is not a CNF file and no model translators are registered", input)
	}

	src, err := os.Open(input)
	if err != nil {
		return "", nop, errors.Wrapf(err, "opening %s", input)
	}
	defer src.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", nop, errors.Wrapf(err, "creating output directory %s", outputDir)
	}
	cnfPath := filepath.Join(outputDir, basename(input)+".cnf")
	dst, err := os.Create(cnfPath)
	if err != nil {
		return "", nop, errors.Wrapf(err, "creating intermediate CNF %s", cnfPath)
	}
	if err := translator.Translate(src, dst); err != nil {
		dst.Close()
		os.Remove(cnfPath)
		return "", nop, errors.Wrapf(err, "translating %s", input)
	}
	if err := dst.Close(); err != nil {
		os.Remove(cnfPath)
		return "", nop, errors.Wrapf(err, "writing intermediate CNF %s", cnfPath)
	}
	logger.WithField("cnf", cnfPath).Debug("input translated")

	if o.keepCNF {
		return cnfPath, nop, nil
	}
	return cnfPath, func() { os.Remove(cnfPath) }, nil
}

func basename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
