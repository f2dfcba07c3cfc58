// # internal/cli/options.go
package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"slotscan/internal/config"
)

type options struct {
	modules []string
	files   []string

	strictImports     triBool
	requireSuperclass triBool
	requireSubclass   triBool

	includeModules optString
	excludeModules optString
	includeClasses optString
	excludeClasses optString
	pythonPath     optString
	sarif          optString
	historyDB      optString
	metricsAddr    optString

	settings string
	verbose  bool
	version  bool
	watch    bool
	tui      bool
	noColor  bool
	logLevel string
	logFile  string
}

func newRootCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slotscan [flags] [FILES]...",
		Short: "Check Python class hierarchies for __slots__ problems",
		Long: `Check Python class hierarchies for __slots__ problems.

Give one or more FILES (modules or packages) as arguments, or select
importable modules by dotted name with -m/--module.`,
		Example: `  slotscan src/mypkg
  slotscan -m mypkg --strict-imports`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.files = args
			return nil
		},
	}

	f := cmd.Flags()
	f.SortFlags = false

	f.StringArrayVarP(&o.modules, "module", "m", nil, "check the module NAME; repeatable")

	addTriState(f, &o.strictImports, "strict-imports",
		"treat import failures as errors", "report import failures as notes only")
	addTriState(f, &o.requireSuperclass, "require-superclass",
		"flag slotted classes with slotless bases", "allow slotted classes with slotless bases")
	addTriState(f, &o.requireSubclass, "require-subclass",
		"flag slotless classes whose ancestry is fully slotted", "allow slotless classes anywhere")

	f.Var(&o.includeModules, "include-modules", "only check modules matching REGEX")
	f.Var(&o.excludeModules, "exclude-modules", "skip modules matching REGEX")
	f.Var(&o.includeClasses, "include-classes", "only report classes matching REGEX")
	f.Var(&o.excludeClasses, "exclude-classes", "do not report classes matching REGEX")
	f.Var(&o.pythonPath, "python-path", "module search roots, separated like $PYTHONPATH")

	f.StringVar(&o.settings, "settings", "", "configuration FILE (.toml or .cfg)")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "display extra descriptive output")
	f.BoolVar(&o.version, "version", false, "print version and exit")

	f.Var(&o.sarif, "sarif", "write a SARIF report to FILE")
	f.BoolVar(&o.watch, "watch", false, "stay running and rescan on file changes")
	f.BoolVar(&o.tui, "tui", false, "watch with a terminal UI")
	f.Var(&o.historyDB, "history-db", "record scan snapshots in sqlite FILE")
	f.Var(&o.metricsAddr, "metrics-addr", "serve /metrics and /health on ADDR while watching")
	f.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	f.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.StringVar(&o.logFile, "log-file", "", "append diagnostics to FILE instead of stderr")

	return cmd
}

// addTriState registers a policy flag and its --no- negation over one
// shared value, so the later of the two wins and "left unset" survives.
func addTriState(f *pflag.FlagSet, b *triBool, name, usage, negUsage string) {
	f.Var(b, name, usage)
	f.Lookup(name).NoOptDefVal = "true"
	f.Var(negation{b}, "no-"+name, negUsage)
	f.Lookup("no-" + name).NoOptDefVal = "true"
}

func parseArgs(args []string, stdout, stderr io.Writer) (*options, error) {
	o := &options{}
	cmd := newRootCommand(o)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	if help := cmd.Flags().Lookup("help"); help != nil && help.Changed {
		return nil, pflag.ErrHelp
	}
	if o.tui {
		o.watch = true
	}
	return o, nil
}

// partial carries only the flags the user actually set, so file values
// survive layering for everything left untouched.
func (o *options) partial() config.Partial {
	var p config.Partial
	if o.strictImports.set {
		p.StrictImports = &o.strictImports.value
	}
	if o.requireSuperclass.set {
		p.RequireSuperclass = &o.requireSuperclass.value
	}
	if o.requireSubclass.set {
		p.RequireSubclass = &o.requireSubclass.value
	}
	if o.includeModules.set {
		p.IncludeModules = &o.includeModules.value
	}
	if o.excludeModules.set {
		p.ExcludeModules = &o.excludeModules.value
	}
	if o.includeClasses.set {
		p.IncludeClasses = &o.includeClasses.value
	}
	if o.excludeClasses.set {
		p.ExcludeClasses = &o.excludeClasses.value
	}
	if o.pythonPath.set {
		p.PythonPath = &o.pythonPath.value
	}
	if o.sarif.set {
		p.SarifOutput = &o.sarif.value
	}
	if o.historyDB.set {
		p.HistoryDB = &o.historyDB.value
	}
	if o.metricsAddr.set {
		p.MetricsAddr = &o.metricsAddr.value
	}
	return p
}

// triBool distinguishes "left unset" from an explicit true or false, so
// config-file values apply only when the flag was not given.
type triBool struct {
	set   bool
	value bool
}

func (b *triBool) String() string {
	if !b.set {
		return ""
	}
	return strconv.FormatBool(b.value)
}

func (b *triBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.set = true
	b.value = v
	return nil
}

func (b *triBool) Type() string { return "bool" }

// negation writes the inverse into its target, backing the --no- variants.
type negation struct {
	target *triBool
}

func (n negation) String() string { return "" }

func (n negation) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	n.target.set = true
	n.target.value = !v
	return nil
}

func (n negation) Type() string { return "bool" }

type optString struct {
	set   bool
	value string
}

func (s *optString) String() string { return s.value }

func (s *optString) Set(v string) error {
	s.set = true
	s.value = v
	return nil
}

func (s *optString) Type() string { return "string" }
