// # internal/cli/run.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"slotscan/internal/app"
	"slotscan/internal/config"
	"slotscan/internal/discovery"
	"slotscan/internal/fault"
	"slotscan/internal/history"
	"slotscan/internal/observability"
	"slotscan/internal/pypath"
	"slotscan/internal/report"
	"slotscan/internal/tui"
	"slotscan/internal/version"
	"slotscan/internal/watcher"
)

const (
	watchDebounce    = 500 * time.Millisecond
	watchMinInterval = 2 * time.Second
	trendWindow      = 24 * time.Hour
)

// Run parses args, resolves configuration and drives a scan (or the watch
// loop), returning the process exit code: 0 clean, 1 problems found, 2
// usage/resolution/config error, 130 interrupted.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "slotscan %s\n", version.Version)
		return 0
	}

	closeLogs, err := setupLogging(opts, stderr)
	if err != nil {
		fmt.Fprintln(stderr, formatFatal(err))
		return 2
	}
	defer closeLogs()

	if len(opts.files) > 0 && len(opts.modules) > 0 {
		fmt.Fprintln(stderr, "ERROR: Specify either FILES argument or `-m/--module` option, not both.")
		return 2
	}
	if len(opts.files) == 0 && len(opts.modules) == 0 {
		fmt.Fprintln(stderr, "ERROR: No FILES argument or `-m/--module` option given.")
		return 2
	}
	for _, f := range opts.files {
		if _, err := os.Stat(f); err != nil {
			fmt.Fprintf(stderr, "ERROR: Path '%s' does not exist.\n", f)
			return 2
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, formatFatal(fault.Wrap(err, fault.CodeInternal, "cannot determine working directory")))
		return 2
	}

	cfg, err := config.Load(cwd, opts.settings, opts.partial())
	if err != nil {
		fmt.Fprintln(stderr, formatFatal(err))
		return 2
	}

	search, err := pypath.FromEnv(filepath.SplitList(cfg.PythonPath), os.Getenv("PYTHONPATH"), cwd)
	if err != nil {
		fmt.Fprintln(stderr, formatFatal(err))
		return 2
	}

	r := &runner{
		opts:   opts,
		cfg:    cfg,
		search: search,
		app:    app.New(cfg, search),
		stdout: stdout,
		stderr: stderr,
		color:  colorEnabled(opts.noColor, stdout),
		cwd:    cwd,
	}

	shutdownTracing, err := observability.SetupTracing(ctx)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				slog.Warn("trace exporter shutdown", "error", err)
			}
		}()
	}

	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			slog.Warn("scan history disabled", "error", err)
		} else {
			r.store = store
			defer store.Close()
		}
	}

	if opts.watch {
		return r.watch(ctx)
	}
	return r.runOnce(ctx)
}

type runner struct {
	opts   *options
	cfg    config.Config
	search *pypath.SearchPath
	app    *app.App
	store  *history.Store
	stdout io.Writer
	stderr io.Writer
	color  bool
	cwd    string

	mu           sync.Mutex
	scans        int
	lastScan     time.Time
	lastProblems bool
}

func (r *runner) runOnce(ctx context.Context) int {
	out, _, err := r.scan(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(r.stderr, "Aborted!")
			return 130
		}
		fmt.Fprintln(r.stderr, formatFatal(err))
		return 2
	}

	r.print(out)
	if out.Problems {
		return 1
	}
	return 0
}

// scan runs the pipeline once and handles the per-scan bookkeeping shared
// by all modes: metrics, health state, SARIF and history recording.
func (r *runner) scan(ctx context.Context) (*app.Outcome, time.Duration, error) {
	start := time.Now()
	out, err := r.app.Scan(ctx, r.opts.modules, r.opts.files)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, err
	}

	observability.RecordScan(elapsed, out.Messages, out.Stats)
	r.mu.Lock()
	r.scans++
	r.lastScan = time.Now()
	r.lastProblems = out.Problems
	r.mu.Unlock()

	r.writeSARIF(out)
	r.recordHistory(out, elapsed)
	return out, elapsed, nil
}

func (r *runner) print(out *app.Outcome) {
	printer := &report.Printer{Out: r.stdout, ErrOut: r.stderr, Verbose: r.opts.verbose, Color: r.color}
	printer.Messages(out.Messages)
	if r.opts.verbose {
		printer.Stats(out.Stats)
	}
	printer.Verdict(out.Problems)
}

func (r *runner) watch(ctx context.Context) int {
	if r.cfg.MetricsAddr != "" {
		srv := observability.NewServer(r.cfg.MetricsAddr, r.health)
		if err := srv.Start(ctx); err != nil {
			slog.Warn("observability server disabled", "error", err)
		} else {
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := srv.Stop(stopCtx); err != nil {
					slog.Warn("observability server shutdown", "error", err)
				}
			}()
		}
	}

	trigger := make(chan []string, 1)
	w, err := watcher.NewWatcher(watchDebounce, watchMinInterval, pypath.DefaultIgnores, func(paths []string) {
		select {
		case trigger <- paths:
		default:
		}
	})
	if err != nil {
		fmt.Fprintln(r.stderr, formatFatal(err))
		return 2
	}
	defer w.Close()
	if err := w.Watch(r.search.Roots()); err != nil {
		fmt.Fprintln(r.stderr, formatFatal(err))
		return 2
	}

	if r.opts.tui {
		return r.watchTUI(ctx, trigger)
	}
	return r.watchPlain(ctx, trigger)
}

func (r *runner) watchPlain(ctx context.Context, trigger <-chan []string) int {
	r.scanAndPrint(ctx)
	for {
		select {
		case <-ctx.Done():
			return 0
		case paths := <-trigger:
			slog.Info("changes detected", "paths", len(paths))
			r.scanAndPrint(ctx)
		}
	}
}

// scanAndPrint reports one watch-mode scan. Resolution errors are printed
// but never end the loop, the tree may become valid on the next change.
func (r *runner) scanAndPrint(ctx context.Context) {
	out, _, err := r.scan(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(r.stderr, formatFatal(err))
		}
		return
	}
	r.print(out)
	if line := r.trendLine(); line != "" {
		fmt.Fprintln(r.stderr, line)
	}
}

func (r *runner) watchTUI(ctx context.Context, trigger <-chan []string) int {
	ui := tui.New()
	go func() {
		r.scanToUI(ctx, ui)
		for {
			select {
			case <-ctx.Done():
				ui.Quit()
				return
			case <-trigger:
				ui.ScanStarted()
				r.scanToUI(ctx, ui)
			}
		}
	}()

	if err := ui.Run(); err != nil {
		slog.Error("terminal UI failed", "error", err)
		return 1
	}
	return 0
}

func (r *runner) scanToUI(ctx context.Context, ui *tui.UI) {
	out, elapsed, err := r.scan(ctx)
	if errors.Is(err, context.Canceled) {
		return
	}
	res := tui.Result{Duration: elapsed, Err: err}
	if err == nil {
		res.Messages = out.Messages
		res.Stats = out.Stats
		res.Problems = out.Problems
		res.Trend = r.trendLine()
	}
	ui.ScanFinished(res)
}

func (r *runner) health() observability.Health {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := observability.Health{Status: "up", Scans: r.scans, Problems: r.lastProblems}
	if !r.lastScan.IsZero() {
		t := r.lastScan
		h.LastScan = &t
	}
	return h
}

func (r *runner) writeSARIF(out *app.Outcome) {
	if r.cfg.SarifOutput == "" {
		return
	}
	doc, err := report.GenerateSARIF(r.cwd, out.Messages)
	if err != nil {
		slog.Error("cannot generate SARIF report", "error", err)
		return
	}
	if err := os.WriteFile(r.cfg.SarifOutput, doc, 0o644); err != nil {
		slog.Error("cannot write SARIF report", "path", r.cfg.SarifOutput, "error", err)
	}
}

func (r *runner) recordHistory(out *app.Outcome, elapsed time.Duration) {
	if r.store == nil {
		return
	}
	snap := history.NewSnapshot(out.Stats, out.Messages, elapsed)
	snap.CommitHash = history.CommitHash(r.cwd)
	if err := r.store.SaveSnapshot(snap); err != nil {
		slog.Warn("cannot record scan snapshot", "error", err)
	}
}

func (r *runner) trendLine() string {
	if r.store == nil {
		return ""
	}
	snaps, err := r.store.LoadSnapshots(time.Now().Add(-trendWindow))
	if err != nil || len(snaps) < 2 {
		return ""
	}
	rep, err := history.BuildTrendReport(snaps, trendWindow)
	if err != nil {
		return ""
	}
	last := rep.Points[len(rep.Points)-1]
	return fmt.Sprintf("trend: %d errors (%+d), %d classes (%+d) over %d scans",
		last.Errors, last.DeltaErrors, last.ClassesAll, last.DeltaClasses, rep.ScanCount)
}

// formatFatal renders a resolution or configuration failure as the single
// ERROR block the user sees before exit code 2.
func formatFatal(err error) string {
	var notFound *discovery.ModuleNotFoundError
	var notInspectable *discovery.ModuleNotInspectableError
	var badLocation *discovery.UnexpectedLocationError
	var unrelated *discovery.UnrelatedPathError

	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("ERROR: Module '%s' not found.", notFound.Module)
	case errors.As(err, &notInspectable):
		return fmt.Sprintf("ERROR: Module '%s' cannot be inspected. Is it an extension module?", notInspectable.Module)
	case errors.As(err, &badLocation):
		return fmt.Sprintf("ERROR: Module '%s' can't be loaded from the given path.\n       Expected location: '%s'",
			badLocation.Module, badLocation.Expected)
	case errors.As(err, &unrelated):
		return fmt.Sprintf("ERROR: Path '%s' is outside the Python search path.", unrelated.Path)
	}

	var fe *fault.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		if p, ok := fe.Context[fault.CtxPath]; ok {
			msg = fmt.Sprintf("%s (%v)", msg, p)
		}
		if fe.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, fe.Err)
		}
		return "ERROR: " + msg
	}
	return "ERROR: " + err.Error()
}

func setupLogging(opts *options, stderr io.Writer) (func(), error) {
	level, err := parseLogLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}

	var out io.Writer = stderr
	closer := func() {}
	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fault.AddContext(fault.Wrap(err, fault.CodeConfig, "cannot open log file"), fault.CtxPath, opts.logFile)
		}
		out = f
		closer = func() { _ = f.Close() }
	case opts.tui:
		// Keep slog output from corrupting the alternate screen.
		out = io.Discard
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return closer, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fault.Newf(fault.CodeUsage, "Invalid log level '%s'.", s)
}

func colorEnabled(noColor bool, out io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
