// Package app runs the scan pipeline: resolve targets into module trees,
// filter them, walk and import every surviving module, check the extracted
// classes and assemble the final report.
package app

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"slotscan/internal/checks"
	"slotscan/internal/config"
	"slotscan/internal/discovery"
	"slotscan/internal/modtree"
	"slotscan/internal/observability"
	"slotscan/internal/pyclass"
	"slotscan/internal/pyimport"
	"slotscan/internal/pypath"
	"slotscan/internal/report"
)

// App wires one search path and one resolved configuration into a runnable
// pipeline. A fresh import machine is created per scan so watch mode never
// reuses stale parses.
type App struct {
	cfg    config.Config
	search *pypath.SearchPath
}

func New(cfg config.Config, search *pypath.SearchPath) *App {
	return &App{cfg: cfg, search: search}
}

// Outcome is everything one scan produced.
type Outcome struct {
	Messages []report.Message
	Stats    report.Stats
	Problems bool
}

// Scan checks the given targets: dotted module names, or files and
// directories. Fatal resolution and configuration errors come back as an
// error with nothing scanned; recoverable failures land in the Outcome as
// skipped modules.
func (a *App) Scan(ctx context.Context, modules, files []string) (*Outcome, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Scan")
	defer span.End()

	trees, skipped, err := a.resolve(ctx, modules, files)
	if err != nil {
		return nil, err
	}

	// A target that failed to resolve still counts as one requested and
	// one checked module, mirroring its single skip notice.
	var stats report.ModuleStats
	stats.All = len(skipped)
	stats.Checked = len(skipped)
	for _, t := range trees {
		stats.All += t.Len()
	}

	filtered, err := a.filterTrees(trees)
	if err != nil {
		return nil, err
	}
	for _, t := range filtered {
		stats.Checked += t.Len()
	}
	stats.Excluded = stats.All - stats.Checked

	classes, walkSkipped, err := a.walk(ctx, filtered)
	if err != nil {
		return nil, err
	}
	skipped = append(skipped, walkSkipped...)
	stats.Skipped = len(skipped)

	msgs, err := a.messages(skipped, classes)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Messages: msgs,
		Stats:    report.Stats{Modules: stats, Classes: classStats(classes)},
		Problems: report.AnyErrors(msgs),
	}
	span.SetAttributes(
		attribute.Int("modules.checked", out.Stats.Modules.Checked),
		attribute.Int("classes.all", out.Stats.Classes.All),
		attribute.Int("messages", len(out.Messages)),
	)
	return out, nil
}

// resolve turns every target into a module tree and consolidates trees
// sharing a root. A recoverable per-target failure becomes a skip entry;
// anything else aborts the scan.
func (a *App) resolve(ctx context.Context, modules, files []string) ([]modtree.Tree, []report.ModuleSkipped, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.resolve")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var trees []modtree.Tree
	var skipped []report.ModuleSkipped
	addTarget := func(name, expected string) error {
		tree, err := discovery.ModuleTree(name, expected, a.search)
		if err != nil {
			var failed *discovery.FailedImportError
			if errors.As(err, &failed) {
				skipped = append(skipped, report.ModuleSkipped{Module: failed.Module, Err: failed.Err})
				return nil
			}
			return err
		}
		trees = append(trees, tree)
		return nil
	}

	seen := make(map[string]bool, len(modules))
	for _, name := range modules {
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := addTarget(name, ""); err != nil {
			return nil, nil, err
		}
	}
	for _, path := range files {
		located, err := discovery.FindModules(path, a.search)
		if err != nil {
			return nil, nil, err
		}
		for _, l := range located {
			if err := addTarget(l.Name, l.Location); err != nil {
				return nil, nil, err
			}
		}
	}

	consolidated, err := modtree.Consolidate(trees)
	if err != nil {
		return nil, nil, err
	}
	return consolidated, skipped, nil
}

// filterTrees applies the module name filters, exclusion first. A tree
// whose root is rejected disappears entirely.
func (a *App) filterTrees(trees []modtree.Tree) ([]modtree.Tree, error) {
	exclude, err := compilePattern(a.cfg.ExcludeModules, "exclude-modules")
	if err != nil {
		return nil, err
	}
	include, err := compilePattern(a.cfg.IncludeModules, "include-modules")
	if err != nil {
		return nil, err
	}

	out := make([]modtree.Tree, 0, len(trees))
	for _, t := range trees {
		if exclude != nil {
			t = t.Filter(func(name string) bool { return !exclude.MatchString(name) }, "")
		}
		if t != nil && include != nil {
			t = t.Filter(include.MatchString, "")
		}
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (a *App) walk(ctx context.Context, trees []modtree.Tree) ([]*pyclass.Class, []report.ModuleSkipped, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.walk")
	defer span.End()

	machine := pyimport.NewMachine(a.search)
	var classes []*pyclass.Class
	var skipped []report.ModuleSkipped
	err := discovery.WalkClasses(ctx, trees, machine, func(r discovery.Result) error {
		if r.Err != nil {
			skipped = append(skipped, report.ModuleSkipped{Module: r.Module, Err: r.Err})
			return nil
		}
		classes = append(classes, r.Classes...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return classes, skipped, nil
}

// messages assembles the ordered report: skipped modules sorted by name
// first, then class notices sorted by class. Import failures are errors
// only under strict-imports.
func (a *App) messages(skipped []report.ModuleSkipped, classes []*pyclass.Class) ([]report.Message, error) {
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Module < skipped[j].Module })
	msgs := make([]report.Message, 0, len(skipped))
	var last string
	for i, s := range skipped {
		if i > 0 && s.Module == last {
			continue
		}
		last = s.Module
		msgs = append(msgs, report.Message{Notice: s, Error: a.cfg.StrictImports})
	}

	classMsgs, err := CheckClasses(classes, a.cfg)
	if err != nil {
		return nil, err
	}
	return append(msgs, classMsgs...), nil
}

// classStats groups every extracted class, before class filters, the same
// way the stats block presents them.
func classStats(classes []*pyclass.Class) report.ClassStats {
	stats := report.ClassStats{All: len(classes)}
	for _, c := range classes {
		switch {
		case !c.IsPurePython():
			stats.NotApplicable++
		case checks.HasSlots(c):
			stats.HasSlots++
		default:
			stats.NoSlots++
		}
	}
	return stats
}

func compilePattern(pattern, key string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &config.InvalidPatternError{Key: key, Err: err}
	}
	return re, nil
}
