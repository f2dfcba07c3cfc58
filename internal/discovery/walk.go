package discovery

import (
	"context"

	"slotscan/internal/fault"
	"slotscan/internal/modtree"
	"slotscan/internal/pyclass"
)

// Importer loads a module by dotted name and returns the classes defined in
// it. Satisfied by pyimport.Machine.
type Importer interface {
	Import(name string) ([]*pyclass.Class, error)
}

// Result is one walked module: either the classes it defines, or the reason
// it could not be loaded.
type Result struct {
	Module  string
	Classes []*pyclass.Class
	Err     error
}

// WalkClasses imports every module in the given trees, self before
// children, and delivers one Result per visited module. A failed module's
// submodules are skipped; loading them would fail the same way. Modules
// reachable from more than one root are visited once. A visit error or
// context cancellation aborts the whole traversal.
func WalkClasses(ctx context.Context, roots []modtree.Tree, imp Importer, visit func(Result) error) error {
	w := &walker{imp: imp, seen: make(map[string]bool)}
	for _, root := range roots {
		if err := w.walk(ctx, "", root, visit); err != nil {
			return err
		}
	}
	return nil
}

type walker struct {
	imp  Importer
	seen map[string]bool
}

func (w *walker) walk(ctx context.Context, prefix string, tree modtree.Tree, visit func(Result) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := prefix + tree.Name()
	if w.seen[full] {
		return nil
	}
	w.seen[full] = true
	classes, err := w.load(full)
	if err != nil {
		return visit(Result{Module: full, Err: err})
	}
	if err := visit(Result{Module: full, Classes: classes}); err != nil {
		return err
	}
	pkg, ok := tree.(modtree.Package)
	if !ok {
		return nil
	}
	for _, child := range pkg.Children() {
		if err := w.walk(ctx, full+".", child, visit); err != nil {
			return err
		}
	}
	return nil
}

// load confines whatever the importer does with one module to that module's
// Result; a panic counts as a failed import.
func (w *walker) load(name string) (classes []*pyclass.Class, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fault.Newf(fault.CodeInternal, "panic while importing %s: %v", name, r)
		}
	}()
	return w.imp.Import(name)
}
