package discovery

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"slotscan/internal/fault"
	"slotscan/internal/modtree"
	"slotscan/internal/pyclass"
	"slotscan/internal/pyimport"
)

var _ Importer = (*pyimport.Machine)(nil)

type fakeImporter struct {
	classes map[string][]*pyclass.Class
	fail    map[string]error
	panics  map[string]bool
	calls   []string
}

func (f *fakeImporter) Import(name string) ([]*pyclass.Class, error) {
	f.calls = append(f.calls, name)
	if f.panics[name] {
		panic("import gone wrong")
	}
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return f.classes[name], nil
}

func collect(t *testing.T, roots []modtree.Tree, imp Importer) (visited, failed []string) {
	t.Helper()
	err := WalkClasses(context.Background(), roots, imp, func(r Result) error {
		visited = append(visited, r.Module)
		if r.Err != nil {
			failed = append(failed, r.Module)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return visited, failed
}

func TestWalkClassesOrder(t *testing.T) {
	tree := modtree.NewPackage("pkg",
		modtree.NewModule("a"),
		modtree.NewPackage("sub", modtree.NewModule("b")),
	)
	imp := &fakeImporter{classes: map[string][]*pyclass.Class{
		"pkg.a": {pyclass.New("pkg.a", "A", "", 1, 1)},
	}}

	visited, failed := collect(t, []modtree.Tree{tree}, imp)
	want := []string{"pkg", "pkg.a", "pkg.sub", "pkg.sub.b"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
	if len(failed) != 0 {
		t.Errorf("unexpected failures: %v", failed)
	}
}

func TestWalkClassesBrokenLeaf(t *testing.T) {
	tree := modtree.NewPackage("pkg",
		modtree.NewModule("a"),
		modtree.NewModule("b"),
		modtree.NewModule("c"),
	)
	imp := &fakeImporter{fail: map[string]error{"pkg.b": errors.New("boom")}}

	visited, failed := collect(t, []modtree.Tree{tree}, imp)
	if want := []string{"pkg", "pkg.a", "pkg.b", "pkg.c"}; !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
	if want := []string{"pkg.b"}; !reflect.DeepEqual(failed, want) {
		t.Errorf("failed %v, want %v", failed, want)
	}
}

func TestWalkClassesSkipsFailedSubtree(t *testing.T) {
	tree := modtree.NewPackage("pkg",
		modtree.NewPackage("bad", modtree.NewModule("child")),
		modtree.NewModule("ok"),
	)
	imp := &fakeImporter{fail: map[string]error{"pkg.bad": errors.New("boom")}}

	visited, failed := collect(t, []modtree.Tree{tree}, imp)
	if want := []string{"pkg", "pkg.bad", "pkg.ok"}; !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
	if want := []string{"pkg.bad"}; !reflect.DeepEqual(failed, want) {
		t.Errorf("failed %v, want %v", failed, want)
	}
	for _, call := range imp.calls {
		if call == "pkg.bad.child" {
			t.Error("submodule of failed package was imported")
		}
	}
}

func TestWalkClassesPanicConfined(t *testing.T) {
	tree := modtree.NewPackage("pkg",
		modtree.NewModule("a"),
		modtree.NewModule("b"),
	)
	imp := &fakeImporter{panics: map[string]bool{"pkg.a": true}}

	var panicked error
	err := WalkClasses(context.Background(), []modtree.Tree{tree}, imp, func(r Result) error {
		if r.Module == "pkg.a" {
			panicked = r.Err
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !fault.IsCode(panicked, fault.CodeInternal) {
		t.Errorf("panic surfaced as %v, want internal fault", panicked)
	}
	if want := []string{"pkg", "pkg.a", "pkg.b"}; !reflect.DeepEqual(imp.calls, want) {
		t.Errorf("calls %v, want %v", imp.calls, want)
	}
}

func TestWalkClassesSharedSeen(t *testing.T) {
	tree := modtree.NewPackage("pkg", modtree.NewModule("a"))
	imp := &fakeImporter{}

	visited, _ := collect(t, []modtree.Tree{tree, tree}, imp)
	want := []string{"pkg", "pkg.a"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
	if !reflect.DeepEqual(imp.calls, want) {
		t.Errorf("calls %v, want %v", imp.calls, want)
	}
}

func TestWalkClassesContextCancelled(t *testing.T) {
	tree := modtree.NewPackage("pkg", modtree.NewModule("a"))
	ctx, cancel := context.WithCancel(context.Background())

	var visited []string
	err := WalkClasses(ctx, []modtree.Tree{tree}, &fakeImporter{}, func(r Result) error {
		visited = append(visited, r.Module)
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if want := []string{"pkg"}; !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
}

func TestWalkClassesVisitError(t *testing.T) {
	tree := modtree.NewPackage("pkg", modtree.NewModule("a"))
	stop := errors.New("stop")

	err := WalkClasses(context.Background(), []modtree.Tree{tree}, &fakeImporter{}, func(Result) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("err = %v, want %v", err, stop)
	}
}

func TestWalkClassesWithMachine(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/good.py":     "class Good:\n    __slots__ = (\"a\",)\n",
		"pkg/broken.py":   "class Broken(:\n    pass\n",
		"pkg/other.py":    "class Other:\n    pass\n",
	})
	sp := searchPath(t, root)
	tree, err := ModuleTree("pkg", "", sp)
	if err != nil {
		t.Fatal(err)
	}

	var classes, failed []string
	err = WalkClasses(context.Background(), []modtree.Tree{tree}, pyimport.NewMachine(sp), func(r Result) error {
		if r.Err != nil {
			failed = append(failed, r.Module)
			return nil
		}
		for _, c := range r.Classes {
			classes = append(classes, c.FullName())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"pkg.broken"}; !reflect.DeepEqual(failed, want) {
		t.Errorf("failed %v, want %v", failed, want)
	}
	if want := []string{"pkg.good:Good", "pkg.other:Other"}; !reflect.DeepEqual(classes, want) {
		t.Errorf("classes %v, want %v", classes, want)
	}
}
