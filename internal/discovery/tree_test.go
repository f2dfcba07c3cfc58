package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"slotscan/internal/modtree"
	"slotscan/internal/pypath"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func searchPath(t *testing.T, roots ...string) *pypath.SearchPath {
	t.Helper()
	sp, err := pypath.New(roots, pypath.DefaultIgnores)
	if err != nil {
		t.Fatal(err)
	}
	return sp
}

func treeNames(t *testing.T, tree modtree.Tree) []string {
	t.Helper()
	var names []string
	err := tree.Walk("", func(full string, _ modtree.Tree) error {
		names = append(names, full)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return names
}

func TestModuleTreeSingleModule(t *testing.T) {
	root := writeTree(t, map[string]string{"single.py": "class A: pass\n"})
	sp := searchPath(t, root)

	tree, err := ModuleTree("single", "", sp)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Name() != "single" || tree.Len() != 1 {
		t.Errorf("got %q with %d nodes, want single with 1", tree.Name(), tree.Len())
	}
}

func TestModuleTreePackage(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/__init__.py":      "",
		"pkg/a.py":             "",
		"pkg/ext.so":           "",
		"pkg/old.pyc":          "",
		"pkg/data.txt":         "",
		"pkg/__pycache__/c.py": "",
		"pkg/sub/__init__.py":  "",
		"pkg/sub/b.py":         "",
	})
	sp := searchPath(t, root)

	tree, err := ModuleTree("pkg", "", sp)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"pkg", "pkg.a", "pkg.ext", "pkg.old", "pkg.sub", "pkg.sub.b"}
	if got := treeNames(t, tree); !reflect.DeepEqual(got, want) {
		t.Errorf("tree names = %v, want %v", got, want)
	}
}

func TestModuleTreeDottedTarget(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/__init__.py":     "",
		"pkg/a.py":            "",
		"pkg/sub/__init__.py": "",
		"pkg/sub/b.py":        "",
	})
	sp := searchPath(t, root)

	tree, err := ModuleTree("pkg.sub", "", sp)
	if err != nil {
		t.Fatal(err)
	}
	// The wrapper holds only the spine down to the target; pkg.a is not in
	// scope for a pkg.sub scan.
	want := []string{"pkg", "pkg.sub", "pkg.sub.b"}
	if got := treeNames(t, tree); !reflect.DeepEqual(got, want) {
		t.Errorf("tree names = %v, want %v", got, want)
	}
	sub, ok := modtree.Subtree(tree, "pkg.sub")
	if !ok {
		t.Fatal("subtree pkg.sub not found")
	}
	if sub.Len() != 2 {
		t.Errorf("subtree has %d nodes, want 2", sub.Len())
	}
}

func TestModuleTreeNotFound(t *testing.T) {
	root := writeTree(t, map[string]string{"single.py": ""})
	sp := searchPath(t, root)

	for _, name := range []string{"nope", "single.sub"} {
		_, err := ModuleTree(name, "", sp)
		var nf *ModuleNotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("ModuleTree(%q) error = %v, want ModuleNotFoundError", name, err)
		}
		if nf.Module != name {
			t.Errorf("Module = %q, want %q", nf.Module, name)
		}
	}
}

func TestModuleTreeNotInspectable(t *testing.T) {
	root := writeTree(t, map[string]string{"ext.so": ""})
	sp := searchPath(t, root)

	for _, name := range []string{"ext", "sys"} {
		_, err := ModuleTree(name, "", sp)
		var ni *ModuleNotInspectableError
		if !errors.As(err, &ni) {
			t.Fatalf("ModuleTree(%q) error = %v, want ModuleNotInspectableError", name, err)
		}
		if ni.Module != name {
			t.Errorf("Module = %q, want %q", ni.Module, name)
		}
	}
}

func TestModuleTreeUnexpectedLocation(t *testing.T) {
	rootA := writeTree(t, map[string]string{"mod.py": ""})
	rootB := writeTree(t, map[string]string{"mod.py": ""})
	sp := searchPath(t, rootA, rootB)

	// The first root wins resolution, so the copy in rootB is unreachable.
	expected := filepath.Join(rootB, "mod.py")
	_, err := ModuleTree("mod", expected, sp)
	var ul *UnexpectedLocationError
	if !errors.As(err, &ul) {
		t.Fatalf("error = %v, want UnexpectedLocationError", err)
	}
	if ul.Expected != expected || ul.Actual != filepath.Join(rootA, "mod.py") {
		t.Errorf("got expected %q actual %q", ul.Expected, ul.Actual)
	}

	if _, err := ModuleTree("mod", filepath.Join(rootA, "mod.py"), sp); err != nil {
		t.Errorf("matching location rejected: %v", err)
	}
}

func TestModuleTreeShadowedByBuiltin(t *testing.T) {
	root := writeTree(t, map[string]string{"sys.py": ""})
	sp := searchPath(t, root)

	_, err := ModuleTree("sys", filepath.Join(root, "sys.py"), sp)
	var ul *UnexpectedLocationError
	if !errors.As(err, &ul) {
		t.Fatalf("error = %v, want UnexpectedLocationError", err)
	}
	if ul.Actual != "" {
		t.Errorf("Actual = %q, want empty for a builtin", ul.Actual)
	}
}

func TestModuleTreeNamespacePackage(t *testing.T) {
	root := writeTree(t, map[string]string{"ns/mod.py": ""})
	sp := searchPath(t, root)

	tree, err := ModuleTree("ns", "", sp)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ns", "ns.mod"}
	if got := treeNames(t, tree); !reflect.DeepEqual(got, want) {
		t.Errorf("tree names = %v, want %v", got, want)
	}
}
