package discovery

import (
	"os"
	"path/filepath"
	"strings"

	"slotscan/internal/fault"
	"slotscan/internal/pypath"
)

// Located pairs an inferred module name with the filesystem location the
// name must resolve back to.
type Located struct {
	Name     string
	Location string
}

// FindModules lists the importable modules reachable from a path. A module
// file or package directory yields itself; a bare __init__.py yields its
// package; a plain directory is searched recursively. Nonexistent and
// non-module paths yield nothing.
func FindModules(path string, sp *pypath.SearchPath) ([]Located, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fault.AddContext(fault.Wrap(err, fault.CodeUsage, "cannot resolve files argument"), fault.CtxPath, path)
	}
	return findModules(abs, sp)
}

func findModules(p string, sp *pypath.SearchPath) ([]Located, error) {
	if filepath.Base(p) == "__init__.py" {
		return findModules(filepath.Dir(p), sp)
	}
	if pypath.IsModulePath(p) {
		name, ok := inferName(p, sp)
		if !ok {
			return nil, &UnrelatedPathError{Path: p}
		}
		loc := p
		if pypath.IsPackageDir(p) {
			loc = filepath.Join(p, "__init__.py")
		}
		return []Located{{Name: name, Location: loc}}, nil
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fault.AddContext(fault.Wrap(err, fault.CodeUsage, "cannot inspect path"), fault.CtxPath, p)
	}
	if !info.IsDir() {
		return nil, nil
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fault.AddContext(fault.Wrap(err, fault.CodeUsage, "cannot scan directory"), fault.CtxPath, p)
	}
	var out []Located
	for _, e := range entries {
		if sp.Ignored(e.Name()) {
			continue
		}
		sub, err := findModules(filepath.Join(p, e.Name()), sp)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// inferName derives the dotted module name by climbing from the path to the
// nearest search-path root. Intermediate directories need no __init__.py;
// namespace packages import without one.
func inferName(p string, sp *pypath.SearchPath) (string, bool) {
	parts := []string{strings.TrimSuffix(filepath.Base(p), ".py")}
	for dir := filepath.Dir(p); ; {
		if sp.ContainsDir(dir) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		parts = append(parts, filepath.Base(dir))
		dir = parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "."), true
}
