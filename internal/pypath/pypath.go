// Package pypath models the Python import search path: locating modules by
// dotted name, enumerating package contents, and recognizing the different
// module kinds (source, package, namespace, extension, bytecode, builtin)
// without executing anything.
package pypath

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"slotscan/internal/fault"
)

type Kind int

const (
	KindSource Kind = iota
	KindPackage
	KindNamespace
	KindExtension
	KindBytecode
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindPackage:
		return "package"
	case KindNamespace:
		return "namespace"
	case KindExtension:
		return "extension"
	case KindBytecode:
		return "bytecode"
	case KindBuiltin:
		return "builtin"
	}
	return "unknown"
}

// Location is the resolved physical identity of a module.
type Location struct {
	Name   string // bare name, no dots
	Kind   Kind
	Origin string // source file or __init__.py; empty for builtin and namespace
	Dir    string // submodule search dir; set for packages and namespaces only
}

// IsInspectable reports whether the module's definitions can be read from
// source.
func (l Location) IsInspectable() bool {
	return l.Kind == KindSource || l.Kind == KindPackage || l.Kind == KindNamespace
}

// ComparableOrigin is the path used for expected-location checks: the origin
// file when there is one, otherwise the package directory.
func (l Location) ComparableOrigin() string {
	if l.Origin != "" {
		return l.Origin
	}
	return l.Dir
}

// builtinModules mirrors a CPython interpreter's compiled-in module set.
// Names resolving here shadow any same-named file on the search path, the
// same way the builtin importer runs before the path finders.
var builtinModules = map[string]bool{
	"_abc": true, "_ast": true, "_codecs": true, "_collections": true,
	"_functools": true, "_imp": true, "_io": true, "_locale": true,
	"_operator": true, "_signal": true, "_sre": true, "_stat": true,
	"_string": true, "_symtable": true, "_thread": true, "_tokenize": true,
	"_tracemalloc": true, "_warnings": true, "_weakref": true,
	"atexit": true, "builtins": true, "errno": true, "faulthandler": true,
	"gc": true, "itertools": true, "marshal": true, "posix": true,
	"pwd": true, "sys": true, "time": true, "zipimport": true,
}

func IsBuiltinModule(name string) bool {
	return builtinModules[name]
}

// DefaultIgnores are directory names never descended into during discovery.
var DefaultIgnores = []string{
	"__pycache__", ".git", ".hg", ".svn", ".tox", ".nox",
	".venv", "venv", ".eggs", "*.egg-info", "node_modules",
}

// SearchPath is an ordered list of root directories, the sys.path
// equivalent, plus ignore globs applied to directory basenames.
type SearchPath struct {
	roots   []string
	ignores []glob.Glob
}

func New(roots []string, ignores []string) (*SearchPath, error) {
	sp := &SearchPath{}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fault.Wrap(err, fault.CodeConfig, "cannot resolve search path root")
		}
		sp.roots = append(sp.roots, filepath.Clean(abs))
	}
	for _, pattern := range ignores {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fault.Newf(fault.CodeConfig, "invalid ignore pattern %q: %v", pattern, err)
		}
		sp.ignores = append(sp.ignores, g)
	}
	return sp, nil
}

// FromEnv builds a search path from explicit roots, the PYTHONPATH-style
// environment value, and the working directory, in that precedence order.
func FromEnv(explicit []string, envValue string, cwd string) (*SearchPath, error) {
	roots := append([]string{}, explicit...)
	for _, p := range filepath.SplitList(envValue) {
		if p != "" {
			roots = append(roots, p)
		}
	}
	roots = append(roots, cwd)
	return New(roots, DefaultIgnores)
}

func (sp *SearchPath) Roots() []string {
	return append([]string{}, sp.roots...)
}

func (sp *SearchPath) ContainsDir(dir string) bool {
	dir = filepath.Clean(dir)
	for _, r := range sp.roots {
		if r == dir {
			return true
		}
	}
	return false
}

func (sp *SearchPath) Ignored(base string) bool {
	for _, g := range sp.ignores {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Locate resolves a dotted module name against the search path without
// importing. The bool reports whether the module exists; errors are reserved
// for filesystem failures.
func (sp *SearchPath) Locate(dotted string) (Location, bool, error) {
	parts := strings.Split(dotted, ".")
	if IsBuiltinModule(parts[0]) {
		if len(parts) > 1 {
			return Location{}, false, nil
		}
		return Location{Name: parts[0], Kind: KindBuiltin}, true, nil
	}

	loc, ok, err := locateIn(sp.roots, parts[0])
	if err != nil || !ok {
		return Location{}, false, err
	}
	for _, part := range parts[1:] {
		if loc.Dir == "" {
			return Location{}, false, nil
		}
		loc, ok, err = locateIn([]string{loc.Dir}, part)
		if err != nil || !ok {
			return Location{}, false, err
		}
	}
	return loc, true, nil
}

// locateIn scans candidate directories in order. A regular package or module
// in an earlier directory wins; namespace directories only count when no
// regular match exists anywhere.
func locateIn(dirs []string, name string) (Location, bool, error) {
	var namespace *Location
	for _, dir := range dirs {
		entry := filepath.Join(dir, name)
		if info, err := os.Stat(entry); err == nil && info.IsDir() {
			init := filepath.Join(entry, "__init__.py")
			if fileExists(init) {
				return Location{Name: name, Kind: KindPackage, Origin: init, Dir: entry}, true, nil
			}
			if namespace == nil {
				namespace = &Location{Name: name, Kind: KindNamespace, Dir: entry}
			}
		}
		if loc, ok := locateFile(dir, name); ok {
			return loc, true, nil
		}
	}
	if namespace != nil {
		return *namespace, true, nil
	}
	return Location{}, false, nil
}

// Module file kinds in import-system precedence: extensions, then source,
// then bytecode.
var extensionSuffixes = []string{".so", ".pyd"}

func locateFile(dir, name string) (Location, bool) {
	for _, suffix := range extensionSuffixes {
		p := filepath.Join(dir, name+suffix)
		if fileExists(p) {
			return Location{Name: name, Kind: KindExtension, Origin: p}, true
		}
	}
	// Tagged extension files, e.g. foo.cpython-312-x86_64-linux-gnu.so.
	if matches, err := filepath.Glob(filepath.Join(dir, name+".*.so")); err == nil && len(matches) > 0 {
		sort.Strings(matches)
		return Location{Name: name, Kind: KindExtension, Origin: matches[0]}, true
	}
	if p := filepath.Join(dir, name+".py"); fileExists(p) {
		return Location{Name: name, Kind: KindSource, Origin: p}, true
	}
	if p := filepath.Join(dir, name+".pyc"); fileExists(p) {
		return Location{Name: name, Kind: KindBytecode, Origin: p}, true
	}
	return Location{}, false
}

// Submodules enumerates the direct children of a package location, one
// filesystem level, sorted by name.
func (sp *SearchPath) Submodules(loc Location) ([]Location, error) {
	if loc.Dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(loc.Dir)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Location)
	for _, e := range entries {
		name := e.Name()
		if sp.Ignored(name) {
			continue
		}
		if e.IsDir() {
			init := filepath.Join(loc.Dir, name, "__init__.py")
			if fileExists(init) {
				byName[name] = Location{Name: name, Kind: KindPackage, Origin: init, Dir: filepath.Join(loc.Dir, name)}
			}
			continue
		}
		stem, kind, ok := moduleFile(name)
		if !ok || stem == "__init__" {
			continue
		}
		if prev, exists := byName[stem]; exists && precedence(prev.Kind) <= precedence(kind) {
			continue
		}
		byName[stem] = Location{Name: stem, Kind: kind, Origin: filepath.Join(loc.Dir, name)}
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Location, len(names))
	for i, n := range names {
		out[i] = byName[n]
	}
	return out, nil
}

func precedence(k Kind) int {
	switch k {
	case KindPackage:
		return 0
	case KindExtension:
		return 1
	case KindSource:
		return 2
	case KindBytecode:
		return 3
	}
	return 4
}

func moduleFile(base string) (stem string, kind Kind, ok bool) {
	switch {
	case strings.HasSuffix(base, ".py"):
		stem = strings.TrimSuffix(base, ".py")
		kind = KindSource
	case strings.HasSuffix(base, ".pyc"):
		stem = strings.TrimSuffix(base, ".pyc")
		kind = KindBytecode
	case strings.HasSuffix(base, ".so") || strings.HasSuffix(base, ".pyd"):
		stem = base[:len(base)-len(filepath.Ext(base))]
		// Strip interpreter tags like cpython-312-x86_64-linux-gnu.
		if i := strings.IndexByte(stem, '.'); i > 0 {
			stem = stem[:i]
		}
		kind = KindExtension
	default:
		return "", 0, false
	}
	if stem == "" || strings.Contains(stem, ".") {
		return "", 0, false
	}
	return stem, kind, true
}

// IsPackageDir reports whether the directory carries the package marker.
func IsPackageDir(p string) bool {
	return fileExists(filepath.Join(p, "__init__.py"))
}

// IsModulePath reports whether the path is importable as a single unit: a
// .py file with exactly one suffix, or a package directory.
func IsModulePath(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return IsPackageDir(p)
	}
	base := filepath.Base(p)
	stem := strings.TrimSuffix(base, ".py")
	return strings.HasSuffix(base, ".py") && stem != "" && !strings.Contains(stem, ".")
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
