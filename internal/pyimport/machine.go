// Package pyimport is the static stand-in for the Python import machinery.
// Importing a module means parsing its source and binding the classes it
// defines into the shared registry; imports of other modules are followed
// lazily when a base reference needs them. Results are cached for the scan:
// a module parses at most once, and a module that failed stays failed.
package pyimport

import (
	"log/slog"
	"strings"

	"slotscan/internal/fault"
	"slotscan/internal/pyclass"
	"slotscan/internal/pypath"
	"slotscan/internal/pysrc"
)

type Machine struct {
	path     *pypath.SearchPath
	parser   *pysrc.Parser
	registry *pyclass.Registry
	modules  map[string]*moduleState
}

type moduleState struct {
	name      string
	loc       pypath.Location
	err       error
	order     []string
	classes   map[string]*pyclass.Class
	defs      map[string]*pysrc.ClassDef
	globals   map[string]binding
	wildcards []string
	resolved  bool
}

// binding is one name in a module namespace: a class defined here, or a
// reference into another module left unresolved until someone follows it.
type binding struct {
	class  *pyclass.Class
	module string
	attr   string
}

func NewMachine(path *pypath.SearchPath) *Machine {
	return &Machine{
		path:     path,
		parser:   pysrc.NewParser(),
		registry: pyclass.NewRegistry(),
		modules:  make(map[string]*moduleState),
	}
}

func (m *Machine) Registry() *pyclass.Registry { return m.registry }

// Import loads the named module and returns the classes defined directly
// in it, nested classes included, in definition order.
func (m *Machine) Import(name string) ([]*pyclass.Class, error) {
	st := m.load(name)
	if st.err != nil {
		return nil, st.err
	}
	m.resolveBases(st)
	out := make([]*pyclass.Class, 0, len(st.order))
	for _, q := range st.order {
		out = append(out, st.classes[q])
	}
	return out, nil
}

// load parses a module and builds its namespace. The state is registered
// before parsing starts so circular imports find it instead of recursing.
func (m *Machine) load(name string) *moduleState {
	if st, ok := m.modules[name]; ok {
		return st
	}
	st := &moduleState{
		name:    name,
		classes: make(map[string]*pyclass.Class),
		defs:    make(map[string]*pysrc.ClassDef),
		globals: make(map[string]binding),
	}
	m.modules[name] = st

	loc, ok, err := m.path.Locate(name)
	if err != nil {
		st.err = err
		return st
	}
	if !ok {
		st.err = fault.Newf(fault.CodeNotFound, "no module named %q", name)
		return st
	}
	st.loc = loc
	if loc.Origin == "" || !loc.IsInspectable() {
		// builtin, extension, bytecode or bare namespace package:
		// importable, nothing to inspect
		return st
	}

	mod, err := m.parser.ParseFile(loc.Origin)
	if err != nil {
		st.err = err
		return st
	}
	m.bind(st, mod)
	slog.Debug("imported module", "module", name, "classes", len(st.order))
	return st
}

func (m *Machine) bind(st *moduleState, mod *pysrc.Module) {
	for _, def := range mod.Classes {
		c := pyclass.New(st.name, def.QualName, mod.Path, def.Line, def.Column)
		if def.Slots != nil {
			c.DeclareSlots(slotNames(st.name, def))
		}
		m.addClass(st, def, c)
	}
	for _, imp := range mod.Imports {
		if imp.Alias != "" {
			st.globals[imp.Alias] = binding{module: imp.Module}
			continue
		}
		top := imp.Module
		if i := strings.Index(top, "."); i >= 0 {
			top = top[:i]
		}
		st.globals[top] = binding{module: top}
	}
	for _, imp := range mod.FromImports {
		source := m.absoluteSource(st, imp)
		if source == "" {
			continue
		}
		if imp.Wildcard {
			st.wildcards = append(st.wildcards, source)
			continue
		}
		for _, item := range imp.Names {
			bound := item.Alias
			if bound == "" {
				bound = item.Name
			}
			st.globals[bound] = binding{module: source, attr: item.Name}
		}
	}
}

func (m *Machine) addClass(st *moduleState, def *pysrc.ClassDef, c *pyclass.Class) {
	qualname := def.QualName
	if _, exists := st.classes[qualname]; exists {
		// redefinition: the last binding wins and the old body's nested
		// classes go away with it
		prefix := qualname + "."
		kept := st.order[:0]
		for _, q := range st.order {
			if q == qualname || strings.HasPrefix(q, prefix) {
				delete(st.classes, q)
				delete(st.defs, q)
				m.registry.Remove(st.name + ":" + q)
				continue
			}
			kept = append(kept, q)
		}
		st.order = kept
	}
	st.order = append(st.order, qualname)
	st.classes[qualname] = c
	st.defs[qualname] = def
	m.registry.Add(c)
	if !strings.Contains(qualname, ".") {
		st.globals[qualname] = binding{class: c}
	}
}

// absoluteSource turns a from-import into an absolute module name,
// resolving leading dots against the importing module's package.
func (m *Machine) absoluteSource(st *moduleState, imp pysrc.FromImport) string {
	if imp.Level == 0 {
		return imp.Module
	}
	pkg := st.name
	if st.loc.Kind != pypath.KindPackage && st.loc.Kind != pypath.KindNamespace {
		pkg = parentOf(pkg)
	}
	for i := 1; i < imp.Level; i++ {
		pkg = parentOf(pkg)
	}
	if pkg == "" {
		// relative import beyond the top-level package fails at runtime
		return ""
	}
	if imp.Module == "" {
		return pkg
	}
	return pkg + "." + imp.Module
}

func parentOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return ""
}

func slotNames(module string, def *pysrc.ClassDef) []string {
	s := def.Slots
	if s.Iterator {
		slog.Warn("iterator __slots__ cannot be checked", "class", module+":"+def.QualName)
		return nil
	}
	if s.Dynamic {
		return nil
	}
	return s.Names
}
