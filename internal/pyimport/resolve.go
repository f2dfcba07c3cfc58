package pyimport

import (
	"strings"

	"slotscan/internal/pyclass"
)

// resolveBases binds the direct bases of every class in the module. Bases
// referencing other modules pull those modules in; the resolved flag is set
// up front so import cycles terminate.
func (m *Machine) resolveBases(st *moduleState) {
	if st.resolved || st.err != nil {
		return
	}
	st.resolved = true
	for _, q := range st.order {
		c := st.classes[q]
		def := st.defs[q]
		var bases []*pyclass.Class
		for _, ref := range def.Bases {
			if ref.Dotted == "" {
				// base expression with no static name, skipped at the
				// narrowest scope
				continue
			}
			bases = append(bases, m.resolveName(st, q, ref.Dotted))
		}
		if len(bases) == 0 {
			bases = []*pyclass.Class{m.registry.Object()}
		}
		c.Bind(bases)
	}
}

// resolveName resolves a dotted base reference from the scope of the class
// qualified as owner. Anything that cannot be traced to parsed source or
// the builtin table becomes an opaque external.
func (m *Machine) resolveName(st *moduleState, owner, dotted string) *pyclass.Class {
	// The class statement runs in the enclosing class body, whose names
	// are visible to base expressions. Class scopes do not nest further:
	// after the direct enclosure comes the module namespace.
	if i := strings.LastIndex(owner, "."); i >= 0 {
		if c, ok := st.classes[owner[:i]+"."+dotted]; ok {
			return c
		}
	}
	parts := strings.Split(dotted, ".")
	seen := make(map[string]bool)
	if b, ok := st.globals[parts[0]]; ok {
		return m.follow(b, parts[1:], seen)
	}
	if c := m.fromWildcards(st, parts, seen); c != nil {
		return c
	}
	if len(parts) == 1 {
		if c, ok := m.registry.Builtin(parts[0]); ok {
			return c
		}
	}
	return m.registry.External(dotted)
}

func (m *Machine) follow(b binding, rest []string, seen map[string]bool) *pyclass.Class {
	if b.class != nil {
		return m.nested(b.class, rest)
	}
	if b.attr != "" {
		return m.attrChain(b.module, append([]string{b.attr}, rest...), seen)
	}
	return m.attrChain(b.module, rest, seen)
}

// nested walks the remaining attribute path as classes nested inside c.
func (m *Machine) nested(c *pyclass.Class, rest []string) *pyclass.Class {
	if len(rest) == 0 {
		return c
	}
	target := c.QualName() + "." + strings.Join(rest, ".")
	if owner, ok := m.modules[c.Module()]; ok {
		if nc, ok := owner.classes[target]; ok {
			return nc
		}
	}
	return m.registry.External(c.Module() + "." + target)
}

// attrChain resolves rest as attribute access on the named module,
// importing it on demand the way the runtime would.
func (m *Machine) attrChain(module string, rest []string, seen map[string]bool) *pyclass.Class {
	if len(rest) == 0 {
		// a module itself is never a class
		return m.registry.External(module)
	}
	key := module + ":" + rest[0]
	if seen[key] {
		return m.registry.External(module + "." + strings.Join(rest, "."))
	}
	seen[key] = true

	if module == "builtins" {
		if c, ok := m.registry.Builtin(rest[0]); ok {
			return m.nested(c, rest[1:])
		}
	}

	st := m.load(module)
	if st.err != nil {
		return m.registry.External(module + "." + strings.Join(rest, "."))
	}
	m.resolveBases(st)

	if b, ok := st.globals[rest[0]]; ok {
		return m.follow(b, rest[1:], seen)
	}
	if c := m.fromWildcards(st, rest, seen); c != nil {
		return c
	}
	// possibly a submodule the runtime would load on attribute access
	sub := module + "." + rest[0]
	if _, ok, _ := m.path.Locate(sub); ok {
		return m.attrChain(sub, rest[1:], seen)
	}
	return m.registry.External(module + "." + strings.Join(rest, "."))
}

// fromWildcards tries each star-import source for a public name.
func (m *Machine) fromWildcards(st *moduleState, parts []string, seen map[string]bool) *pyclass.Class {
	if strings.HasPrefix(parts[0], "_") {
		return nil
	}
	for _, source := range st.wildcards {
		target := m.load(source)
		if target.err != nil {
			continue
		}
		if b, ok := target.globals[parts[0]]; ok {
			return m.follow(b, parts[1:], seen)
		}
	}
	return nil
}
