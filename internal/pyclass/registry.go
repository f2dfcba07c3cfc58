package pyclass

// Registry holds every class seen during one scan: parsed classes keyed by
// qualified name, the builtin table, and opaque externals interned by the
// dotted name they were referenced with. One scan owns one registry.
type Registry struct {
	classes  map[string]*Class
	external map[string]*Class
	builtins map[string]*Class
	object   *Class
}

func NewRegistry() *Registry {
	r := &Registry{
		classes:  make(map[string]*Class),
		external: make(map[string]*Class),
		builtins: make(map[string]*Class, len(builtinTable)+len(builtinAliases)),
	}
	for _, def := range builtinTable {
		r.builtins[def.name] = &Class{
			module:   "builtins",
			qualName: def.name,
			builtin:  def.name,
			slotted:  def.slotted,
		}
	}
	for _, def := range builtinTable {
		bases := make([]*Class, len(def.bases))
		for i, name := range def.bases {
			bases[i] = r.builtins[name]
		}
		r.builtins[def.name].bases = bases
	}
	for alias, target := range builtinAliases {
		r.builtins[alias] = r.builtins[target]
	}
	r.object = r.builtins["object"]
	return r
}

// Object returns the root of every hierarchy.
func (r *Registry) Object() *Class { return r.object }

func (r *Registry) Builtin(name string) (*Class, bool) {
	c, ok := r.builtins[name]
	return c, ok
}

// Add registers a parsed class. Rebinding a qualified name keeps runtime
// semantics: the last binding wins.
func (r *Registry) Add(c *Class) {
	r.classes[c.FullName()] = c
}

// Remove drops a parsed class, used when a redefinition discards the old
// body's nested classes.
func (r *Registry) Remove(fullName string) {
	delete(r.classes, fullName)
}

func (r *Registry) Lookup(module, qualname string) (*Class, bool) {
	c, ok := r.classes[module+":"+qualname]
	return c, ok
}

// External returns the opaque stand-in for a reference that resolved to
// nothing inspectable, creating it on first use. Opaque classes behave
// like slotted non-exception extension types.
func (r *Registry) External(name string) *Class {
	if c, ok := r.external[name]; ok {
		return c
	}
	c := &Class{qualName: name, opaque: true, bases: []*Class{r.object}}
	r.external[name] = c
	return c
}
