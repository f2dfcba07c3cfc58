// Package pyclass models Python classes as the checker sees them: direct
// bases, own __slots__ declarations and the C3 resolution order. Builtin
// classes come from a fixed table; references that resolve to nothing
// inspectable become opaque placeholders assumed to be slotted extension
// types, so unknown ancestry never produces findings.
package pyclass

import "slotscan/internal/checks"

// Class is one class binding: parsed from source, taken from the builtin
// table, or an opaque stand-in for an external class.
type Class struct {
	module   string
	qualName string
	file     string
	line     int
	column   int

	bases []*Class
	mro   []*Class

	slotNames []string
	declared  bool

	purePython bool
	builtin    string
	slotted    bool
	opaque     bool
}

// New creates a class parsed from source at the given position.
func New(module, qualname, file string, line, column int) *Class {
	return &Class{
		module:     module,
		qualName:   qualname,
		file:       file,
		line:       line,
		column:     column,
		purePython: true,
	}
}

// DeclareSlots records the class's own __slots__ declaration. names is nil
// when the declaration exists but its value cannot be read statically.
func (c *Class) DeclareSlots(names []string) {
	c.declared = true
	c.slotNames = names
}

// Bind sets the direct bases. Called once per class, before any ancestry
// query; the resolution order is computed lazily afterwards.
func (c *Class) Bind(bases []*Class) {
	c.bases = bases
	c.mro = nil
}

func (c *Class) Module() string   { return c.module }
func (c *Class) QualName() string { return c.qualName }
func (c *Class) File() string     { return c.file }
func (c *Class) Line() int        { return c.line }
func (c *Class) Column() int      { return c.column }

// FullName is the module-qualified display name, "pkg.mod:Outer.Inner".
// Opaque externals carry only the dotted name they were referenced by.
func (c *Class) FullName() string {
	if c.module == "" {
		return c.qualName
	}
	return c.module + ":" + c.qualName
}

func (c *Class) String() string { return c.FullName() }

func (c *Class) OwnSlots() ([]string, bool) { return c.slotNames, c.declared }

func (c *Class) IsSlottedBuiltin() bool { return c.slotted }

func (c *Class) IsPurePython() bool { return c.purePython }

// IsOpaque reports whether the class is a placeholder for something that
// was never inspected.
func (c *Class) IsOpaque() bool { return c.opaque }

// IsException reports whether the class sits under BaseException.
func (c *Class) IsException() bool {
	for _, a := range c.linearize() {
		if a.builtin == "BaseException" {
			return true
		}
	}
	return false
}

// Bases returns the direct bases in declaration order.
func (c *Class) Bases() []checks.Class {
	out := make([]checks.Class, len(c.bases))
	for i, b := range c.bases {
		out[i] = b
	}
	return out
}

// MRO returns the resolution order, the class itself first.
func (c *Class) MRO() []checks.Class {
	lin := c.linearize()
	out := make([]checks.Class, len(lin))
	for i, a := range lin {
		out[i] = a
	}
	return out
}
