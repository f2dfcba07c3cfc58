package pysrc

// Module is the statically extracted surface of one Python source file:
// the classes it defines and the names it binds through imports.
type Module struct {
	Path        string
	Classes     []*ClassDef
	Imports     []PlainImport
	FromImports []FromImport
}

// ClassDef is a class statement, possibly nested. QualName carries the
// nesting path, e.g. "Outer.Inner".
type ClassDef struct {
	Name     string
	QualName string
	Bases    []BaseRef
	Slots    *SlotsDecl
	Line     int
	Column   int
}

// BaseRef is one entry of a class's base list. Dotted is the normalized
// dotted-name form, empty when the expression cannot be resolved statically
// (calls, starred expressions, arbitrary computation).
type BaseRef struct {
	Expr   string
	Dotted string
}

// SlotsDecl is an own __slots__ declaration. Names preserves declaration
// order and may be empty for `__slots__ = ()`. Dynamic marks declarations
// whose member names cannot be read statically. Iterator marks the
// unsupported generator-expression shape.
type SlotsDecl struct {
	Names    []string
	Dynamic  bool
	Iterator bool
}

// PlainImport is `import a.b.c` or `import a.b.c as z`.
type PlainImport struct {
	Module string
	Alias  string
}

// FromImport is `from a.b import x, y as z`, with Level counting leading
// dots of a relative import.
type FromImport struct {
	Module   string
	Level    int
	Wildcard bool
	Names    []ImportedName
}

type ImportedName struct {
	Name  string
	Alias string
}
