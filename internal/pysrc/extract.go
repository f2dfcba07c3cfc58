package pysrc

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type extractor struct {
	source []byte
}

// module walks top-level statements. Function bodies are skipped entirely:
// names bound inside a function never reach the module namespace.
func (e *extractor) module(node *sitter.Node, m *Module) {
	switch node.Kind() {
	case "function_definition":
		return
	case "import_statement":
		e.plainImport(node, m)
		return
	case "import_from_statement":
		e.fromImport(node, m)
		return
	case "future_import_statement":
		return
	case "class_definition":
		m.Classes = append(m.Classes, e.class(node, "")...)
		return
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			e.module(def, m)
		}
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.module(node.Child(i), m)
	}
}

// class extracts one class statement and, flattened after it, every class
// nested in its body.
func (e *extractor) class(node *sitter.Node, prefix string) []*ClassDef {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := e.text(nameNode)
	qual := name
	if prefix != "" {
		qual = prefix + "." + name
	}
	pos := node.StartPosition()
	cd := &ClassDef{
		Name:     name,
		QualName: qual,
		Line:     int(pos.Row) + 1,
		Column:   int(pos.Column) + 1,
	}
	if args := node.ChildByFieldName("superclasses"); args != nil {
		cd.Bases = e.bases(args)
	}
	out := []*ClassDef{cd}
	if body := node.ChildByFieldName("body"); body != nil {
		out = append(out, e.classBody(body, cd, qual)...)
	}
	return out
}

// classBody scans a class block for __slots__ and nested classes, descending
// through conditional blocks but never into methods.
func (e *extractor) classBody(node *sitter.Node, cd *ClassDef, qual string) []*ClassDef {
	switch node.Kind() {
	case "function_definition":
		return nil
	case "class_definition":
		return e.class(node, qual)
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			return e.classBody(def, cd, qual)
		}
		return nil
	case "assignment":
		e.slotsAssignment(node, cd)
		return nil
	case "augmented_assignment":
		if left := node.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" && e.text(left) == "__slots__" {
			cd.Slots = &SlotsDecl{Dynamic: true}
		}
		return nil
	}
	var nested []*ClassDef
	for i := uint(0); i < node.ChildCount(); i++ {
		nested = append(nested, e.classBody(node.Child(i), cd, qual)...)
	}
	return nested
}

func (e *extractor) slotsAssignment(node *sitter.Node, cd *ClassDef) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || left.Kind() != "identifier" || e.text(left) != "__slots__" {
		return
	}
	// A bare annotation like `__slots__: tuple` binds nothing.
	if right == nil {
		return
	}
	decl := e.slotsValue(right)
	cd.Slots = &decl
}

func (e *extractor) slotsValue(node *sitter.Node) SlotsDecl {
	switch node.Kind() {
	case "string", "concatenated_string":
		// A single string declares one slot, not one per character.
		if name, ok := e.stringLiteral(node); ok {
			return SlotsDecl{Names: []string{name}}
		}
		return SlotsDecl{Dynamic: true}
	case "tuple", "list", "set":
		names := []string{}
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if !child.IsNamed() || child.Kind() == "comment" {
				continue
			}
			name, ok := e.stringLiteral(child)
			if !ok {
				return SlotsDecl{Dynamic: true}
			}
			names = append(names, name)
		}
		return SlotsDecl{Names: names}
	case "dictionary":
		names := []string{}
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.Kind() == "dictionary_splat" {
				return SlotsDecl{Dynamic: true}
			}
			if child.Kind() != "pair" {
				continue
			}
			key := child.ChildByFieldName("key")
			if key == nil {
				return SlotsDecl{Dynamic: true}
			}
			name, ok := e.stringLiteral(key)
			if !ok {
				return SlotsDecl{Dynamic: true}
			}
			names = append(names, name)
		}
		return SlotsDecl{Names: names}
	case "parenthesized_expression":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.IsNamed() && child.Kind() != "comment" {
				return e.slotsValue(child)
			}
		}
		return SlotsDecl{Dynamic: true}
	case "generator_expression":
		return SlotsDecl{Iterator: true}
	case "assignment":
		// Chained form: __slots__ = other = (...).
		if right := node.ChildByFieldName("right"); right != nil {
			return e.slotsValue(right)
		}
		return SlotsDecl{Dynamic: true}
	}
	return SlotsDecl{Dynamic: true}
}

func (e *extractor) stringLiteral(node *sitter.Node) (string, bool) {
	switch node.Kind() {
	case "string":
		var b strings.Builder
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			switch child.Kind() {
			case "string_content", "escape_sequence":
				b.WriteString(e.text(child))
			case "interpolation":
				return "", false
			case "string_start":
				if strings.ContainsAny(e.text(child), "fFbB") {
					return "", false
				}
			}
		}
		return b.String(), true
	case "concatenated_string":
		var b strings.Builder
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.Kind() != "string" {
				continue
			}
			part, ok := e.stringLiteral(child)
			if !ok {
				return "", false
			}
			b.WriteString(part)
		}
		return b.String(), true
	}
	return "", false
}

func (e *extractor) bases(args *sitter.Node) []BaseRef {
	var out []BaseRef
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		// metaclass=... and other keyword arguments are not bases.
		if child.Kind() == "keyword_argument" {
			continue
		}
		out = append(out, BaseRef{Expr: e.text(child), Dotted: e.dottedName(child)})
	}
	return out
}

// dottedName normalizes a base expression to a dotted identifier chain,
// unwrapping parentheses and subscripts like Generic[T].
func (e *extractor) dottedName(node *sitter.Node) string {
	switch node.Kind() {
	case "identifier":
		return e.text(node)
	case "attribute":
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return ""
		}
		base := e.dottedName(obj)
		if base == "" {
			return ""
		}
		return base + "." + e.text(attr)
	case "subscript":
		if value := node.ChildByFieldName("value"); value != nil {
			return e.dottedName(value)
		}
	case "parenthesized_expression":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.IsNamed() && child.Kind() != "comment" {
				return e.dottedName(child)
			}
		}
	}
	return ""
}

func (e *extractor) plainImport(node *sitter.Node, m *Module) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			m.Imports = append(m.Imports, PlainImport{Module: e.text(child)})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil {
				continue
			}
			imp := PlainImport{Module: e.text(name)}
			if alias != nil {
				imp.Alias = e.text(alias)
			}
			m.Imports = append(m.Imports, imp)
		}
	}
}

func (e *extractor) fromImport(node *sitter.Node, m *Module) {
	imp := FromImport{}
	if mod := node.ChildByFieldName("module_name"); mod != nil {
		switch mod.Kind() {
		case "dotted_name", "identifier":
			imp.Module = e.text(mod)
		case "relative_import":
			for i := uint(0); i < mod.ChildCount(); i++ {
				child := mod.Child(i)
				switch child.Kind() {
				case "import_prefix":
					imp.Level = len(e.text(child))
				case "dotted_name", "identifier":
					imp.Module = e.text(child)
				}
			}
		}
	}
	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import" {
			seenImport = true
			continue
		}
		if !seenImport {
			continue
		}
		switch child.Kind() {
		case "wildcard_import":
			imp.Wildcard = true
		case "dotted_name", "identifier":
			imp.Names = append(imp.Names, ImportedName{Name: e.text(child)})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil {
				continue
			}
			in := ImportedName{Name: e.text(name)}
			if alias != nil {
				in.Alias = e.text(alias)
			}
			imp.Names = append(imp.Names, in)
		}
	}
	m.FromImports = append(m.FromImports, imp)
}

func (e *extractor) text(node *sitter.Node) string {
	return string(e.source[node.StartByte():node.EndByte()])
}
