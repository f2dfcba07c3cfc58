// Package modtree holds the immutable tree describing discoverable Python
// modules. A tree is either a single-file Module or a Package with children.
// Every operation returns a new tree; nothing is mutated after construction.
package modtree

import (
	"fmt"
	"sort"
	"strings"
)

// Tree is the module-tree sum type. The only implementations are Module and
// Package. Node names never contain dots; full dotted names are produced by
// prefixing during traversal.
type Tree interface {
	Name() string
	// Len counts the nodes in the subtree, including the node itself.
	Len() int
	// Display renders an indented listing, one node per line.
	Display() string
	// Filter prunes the subtree to nodes whose prefix-qualified dotted name
	// satisfies pred. Returns nil when the node itself is rejected. A kept
	// package keeps its name even if all children are pruned.
	Filter(pred func(fullName string) bool, prefix string) Tree
	// Merge combines two trees with the same name. Merging trees with
	// different names is a contract violation.
	Merge(other Tree) (Tree, error)
	// Walk visits every node, self first, with its prefix-qualified name.
	// A non-nil error from visit stops the walk.
	Walk(prefix string, visit func(fullName string, node Tree) error) error
}

type Module struct {
	name string
}

func NewModule(name string) Module {
	return Module{name: name}
}

func (m Module) Name() string { return m.name }

func (m Module) Len() int { return 1 }

func (m Module) Display() string { return m.name }

func (m Module) Filter(pred func(string) bool, prefix string) Tree {
	if pred(prefix + m.name) {
		return m
	}
	return nil
}

func (m Module) Merge(other Tree) (Tree, error) {
	if other.Name() != m.name {
		return nil, fmt.Errorf("cannot merge module %q with %q: no shared components", m.name, other.Name())
	}
	// A module yields to whatever the other tree knows about this name.
	return other, nil
}

func (m Module) Walk(prefix string, visit func(string, Tree) error) error {
	return visit(prefix+m.name, m)
}

type Package struct {
	name     string
	children map[string]Tree
}

func NewPackage(name string, children ...Tree) Package {
	m := make(map[string]Tree, len(children))
	for _, c := range children {
		m[c.Name()] = c
	}
	return Package{name: name, children: m}
}

func (p Package) Name() string { return p.name }

func (p Package) Len() int {
	n := 1
	for _, c := range p.children {
		n += c.Len()
	}
	return n
}

// Children returns the direct children sorted by name.
func (p Package) Children() []Tree {
	out := make([]Tree, 0, len(p.children))
	for _, c := range p.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (p Package) Child(name string) (Tree, bool) {
	c, ok := p.children[name]
	return c, ok
}

func (p Package) Display() string {
	kids := p.Children()
	// Modules sort before packages, alphabetical within each group.
	sort.SliceStable(kids, func(i, j int) bool {
		_, pi := kids[i].(Package)
		_, pj := kids[j].(Package)
		if pi != pj {
			return !pi
		}
		return kids[i].Name() < kids[j].Name()
	})
	var b strings.Builder
	b.WriteString(p.name)
	for _, c := range kids {
		b.WriteByte('\n')
		b.WriteString(indent(c.Display(), " "))
	}
	return b.String()
}

func (p Package) Filter(pred func(string) bool, prefix string) Tree {
	full := prefix + p.name
	if !pred(full) {
		return nil
	}
	kept := make(map[string]Tree, len(p.children))
	for name, c := range p.children {
		if sub := c.Filter(pred, full+"."); sub != nil {
			kept[name] = sub
		}
	}
	return Package{name: p.name, children: kept}
}

func (p Package) Merge(other Tree) (Tree, error) {
	if other.Name() != p.name {
		return nil, fmt.Errorf("cannot merge module %q with %q: no shared components", p.name, other.Name())
	}
	op, ok := other.(Package)
	if !ok {
		return p, nil
	}
	merged, err := Consolidate(append(p.Children(), op.Children()...))
	if err != nil {
		return nil, err
	}
	return NewPackage(p.name, merged...), nil
}

func (p Package) Walk(prefix string, visit func(string, Tree) error) error {
	full := prefix + p.name
	if err := visit(full, p); err != nil {
		return err
	}
	for _, c := range p.Children() {
		if err := c.Walk(full+".", visit); err != nil {
			return err
		}
	}
	return nil
}

// Consolidate deduplicates trees by top-level name, merging same-named trees
// pairwise. First-seen order is preserved.
func Consolidate(trees []Tree) ([]Tree, error) {
	var order []string
	seen := make(map[string]Tree, len(trees))
	for _, t := range trees {
		prev, ok := seen[t.Name()]
		if !ok {
			seen[t.Name()] = t
			order = append(order, t.Name())
			continue
		}
		merged, err := prev.Merge(t)
		if err != nil {
			return nil, err
		}
		seen[t.Name()] = merged
	}
	out := make([]Tree, len(order))
	for i, name := range order {
		out[i] = seen[name]
	}
	return out, nil
}

// Subtree descends to the node named by the dotted path, whose first
// component must match the tree's own name.
func Subtree(t Tree, dotted string) (Tree, bool) {
	parts := strings.Split(dotted, ".")
	if parts[0] != t.Name() {
		return nil, false
	}
	cur := t
	for _, part := range parts[1:] {
		pkg, ok := cur.(Package)
		if !ok {
			return nil, false
		}
		child, ok := pkg.Child(part)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
