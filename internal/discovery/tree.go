// Package discovery turns scan targets, dotted module names or filesystem
// paths, into module trees and walks those trees through an importer,
// delivering the classes each module defines.
package discovery

import (
	"strings"

	"slotscan/internal/modtree"
	"slotscan/internal/pypath"
)

// ModuleTree resolves a dotted module name to the tree of modules a scan of
// it covers. Packages are enumerated recursively, one filesystem level per
// package. A dotted submodule target comes back wrapped in bare packages
// for each parent component, so the returned root is always the first name
// component; use modtree.Subtree to reach the target node.
//
// If expected is non-empty, the resolved location must match it exactly;
// a mismatch means the name would load from somewhere else than the given
// path.
func ModuleTree(name, expected string, sp *pypath.SearchPath) (modtree.Tree, error) {
	loc, ok, err := sp.Locate(name)
	if err != nil {
		return nil, &FailedImportError{Module: name, Err: err}
	}
	if !ok {
		return nil, &ModuleNotFoundError{Module: name}
	}
	if expected != "" && loc.ComparableOrigin() != expected {
		return nil, &UnexpectedLocationError{
			Module:   name,
			Expected: expected,
			Actual:   loc.ComparableOrigin(),
		}
	}
	if !loc.IsInspectable() {
		return nil, &ModuleNotInspectableError{Module: name}
	}
	tree, err := buildTree(loc, sp)
	if err != nil {
		return nil, &FailedImportError{Module: name, Err: err}
	}
	parts := strings.Split(name, ".")
	for i := len(parts) - 2; i >= 0; i-- {
		tree = modtree.NewPackage(parts[i], tree)
	}
	return tree, nil
}

// buildTree enumerates package contents. Extension and bytecode submodules
// stay in the tree as leaves: they count as modules but yield no
// inspectable classes.
func buildTree(loc pypath.Location, sp *pypath.SearchPath) (modtree.Tree, error) {
	if loc.Dir == "" {
		return modtree.NewModule(loc.Name), nil
	}
	subs, err := sp.Submodules(loc)
	if err != nil {
		return nil, err
	}
	children := make([]modtree.Tree, 0, len(subs))
	for _, sub := range subs {
		child, err := buildTree(sub, sp)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return modtree.NewPackage(loc.Name, children...), nil
}
