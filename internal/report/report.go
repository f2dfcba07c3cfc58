// Package report renders scan findings: the notice texts, their ERROR/NOTE
// presentation, the verbose stats block, and the SARIF export.
package report

import (
	"fmt"
	"strings"
)

// ClassRef identifies one class in a finding. FullName is module:QualName;
// File, Line and Column point at the class statement.
type ClassRef struct {
	FullName string
	File     string
	Line     int
	Column   int
}

// SlotClash is one overlapping slot name and the ancestor already defining
// it.
type SlotClash struct {
	Name     string
	Ancestor string
}

// Notice is a single finding. Display renders it without a severity prefix;
// verbose adds the detail lines.
type Notice interface {
	Display(verbose bool) string
}

// ModuleSkipped reports a module that could not be loaded for checking.
type ModuleSkipped struct {
	Module string
	Err    error
}

func (n ModuleSkipped) Display(verbose bool) string {
	s := fmt.Sprintf("Failed to import '%s'.", n.Module)
	if verbose && n.Err != nil {
		s += fmt.Sprintf("\nDue to %v", n.Err)
	}
	return s
}

// OverlappingSlots reports slot names a class re-declares on top of an
// ancestor. Clashes are ordered by MRO position, then by the class's own
// declaration order.
type OverlappingSlots struct {
	Class   ClassRef
	Clashes []SlotClash
}

func (n OverlappingSlots) Display(verbose bool) string {
	s := fmt.Sprintf("'%s' defines overlapping slots.", n.Class.FullName)
	if verbose && len(n.Clashes) > 0 {
		lines := make([]string, len(n.Clashes))
		for i, c := range n.Clashes {
			lines[i] = fmt.Sprintf("%s (%s)", c.Name, c.Ancestor)
		}
		s += "\n" + bulletList(lines)
	}
	return s
}

// BadSlotInheritance reports a slotted class with slotless direct bases,
// listed in base-list order.
type BadSlotInheritance struct {
	Class ClassRef
	Bases []string
}

func (n BadSlotInheritance) Display(verbose bool) string {
	s := fmt.Sprintf("'%s' has slots but superclass does not.", n.Class.FullName)
	if verbose && len(n.Bases) > 0 {
		s += "\n" + bulletList(n.Bases)
	}
	return s
}

// ShouldHaveSlots reports a slotless class whose superclasses all carry
// slots.
type ShouldHaveSlots struct {
	Class ClassRef
}

func (n ShouldHaveSlots) Display(bool) string {
	return fmt.Sprintf("'%s' has no slots but superclass does.", n.Class.FullName)
}

// DuplicateSlots reports names repeated within one __slots__ declaration,
// in first-occurrence order.
type DuplicateSlots struct {
	Class ClassRef
	Names []string
}

func (n DuplicateSlots) Display(verbose bool) string {
	s := fmt.Sprintf("'%s' has duplicate slots.", n.Class.FullName)
	if verbose && len(n.Names) > 0 {
		s += "\n" + bulletList(n.Names)
	}
	return s
}

// Message pairs a notice with its severity.
type Message struct {
	Notice Notice
	Error  bool
}

const (
	errorPrefix = "ERROR: "
	notePrefix  = "NOTE:  "
)

// Display renders the message with its severity prefix; continuation lines
// hang indented past the prefix.
func (m Message) Display(verbose bool) string {
	prefix := notePrefix
	if m.Error {
		prefix = errorPrefix
	}
	body := m.Notice.Display(verbose)
	return prefix + strings.ReplaceAll(body, "\n", "\n"+strings.Repeat(" ", len(prefix)))
}

// AnyErrors reports whether any message carries error severity.
func AnyErrors(msgs []Message) bool {
	for _, m := range msgs {
		if m.Error {
			return true
		}
	}
	return false
}

func bulletList(items []string) string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = "- " + item
	}
	return strings.Join(out, "\n")
}
