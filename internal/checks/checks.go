// Package checks implements the slot rules: whether a class declares
// __slots__, whether its ancestry defeats slotness, and whether its own
// declaration overlaps an ancestor's or repeats a name.
package checks

// Class is the view of a class the rules need. The real implementation
// lives in the class registry; tests use small fakes.
type Class interface {
	// FullName is the module-qualified name, "pkg.mod:Outer.Inner".
	FullName() string
	// Bases returns the direct bases in declaration order.
	Bases() []Class
	// MRO returns the resolution order, the class itself first.
	MRO() []Class
	// OwnSlots returns the slot names the class itself declares and
	// whether a __slots__ binding exists at all. names is nil when the
	// declaration is present but its value is not statically known.
	OwnSlots() (names []string, declared bool)
	// IsSlottedBuiltin reports membership in the fixed allow-list of
	// builtin types that store attributes in slots.
	IsSlottedBuiltin() bool
	// IsException reports whether the class sits under BaseException.
	IsException() bool
	// IsPurePython reports whether the class comes from parsed source
	// rather than the builtin table or an uninspected extension.
	IsPurePython() bool
}

// Slots returns the names a class declares itself. Shapes are normalized
// before they get here: a single string declares one slot, sequences keep
// element order, a mapping declares its keys.
func Slots(c Class) (names []string, declared bool) {
	return c.OwnSlots()
}

// HasSlots reports whether instances of the class get by without a
// __dict__: an own declaration, a slotted builtin, or a non-exception
// class that is not pure Python. Exceptions always carry a __dict__.
func HasSlots(c Class) bool {
	if _, declared := c.OwnSlots(); declared {
		return true
	}
	if c.IsSlottedBuiltin() {
		return true
	}
	return !c.IsException() && !c.IsPurePython()
}

// HasSlotlessBase reports whether any direct base fails HasSlots. A single
// slotless base gives instances a __dict__ no matter what the class itself
// declares.
func HasSlotlessBase(c Class) bool {
	for _, b := range c.Bases() {
		if !HasSlots(b) {
			return true
		}
	}
	return false
}

// SlotlessBases returns the direct bases without slots, in base order.
func SlotlessBases(c Class) []Class {
	var out []Class
	for _, b := range c.Bases() {
		if !HasSlots(b) {
			out = append(out, b)
		}
	}
	return out
}

// Clash is one slot name also declared by an ancestor.
type Clash struct {
	Name     string
	Ancestor Class
}

// Overlaps returns every clash between the class's own slots and the own
// slots of its ancestors, ordered by ancestry, then by the class's own
// declaration order. A redeclared slot wastes memory and shadows the
// ancestor's descriptor.
func Overlaps(c Class) []Clash {
	own, _ := c.OwnSlots()
	if len(own) == 0 {
		return nil
	}
	names := uniqueNames(own)
	mro := c.MRO()
	if len(mro) > 0 {
		mro = mro[1:]
	}
	var out []Clash
	for _, ancestor := range mro {
		ancestorSlots, _ := ancestor.OwnSlots()
		if len(ancestorSlots) == 0 {
			continue
		}
		declared := make(map[string]bool, len(ancestorSlots))
		for _, n := range ancestorSlots {
			declared[n] = true
		}
		for _, n := range names {
			if declared[n] {
				out = append(out, Clash{Name: n, Ancestor: ancestor})
			}
		}
	}
	return out
}

// SlotsOverlap reports whether the class redeclares a slot an ancestor
// already has.
func SlotsOverlap(c Class) bool {
	return len(Overlaps(c)) > 0
}

// DuplicateSlotNames returns names repeated within the class's own
// declaration, each once, in first-occurrence order.
func DuplicateSlotNames(c Class) []string {
	own, _ := c.OwnSlots()
	counts := make(map[string]int, len(own))
	var out []string
	for _, n := range own {
		counts[n]++
		if counts[n] == 2 {
			out = append(out, n)
		}
	}
	return out
}

// HasDuplicateSlots reports whether the class's own declaration repeats a
// name.
func HasDuplicateSlots(c Class) bool {
	return len(DuplicateSlotNames(c)) > 0
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
