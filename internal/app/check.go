package app

import (
	"sort"

	"slotscan/internal/checks"
	"slotscan/internal/config"
	"slotscan/internal/pyclass"
	"slotscan/internal/report"
)

// CheckClasses filters classes by the configured patterns over their
// module:qualname, orders them by that name and emits every notice the
// rules produce. Per-class findings are always errors.
func CheckClasses(classes []*pyclass.Class, cfg config.Config) ([]report.Message, error) {
	exclude, err := compilePattern(cfg.ExcludeClasses, "exclude-classes")
	if err != nil {
		return nil, err
	}
	include, err := compilePattern(cfg.IncludeClasses, "include-classes")
	if err != nil {
		return nil, err
	}

	kept := make([]*pyclass.Class, 0, len(classes))
	for _, c := range classes {
		name := c.FullName()
		if exclude != nil && exclude.MatchString(name) {
			continue
		}
		if include != nil && !include.MatchString(name) {
			continue
		}
		kept = append(kept, c)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].FullName() < kept[j].FullName() })

	var msgs []report.Message
	for _, c := range kept {
		for _, n := range classNotices(c, cfg) {
			msgs = append(msgs, report.Message{Notice: n, Error: true})
		}
	}
	return msgs, nil
}

// classNotices runs the rules in report order: duplicates, overlap, then
// one of the two mutually exclusive inheritance checks.
func classNotices(c *pyclass.Class, cfg config.Config) []report.Notice {
	ref := classRef(c)
	var out []report.Notice
	if names := checks.DuplicateSlotNames(c); len(names) > 0 {
		out = append(out, report.DuplicateSlots{Class: ref, Names: names})
	}
	if clashes := checks.Overlaps(c); len(clashes) > 0 {
		out = append(out, report.OverlappingSlots{Class: ref, Clashes: slotClashes(clashes)})
	}
	switch {
	case cfg.RequireSuperclass && checks.HasSlots(c) && checks.HasSlotlessBase(c):
		out = append(out, report.BadSlotInheritance{Class: ref, Bases: classNames(checks.SlotlessBases(c))})
	case cfg.RequireSubclass && !checks.HasSlots(c) && !checks.HasSlotlessBase(c):
		out = append(out, report.ShouldHaveSlots{Class: ref})
	}
	return out
}

func classRef(c *pyclass.Class) report.ClassRef {
	return report.ClassRef{
		FullName: c.FullName(),
		File:     c.File(),
		Line:     c.Line(),
		Column:   c.Column(),
	}
}

func slotClashes(clashes []checks.Clash) []report.SlotClash {
	out := make([]report.SlotClash, len(clashes))
	for i, cl := range clashes {
		out[i] = report.SlotClash{Name: cl.Name, Ancestor: cl.Ancestor.FullName()}
	}
	return out
}

func classNames(cs []checks.Class) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.FullName()
	}
	return out
}
