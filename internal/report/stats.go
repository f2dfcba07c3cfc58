package report

import "fmt"

// Stats is the verbose end-of-scan summary.
type Stats struct {
	Modules ModuleStats
	Classes ClassStats
}

// ModuleStats counts discovered modules. Checked is the post-filter tree
// size; Skipped counts the failed imports within it.
type ModuleStats struct {
	All      int
	Checked  int
	Excluded int
	Skipped  int
}

// ClassStats counts checked classes by slot status. NotApplicable counts
// classes the slot rules cannot apply to.
type ClassStats struct {
	All           int
	HasSlots      int
	NoSlots       int
	NotApplicable int
}

func (s Stats) String() string {
	return fmt.Sprintf(`stats:
  modules:     %d
    checked:   %d
    excluded:  %d
    skipped:   %d

  classes:     %d
    has slots: %d
    no slots:  %d
    n/a:       %d
`,
		s.Modules.All,
		s.Modules.Checked,
		s.Modules.Excluded,
		s.Modules.Skipped,
		s.Classes.All,
		s.Classes.HasSlots,
		s.Classes.NoSlots,
		s.Classes.NotApplicable,
	)
}
