package history

import (
	"time"

	"github.com/google/uuid"

	"slotscan/internal/report"
)

const SchemaVersion = 1

// Snapshot is one recorded scan: the stats block plus message totals.
type Snapshot struct {
	ID                   string        `json:"id"`
	SchemaVersion        int           `json:"schema_version"`
	Timestamp            time.Time     `json:"timestamp"`
	CommitHash           string        `json:"commit_hash,omitempty"`
	Duration             time.Duration `json:"duration"`
	ModulesAll           int           `json:"modules_all"`
	ModulesChecked       int           `json:"modules_checked"`
	ModulesExcluded      int           `json:"modules_excluded"`
	ModulesSkipped       int           `json:"modules_skipped"`
	ClassesAll           int           `json:"classes_all"`
	ClassesWithSlots     int           `json:"classes_with_slots"`
	ClassesWithoutSlots  int           `json:"classes_without_slots"`
	ClassesNotApplicable int           `json:"classes_not_applicable"`
	Errors               int           `json:"errors"`
	Notes                int           `json:"notes"`
	Problems             bool          `json:"problems"`
}

func NewSnapshot(stats report.Stats, msgs []report.Message, elapsed time.Duration) Snapshot {
	s := Snapshot{
		ID:                   uuid.NewString(),
		SchemaVersion:        SchemaVersion,
		Timestamp:            time.Now().UTC(),
		Duration:             elapsed,
		ModulesAll:           stats.Modules.All,
		ModulesChecked:       stats.Modules.Checked,
		ModulesExcluded:      stats.Modules.Excluded,
		ModulesSkipped:       stats.Modules.Skipped,
		ClassesAll:           stats.Classes.All,
		ClassesWithSlots:     stats.Classes.HasSlots,
		ClassesWithoutSlots:  stats.Classes.NoSlots,
		ClassesNotApplicable: stats.Classes.NotApplicable,
		Problems:             report.AnyErrors(msgs),
	}
	for _, m := range msgs {
		if m.Error {
			s.Errors++
		} else {
			s.Notes++
		}
	}
	return s
}

type TrendPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	CommitHash     string    `json:"commit_hash,omitempty"`
	ModulesChecked int       `json:"modules_checked"`
	ClassesAll     int       `json:"classes_all"`
	Errors         int       `json:"errors"`
	Notes          int       `json:"notes"`
	Problems       bool      `json:"problems"`
	DeltaModules   int       `json:"delta_modules"`
	DeltaClasses   int       `json:"delta_classes"`
	DeltaErrors    int       `json:"delta_errors"`
	DeltaNotes     int       `json:"delta_notes"`
	AvgErrors      float64   `json:"avg_errors"`
	AvgDurationMS  float64   `json:"avg_duration_ms"`
	WindowHours    float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	ScanCount     int          `json:"scan_count"`
	Points        []TrendPoint `json:"points"`
}
