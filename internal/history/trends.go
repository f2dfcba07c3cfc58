package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns a time-ordered snapshot series into per-scan
// deltas plus moving averages over the given window.
func BuildTrendReport(snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:      current.Timestamp,
			CommitHash:     current.CommitHash,
			ModulesChecked: current.ModulesChecked,
			ClassesAll:     current.ClassesAll,
			Errors:         current.Errors,
			Notes:          current.Notes,
			Problems:       current.Problems,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaModules = current.ModulesChecked - prev.ModulesChecked
			point.DeltaClasses = current.ClassesAll - prev.ClassesAll
			point.DeltaErrors = current.Errors - prev.Errors
			point.DeltaNotes = current.Notes - prev.Notes
		}

		avgErrors, avgDuration := movingAverages(snapshots, i, window)
		point.AvgErrors = round2(avgErrors)
		point.AvgDurationMS = round2(avgDuration)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		ScanCount:     len(points),
		Points:        points,
	}, nil
}

func movingAverages(snapshots []Snapshot, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(snapshots[index].Errors), float64(snapshots[index].Duration.Milliseconds())
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	var errorsTotal int
	var durationTotal int64
	count := 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		errorsTotal += snapshots[i].Errors
		durationTotal += snapshots[i].Duration.Milliseconds()
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(errorsTotal) / float64(count), float64(durationTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
