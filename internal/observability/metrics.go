package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"slotscan/internal/report"
)

// Metrics definitions
var (
	ScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotscan_scans_total",
		Help: "Total number of scans run.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slotscan_scan_seconds",
		Help:    "Time spent on a full scan.",
		Buckets: prometheus.DefBuckets,
	})

	ModulesChecked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotscan_modules_checked",
		Help: "Modules checked by the most recent scan.",
	})

	ClassesChecked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotscan_classes_checked",
		Help: "Classes inspected by the most recent scan.",
	})

	NoticesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotscan_notices_total",
		Help: "Total notices produced, by kind.",
	}, []string{"kind"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotscan_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// RecordScan updates the scan metrics from one finished scan.
func RecordScan(elapsed time.Duration, msgs []report.Message, stats report.Stats) {
	ScansTotal.Inc()
	ScanDuration.Observe(elapsed.Seconds())
	ModulesChecked.Set(float64(stats.Modules.Checked))
	ClassesChecked.Set(float64(stats.Classes.All))
	for _, m := range msgs {
		NoticesTotal.WithLabelValues(noticeKind(m.Notice)).Inc()
	}
}

func noticeKind(n report.Notice) string {
	switch n.(type) {
	case report.ModuleSkipped:
		return "import_failure"
	case report.OverlappingSlots:
		return "overlap"
	case report.BadSlotInheritance:
		return "bad_inheritance"
	case report.ShouldHaveSlots:
		return "should_have_slots"
	case report.DuplicateSlots:
		return "duplicate_slots"
	}
	return "other"
}
