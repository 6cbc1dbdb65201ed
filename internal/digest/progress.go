package digest

// ProgressReporter provides callbacks for reporting run progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnParseStart is called before Rust units are parsed.
	OnParseStart(totalUnits int)

	// OnUnitParsed is called after each unit is parsed or skipped.
	OnUnitParsed(path string)

	// OnParseComplete is called once parsing ends, before any prompt is shown.
	OnParseComplete()
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryComplete(files int) {}
func (n *NoOpProgressReporter) OnParseStart(totalUnits int)   {}
func (n *NoOpProgressReporter) OnUnitParsed(path string)      {}
func (n *NoOpProgressReporter) OnParseComplete()              {}
