package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/crate-digest/internal/digest"
)

// CLIProgressReporter implements progress reporting with progress bars.
type CLIProgressReporter struct {
	out       io.Writer
	parseBar  *progressbar.ProgressBar
	startTime time.Time
	parsed    int
}

// newProgressReporter returns a bar-drawing reporter, or a silent one when quiet.
func newProgressReporter(out io.Writer, quiet bool) digest.ProgressReporter {
	if quiet {
		return &digest.NoOpProgressReporter{}
	}
	return NewCLIProgressReporter(out)
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{
		out:       out,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	slog.Debug("Discovery complete", "files", files)
}

func (c *CLIProgressReporter) OnParseStart(totalUnits int) {
	c.parsed = 0
	if totalUnits == 0 {
		return
	}

	c.parseBar = progressbar.NewOptions(totalUnits,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Parsing Rust files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (c *CLIProgressReporter) OnUnitParsed(path string) {
	if c.parseBar != nil {
		c.parsed++
		c.parseBar.Add(1)
	}
}

// OnParseComplete clears the bar so the picker starts on a clean line.
func (c *CLIProgressReporter) OnParseComplete() {
	if c.parseBar != nil {
		c.parseBar.Finish()
		c.parseBar = nil
	}
	slog.Debug("Parsing complete", "units", c.parsed, "took", time.Since(c.startTime).Round(time.Millisecond))
}
