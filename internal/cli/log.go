// Package cli implements the taintview command-line interface.
//
// Commands read a trace (a file path, a URL understood by the loader, or "-"
// for stdin), fold it into a taint graph and then lay out, render, browse,
// serve or persist that graph. Options come from the TOML config file and are
// overridden by flags.
//
// # Commands
//
//   - build: ingest a trace and export or save the graph
//   - layout: compute node positions with a layout strategy
//   - render: produce SVG, PNG, DOT or layout JSON
//   - resolve: map a node to its instruction address and calls
//   - nodes: browse the taint table interactively
//   - watch: rebuild whenever the trace grows
//   - serve: expose the graph over HTTP
//   - store, config, cache: manage snapshots, settings and cached results
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// also attached to the command context with log.WithContext.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch logs how long a step took once it finishes.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) stopwatch {
	return stopwatch{logger: l, start: time.Now()}
}

func (s stopwatch) lap(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...), "took", time.Since(s.start).Round(time.Millisecond))
}
