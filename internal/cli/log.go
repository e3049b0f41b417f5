// Package cli implements the haview command-line interface.
//
// The interactive viewer ("haview view") draws the main diagram, the
// overview and the configuration editor in the terminal. The other commands
// expose the same pipeline for scripting: fetching the graph, computing
// layouts, mapping overview coordinates and rendering SVG.
//
// # Commands
//
//   - view: interactive viewer
//   - graph, parse: print the topology graph as JSON, YAML or a table
//   - layout, map, render: run the layout engines
//   - pull, push: read and store the configuration text
//   - config, cache: manage local settings and the layout cache
//
// # Logging
//
// Logs go to stderr so command output can be piped; --verbose (-v) enables
// debug level. While the viewer owns the terminal, logs are appended to
// haview.log in the cache directory instead.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the command-line logger. Lines start with an
// "HH:MM:SS.cc" timestamp.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a step of a command took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with the elapsed time in milliseconds, plus
// any extra key/value pairs.
func (p *progress) done(msg string, keyvals ...any) {
	took := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg, append([]any{"took", took}, keyvals...)...)
}

type loggerKey struct{}

// withLogger attaches l to ctx for code that only sees the command context.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
