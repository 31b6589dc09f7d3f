// SPDX-License-Identifier: MPL-2.0

package snarl

import (
	"context"
	"log/slog"
)

// LevelTrace is the slog level used for per-line parser events.
const LevelTrace = slog.LevelDebug - 4

const (
	// EventLine is emitted for every line read, before it is interpreted.
	EventLine EventKind = iota
	// EventStateChange is emitted when the parser changes state.
	EventStateChange
	// EventBlockCreated is emitted when a new block is registered.
	EventBlockCreated
	// EventBlockAppended is emitted when an append directive reopens a block.
	EventBlockAppended
	// EventInclude is emitted before an included file is read.
	EventInclude
	// EventIncludeMissing is emitted when a missing include is tolerated.
	EventIncludeMissing
	// EventBlockExpanded is emitted when generation inlines a referenced block.
	EventBlockExpanded
	// EventTangleSkipped is emitted when an existing output file is kept.
	EventTangleSkipped
	// EventTangleWritten is emitted after an output file is written.
	EventTangleWritten
)

type (
	// EventKind identifies what an Event reports.
	EventKind int

	// Event describes one step of parsing, generation or tangling.
	Event struct {
		Kind  EventKind
		File  string
		Line  int
		Depth int
		Label string
		Path  string
		Text  string
		Err   error
	}

	// Observer receives events. Implementations must not retain the session.
	Observer interface {
		Observe(Event)
	}

	// ObserverFunc adapts a function to the Observer interface.
	ObserverFunc func(Event)

	logObserver struct {
		logger *slog.Logger
	}

	nopObserver struct{}

	multiObserver []Observer
)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

func (nopObserver) Observe(Event) {}

// Observers returns an Observer that passes each event to every non-nil
// observer in order.
func Observers(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nopObserver{}
	case 1:
		return m[0]
	}
	return m
}

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

// LogObserver reports events to logger.
func LogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return nopObserver{}
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) Observe(e Event) {
	ctx := context.Background()
	switch e.Kind {
	case EventLine:
		o.logger.Log(ctx, LevelTrace, "line", "file", e.File, "line", e.Line, "state", e.Text)
	case EventStateChange:
		o.logger.Debug("state change", "file", e.File, "line", e.Line, "transition", e.Text)
	case EventBlockCreated:
		o.logger.Debug("reading codeblock", "label", e.Label, "file", e.File, "line", e.Line)
	case EventBlockAppended:
		o.logger.Debug("appending to codeblock", "label", e.Label, "file", e.File, "line", e.Line)
	case EventInclude:
		o.logger.Info("including file", "path", e.Path, "depth", e.Depth)
	case EventIncludeMissing:
		o.logger.Error("ignoring missing include file", "path", e.Path, "file", e.File, "line", e.Line)
	case EventBlockExpanded:
		o.logger.Debug("including block", "label", e.Label)
	case EventTangleSkipped:
		o.logger.Error("refusing to overwrite existing file", "path", e.Path)
	case EventTangleWritten:
		o.logger.Info("writing file", "path", e.Path)
	}
}
