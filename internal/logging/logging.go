// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"

	"github.com/larsks/snarl/pkg/snarl"
)

const prefix = "snarl"

type (
	// Options selects the logger's destinations.
	Options struct {
		// Level is the minimum level for every destination.
		Level slog.Level
		// Stderr receives human-readable output. Nil disables it.
		Stderr io.Writer
		// File appends JSON records to the named file when set.
		File string
		// Journal also sends records to the systemd journal.
		Journal bool
	}

	// Logger is a configured slog.Logger with the resources it holds open.
	Logger struct {
		*slog.Logger
		closers []io.Closer
	}
)

// New builds a Logger from opts. A journal that cannot be reached is
// reported on the terminal handler and skipped.
func New(opts Options) (*Logger, error) {
	var (
		handlers []slog.Handler
		closers  []io.Closer
		terminal slog.Handler
	)

	if opts.Stderr != nil {
		terminal = log.NewWithOptions(opts.Stderr, log.Options{
			Prefix: prefix,
			Level:  log.Level(opts.Level),
		})
		handlers = append(handlers, terminal)
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, f)
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level:       opts.Level,
			ReplaceAttr: replaceLevel,
		}))
	}

	if opts.Journal {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		switch {
		case err != nil && terminal != nil:
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
			record.Add("error", err)
			_ = terminal.Handle(context.Background(), record)
		case err == nil:
			handlers = append(handlers, slogmulti.Router().
				Add(journal, atLeast(opts.Level)).
				Handler())
		}
	}

	return &Logger{
		Logger:  slog.New(slogmulti.Fanout(handlers...)),
		closers: closers,
	}, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	return firstErr
}

// Level resolves the effective level from the configured level and the
// number of -v flags: one means info, two debug, three or more trace.
func Level(configured slog.Level, verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return configured
	case verbosity == 1:
		return min(configured, slog.LevelInfo)
	case verbosity == 2:
		return min(configured, slog.LevelDebug)
	default:
		return snarl.LevelTrace
	}
}

func atLeast(level slog.Level) func(context.Context, slog.Record) bool {
	return func(_ context.Context, r slog.Record) bool {
		return r.Level >= level
	}
}

// replaceLevel names the trace level in JSON output instead of "DEBUG-4".
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl < slog.LevelDebug {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}
