// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/larsks/snarl/pkg/snarl"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	LogLevelError LogLevel = "error"
	LogLevelWarn  LogLevel = "warn"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
	LogLevelTrace LogLevel = "trace"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")

	logLevels = []LogLevel{LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug, LogLevelTrace}
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// LogLevel names the minimum severity written to the log.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// Config is the snarl configuration.
	Config struct {
		// IgnoreMissing turns missing include files into logged warnings.
		IgnoreMissing bool `json:"ignore_missing" mapstructure:"ignore_missing" toml:"ignore_missing"`
		// Tangle holds defaults for the tangle command.
		Tangle TangleConfig `json:"tangle" mapstructure:"tangle" toml:"tangle"`
		// Log configures diagnostics.
		Log LogConfig `json:"log" mapstructure:"log" toml:"log"`
		// UI contains user interface settings.
		UI UIConfig `json:"ui" mapstructure:"ui" toml:"ui"`

		// Source is the file the configuration was read from, empty for
		// defaults.
		Source string `json:"-" mapstructure:"-" toml:"-"`
	}

	// TangleConfig holds defaults for the tangle command.
	TangleConfig struct {
		// OutputDir is the directory generated files are written below.
		OutputDir string `json:"output_dir" mapstructure:"output_dir" toml:"output_dir"`
		// Overwrite replaces existing files instead of skipping them.
		Overwrite bool `json:"overwrite" mapstructure:"overwrite" toml:"overwrite"`
	}

	// LogConfig configures diagnostics.
	LogConfig struct {
		// Level is the minimum level shown on the terminal when no -v flag is given.
		Level LogLevel `json:"level" mapstructure:"level" toml:"level"`
		// File, when set, receives a JSON copy of every record.
		File string `json:"file" mapstructure:"file" toml:"file"`
		// Journal sends records to the systemd journal as well.
		Journal bool `json:"journal" mapstructure:"journal" toml:"journal"`
	}

	// UIConfig contains user interface settings.
	UIConfig struct {
		// ColorScheme sets the color scheme ("auto", "dark", "light").
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme"`
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme so callers can use errors.Is for programmatic detection.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate returns nil if the ColorScheme is one of the defined schemes,
// or an error wrapping ErrInvalidColorScheme if it is not.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// GlamourStyle returns the glamour style name for the scheme.
func (c ColorScheme) GlamourStyle() string {
	switch c {
	case ColorSchemeDark, ColorSchemeLight:
		return string(c)
	default:
		return "auto"
	}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: %s)", e.Value, strings.Join(levelNames(), ", "))
}

func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate returns nil if the LogLevel is known.
func (l LogLevel) Validate() error {
	if slices.Contains(logLevels, l) {
		return nil
	}
	return &InvalidLogLevelError{Value: l}
}

// Slog returns the slog level for l. Unknown values map to warn.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelTrace:
		return snarl.LevelTrace
	default:
		return slog.LevelWarn
	}
}

func levelNames() []string {
	out := make([]string, len(logLevels))
	for i, l := range logLevels {
		out[i] = string(l)
	}
	return out
}

// Validate checks the enumerated fields of the configuration.
func (c *Config) Validate() error {
	return errors.Join(c.UI.ColorScheme.Validate(), c.Log.Level.Validate())
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		IgnoreMissing: false,
		Tangle: TangleConfig{
			OutputDir: ".",
			Overwrite: false,
		},
		Log: LogConfig{
			Level: LogLevelWarn,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
