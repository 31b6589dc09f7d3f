// SPDX-License-Identifier: MPL-2.0

// Package logging builds the snarl CLI logger: a charmbracelet/log terminal
// handler fanned out to an optional JSON log file and the systemd journal.
package logging
