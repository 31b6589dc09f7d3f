// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries remediation hints for CLI output, and the issue
// catalog holds longer Markdown explanations for each class of snarl failure,
// rendered with glamour.
package issue
