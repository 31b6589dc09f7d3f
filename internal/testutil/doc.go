// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that fail the test on
// error instead of returning it: environment variables (MustSetenv,
// MustUnsetenv), files on disk (MustWriteFile) and afero fixtures (MemFs,
// MustReadFile).
package testutil
