// SPDX-License-Identifier: MPL-2.0

// Package config handles snarl configuration using Viper.
//
// Configuration is read from config.cue or config.toml in the snarl config
// directory ($XDG_CONFIG_HOME/snarl on Linux, ~/Library/Application
// Support/snarl on macOS, %APPDATA%\snarl on Windows). Both formats are
// validated against the embedded CUE schema (config_schema.cue). SNARL_*
// environment variables override file values, and SNARL_OVERWRITE sets
// tangle.overwrite.
package config
