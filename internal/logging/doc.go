// Package logging assembles the slog loggers used by the clipwatch daemon and CLI.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag lines with the recording session and phase. Log
// files under the configured log directory are pruned by CleanupOldLogs.
package logging
