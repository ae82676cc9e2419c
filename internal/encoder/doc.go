// Package encoder owns the long-running ffmpeg process that writes a recording.
//
// Launcher resolves the ffmpeg executable, builds the capture argument list from
// configuration, and starts the process with its output drained into a bounded
// diagnostics ring. Process.Stop asks ffmpeg to finish the container cleanly by
// writing "q" to stdin and falls back to killing it after the graceful timeout.
package encoder
