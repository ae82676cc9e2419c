// Package highlights cuts short clips around detection timestamps and
// concatenates them into a single highlight file.
//
// Both steps shell out to ffmpeg through the Executor interface: trims are
// stream copies of the finished recording, the merge re-encodes through the
// concat demuxer. Failures of individual trims are logged and skipped so one bad
// timestamp never costs the rest of the session.
package highlights
